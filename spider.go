// Package spider provides a concurrent, rate-limited web crawler.
// Starting from a seed URL it fetches pages, extracts their title, text and
// outbound links, and expands a frontier of canonical URLs to visit without
// ever visiting the same page twice.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, http/).
package spider
