package crawl

import (
	"fmt"
	"strings"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSummary renders a one-line summary of a crawl result.
func FormatSummary(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Visited %d pages (%s)", r.Visited, FormatBytes(r.Bytes))
	fmt.Fprintf(&b, ", %d discovered", r.Discovered)
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", r.Failed)
	}
	if r.Retries > 0 {
		fmt.Fprintf(&b, ", %d retries", r.Retries)
	}
	if r.Dropped > 0 {
		fmt.Fprintf(&b, ", ~%d dropped", r.Dropped)
	}
	if r.SaveErrors > 0 {
		fmt.Fprintf(&b, ", %d not saved", r.SaveErrors)
	}
	if r.Canceled {
		b.WriteString(" (canceled)")
	}
	return b.String()
}
