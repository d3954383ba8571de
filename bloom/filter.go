// Package bloom provides approximate URL set membership using Bloom filters.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is an approximate set of URLs with bounded memory.
// It is not safe for concurrent use.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records url and reports whether it was new. A false result may be a
// false positive; a true result never is.
func (f *Filter) Add(url string) bool {
	return !f.f.TestAndAddString(url)
}

// Test returns true if the URL might have been added.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// Count returns the approximate number of distinct URLs added.
func (f *Filter) Count() uint {
	return uint(f.f.ApproximatedSize())
}
