package crawl

import "time"

// DefaultMaxRetries is the number of times a failed URL is re-dispatched
// before it is permanently excluded.
const DefaultMaxRetries = 2

// DefaultRetryDelays returns the backoff delays between re-dispatches: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryPolicy bounds how often and how soon a failed URL is dispatched again.
// The bound is what guarantees that a crawl over a finite link graph
// terminates even when some pages never succeed.
type RetryPolicy struct {
	// MaxRetries is the number of re-dispatches after the first attempt.
	// Zero disables retries.
	MaxRetries int

	// Delays holds the wait before each retry. The last delay is reused
	// when there are more retries than delays. Empty means no wait.
	Delays []time.Duration
}

// DefaultRetryPolicy returns a policy with DefaultMaxRetries and DefaultRetryDelays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		Delays:     DefaultRetryDelays(),
	}
}

// ShouldRetry reports whether a URL dispatched attempts times may be dispatched again.
func (p RetryPolicy) ShouldRetry(attempts int) bool {
	return attempts <= p.MaxRetries
}

// Delay returns the wait before the given retry (0 for the first retry).
func (p RetryPolicy) Delay(retry int) time.Duration {
	if len(p.Delays) == 0 || retry < 0 {
		return 0
	}
	if retry >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[retry]
}
