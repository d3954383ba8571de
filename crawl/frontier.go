package crawl

import (
	"sort"
	"time"

	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/bloom"
)

// Overflow accounting for URLs rejected because the frontier is full.
const (
	overflowFalsePositiveRate = 0.01
	// overflowMinCapacity keeps count estimates accurate for small caps.
	overflowMinCapacity = 1024
)

// Frontier is the authoritative table of known URLs and their visit state.
// Keys are always canonical, so textual variants of one URL share an entry.
// Selection is FIFO over NotVisited entries.
//
// Frontier is not safe for concurrent use. It is owned by the Crawler's
// coordinator loop; workers only report outcomes.
type Frontier struct {
	entries map[string]*spider.URLState
	ready   []string
	delayed []delayedURL
	counts  [spider.Failed + 1]int

	maxURLs  int
	retry    RetryPolicy
	overflow *bloom.Filter
}

// delayedURL is a NotVisited entry waiting for its retry delay.
type delayedURL struct {
	url string
	at  time.Time
}

// NewFrontier creates an empty Frontier.
// A positive maxURLs caps the number of entries; further discoveries are
// dropped and only counted (see Overflow).
func NewFrontier(maxURLs int, retry RetryPolicy) *Frontier {
	f := &Frontier{
		entries: make(map[string]*spider.URLState),
		maxURLs: maxURLs,
		retry:   retry,
	}
	if maxURLs > 0 {
		f.overflow = bloom.NewFilter(uint(max(maxURLs, overflowMinCapacity)), overflowFalsePositiveRate)
	}
	return f
}

// Add inserts rawURL as NotVisited.
// Returns false if the URL is not crawlable, is already known, or the
// frontier is full.
func (f *Frontier) Add(rawURL string) bool {
	key, err := spider.Canonicalize(rawURL)
	if err != nil {
		return false
	}
	if _, ok := f.entries[key]; ok {
		return false
	}
	if f.maxURLs > 0 && len(f.entries) >= f.maxURLs {
		f.overflow.Add(key)
		return false
	}

	f.entries[key] = &spider.URLState{Kind: spider.NotVisited}
	f.counts[spider.NotVisited]++
	f.ready = append(f.ready, key)
	return true
}

// Next selects up to n URLs that are eligible at now and marks them Dispatched.
// It returns nil when nothing is eligible.
func (f *Frontier) Next(n int, now time.Time) []string {
	f.promote(now)
	if n > len(f.ready) {
		n = len(f.ready)
	}
	if n <= 0 {
		return nil
	}

	batch := make([]string, n)
	copy(batch, f.ready[:n])
	f.ready = f.ready[n:]
	if len(f.ready) == 0 {
		f.ready = nil
	}

	for _, u := range batch {
		st := f.entries[u]
		f.transition(st, spider.Dispatched)
		st.Attempts++
	}
	return batch
}

// promote moves delayed entries whose retry time has come to the ready queue.
func (f *Frontier) promote(now time.Time) {
	if len(f.delayed) == 0 {
		return
	}
	waiting := f.delayed[:0]
	for _, d := range f.delayed {
		if d.at.After(now) {
			waiting = append(waiting, d)
			continue
		}
		f.ready = append(f.ready, d.url)
	}
	f.delayed = waiting
}

// Requeue returns dispatched URLs that never reached a worker to the front
// of the ready queue and takes back the attempt Next counted for them.
func (f *Frontier) Requeue(urls []string) {
	var requeued []string
	for _, u := range urls {
		st, ok := f.entries[u]
		if !ok || st.Kind != spider.Dispatched {
			continue
		}
		f.transition(st, spider.NotVisited)
		st.Attempts--
		requeued = append(requeued, u)
	}
	f.ready = append(requeued, f.ready...)
}

// Visit marks a dispatched URL as Visited.
// Returns false if the URL was not in the Dispatched state.
func (f *Frontier) Visit(url string) bool {
	st, ok := f.entries[url]
	if !ok || st.Kind != spider.Dispatched {
		return false
	}
	f.transition(st, spider.Visited)
	return true
}

// Fail records a failed attempt for a dispatched URL. While the retry policy
// allows it the URL goes back to NotVisited, eligible again after the retry
// delay, and Fail returns true. Otherwise the URL is permanently Failed.
func (f *Frontier) Fail(failure *spider.Failure, now time.Time) (retrying bool) {
	st, ok := f.entries[failure.URL]
	if !ok || st.Kind != spider.Dispatched {
		return false
	}
	st.Reason = failure

	if !f.retry.ShouldRetry(st.Attempts) {
		f.transition(st, spider.Failed)
		return false
	}

	f.transition(st, spider.NotVisited)
	delay := f.retry.Delay(st.Attempts - 1)
	if delay <= 0 {
		f.ready = append(f.ready, failure.URL)
	} else {
		f.delayed = append(f.delayed, delayedURL{url: failure.URL, at: now.Add(delay)})
	}
	return true
}

// NextRetry returns the earliest time a delayed URL becomes eligible.
// The bool result is false if no URL is waiting for a retry.
func (f *Frontier) NextRetry() (time.Time, bool) {
	if len(f.delayed) == 0 {
		return time.Time{}, false
	}
	earliest := f.delayed[0].at
	for _, d := range f.delayed[1:] {
		if d.at.Before(earliest) {
			earliest = d.at
		}
	}
	return earliest, true
}

// State returns the state of a URL.
// The bool result is false if the URL is unknown.
func (f *Frontier) State(rawURL string) (spider.URLState, bool) {
	key, err := spider.Canonicalize(rawURL)
	if err != nil {
		key = rawURL
	}
	st, ok := f.entries[key]
	if !ok {
		return spider.URLState{}, false
	}
	return *st, true
}

// Len returns the number of known URLs in any state.
func (f *Frontier) Len() int { return len(f.entries) }

// Pending returns the number of NotVisited URLs, including those waiting for a retry.
func (f *Frontier) Pending() int { return f.counts[spider.NotVisited] }

// InFlight returns the number of Dispatched URLs.
func (f *Frontier) InFlight() int { return f.counts[spider.Dispatched] }

// Visited returns the number of Visited URLs.
func (f *Frontier) Visited() int { return f.counts[spider.Visited] }

// Failed returns the number of permanently Failed URLs.
func (f *Frontier) Failed() int { return f.counts[spider.Failed] }

// Done reports whether the frontier is exhausted: nothing is left to
// dispatch, nothing is in flight and no URL is waiting for a retry.
func (f *Frontier) Done() bool {
	return f.Pending() == 0 && f.InFlight() == 0
}

// Overflow returns the approximate number of distinct URLs dropped
// because the frontier was full.
func (f *Frontier) Overflow() uint {
	if f.overflow == nil {
		return 0
	}
	return f.overflow.Count()
}

// Entries returns a snapshot of all entries sorted by URL.
func (f *Frontier) Entries() []spider.FrontierEntry {
	entries := make([]spider.FrontierEntry, 0, len(f.entries))
	for u, st := range f.entries {
		entries = append(entries, spider.FrontierEntry{URL: u, State: *st})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].URL < entries[j].URL
	})
	return entries
}

func (f *Frontier) transition(st *spider.URLState, to spider.StateKind) {
	f.counts[st.Kind]--
	f.counts[to]++
	st.Kind = to
}
