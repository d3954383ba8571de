package spider

import "regexp"

// StateKind is the visit state of a URL in the frontier.
type StateKind int

// Visit states. Every canonical URL is in exactly one of them.
const (
	NotVisited StateKind = iota
	Dispatched
	Visited
	Failed
)

// String returns the lowercase name of the state.
func (k StateKind) String() string {
	switch k {
	case NotVisited:
		return "not_visited"
	case Dispatched:
		return "dispatched"
	case Visited:
		return "visited"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStateKind is the inverse of StateKind.String.
func ParseStateKind(s string) (StateKind, error) {
	for k := NotVisited; k <= Failed; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, Errorf(EINVALID, "unknown state %q", s)
}

// URLState is the state of a single frontier entry.
type URLState struct {
	Kind StateKind

	// Attempts counts how many times the URL has been dispatched.
	Attempts int

	// Reason holds the last failure, if any. It is kept after a
	// successful retry for diagnostics.
	Reason *Failure
}

// FrontierEntry is a snapshot of one frontier entry.
type FrontierEntry struct {
	URL   string
	State URLState
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}

// CompileURLFilter builds a URLFilter from include and exclude pattern strings.
// It returns nil when both lists are empty.
func CompileURLFilter(include, exclude []string) (*URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	f := &URLFilter{}
	for _, pattern := range include {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", pattern, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", pattern, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}
