package spider

import "fmt"

// FailureKind classifies why a URL could not be crawled.
type FailureKind int

// Failure kinds.
const (
	// NetworkError covers transport errors, timeouts and non-2xx responses.
	NetworkError FailureKind = iota
	// ParseError covers pages that could not be turned into a ParsedPage.
	ParseError
	// RateLimited means a rate limiter token never became available,
	// usually because the crawl was canceled while waiting.
	RateLimited
)

// String returns the lowercase name of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case NetworkError:
		return "network_error"
	case ParseError:
		return "parse_error"
	case RateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// ParseFailureKind is the inverse of FailureKind.String.
func ParseFailureKind(s string) (FailureKind, error) {
	for k := NetworkError; k <= RateLimited; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, Errorf(EINVALID, "unknown failure kind %q", s)
}

// Code maps the failure kind to an application error code.
func (k FailureKind) Code() string {
	switch k {
	case NetworkError:
		return ENETWORK
	case ParseError:
		return EPARSE
	case RateLimited:
		return ERATELIMIT
	default:
		return EINTERNAL
	}
}

// Failure describes a failed attempt to fetch and parse a URL.
type Failure struct {
	URL  string
	Kind FailureKind
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.URL, f.Err)
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// FetchOutcome is the result of processing one URL.
// Exactly one of Page and Failure is set.
type FetchOutcome struct {
	URL     string
	Page    *ParsedPage
	Failure *Failure
}

// OK reports whether the outcome carries a parsed page.
func (o FetchOutcome) OK() bool {
	return o.Failure == nil && o.Page != nil
}

// Success returns a successful outcome for the dispatched url.
func Success(url string, page *ParsedPage) FetchOutcome {
	return FetchOutcome{URL: url, Page: page}
}

// FailedOutcome returns a failed outcome for url.
func FailedOutcome(url string, kind FailureKind, err error) FetchOutcome {
	return FetchOutcome{
		URL:     url,
		Failure: &Failure{URL: url, Kind: kind, Err: err},
	}
}
