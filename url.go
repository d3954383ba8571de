package spider

import (
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Normalize resolves href against base and returns the canonical absolute URL.
// The bool result is false when href cannot become a crawlable URL: empty
// strings, non-HTTP schemes (mailto:, javascript:, data:, ...), unparseable
// references, or relative references against a malformed base.
//
// Canonical form: lowercase scheme and host, punycode for international
// hosts, no default port, "/" for an empty path, no dot segments and no
// fragment. Percent-escapes are normalized: escaped unreserved characters
// are decoded and the hex digits of other escapes are uppercased. The
// query is otherwise kept as is.
func Normalize(base, href string) (string, bool) {
	var b *url.URL
	if u, err := url.Parse(strings.TrimSpace(base)); err == nil && isCrawlable(u) {
		b = u
	}
	return ResolveReference(b, href)
}

// ResolveReference is like Normalize but takes an already parsed base.
// A nil base only resolves absolute references.
func ResolveReference(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	var resolved *url.URL
	if ref.IsAbs() {
		// Resolving against an empty URL only cleans the path.
		resolved = (&url.URL{}).ResolveReference(ref)
	} else {
		if base == nil || !isCrawlable(base) {
			return "", false
		}
		resolved = base.ResolveReference(ref)
	}

	if !canonicalize(resolved) {
		return "", false
	}
	return resolved.String(), true
}

// Canonicalize returns the canonical form of an absolute URL.
// Unlike Normalize it reports why the URL was rejected, which makes it
// suitable for validating seeds.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	if !u.IsAbs() {
		return "", Errorf(EINVALID, "URL %q is not absolute", raw)
	}
	s, ok := ResolveReference(nil, raw)
	if !ok {
		return "", Errorf(EINVALID, "URL %q is not a crawlable http(s) address", raw)
	}
	return s, nil
}

func isCrawlable(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != "" && u.Opaque == ""
}

// canonicalize rewrites u in place and reports whether it is crawlable.
func canonicalize(u *url.URL) bool {
	if !isCrawlable(u) {
		return false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false

	host, port := u.Hostname(), u.Port()
	host = strings.ToLower(host)
	if !isASCII(host) {
		ascii, err := idna.Punycode.ToASCII(host)
		if err != nil {
			return false
		}
		host = ascii
	}
	if host == "" {
		return false
	}
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		// IPv6 literal
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	if !normalizePath(u) {
		return false
	}
	u.RawQuery = normalizeEscapes(u.RawQuery)
	return true
}

// normalizePath rewrites percent-escapes in the path of u and removes dot
// segments that decoding may have revealed.
func normalizePath(u *url.URL) bool {
	escaped := normalizeEscapes(u.EscapedPath())
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return false
	}
	cleaned := (&url.URL{}).ResolveReference(&url.URL{Path: path, RawPath: escaped})
	u.Path, u.RawPath = cleaned.Path, cleaned.RawPath
	return true
}

// normalizeEscapes decodes percent-escaped unreserved characters and
// uppercases the hex digits of the remaining escapes (RFC 3986 6.2.2).
// Malformed escapes are left as they are.
func normalizeEscapes(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			b.WriteByte(s[i])
			continue
		}
		c := unhex(s[i+1])<<4 | unhex(s[i+2])
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteString(strings.ToUpper(s[i+1 : i+3]))
		}
		i += 2
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
