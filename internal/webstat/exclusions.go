package webstat

import "strings"

// Exclusions is a list of request path patterns that are not recorded.
// A pattern starting with "*" matches by suffix ("*.js"), one ending with
// "*" matches by prefix ("/static/*"), anything else must match exactly.
type Exclusions struct {
	exact    map[string]struct{}
	prefixes []string
	suffixes []string
}

// NewExclusions compiles patterns. Blank patterns are ignored.
func NewExclusions(patterns ...string) *Exclusions {
	e := &Exclusions{exact: make(map[string]struct{})}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "*":
			e.prefixes = append(e.prefixes, "")
		case strings.HasPrefix(p, "*"):
			e.suffixes = append(e.suffixes, p[1:])
		case strings.HasSuffix(p, "*"):
			e.prefixes = append(e.prefixes, p[:len(p)-1])
		default:
			e.exact[p] = struct{}{}
		}
	}
	return e
}

// Match reports whether path is excluded. A nil Exclusions excludes nothing.
func (e *Exclusions) Match(path string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.exact[path]; ok {
		return true
	}
	for _, p := range e.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range e.suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
