// Package sitematch
package sitematch

import "strings"

// Normalize canonicalizes a free-form domain or URL string for comparison:
// lower-case, strip the scheme, strip one trailing slash, strip a leading
// "www.". It is pure and total; Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimPrefix(s, "www.")
	return s
}

// Matches reports whether a result URL belongs to an already-normalized
// tracked site. The substring policy is intentional: a tracked root domain
// must match deeper paths and subdomains within the same registrable domain.
// An empty tracked site never matches anything.
func Matches(trackedNorm, resultURL string) bool {
	if trackedNorm == "" {
		return false
	}
	return strings.Contains(Normalize(resultURL), trackedNorm)
}
