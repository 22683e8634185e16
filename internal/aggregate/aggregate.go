package aggregate

import (
	"net/url"
	"strings"

	"github.com/probeworks/bizscout/internal/search"
)

// Dedupe canonicalizes result URLs, trims obvious tracking parameters, and
// drops URLs already present in seen. The seen set spans the whole run so a
// URL surfaced by two topics is fetched at most once.
func Dedupe(results []search.Result, seen map[string]struct{}) []search.Result {
	out := make([]search.Result, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		u, err := url.Parse(r.URL)
		if err != nil {
			// Keep it: the processor records the invalid-URL failure.
			out = append(out, r)
			continue
		}
		normalizeURL(u)
		key := u.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		r.URL = key
		out = append(out, r)
	}
	return out
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	// Remove common tracking params
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
