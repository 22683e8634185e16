package blacklist

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Filter holds the set of domains excluded from fetching. Membership tests
// are case-insensitive exact matches on the registrable domain.
type Filter struct {
	domains map[string]struct{}
}

// New builds a Filter from the given domains.
func New(domains ...string) *Filter {
	f := &Filter{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			f.domains[d] = struct{}{}
		}
	}
	return f
}

// Load reads a blacklist file with one domain per line. Blank lines and lines
// starting with '#' are skipped. A missing file yields an empty filter rather
// than an error; a file that is not valid UTF-8 is a configuration error.
func Load(path string) (*Filter, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read blacklist: %w", err)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("blacklist %s: not valid UTF-8", path)
	}
	f := New()
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f.domains[line] = struct{}{}
	}
	return f, nil
}

// IsBlocked reports whether the domain is on the blacklist.
func (f *Filter) IsBlocked(domain string) bool {
	if f == nil || len(f.domains) == 0 {
		return false
	}
	_, ok := f.domains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// Len returns the number of blacklisted domains.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.domains)
}
