package pipeline

import (
	"sort"
	"sync"
)

// StatsTracker accumulates success/failure counters keyed by domain. One
// tracker lives for exactly one run; workers record into it concurrently.
type StatsTracker struct {
	mu     sync.Mutex
	counts map[string]*DomainStats
}

func NewStatsTracker() *StatsTracker {
	return &StatsTracker{counts: make(map[string]*DomainStats)}
}

// Record increments the success or failure counter for the domain, creating
// the entry if absent.
func (t *StatsTracker) Record(domain string, success bool) {
	if t == nil || domain == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.counts[domain]
	if !ok {
		s = &DomainStats{Domain: domain}
		t.counts[domain] = s
	}
	if success {
		s.Successes++
	} else {
		s.Failures++
	}
}

// Snapshot returns the current stats sorted by domain name for determinism.
func (t *StatsTracker) Snapshot() []DomainStats {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DomainStats, 0, len(t.counts))
	for _, s := range t.counts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Total returns the number of outcomes recorded so far.
func (t *StatsTracker) Total() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.counts {
		n += s.Successes + s.Failures
	}
	return n
}
