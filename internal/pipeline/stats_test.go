package pipeline

import (
	"fmt"
	"sync"
	"testing"
)

func TestStatsTracker_RecordAndSnapshot(t *testing.T) {
	tr := NewStatsTracker()
	tr.Record("b.example.com", true)
	tr.Record("a.example.com", false)
	tr.Record("b.example.com", false)

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(snap))
	}
	if snap[0].Domain != "a.example.com" || snap[1].Domain != "b.example.com" {
		t.Fatalf("snapshot must be sorted by domain, got %v", snap)
	}
	if snap[1].Successes != 1 || snap[1].Failures != 1 {
		t.Fatalf("unexpected counters: %+v", snap[1])
	}
	if tr.Total() != 3 {
		t.Fatalf("expected total 3, got %d", tr.Total())
	}
}

func TestStatsTracker_IgnoresEmptyDomain(t *testing.T) {
	tr := NewStatsTracker()
	tr.Record("", true)
	if tr.Total() != 0 {
		t.Fatalf("empty domain must not be recorded")
	}
}

func TestStatsTracker_ConcurrentIncrements(t *testing.T) {
	tr := NewStatsTracker()
	const goroutines = 16
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				domain := fmt.Sprintf("host%d.example.com", i%7)
				tr.Record(domain, i%2 == 0)
			}
		}(g)
	}
	wg.Wait()

	if got := tr.Total(); got != goroutines*perGoroutine {
		t.Fatalf("expected %d outcomes, got %d", goroutines*perGoroutine, got)
	}
}
