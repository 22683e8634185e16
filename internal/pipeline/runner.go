package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/probeworks/bizscout/internal/search"
)

// DefaultLimit caps how many search results one topic processes.
const DefaultLimit = 10

// DefaultWorkers is a conservative pool size: parallel enough to hide
// network latency, small enough to stay polite toward third-party hosts.
const DefaultWorkers = 5

// TopicResult is the partitioned outcome of one topic's run.
type TopicResult struct {
	Topic    string
	Records  []ScrapeRecord
	Failures []FailureRecord
}

// Runner drives the processor over all results of one query with a bounded
// worker pool. Output order follows discovery order regardless of which
// worker finished first.
type Runner struct {
	Processor *Processor
	// Limit caps results per topic. Zero means DefaultLimit.
	Limit int
	// Workers bounds the pool. Zero means DefaultWorkers.
	Workers int
}

// Run processes at most Limit results for the topic. A topic that yields zero
// records is not an error: the caller still receives the full failure log.
func (r *Runner) Run(ctx context.Context, topic string, results []search.Result) TopicResult {
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(results) {
		workers = len(results)
	}

	outcomes := make([]Outcome, len(results))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					outcomes[i] = Outcome{Failure: &FailureRecord{Topic: topic, URL: results[i].URL, Reason: "canceled"}}
					continue
				}
				outcomes[i] = r.Processor.Process(ctx, topic, results[i])
			}
		}()
	}
	for i := range results {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := TopicResult{Topic: topic}
	for _, o := range outcomes {
		switch {
		case o.Record != nil:
			out.Records = append(out.Records, *o.Record)
		case o.Failure != nil:
			out.Failures = append(out.Failures, *o.Failure)
		}
	}
	log.Info().Str("topic", topic).
		Int("records", len(out.Records)).
		Int("failures", len(out.Failures)).
		Msg("topic processed")
	return out
}
