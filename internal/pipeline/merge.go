package pipeline

// RunResult is the unified dataset for a whole run.
type RunResult struct {
	Records       []ScrapeRecord
	Failures      []FailureRecord
	DomainSummary []DomainStats
}

// Merge concatenates per-topic outputs preserving topic-then-discovery order
// and attaches the final domain summary from the tracker. Pure combination,
// no additional failure modes.
func Merge(topics []TopicResult, stats *StatsTracker) RunResult {
	out := RunResult{}
	for _, t := range topics {
		out.Records = append(out.Records, t.Records...)
		out.Failures = append(out.Failures, t.Failures...)
	}
	out.DomainSummary = stats.Snapshot()
	return out
}
