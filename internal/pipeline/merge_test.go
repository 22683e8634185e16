package pipeline

import (
	"testing"
)

func TestMerge_ConcatenatesInTopicOrder(t *testing.T) {
	stats := NewStatsTracker()
	stats.Record("a.example.com", true)
	stats.Record("b.example.com", false)

	topics := []TopicResult{
		{
			Topic:    "t1",
			Records:  []ScrapeRecord{{Topic: "t1", URL: "https://a.example.com/1"}},
			Failures: []FailureRecord{{Topic: "t1", URL: "https://b.example.com/2", Reason: "timeout"}},
		},
		{
			Topic:   "t2",
			Records: []ScrapeRecord{{Topic: "t2", URL: "https://a.example.com/3"}},
		},
	}

	got := Merge(topics, stats)
	if len(got.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got.Records))
	}
	if got.Records[0].Topic != "t1" || got.Records[1].Topic != "t2" {
		t.Fatalf("topic order not preserved: %v", got.Records)
	}
	if len(got.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(got.Failures))
	}
	if len(got.DomainSummary) != 2 || got.DomainSummary[0].Domain != "a.example.com" {
		t.Fatalf("unexpected domain summary: %v", got.DomainSummary)
	}
}
