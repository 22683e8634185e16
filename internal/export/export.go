package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/probeworks/bizscout/internal/pipeline"
)

// File names for the run-wide outputs.
const (
	MergedCSVName   = "_all_queries_merged.csv"
	MergedJSONName  = "_all_queries_merged.json"
	MergedXLSXName  = "_all_queries_merged.xlsx"
	DomainStatsName = "_domain_stats_summary.csv"
)

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeFilename replaces any character that is not alphanumeric or an
// underscore with an underscore, making a topic safe to use as a file name.
func SanitizeFilename(name string) string {
	return reUnsafe.ReplaceAllString(name, "_")
}

// HumanSize formats a file's size as B/KB/MB for log lines. Missing files
// report "N/A".
func HumanSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "N/A"
	}
	size := info.Size()
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
	}
}

var csvHeader = []string{"topic", "title", "url", "domain", "snippet", "content", "scraped_at", "entities", "keywords"}

func recordRow(r pipeline.ScrapeRecord) ([]string, error) {
	ents, err := json.Marshal(r.Entities)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}
	kws, err := json.Marshal(r.Keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	return []string{
		r.Topic,
		r.Title,
		r.URL,
		r.Domain,
		r.Snippet,
		r.Content,
		r.ScrapedAt.UTC().Format(time.RFC3339),
		string(ents),
		string(kws),
	}, nil
}

func writeRecordsCSV(path string, records []pipeline.ScrapeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row, err := recordRow(r)
		if err != nil {
			return err
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteTopicCSV writes one topic's records to <sanitized topic>.csv and
// returns the path.
func WriteTopicCSV(dir, topic string, records []pipeline.ScrapeRecord) (string, error) {
	path := filepath.Join(dir, SanitizeFilename(topic)+".csv")
	return path, writeRecordsCSV(path, records)
}

// WriteFailures writes one topic's failed URLs and reasons to
// <sanitized topic>_failed.txt, one per line.
func WriteFailures(dir, topic string, failures []pipeline.FailureRecord) (string, error) {
	path := filepath.Join(dir, SanitizeFilename(topic)+"_failed.txt")
	var b strings.Builder
	for _, f := range failures {
		if f.URL == "" {
			fmt.Fprintf(&b, "(topic) %s\n", f.Reason)
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\n", f.URL, f.Reason)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteMergedCSV writes all records across topics to a single CSV.
func WriteMergedCSV(dir string, records []pipeline.ScrapeRecord) (string, error) {
	path := filepath.Join(dir, MergedCSVName)
	return path, writeRecordsCSV(path, records)
}

// WriteMergedJSON writes all records across topics as a JSON array.
func WriteMergedJSON(dir string, records []pipeline.ScrapeRecord) (string, error) {
	path := filepath.Join(dir, MergedJSONName)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return path, fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteDomainStats writes the per-domain summary, most successful domains
// first, ties broken by name.
func WriteDomainStats(dir string, stats []pipeline.DomainStats) (string, error) {
	path := filepath.Join(dir, DomainStatsName)
	ordered := make([]pipeline.DomainStats, len(stats))
	copy(ordered, stats)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Successes != ordered[j].Successes {
			return ordered[i].Successes > ordered[j].Successes
		}
		return ordered[i].Domain < ordered[j].Domain
	})

	f, err := os.Create(path)
	if err != nil {
		return path, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"domain", "successes", "failures"}); err != nil {
		return path, err
	}
	for _, s := range ordered {
		if err := w.Write([]string{s.Domain, fmt.Sprint(s.Successes), fmt.Sprint(s.Failures)}); err != nil {
			return path, err
		}
	}
	w.Flush()
	return path, w.Error()
}
