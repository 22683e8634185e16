package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/probeworks/bizscout/internal/entities"
	"github.com/probeworks/bizscout/internal/pipeline"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"AI in healthcare":                  "AI_in_healthcare",
		"Natural Language Processing":       "Natural_Language_Processing",
		"file with!@#$%^&*()special chars":  "file_with__________special_chars",
		"another_file-with_dashes":          "another_file_with_dashes",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestHumanSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	if err := os.WriteFile(path, make([]byte, 500), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := HumanSize(path); got != "500 B" {
		t.Fatalf("expected 500 B, got %q", got)
	}

	if err := os.WriteFile(path, make([]byte, 1500), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := HumanSize(path); got != "1.46 KB" {
		t.Fatalf("expected 1.46 KB, got %q", got)
	}

	if err := os.WriteFile(path, make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := HumanSize(path); got != "2.00 MB" {
		t.Fatalf("expected 2.00 MB, got %q", got)
	}

	if got := HumanSize(filepath.Join(dir, "missing.txt")); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
}

func sampleRecords() []pipeline.ScrapeRecord {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []pipeline.ScrapeRecord{
		{
			Topic:     "t1",
			Title:     "First",
			URL:       "https://a.example.com/1",
			Domain:    "a.example.com",
			Snippet:   "hello",
			Content:   "hello world",
			ScrapedAt: at,
			Entities:  []entities.Entity{{Text: "Acme", Label: "ORG"}},
			Keywords:  []string{},
		},
		{
			Topic:     "t1",
			Title:     "Second, with \"quotes\"",
			URL:       "https://b.example.com/2",
			Domain:    "b.example.com",
			Snippet:   "multi\nline",
			Content:   "multi\nline content",
			ScrapedAt: at,
			Entities:  []entities.Entity{},
			Keywords:  []string{},
		},
	}
}

func TestWriteTopicCSV_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTopicCSV(dir, "AI in healthcare", sampleRecords())
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	if filepath.Base(path) != "AI_in_healthcare.csv" {
		t.Fatalf("unexpected file name: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "topic" || rows[0][6] != "scraped_at" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][6] != "2026-03-14T09:30:00Z" {
		t.Fatalf("expected RFC3339 UTC timestamp, got %q", rows[1][6])
	}
	var ents []entities.Entity
	if err := json.Unmarshal([]byte(rows[1][7]), &ents); err != nil || len(ents) != 1 {
		t.Fatalf("entities cell must hold JSON, got %q (%v)", rows[1][7], err)
	}
	if !strings.Contains(rows[2][5], "multi\nline") {
		t.Fatalf("newlines in content must survive CSV quoting, got %q", rows[2][5])
	}
}

func TestWriteFailures(t *testing.T) {
	dir := t.TempDir()
	failures := []pipeline.FailureRecord{
		{Topic: "t1", URL: "https://x.example.com/1", Reason: "timeout"},
		{Topic: "t1", URL: "", Reason: "search: rate limited"},
	}
	path, err := WriteFailures(dir, "t1", failures)
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "https://x.example.com/1\t") {
		t.Fatalf("unexpected line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "(topic) ") {
		t.Fatalf("topic-level failure should be marked, got %q", lines[1])
	}
}

func TestWriteMergedJSON_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteMergedJSON(dir, sampleRecords())
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []pipeline.ScrapeRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(got) != 2 || got[0].Domain != "a.example.com" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestWriteDomainStats_SortedBySuccesses(t *testing.T) {
	dir := t.TempDir()
	stats := []pipeline.DomainStats{
		{Domain: "a.example.com", Successes: 1, Failures: 0},
		{Domain: "b.example.com", Successes: 5, Failures: 2},
		{Domain: "c.example.com", Successes: 1, Failures: 9},
	}
	path, err := WriteDomainStats(dir, stats)
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if rows[1][0] != "b.example.com" {
		t.Fatalf("expected most successful domain first, got %v", rows[1])
	}
	if rows[2][0] != "a.example.com" || rows[3][0] != "c.example.com" {
		t.Fatalf("ties must break by name, got %v / %v", rows[2], rows[3])
	}
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	stats := []pipeline.DomainStats{{Domain: "a.example.com", Successes: 1, Failures: 0}}
	path, err := WriteWorkbook(dir, sampleRecords(), stats)
	if err != nil {
		t.Fatalf("write error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Records", "C2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://a.example.com/1" {
		t.Fatalf("unexpected cell value: %q", got)
	}
	got, err = f.GetCellValue("Domains", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a.example.com" {
		t.Fatalf("unexpected domains cell: %q", got)
	}
}
