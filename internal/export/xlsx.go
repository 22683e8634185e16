package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/probeworks/bizscout/internal/pipeline"
)

// WriteWorkbook writes the merged dataset as an XLSX workbook with a Records
// sheet and a Domains sheet, for consumers who load results straight into a
// spreadsheet instead of the dashboard.
func WriteWorkbook(dir string, records []pipeline.ScrapeRecord, stats []pipeline.DomainStats) (string, error) {
	path := filepath.Join(dir, MergedXLSXName)

	f := excelize.NewFile()
	defer f.Close()

	const recordsSheet = "Records"
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return path, err
	}
	header := []any{"topic", "title", "url", "domain", "snippet", "scraped_at", "entities"}
	if err := setRow(f, recordsSheet, 1, header); err != nil {
		return path, err
	}
	for i, r := range records {
		ents, err := json.Marshal(r.Entities)
		if err != nil {
			return path, fmt.Errorf("marshal entities: %w", err)
		}
		row := []any{r.Topic, r.Title, r.URL, r.Domain, r.Snippet, r.ScrapedAt.UTC().Format(time.RFC3339), string(ents)}
		if err := setRow(f, recordsSheet, i+2, row); err != nil {
			return path, err
		}
	}

	const domainsSheet = "Domains"
	if _, err := f.NewSheet(domainsSheet); err != nil {
		return path, err
	}
	if err := setRow(f, domainsSheet, 1, []any{"domain", "successes", "failures"}); err != nil {
		return path, err
	}
	for i, s := range stats {
		if err := setRow(f, domainsSheet, i+2, []any{s.Domain, s.Successes, s.Failures}); err != nil {
			return path, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return path, fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
