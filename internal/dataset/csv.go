package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spboyer/llmscale/internal/models"
)

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// LoadCSV reads a CSV file and returns rows as maps of column to value.
// The first row is treated as headers (column names).
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// LoadObservationsCSV reads a benchmark,model,score table. Column order is
// free; extra columns are ignored. Rows with an empty score are skipped.
func LoadObservationsCSV(path string) ([]models.Observation, error) {
	rows, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		for _, col := range []string{"benchmark", "model", "score"} {
			if _, ok := rows[0][col]; !ok {
				return nil, fmt.Errorf("csv: %s is missing required column %q", path, col)
			}
		}
	}

	obs := make([]models.Observation, 0, len(rows))
	for i, row := range rows {
		raw := strings.TrimSpace(row["score"])
		if raw == "" {
			continue
		}
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: invalid score %q: %w", i+2, raw, err)
		}
		obs = append(obs, models.Observation{
			Benchmark: strings.TrimSpace(row["benchmark"]),
			Model:     strings.TrimSpace(row["model"]),
			Score:     score,
		})
	}
	return obs, nil
}
