package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nfarrant/metricflow/internal/tabular"
)

// ReadCSV reads a CSV file into a tabular batch.
//
// The first record is the header row and defines the column set. Every
// following record becomes one row, with cells typed by parse:
//
//   - RFC3339 / RFC3339Nano → time.Time
//   - integer literal → int64
//   - float literal → float64
//   - empty cell → nil (dropped from labels during conversion)
//   - anything else → string
//
// Parameters:
//   - path: Path to the CSV file
//
// Returns:
//   - *tabular.Batch: The parsed batch
//   - error: ErrReadFailed for file/parse problems, or a tabular error
//     when the records do not form a valid batch
func ReadCSV(path string) (*tabular.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrReadFailed, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", ErrReadFailed, path)
	}

	header := records[0]
	rows := make([]tabular.Row, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(tabular.Row, len(header))
		for i, col := range header {
			row[col] = parseCell(record[i])
		}
		rows = append(rows, row)
	}

	return tabular.NewBatch(rows)
}

// parseCell converts a raw CSV cell into its most specific Go type.
func parseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, cell); err == nil {
		return ts
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
