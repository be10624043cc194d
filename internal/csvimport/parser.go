// Package csvimport reads CSV uploads into raw header-keyed rows.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned for input without a header record
var ErrNoHeader = errors.New("csv has no header row")

const bom = "\uFEFF"

// Row maps header names to the values of one record
type Row = map[string]string

// Parse reads r as CSV. The first record names the columns; later records
// shorter than the header leave the missing columns absent.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, bom)
		}
		header[i] = strings.TrimSpace(name)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		if blank(record) {
			continue
		}

		row := make(Row, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			// unnamed columns carry nothing a field can claim
			if header[i] == "" {
				continue
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
