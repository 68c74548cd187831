// Package roster parses the CSV rosters attached to diploma batch
// submissions. A roster has a single header row followed by one data row per
// diploma recipient.
package roster

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pohualizcalli/academy-admin/internal/domain"
)

// Summary describes a parsed roster.
type Summary struct {
	Header       []string
	TotalRecords int
}

// Parse reads a roster and counts its data rows. Rows whose cells are all
// empty do not count as records. Malformed CSV input is a validation error so
// callers can surface it to the uploader instead of failing the batch later.
func Parse(r io.Reader) (Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Summary{}, fmt.Errorf("%w: roster is empty", domain.ErrValidation)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("%w: malformed roster header: %v", domain.ErrValidation, err)
	}
	if blankRow(header) {
		return Summary{}, fmt.Errorf("%w: roster header is empty", domain.ErrValidation)
	}

	summary := Summary{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("%w: malformed roster row: %v", domain.ErrValidation, err)
		}
		if blankRow(record) {
			continue
		}
		summary.TotalRecords++
	}
	return summary, nil
}

// ParseBytes is a convenience wrapper for callers that already hold the full
// upload in memory.
func ParseBytes(data []byte) (Summary, error) {
	return Parse(bytes.NewReader(data))
}

func blankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
