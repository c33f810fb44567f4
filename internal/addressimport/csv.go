package addressimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/newsletter-engine/internal/pkg/logger"
)

// Column keyword sets for header detection, checked in order. Name and
// email are mandatory; the rest default to empty when absent.
var (
	nameKeywords    = []string{"name"}
	emailKeywords   = []string{"email", "e-mail"}
	cityKeywords    = []string{"city", "town"}
	postalKeywords  = []string{"postal", "zip"}
	countryKeywords = []string{"country"}
)

// ParseCSV reads a CSV export with a header row. Columns are detected by
// fuzzy header match, so "Email Address", "E-Mail" and "email" all bind to
// the email column. Rows shorter than the detected columns fail (or are
// skipped with ignoreErrors).
func ParseCSV(r io.Reader, ignoreErrors bool) ([]Address, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	nameCol := findColumn(header, nameKeywords)
	emailCol := findColumn(header, emailKeywords)
	if nameCol < 0 || emailCol < 0 {
		return nil, fmt.Errorf("csv header must contain name and email columns, got %v", header)
	}
	cityCol := findColumn(header, cityKeywords)
	postalCol := findColumn(header, postalKeywords)
	countryCol := findColumn(header, countryKeywords)
	logger.Debug("csv columns detected",
		"name", nameCol, "email", emailCol,
		"city", cityCol, "postal_code", postalCol, "country", countryCol)

	list := NewAddressList(ignoreErrors)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			if ignoreErrors {
				continue
			}
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if emailCol >= len(record) || nameCol >= len(record) {
			if ignoreErrors {
				continue
			}
			return nil, fmt.Errorf("csv line %d has %d fields", line, len(record))
		}

		addr := Address{
			Name:       record[nameCol],
			Email:      record[emailCol],
			City:       fieldAt(record, cityCol),
			PostalCode: fieldAt(record, postalCol),
			Country:    fieldAt(record, countryCol),
		}
		if err := list.Add(addr); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
	}

	return list.Addresses(), nil
}

// findColumn returns the index of the first header cell containing any of
// the keywords, case-insensitively, or -1.
func findColumn(header []string, keywords []string) int {
	for i, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}

func fieldAt(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
