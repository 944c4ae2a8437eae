package batch

// csv.go parses uploaded CSV content into Rows.
//
// The parser is deliberately forgiving about CSV mechanics (ragged rows,
// lazy quotes, Excel artifacts) and strict about the upload contract:
// content must be UTF-8, the header must include name and address, and the
// row count is capped.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Required CSV columns. Phone is optional.
var requiredHeaders = []string{"name", "address"}

var (
	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("empty file uploaded")

	// ErrNotUTF8 is returned when the upload cannot be decoded as UTF-8.
	ErrNotUTF8 = errors.New("could not decode file as UTF-8")

	// ErrMissingHeaders is returned when the header row lacks required columns.
	ErrMissingHeaders = errors.New("csv must include headers: name,address (phone optional)")

	// ErrTooManyRows is returned when the upload exceeds the row cap.
	ErrTooManyRows = errors.New("csv exceeds maximum allowed rows")
)

// ParseUpload reads CSV content and returns one Row per data line.
//
// Header names are lowercased and trimmed so lookups are case-insensitive;
// cell values are cleaned of whitespace and common Excel artifacts. A
// header-only file yields an empty (valid) row slice. maxRows caps the
// number of data rows, not including the header.
func ParseUpload(r io.Reader, maxRows int) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	// Excel exports often lead with a UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrMissingHeaders
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(cleanCell(h))
	}

	if err := checkRequiredHeaders(header); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(rows) >= maxRows {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyRows, maxRows)
		}

		fields := make(map[string]string, len(header))
		for j, col := range header {
			if col == "" {
				continue
			}
			if j < len(record) {
				fields[col] = cleanCell(record[j])
			} else {
				fields[col] = ""
			}
		}

		rows = append(rows, Row{Line: i + 1, Fields: fields})
	}

	return rows, nil
}

// checkRequiredHeaders verifies name and address are present.
func checkRequiredHeaders(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	for _, req := range requiredHeaders {
		if !present[req] {
			return ErrMissingHeaders
		}
	}
	return nil
}

// cleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="..."), and
// surrounding quote characters.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
