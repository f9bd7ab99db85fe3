package importer

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// HeaderIndex maps normalized (lower-cased, cleaned) header names to their
// column position in the file.
type HeaderIndex map[string]int

// MakeHeaderIndex normalizes raw headers exactly once. All later lookups go
// through the index, so case and stray quoting never matter again.
func MakeHeaderIndex(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(CleanCell(h))] = i
	}
	return idx
}

// ValidateHeaders checks that every target column is present in the header
// row, case-insensitively. Extra columns are allowed and ignored. A missing
// column aborts the whole import with a FormatError.
func ValidateHeaders(headers []string, t Target) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)

	var missing []string
	for _, spec := range t.Columns {
		if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
			missing = append(missing, spec.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &FormatError{Missing: missing}
	}
	return idx, nil
}

// parseCSV reads the whole file into records. FieldsPerRecord is disabled
// because exported files routinely carry ragged trailing columns, and
// LazyQuotes tolerates the bare quotes Excel likes to emit.
func parseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// CleanCell strips the noise spreadsheet tools wrap around values:
// whitespace, surrounding quotes, and Excel's ="..." text guard.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) > 3 {
		s = s[2 : len(s)-1]
	}
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// stripBOM removes the UTF-8 byte order mark Windows tools prepend.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// sanitizeUTF8 replaces invalid UTF-8 sequences so the CSV reader and later
// JSON encoding never choke on a half-broken export.
func sanitizeUTF8(data []byte) []byte {
	return bytes.ToValidUTF8(data, []byte("?"))
}

// rowValues extracts one data row into cleaned values keyed by the target's
// canonical field names. Cells past the end of a short row come back empty.
func rowValues(t Target, idx HeaderIndex, record []string) map[string]string {
	values := make(map[string]string, len(t.Columns))
	for _, spec := range t.Columns {
		pos, ok := idx[strings.ToLower(spec.Name)]
		if !ok || pos >= len(record) {
			values[spec.Name] = ""
			continue
		}
		values[spec.Name] = CleanCell(record[pos])
	}
	return values
}
