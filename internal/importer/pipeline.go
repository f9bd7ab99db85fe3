package importer

import (
	"bytes"
	"fmt"
	"strings"
)

// BuildPlan parses CSV data and classifies every data row against the
// reference snapshot. It performs no I/O: the caller loads refs, and the
// returned plan is a pure function of (target, refs, data).
//
// The plan lists every data row in file order. Rows are never dropped;
// a row that cannot be imported is returned with its disposition and
// reason instead.
func BuildPlan(t Target, refs References, data []byte) (*Plan, error) {
	data = sanitizeUTF8(stripBOM(data))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	records, err := parseCSV(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	idx, err := ValidateHeaders(records[0], t)
	if err != nil {
		return nil, err
	}

	dataRows := records[1:]
	plan := &Plan{
		Target: t.Key,
		Rows:   make([]ValidatedRow, 0, len(dataRows)),
	}

	// Track keys of rows already accepted from this file so a second
	// occurrence classifies as a duplicate of the first.
	seen := make(map[string]int) // natural key -> line of first ready row

	for i, rec := range dataRows {
		lineNum := i + 2 // 1-indexed, after header
		values := rowValues(t, idx, rec)
		row := classifyRow(t, refs, seen, lineNum, values)
		if row.Disposition == Ready {
			seen[t.NaturalKey(values)] = lineNum
		}
		plan.Rows = append(plan.Rows, row)
	}

	return plan, nil
}

// classifyRow decides one row's disposition. Checks run in a fixed
// order and the first failure wins: existing-key duplicate, in-file
// duplicate, unresolved references, then per-field validation. A row
// that survives all checks comes back Ready with its normalized record.
func classifyRow(t Target, refs References, seen map[string]int, lineNum int, values map[string]string) ValidatedRow {
	row := ValidatedRow{Line: lineNum, Values: values}

	key := t.NaturalKey(values)
	if _, exists := refs.ExistingKeys[key]; exists {
		row.Disposition = Duplicate
		row.Reason = duplicateReason(t, values)
		return row
	}
	if first, ok := seen[key]; ok {
		row.Disposition = Duplicate
		row.Reason = fmt.Sprintf("duplicate of row %d in this file", first)
		return row
	}

	resolved := make(map[string]string)
	for _, spec := range t.Columns {
		if spec.Reference == RefNone {
			continue
		}
		raw := strings.TrimSpace(values[spec.Name])
		if raw == "" {
			continue // presence is checked with the other field rules
		}
		canonical, ok := refs.Resolve(spec.Reference, raw)
		if !ok {
			row.Disposition = Invalid
			row.Reason = fmt.Sprintf("%s %q does not match any existing %s",
				spec.Name, raw, refKindName(spec.Reference))
			return row
		}
		resolved[spec.Name] = canonical
	}

	record := make(Record, len(t.Columns))
	for _, spec := range t.Columns {
		v, err := normalizeField(values[spec.Name], spec)
		if err != nil {
			row.Disposition = Invalid
			row.Reason = err.Error()
			return row
		}
		if canonical, ok := resolved[spec.Name]; ok {
			v = canonical
		}
		record[spec.Column()] = v
	}

	row.Disposition = Ready
	row.Record = record
	return row
}

// duplicateReason names the conflicting key. Single-field keys read
// "shopId \"S-1001\" already exists"; composite keys list the fields
// and their values.
func duplicateReason(t Target, values map[string]string) string {
	if len(t.KeyFields) == 1 {
		field := t.KeyFields[0]
		return fmt.Sprintf("%s %q already exists", field, values[field])
	}
	return fmt.Sprintf("%s (%s) already exists",
		strings.Join(t.KeyFields, "+"), t.KeyDisplay(values))
}
