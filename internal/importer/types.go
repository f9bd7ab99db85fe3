package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Disposition classifies a single uploaded row.
type Disposition int

const (
	// Ready rows passed every check and carry a normalized record.
	Ready Disposition = iota
	// Duplicate rows collide with an existing record or an earlier ready
	// row in the same file.
	Duplicate
	// Invalid rows failed a reference or field check.
	Invalid
)

// String returns the lowercase name used in JSON and CSV output.
func (d Disposition) String() string {
	switch d {
	case Ready:
		return "ready"
	case Duplicate:
		return "duplicate"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// MarshalJSON encodes the disposition as its string name.
func (d Disposition) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Record is a normalized row ready for persistence, keyed by canonical
// field name. Values are typed: string, time.Time, or float64.
type Record map[string]any

// ValidatedRow is the fate of one uploaded data row.
type ValidatedRow struct {
	// Line is the 1-based line number in the file; the header is line 1,
	// so the first data row is line 2.
	Line int `json:"line"`
	// Values holds the raw uploaded cells, cleaned, keyed by the target's
	// canonical field names.
	Values map[string]string `json:"values"`
	// Disposition is the classification outcome.
	Disposition Disposition `json:"disposition"`
	// Reason explains a Duplicate or Invalid disposition. Empty for Ready.
	Reason string `json:"reason,omitempty"`
	// Record is the normalized record. Nil unless Disposition == Ready.
	Record Record `json:"record,omitempty"`
}

// Plan is the ordered outcome of one pipeline run over one file.
// Every data row in the file appears exactly once, in file order.
type Plan struct {
	Target string         `json:"target"`
	Rows   []ValidatedRow `json:"rows"`
}

// PlanCounts summarizes a plan by disposition.
type PlanCounts struct {
	Total     int `json:"total"`
	Ready     int `json:"ready"`
	Duplicate int `json:"duplicate"`
	Invalid   int `json:"invalid"`
}

// Counts tallies the plan's rows by disposition.
func (p *Plan) Counts() PlanCounts {
	c := PlanCounts{Total: len(p.Rows)}
	for _, row := range p.Rows {
		switch row.Disposition {
		case Ready:
			c.Ready++
		case Duplicate:
			c.Duplicate++
		case Invalid:
			c.Invalid++
		}
	}
	return c
}

// Ready returns the rows that will be written on commit, in file order.
func (p *Plan) Ready() []ValidatedRow {
	out := make([]ValidatedRow, 0, len(p.Rows))
	for _, row := range p.Rows {
		if row.Disposition == Ready {
			out = append(out, row)
		}
	}
	return out
}

// References is the snapshot of existing data the pipeline validates
// against. The caller loads it before invoking BuildPlan; the pipeline
// never fetches or mutates it.
type References struct {
	// ExistingKeys holds the natural keys already persisted for the
	// target, lower-cased, composite parts joined with "|".
	ExistingKeys map[string]struct{}
	// Agents maps lower-cased agent names to their canonical form.
	Agents map[string]string
	// Shops maps lower-cased shop IDs to their canonical form.
	Shops map[string]string
}

// Resolve looks up a raw reference value against the snapshot and returns
// its canonical form.
func (r References) Resolve(kind RefKind, raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch kind {
	case RefAgent:
		canon, ok := r.Agents[key]
		return canon, ok
	case RefShop:
		canon, ok := r.Shops[key]
		return canon, ok
	default:
		return raw, true
	}
}

// ErrEmptyFile reports an upload with no content.
var ErrEmptyFile = errors.New("empty file: the uploaded file has no data")

// FormatError reports a header that is missing required columns. The whole
// run aborts before any data row is examined.
type FormatError struct {
	Missing []string
}

func (e *FormatError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseError reports content that is not valid CSV.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "invalid csv: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DateOnly is the canonical output format for normalized dates.
const DateOnly = "2006-01-02"

// FormatValue renders a normalized record value for display and export.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(DateOnly)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", v)
	}
}
