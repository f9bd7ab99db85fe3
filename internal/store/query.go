package store

import (
	"fmt"
	"strings"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// WhereBuilder accumulates WHERE conditions with positional args.
// Conditions with empty values are skipped, so callers can chain
// optional filters without checking each one first.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder creates an empty builder. Positional args start at $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $N" when value is non-empty.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddImportID filters on the import_id column.
func (wb *WhereBuilder) AddImportID(id string) {
	wb.Add("import_id", id)
}

// AddTimestampRange bounds column between from and to, inclusive.
// Either bound may be empty.
func (wb *WhereBuilder) AddTimestampRange(column, from, to string) {
	if from != "" {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s >= $%d", column, wb.argIndex))
		wb.args = append(wb.args, from)
		wb.argIndex++
	}
	if to != "" {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s <= $%d", column, wb.argIndex))
		wb.args = append(wb.args, to)
		wb.argIndex++
	}
}

// AddSearch ORs an ILIKE over every text column of the given specs.
// A single wildcard-wrapped arg is shared by all columns.
func (wb *WhereBuilder) AddSearch(query string, specs []importer.FieldSpec) {
	if query == "" {
		return
	}

	var parts []string
	for _, spec := range specs {
		if spec.Type != importer.FieldText {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(spec.Column()), wb.argIndex))
	}
	if len(parts) == 0 {
		return
	}

	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+query+"%")
	wb.argIndex++
}

// Build returns the assembled clause (" WHERE ..." with a leading
// space, or empty) and the collected args.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex returns the next positional parameter number, for
// callers appending LIMIT/OFFSET after Build.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Default paging bounds for listing queries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ListOptions carries the common listing query parameters.
type ListOptions struct {
	Search  string
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}

// normalize clamps paging values into range.
func (o ListOptions) normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = DefaultPageSize
	}
	if o.PerPage > MaxPageSize {
		o.PerPage = MaxPageSize
	}
	return o
}

// window converts the normalized page into LIMIT/OFFSET values.
func (o ListOptions) window() (limit, offset int) {
	return o.PerPage, (o.Page - 1) * o.PerPage
}

// orderClause validates the requested sort column against the allowed
// set and returns a safe ORDER BY fragment. Unknown columns fall back
// to the default; direction is asc unless desc is asked for.
func orderClause(sortBy, sortDir, defaultColumn string, allowed map[string]string) string {
	col, ok := allowed[sortBy]
	if !ok {
		col = defaultColumn
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", quoteIdentifier(col), dir)
}
