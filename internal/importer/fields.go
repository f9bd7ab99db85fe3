package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType describes how a column's values are validated and normalized.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldNumeric
	FieldEnum
)

// String returns a human-readable name for the field type.
func (t FieldType) String() string {
	return fieldTypeName(t)
}

// fieldTypeName returns a human-readable name for error messages.
func fieldTypeName(t FieldType) string {
	switch t {
	case FieldText:
		return "text"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "number"
	case FieldEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// RefKind marks a column as a foreign reference into another collection.
type RefKind int

const (
	RefNone RefKind = iota
	RefAgent
	RefShop
)

// String returns the collection name a reference points at, or "" for
// RefNone.
func (k RefKind) String() string {
	return refKindName(k)
}

// refKindName returns the collection name a reference points at.
func refKindName(k RefKind) string {
	switch k {
	case RefAgent:
		return "agent"
	case RefShop:
		return "shop"
	default:
		return ""
	}
}

// FieldSpec describes one CSV column of an import target.
type FieldSpec struct {
	// Name is the canonical CSV header, matched case-insensitively.
	Name string
	// DBColumn overrides the database column name. Empty means the
	// lower-cased Name with spaces replaced by underscores.
	DBColumn string
	// Type selects validation and normalization.
	Type FieldType
	// Required rejects empty values. The column itself must always be
	// present in the header regardless.
	Required bool
	// Positive additionally rejects numeric values <= 0.
	Positive bool
	// EnumValues lists allowed values for FieldEnum, in canonical casing.
	EnumValues []string
	// Reference marks the column as a lookup into another collection.
	Reference RefKind
	// Normalizer optionally rewrites the value before validation.
	Normalizer func(string) string
}

// Column returns the database column name for the field, deriving it
// from Name when no override is set.
func (f FieldSpec) Column() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return strings.ToLower(strings.ReplaceAll(f.Name, " ", "_"))
}

// Target describes one importable collection.
type Target struct {
	// Key identifies the target in URLs and the CLI, e.g. "shops".
	Key string
	// Label is the human-readable name.
	Label string
	// Table is the database table rows are committed into.
	Table string
	// Columns lists the CSV columns in declared order.
	Columns []FieldSpec
	// KeyFields names the columns forming the natural key, in order.
	KeyFields []string
}

// ColumnNames returns the canonical CSV headers in declared order.
func (t Target) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// DBColumns returns the database column names in declared order.
func (t Target) DBColumns() []string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Column()
	}
	return cols
}

// Field looks up a column spec by canonical name, case-insensitively.
func (t Target) Field(name string) (FieldSpec, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return FieldSpec{}, false
}

// NaturalKey builds the dedup key for a row from its cleaned values.
// Key parts are canonicalized by field type so "1/2/2024" and
// "2024-01-02" produce the same key. Parts are joined with "|".
func (t Target) NaturalKey(values map[string]string) string {
	parts := make([]string, len(t.KeyFields))
	for i, field := range t.KeyFields {
		spec, _ := t.Field(field)
		parts[i] = KeyPart(values[field], spec)
	}
	return strings.Join(parts, "|")
}

// KeyPart canonicalizes one key field value: dates to ISO form, numbers
// to their shortest representation, everything else lower-cased. Values
// that fail to parse fall back to lower-cased text so malformed rows
// still get a stable key.
func KeyPart(raw string, spec FieldSpec) string {
	v := strings.TrimSpace(raw)
	switch spec.Type {
	case FieldDate:
		if d, err := ParseDate(v); err == nil {
			return d.Format(DateOnly)
		}
	case FieldNumeric:
		if n, err := ParseAmount(v); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return strings.ToLower(v)
}

// KeyDisplay renders the natural key values for reason strings.
func (t Target) KeyDisplay(values map[string]string) string {
	parts := make([]string, len(t.KeyFields))
	for i, field := range t.KeyFields {
		parts[i] = values[field]
	}
	return strings.Join(parts, ", ")
}

// normalizeField validates a single raw value against its spec and returns
// the typed normalized value. The returned error message is the row's
// Invalid reason, so it names the field and the offending value.
func normalizeField(raw string, spec FieldSpec) (any, error) {
	value := strings.TrimSpace(raw)
	if spec.Normalizer != nil {
		value = spec.Normalizer(value)
	}

	if value == "" {
		if spec.Required {
			return nil, fmt.Errorf("required field %q is empty", spec.Name)
		}
		return "", nil
	}

	switch spec.Type {
	case FieldDate:
		d, err := ParseDate(value)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q for %s", raw, spec.Name)
		}
		return d, nil

	case FieldNumeric:
		n, err := ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q for %s", raw, spec.Name)
		}
		if spec.Positive && n <= 0 {
			return nil, fmt.Errorf("%s must be greater than zero, got %q", spec.Name, raw)
		}
		return n, nil

	case FieldEnum:
		for _, allowed := range spec.EnumValues {
			if strings.EqualFold(allowed, value) {
				return allowed, nil
			}
		}
		return nil, fmt.Errorf("invalid enum value %q for %s, allowed: %s",
			raw, spec.Name, strings.Join(spec.EnumValues, ", "))

	default:
		return value, nil
	}
}
