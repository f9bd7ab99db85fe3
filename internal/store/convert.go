package store

// convert.go maps Go values to pgtype wrappers. String inputs go
// through the same parsers the import pipeline uses, so a value that
// previews clean never fails conversion at write time.
//
// All ToPg* functions return pgtype values with Valid=false for
// empty/invalid input, letting the database handle NULLs.

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a string to pgtype.Date using the import pipeline's
// date parser, so every layout accepted at preview converts here too.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}
	t, err := importer.ParseDate(s)
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgNumeric converts a string to pgtype.Numeric, accepting currency
// symbols, thousands separators, and accounting negatives.
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}
	f, err := importer.ParseAmount(s)
	if err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return numericFromFloat(f)
}

// numericFromFloat builds a pgtype.Numeric from a float64 via its
// shortest decimal representation.
func numericFromFloat(f float64) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(f, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// NumericToFloat converts a pgtype.Numeric to float64, zero if NULL.
func NumericToFloat(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0
	}
	return f.Float64
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// bindValue converts one normalized record value into a pgx bind value.
// Records carry time.Time for dates, float64 for amounts, and strings
// for everything else; empty strings become NULL.
func bindValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return pgtype.Date{Time: val, Valid: true}
	case float64:
		return numericFromFloat(val)
	case string:
		return ToPgText(val)
	case nil:
		return nil
	default:
		return v
	}
}
