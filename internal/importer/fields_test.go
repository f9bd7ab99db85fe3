package importer

import (
	"strings"
	"testing"
	"time"
)

// ============================================================================
// normalizeField
// ============================================================================

func TestNormalizeField_Text(t *testing.T) {
	spec := FieldSpec{Name: "clientName", Type: FieldText, Required: true}

	got, err := normalizeField("  Acme  ", spec)
	if err != nil {
		t.Fatalf("normalizeField() error = %v", err)
	}
	if got != "Acme" {
		t.Errorf("normalizeField() = %v, want trimmed Acme", got)
	}
}

func TestNormalizeField_RequiredEmpty(t *testing.T) {
	spec := FieldSpec{Name: "clientName", Type: FieldText, Required: true}

	_, err := normalizeField("   ", spec)
	if err == nil {
		t.Fatal("normalizeField() succeeded, want required-field error")
	}
	if err.Error() != `required field "clientName" is empty` {
		t.Errorf("error = %q", err)
	}
}

func TestNormalizeField_OptionalEmpty(t *testing.T) {
	spec := FieldSpec{Name: "remarks", Type: FieldText}

	got, err := normalizeField("", spec)
	if err != nil {
		t.Fatalf("normalizeField() error = %v", err)
	}
	if got != "" {
		t.Errorf("normalizeField() = %v, want empty string", got)
	}
}

func TestNormalizeField_Date(t *testing.T) {
	spec := FieldSpec{Name: "date", Type: FieldDate, Required: true}

	got, err := normalizeField("1/15/2024", spec)
	if err != nil {
		t.Fatalf("normalizeField() error = %v", err)
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if d, ok := got.(time.Time); !ok || !d.Equal(want) {
		t.Errorf("normalizeField() = %v, want %v", got, want)
	}
}

func TestNormalizeField_Numeric(t *testing.T) {
	spec := FieldSpec{Name: "amount", Type: FieldNumeric, Required: true, Positive: true}

	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr string
	}{
		{name: "plain", input: "500", want: 500},
		{name: "formatted", input: "$1,234.56", want: 1234.56},
		{name: "zero rejected", input: "0", wantErr: "greater than zero"},
		{name: "negative rejected", input: "(500)", wantErr: "greater than zero"},
		{name: "garbage rejected", input: "abc", wantErr: "invalid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeField(tt.input, spec)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeField(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("normalizeField(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeField_Enum(t *testing.T) {
	spec := FieldSpec{Name: "payment", Type: FieldEnum, Required: true,
		EnumValues: []string{"Cash", "Bank Transfer", "Cheque"}}

	t.Run("canonicalizes case", func(t *testing.T) {
		got, err := normalizeField("bank transfer", spec)
		if err != nil {
			t.Fatalf("normalizeField() error = %v", err)
		}
		if got != "Bank Transfer" {
			t.Errorf("normalizeField() = %v, want Bank Transfer", got)
		}
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		_, err := normalizeField("Crypto", spec)
		if err == nil {
			t.Fatal("normalizeField() succeeded, want enum error")
		}
		want := `invalid enum value "Crypto" for payment, allowed: Cash, Bank Transfer, Cheque`
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err, want)
		}
	})
}

func TestNormalizeField_NormalizerRunsFirst(t *testing.T) {
	spec := FieldSpec{Name: "imei", Type: FieldText, Required: true,
		Normalizer: func(s string) string { return strings.ReplaceAll(s, "-", "") }}

	got, err := normalizeField("12-34-56", spec)
	if err != nil {
		t.Fatalf("normalizeField() error = %v", err)
	}
	if got != "123456" {
		t.Errorf("normalizeField() = %v, want 123456", got)
	}

	// A value that is empty after normalization fails the required check.
	if _, err := normalizeField("---", spec); err == nil {
		t.Error("normalizeField(---) succeeded, want required-field error")
	}
}

// ============================================================================
// FieldSpec and Target
// ============================================================================

func TestFieldSpecColumn(t *testing.T) {
	tests := []struct {
		name string
		spec FieldSpec
		want string
	}{
		{name: "explicit override", spec: FieldSpec{Name: "shopId", DBColumn: "shop_id"}, want: "shop_id"},
		{name: "derived lowercase", spec: FieldSpec{Name: "agent"}, want: "agent"},
		{name: "spaces become underscores", spec: FieldSpec{Name: "Client Name"}, want: "client_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Column(); got != tt.want {
				t.Errorf("Column() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTargetField(t *testing.T) {
	target := shopTarget()

	if _, ok := target.Field("SHOPID"); !ok {
		t.Error("Field(SHOPID) not found, want case-insensitive match")
	}
	if _, ok := target.Field("missing"); ok {
		t.Error("Field(missing) found, want miss")
	}
}

// ============================================================================
// Natural Keys
// ============================================================================

func TestKeyPart(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		spec FieldSpec
		want string
	}{
		{name: "text lowered", raw: "S-1001", spec: FieldSpec{Type: FieldText}, want: "s-1001"},
		{name: "date canonicalized", raw: "1/2/2024", spec: FieldSpec{Type: FieldDate}, want: "2024-01-02"},
		{name: "amount canonicalized", raw: "$500.00", spec: FieldSpec{Type: FieldNumeric}, want: "500"},
		{name: "decimal kept short", raw: "500.50", spec: FieldSpec{Type: FieldNumeric}, want: "500.5"},
		{name: "enum lowered", raw: "Cash", spec: FieldSpec{Type: FieldEnum}, want: "cash"},
		{name: "unparseable date falls back to text", raw: "Bad Date", spec: FieldSpec{Type: FieldDate}, want: "bad date"},
		{name: "unparseable amount falls back to text", raw: "N/A", spec: FieldSpec{Type: FieldNumeric}, want: "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyPart(tt.raw, tt.spec); got != tt.want {
				t.Errorf("KeyPart(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNaturalKey(t *testing.T) {
	target := depositTarget()
	a := map[string]string{"shopid": "S-1001", "date": "1/2/2024", "amount": "500", "payment": "Cash"}
	b := map[string]string{"shopid": "s-1001", "date": "2024-01-02", "amount": "$500.00", "payment": "CASH"}

	if target.NaturalKey(a) != target.NaturalKey(b) {
		t.Errorf("NaturalKey(a) = %q, NaturalKey(b) = %q, want equal",
			target.NaturalKey(a), target.NaturalKey(b))
	}
	if got, want := target.NaturalKey(a), "s-1001|2024-01-02|500|cash"; got != want {
		t.Errorf("NaturalKey() = %q, want %q", got, want)
	}
}

// ============================================================================
// Display Helpers
// ============================================================================

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "string", input: "Acme", want: "Acme"},
		{name: "date", input: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), want: "2024-01-15"},
		{name: "whole amount", input: float64(500), want: "500"},
		{name: "fractional amount", input: 500.5, want: "500.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.input); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDispositionString(t *testing.T) {
	tests := []struct {
		d    Disposition
		want string
	}{
		{d: Ready, want: "ready"},
		{d: Duplicate, want: "duplicate"},
		{d: Invalid, want: "invalid"},
	}

	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		j, err := tt.d.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON() error = %v", err)
		}
		if string(j) != `"`+tt.want+`"` {
			t.Errorf("MarshalJSON() = %s, want %q", j, tt.want)
		}
	}
}
