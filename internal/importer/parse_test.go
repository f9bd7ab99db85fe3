package importer

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================================
// CleanCell
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "S-1001", want: "S-1001"},
		{name: "surrounding whitespace", input: "  S-1001  ", want: "S-1001"},
		{name: "surrounding quotes", input: `"S-1001"`, want: "S-1001"},
		{name: "quotes and whitespace", input: `  "S-1001"  `, want: "S-1001"},
		{name: "excel text guard", input: `="123456789012345"`, want: "123456789012345"},
		{name: "interior quotes kept", input: `a"b`, want: `a"b`},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "quoted empty", input: `""`, want: ""},
		{name: "whitespace inside quotes", input: `" x "`, want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// BOM and Encoding
// ============================================================================

func TestStripBOM(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{
			name:  "BOM prefix removed",
			input: []byte("\xEF\xBB\xBFshopId"),
			want:  []byte("shopId"),
		},
		{
			name:  "no BOM unchanged",
			input: []byte("shopId"),
			want:  []byte("shopId"),
		},
		{
			name:  "BOM mid-content untouched",
			input: []byte("a\xEF\xBB\xBFb"),
			want:  []byte("a\xEF\xBB\xBFb"),
		},
		{
			name:  "empty",
			input: []byte{},
			want:  []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripBOM(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("stripBOM(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{name: "valid passes through", input: []byte("hello"), want: []byte("hello")},
		{name: "unicode preserved", input: []byte("café 世界"), want: []byte("café 世界")},
		{name: "invalid byte replaced", input: []byte("a\x80b"), want: []byte("a?b")},
		{name: "latin-1 byte replaced", input: []byte("caf\xe9"), want: []byte("caf?")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeUTF8(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("sanitizeUTF8(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Header Index
// ============================================================================

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"ShopId", " AGENT ", `"status"`})

	want := map[string]int{"shopid": 0, "agent": 1, "status": 2}
	for name, pos := range want {
		if got, ok := idx[name]; !ok || got != pos {
			t.Errorf("idx[%q] = %d (present %v), want %d", name, got, ok, pos)
		}
	}
}

func TestValidateHeaders(t *testing.T) {
	target := shopTarget()

	t.Run("all present", func(t *testing.T) {
		headers := []string{"shopId", "clientName", "agent", "kycCompletedDate", "status"}
		if _, err := ValidateHeaders(headers, target); err != nil {
			t.Errorf("ValidateHeaders() error = %v", err)
		}
	})

	t.Run("case and order do not matter", func(t *testing.T) {
		headers := []string{"STATUS", "agent", "KycCompletedDate", "clientname", "SHOPID"}
		if _, err := ValidateHeaders(headers, target); err != nil {
			t.Errorf("ValidateHeaders() error = %v", err)
		}
	})

	t.Run("extra columns allowed", func(t *testing.T) {
		headers := []string{"shopId", "clientName", "agent", "kycCompletedDate", "status", "notes"}
		if _, err := ValidateHeaders(headers, target); err != nil {
			t.Errorf("ValidateHeaders() error = %v", err)
		}
	})

	t.Run("missing columns listed in declared order", func(t *testing.T) {
		headers := []string{"status", "shopId"}
		_, err := ValidateHeaders(headers, target)

		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("error = %v, want FormatError", err)
		}
		want := []string{"clientName", "agent", "kycCompletedDate"}
		if len(formatErr.Missing) != len(want) {
			t.Fatalf("missing = %v, want %v", formatErr.Missing, want)
		}
		for i := range want {
			if formatErr.Missing[i] != want[i] {
				t.Errorf("missing[%d] = %q, want %q", i, formatErr.Missing[i], want[i])
			}
		}
	})
}

// ============================================================================
// Row Extraction
// ============================================================================

func TestRowValues(t *testing.T) {
	target := shopTarget()
	headers := []string{"status", "shopId", "clientName", "agent", "kycCompletedDate"}
	idx := MakeHeaderIndex(headers)

	t.Run("maps by header position", func(t *testing.T) {
		record := []string{"Active", ` "S-1001" `, "Acme", "John Smith", "2024-01-15"}
		values := rowValues(target, idx, record)

		if values["shopId"] != "S-1001" {
			t.Errorf("shopId = %q, want cleaned S-1001", values["shopId"])
		}
		if values["status"] != "Active" {
			t.Errorf("status = %q", values["status"])
		}
	})

	t.Run("short rows pad with empty", func(t *testing.T) {
		record := []string{"Active", "S-1001"}
		values := rowValues(target, idx, record)

		if values["clientName"] != "" || values["kycCompletedDate"] != "" {
			t.Errorf("missing cells = %q, %q, want empty",
				values["clientName"], values["kycCompletedDate"])
		}
	})
}
