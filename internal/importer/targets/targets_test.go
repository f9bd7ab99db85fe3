package targets

import (
	"testing"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

func TestAllTargetsRegistered(t *testing.T) {
	want := []string{"deposits", "inventory", "shops", "withdrawals"}

	keys := importer.Keys()
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestTransactionTargetsShareColumns(t *testing.T) {
	dep, _ := importer.Get("deposits")
	wit, _ := importer.Get("withdrawals")

	depCols := dep.ColumnNames()
	witCols := wit.ColumnNames()
	if len(depCols) != len(witCols) {
		t.Fatalf("column counts differ: %v vs %v", depCols, witCols)
	}
	for i := range depCols {
		if depCols[i] != witCols[i] {
			t.Errorf("column %d: %q vs %q", i, depCols[i], witCols[i])
		}
	}

	// Only the backing table and date column differ.
	if dep.Table == wit.Table {
		t.Error("deposits and withdrawals share a table")
	}
	depDate, _ := dep.Field("date")
	witDate, _ := wit.Field("date")
	if depDate.Column() == witDate.Column() {
		t.Error("deposits and withdrawals share a date column")
	}
}

func TestNormalizeIMEI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "123456789012345", want: "123456789012345"},
		{name: "dashes", input: "12-345678-901234-5", want: "123456789012345"},
		{name: "spaces", input: "12 3456 7890 12345", want: "123456789012345"},
		{name: "mixed separators", input: " 12-3456 7890-12345 ", want: "123456789012345"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIMEI(tt.input); got != tt.want {
				t.Errorf("NormalizeIMEI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
