package importer

import (
	"fmt"
	"strings"
	"testing"
)

// ============================================================================
// Normalization Benchmarks
// ============================================================================

// BenchmarkParseAmount benchmarks numeric string parsing.
// This is a hot path during preview for any numeric columns.
func BenchmarkParseAmount(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"$1,234.56",
		"(123.45)",      // Accounting negative
		"1,234,567.89",  // Thousands separators
		"  999.99  ",    // Whitespace
		"€1234.56", // Euro
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseAmount(tc)
		}
	}
}

// BenchmarkParseAmount_Simple benchmarks the most common case: plain integers.
func BenchmarkParseAmount_Simple(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseAmount("12345")
	}
}

// BenchmarkParseAmount_Currency benchmarks currency string parsing.
func BenchmarkParseAmount_Currency(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseAmount("$1,234,567.89")
	}
}

// BenchmarkParseDate benchmarks date string parsing.
// This is a hot path during preview for date columns.
func BenchmarkParseDate(b *testing.B) {
	testCases := []string{
		"2024-01-15",   // ISO format
		"01/15/2024",   // US format
		"Jan 15, 2024", // Text month
		"20240115",     // Compact
		"1/5/24",       // 2-digit year
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseDate(tc)
		}
	}
}

// BenchmarkParseDate_ISO benchmarks the most common date format (ISO 8601).
func BenchmarkParseDate_ISO(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseDate("2024-01-15")
	}
}

// BenchmarkParseDate_TwoDigitYear benchmarks 2-digit year parsing with pivot.
func BenchmarkParseDate_TwoDigitYear(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseDate("1/15/99")
	}
}

// ============================================================================
// Cell Cleaning Benchmarks
// ============================================================================

// BenchmarkCleanCell benchmarks CSV cell cleaning.
// Called for every cell during preview, so performance is critical.
func BenchmarkCleanCell(b *testing.B) {
	testCases := []string{
		"normal value",
		`="359871234567890"`, // IMEI as Excel formula text
		`"quoted"`,           // Quoted
		"  whitespace  ",     // Whitespace
		"Bank Transfer",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CleanCell(tc)
		}
	}
}

// BenchmarkCleanCell_Simple benchmarks the common case: no cleaning needed.
func BenchmarkCleanCell_Simple(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CleanCell("simple value")
	}
}

// ============================================================================
// Header Index Benchmarks
// ============================================================================

// BenchmarkMakeHeaderIndex benchmarks header index creation.
// Called once per file to build the column lookup map.
func BenchmarkMakeHeaderIndex(b *testing.B) {
	headers := []string{
		"shopId", "clientName", "agent", "kycCompletedDate",
		"status", "date", "amount", "payment",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MakeHeaderIndex(headers)
	}
}

// BenchmarkMakeHeaderIndex_Large benchmarks with many columns.
func BenchmarkMakeHeaderIndex_Large(b *testing.B) {
	headers := make([]string, 50)
	for i := range headers {
		headers[i] = fmt.Sprintf("column_%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MakeHeaderIndex(headers)
	}
}

// ============================================================================
// Key Benchmarks
// ============================================================================

// BenchmarkNaturalKey benchmarks composite key canonicalization.
// Computed once per row against the existing-key set.
func BenchmarkNaturalKey(b *testing.B) {
	target := depositTarget()
	values := map[string]string{
		"shopid":  "S-1001",
		"agent":   "John Smith",
		"date":    "1/15/2024",
		"amount":  "$1,500.00",
		"payment": "cash",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		target.NaturalKey(values)
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// benchmarkCSV builds an n-row deposits file with valid, duplicate, and
// invalid rows mixed in.
func benchmarkCSV(n int) []byte {
	var sb strings.Builder
	sb.WriteString("shopid,agent,date,amount,payment\n")
	for i := 0; i < n; i++ {
		switch i % 10 {
		case 7:
			// In-file duplicate of the previous row.
			fmt.Fprintf(&sb, "S-1001,John Smith,2024-01-%02d,500,Cash\n", (i-1)%28+1)
		case 8:
			// Bad amount.
			fmt.Fprintf(&sb, "S-1001,John Smith,2024-01-%02d,abc,Cash\n", i%28+1)
		default:
			fmt.Fprintf(&sb, "S-1001,John Smith,2024-01-%02d,%d,Cash\n", i%28+1, 100+i)
		}
	}
	return []byte(sb.String())
}

// BenchmarkBuildPlan benchmarks the full validation pipeline.
func BenchmarkBuildPlan(b *testing.B) {
	target := depositTarget()
	refs := shopRefs()
	data := benchmarkCSV(500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildPlan(target, refs, data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBuildPlan_Small benchmarks the typical interactive upload.
func BenchmarkBuildPlan_Small(b *testing.B) {
	target := depositTarget()
	refs := shopRefs()
	data := benchmarkCSV(50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildPlan(target, refs, data); err != nil {
			b.Fatal(err)
		}
	}
}
