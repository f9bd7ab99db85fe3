package importer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// shopTarget mirrors the shops import shape: single-field key, one
// agent reference, a date, and an enum.
func shopTarget() Target {
	return Target{
		Key:       "shops",
		Label:     "Shops",
		Table:     "shops",
		KeyFields: []string{"shopId"},
		Columns: []FieldSpec{
			{Name: "shopId", DBColumn: "shop_id", Type: FieldText, Required: true},
			{Name: "clientName", DBColumn: "client_name", Type: FieldText, Required: true},
			{Name: "agent", Type: FieldText, Required: true, Reference: RefAgent},
			{Name: "kycCompletedDate", DBColumn: "kyc_completed_date", Type: FieldDate, Required: true},
			{Name: "status", Type: FieldEnum, Required: true, EnumValues: []string{"Active", "Inactive", "Pending"}},
		},
	}
}

// depositTarget mirrors the deposits import shape: composite key over
// text, date, numeric, and enum fields.
func depositTarget() Target {
	return Target{
		Key:       "deposits",
		Label:     "Deposits",
		Table:     "deposits",
		KeyFields: []string{"shopid", "date", "amount", "payment"},
		Columns: []FieldSpec{
			{Name: "shopid", DBColumn: "shop_id", Type: FieldText, Required: true, Reference: RefShop},
			{Name: "agent", Type: FieldText, Required: true, Reference: RefAgent},
			{Name: "date", DBColumn: "deposit_date", Type: FieldDate, Required: true},
			{Name: "amount", Type: FieldNumeric, Required: true, Positive: true},
			{Name: "payment", Type: FieldEnum, Required: true, EnumValues: []string{"Cash", "Bank Transfer", "Cheque"}},
		},
	}
}

func shopRefs() References {
	return References{
		ExistingKeys: map[string]struct{}{"s-1001": {}},
		Agents:       map[string]string{"john smith": "John Smith"},
		Shops:        map[string]string{"s-1001": "S-1001"},
	}
}

func buildPlan(t *testing.T, target Target, refs References, csvData string) *Plan {
	t.Helper()
	plan, err := BuildPlan(target, refs, []byte(csvData))
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	return plan
}

// ============================================================================
// Happy Path
// ============================================================================

func TestBuildPlan_AllReady(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n" +
		"S-2002,Globex,John Smith,2024-02-01,Pending\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	counts := plan.Counts()
	if counts.Total != 2 || counts.Ready != 2 {
		t.Fatalf("Counts() = %+v, want 2 total, 2 ready", counts)
	}
	for i, row := range plan.Rows {
		if row.Disposition != Ready {
			t.Errorf("row %d disposition = %v, want ready", i, row.Disposition)
		}
		if row.Reason != "" {
			t.Errorf("row %d reason = %q, want empty", i, row.Reason)
		}
		if row.Record == nil {
			t.Errorf("row %d has no record", i)
		}
	}
}

func TestBuildPlan_LineNumbersStartAfterHeader(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n" +
		"S-2002,Globex,John Smith,2024-02-01,Pending\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	for i, row := range plan.Rows {
		if row.Line != i+2 {
			t.Errorf("row %d line = %d, want %d", i, row.Line, i+2)
		}
	}
}

func TestBuildPlan_NormalizedRecord(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,JOHN SMITH,1/15/2024,active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	rec := plan.Rows[0].Record
	if rec == nil {
		t.Fatalf("row is %v, want ready with record", plan.Rows[0].Disposition)
	}
	// Record keys are database column names.
	if got := rec["shop_id"]; got != "S-2001" {
		t.Errorf("shop_id = %v, want S-2001", got)
	}
	// References land in their stored casing.
	if got := rec["agent"]; got != "John Smith" {
		t.Errorf("agent = %v, want canonical John Smith", got)
	}
	// Dates are typed.
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got, ok := rec["kyc_completed_date"].(time.Time); !ok || !got.Equal(want) {
		t.Errorf("kyc_completed_date = %v, want %v", rec["kyc_completed_date"], want)
	}
	// Enums land in their canonical casing.
	if got := rec["status"]; got != "Active" {
		t.Errorf("status = %v, want Active", got)
	}
}

// ============================================================================
// Headers
// ============================================================================

func TestBuildPlan_HeadersCaseInsensitive(t *testing.T) {
	csvData := "SHOPID,CLIENTNAME,AGENT,KYCCOMPLETEDDATE,STATUS\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	if plan.Rows[0].Disposition != Ready {
		t.Errorf("row = %v (%s), want ready", plan.Rows[0].Disposition, plan.Rows[0].Reason)
	}
}

func TestBuildPlan_ExtraColumnsIgnored(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status,notes\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active,ignore me\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	row := plan.Rows[0]
	if row.Disposition != Ready {
		t.Errorf("row = %v (%s), want ready", row.Disposition, row.Reason)
	}
	if _, ok := row.Values["notes"]; ok {
		t.Error("values contain the extra column")
	}
}

func TestBuildPlan_MissingColumnAborts(t *testing.T) {
	csvData := "shopId,agent,kycCompletedDate\n" +
		"S-2001,John Smith,2024-01-15\n"

	_, err := BuildPlan(shopTarget(), shopRefs(), []byte(csvData))

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("BuildPlan() error = %v, want FormatError", err)
	}
	if len(formatErr.Missing) != 2 {
		t.Fatalf("missing = %v, want clientName and status", formatErr.Missing)
	}
	if formatErr.Missing[0] != "clientName" || formatErr.Missing[1] != "status" {
		t.Errorf("missing = %v, want [clientName status] in declared order", formatErr.Missing)
	}
}

func TestBuildPlan_StripsBOM(t *testing.T) {
	csvData := "\xEF\xBB\xBFshopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	if plan.Rows[0].Disposition != Ready {
		t.Errorf("row = %v (%s), want ready", plan.Rows[0].Disposition, plan.Rows[0].Reason)
	}
}

// ============================================================================
// Empty Files
// ============================================================================

func TestBuildPlan_EmptyFile(t *testing.T) {
	for _, data := range []string{"", "   ", "\n\n", "\xEF\xBB\xBF"} {
		if _, err := BuildPlan(shopTarget(), shopRefs(), []byte(data)); !errors.Is(err, ErrEmptyFile) {
			t.Errorf("BuildPlan(%q) error = %v, want ErrEmptyFile", data, err)
		}
	}
}

func TestBuildPlan_HeaderOnlyYieldsEmptyPlan(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	if len(plan.Rows) != 0 {
		t.Errorf("plan has %d rows, want 0", len(plan.Rows))
	}
}

// ============================================================================
// Duplicates
// ============================================================================

func TestBuildPlan_ExistingKeyDuplicate(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-1001,Acme,John Smith,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	row := plan.Rows[0]
	if row.Disposition != Duplicate {
		t.Fatalf("row = %v, want duplicate", row.Disposition)
	}
	if row.Reason != `shopId "S-1001" already exists` {
		t.Errorf("reason = %q", row.Reason)
	}
}

func TestBuildPlan_ExistingKeyMatchIsCaseInsensitive(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"s-1001,Acme,John Smith,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	if plan.Rows[0].Disposition != Duplicate {
		t.Errorf("row = %v, want duplicate despite casing", plan.Rows[0].Disposition)
	}
}

func TestBuildPlan_InFileDuplicate(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n" +
		"s-2001,Copy,John Smith,2024-01-16,Pending\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	if plan.Rows[0].Disposition != Ready {
		t.Fatalf("first occurrence = %v, want ready", plan.Rows[0].Disposition)
	}
	second := plan.Rows[1]
	if second.Disposition != Duplicate {
		t.Fatalf("second occurrence = %v, want duplicate", second.Disposition)
	}
	if second.Reason != "duplicate of row 2 in this file" {
		t.Errorf("reason = %q", second.Reason)
	}
}

// Rows that fail validation never claim their key, so a later clean
// row with the same key still imports.
func TestBuildPlan_InvalidRowDoesNotClaimKey(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,John Smith,not-a-date,Active\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	if plan.Rows[0].Disposition != Invalid {
		t.Fatalf("first row = %v, want invalid", plan.Rows[0].Disposition)
	}
	if plan.Rows[1].Disposition != Ready {
		t.Errorf("second row = %v (%s), want ready", plan.Rows[1].Disposition, plan.Rows[1].Reason)
	}
}

func TestBuildPlan_ExistingDuplicateDoesNotClaimKey(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-1001,Acme,John Smith,2024-01-15,Active\n" +
		"S-1001,Copy,John Smith,2024-01-16,Pending\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	// Both collide with the database row, neither with each other.
	for i, row := range plan.Rows {
		if row.Disposition != Duplicate {
			t.Errorf("row %d = %v, want duplicate", i, row.Disposition)
		}
		if !strings.Contains(row.Reason, "already exists") {
			t.Errorf("row %d reason = %q, want existing-key reason", i, row.Reason)
		}
	}
}

// ============================================================================
// Composite Keys
// ============================================================================

func TestBuildPlan_CompositeKeyCanonicalization(t *testing.T) {
	// Same transaction written two ways: date format, currency
	// formatting, and payment casing all differ.
	csvData := "shopid,agent,date,amount,payment\n" +
		"S-1001,John Smith,1/2/2024,500,Cash\n" +
		"s-1001,John Smith,2024-01-02,\"$500.00\",cash\n"

	plan := buildPlan(t, depositTarget(), shopRefs(), csvData)

	if plan.Rows[0].Disposition != Ready {
		t.Fatalf("first row = %v (%s), want ready", plan.Rows[0].Disposition, plan.Rows[0].Reason)
	}
	second := plan.Rows[1]
	if second.Disposition != Duplicate {
		t.Fatalf("second row = %v, want duplicate", second.Disposition)
	}
	if second.Reason != "duplicate of row 2 in this file" {
		t.Errorf("reason = %q", second.Reason)
	}
}

func TestBuildPlan_CompositeKeyReason(t *testing.T) {
	refs := shopRefs()
	refs.ExistingKeys = map[string]struct{}{
		"s-1001|2024-01-02|500|cash": {},
	}
	csvData := "shopid,agent,date,amount,payment\n" +
		"S-1001,John Smith,2024-01-02,500,Cash\n"

	plan := buildPlan(t, depositTarget(), refs, csvData)

	row := plan.Rows[0]
	if row.Disposition != Duplicate {
		t.Fatalf("row = %v, want duplicate", row.Disposition)
	}
	want := "shopid+date+amount+payment (S-1001, 2024-01-02, 500, Cash) already exists"
	if row.Reason != want {
		t.Errorf("reason = %q, want %q", row.Reason, want)
	}
}

// ============================================================================
// References
// ============================================================================

func TestBuildPlan_UnresolvedReference(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,Nobody,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	row := plan.Rows[0]
	if row.Disposition != Invalid {
		t.Fatalf("row = %v, want invalid", row.Disposition)
	}
	if row.Reason != `agent "Nobody" does not match any existing agent` {
		t.Errorf("reason = %q", row.Reason)
	}
}

func TestBuildPlan_ReferenceResolvesCaseInsensitively(t *testing.T) {
	csvData := "shopid,agent,date,amount,payment\n" +
		"S-1001,john SMITH,2024-01-02,500,Cash\n"

	plan := buildPlan(t, depositTarget(), shopRefs(), csvData)

	row := plan.Rows[0]
	if row.Disposition != Ready {
		t.Fatalf("row = %v (%s), want ready", row.Disposition, row.Reason)
	}
	if got := row.Record["agent"]; got != "John Smith" {
		t.Errorf("agent = %v, want canonical John Smith", got)
	}
	if got := row.Record["shop_id"]; got != "S-1001" {
		t.Errorf("shop_id = %v, want canonical S-1001", got)
	}
}

func TestBuildPlan_EmptyReferenceReportsRequiredField(t *testing.T) {
	// Presence is a field rule, not a reference failure.
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-2001,Acme,,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	row := plan.Rows[0]
	if row.Disposition != Invalid {
		t.Fatalf("row = %v, want invalid", row.Disposition)
	}
	if row.Reason != `required field "agent" is empty` {
		t.Errorf("reason = %q", row.Reason)
	}
}

// ============================================================================
// Field Validation
// ============================================================================

func TestBuildPlan_FieldFailures(t *testing.T) {
	tests := []struct {
		name       string
		row        string
		wantReason string
	}{
		{
			name:       "required field empty",
			row:        "S-2001,,John Smith,2024-01-15,Active",
			wantReason: `required field "clientName" is empty`,
		},
		{
			name:       "invalid date",
			row:        "S-2001,Acme,John Smith,not-a-date,Active",
			wantReason: `invalid date "not-a-date" for kycCompletedDate`,
		},
		{
			name:       "invalid enum",
			row:        "S-2001,Acme,John Smith,2024-01-15,Open",
			wantReason: `invalid enum value "Open" for status, allowed: Active, Inactive, Pending`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csvData := "shopId,clientName,agent,kycCompletedDate,status\n" + tt.row + "\n"
			plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

			row := plan.Rows[0]
			if row.Disposition != Invalid {
				t.Fatalf("row = %v, want invalid", row.Disposition)
			}
			if row.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", row.Reason, tt.wantReason)
			}
		})
	}
}

func TestBuildPlan_AmountMustBePositive(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{name: "zero", amount: "0"},
		{name: "negative", amount: "-50"},
		{name: "accounting negative", amount: "(50)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csvData := "shopid,agent,date,amount,payment\n" +
				"S-1001,John Smith,2024-01-02," + tt.amount + ",Cash\n"
			plan := buildPlan(t, depositTarget(), shopRefs(), csvData)

			row := plan.Rows[0]
			if row.Disposition != Invalid {
				t.Fatalf("row = %v, want invalid", row.Disposition)
			}
			if !strings.Contains(row.Reason, "greater than zero") {
				t.Errorf("reason = %q, want greater-than-zero failure", row.Reason)
			}
		})
	}
}

// ============================================================================
// Check Order
// ============================================================================

// A row can fail several checks at once; the first check decides its
// fate. Duplicates beat references beat field rules.
func TestBuildPlan_FirstFailureWins(t *testing.T) {
	tests := []struct {
		name            string
		row             string
		wantDisposition Disposition
		wantIn          string
	}{
		{
			name:            "existing duplicate beats bad field",
			row:             "S-1001,Acme,John Smith,not-a-date,Active",
			wantDisposition: Duplicate,
			wantIn:          "already exists",
		},
		{
			name:            "unknown reference beats bad field",
			row:             "S-2001,Acme,Nobody,not-a-date,Active",
			wantDisposition: Invalid,
			wantIn:          "does not match any existing agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csvData := "shopId,clientName,agent,kycCompletedDate,status\n" + tt.row + "\n"
			plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

			row := plan.Rows[0]
			if row.Disposition != tt.wantDisposition {
				t.Fatalf("row = %v, want %v", row.Disposition, tt.wantDisposition)
			}
			if !strings.Contains(row.Reason, tt.wantIn) {
				t.Errorf("reason = %q, want it to mention %q", row.Reason, tt.wantIn)
			}
		})
	}
}

// ============================================================================
// Plan Shape
// ============================================================================

// Every data row appears in the plan exactly once, in file order,
// regardless of disposition.
func TestBuildPlan_AllRowsPresentInOrder(t *testing.T) {
	csvData := "shopId,clientName,agent,kycCompletedDate,status\n" +
		"S-1001,Dup,John Smith,2024-01-15,Active\n" +
		"S-2001,Acme,John Smith,2024-01-15,Active\n" +
		"S-2002,Acme,Nobody,2024-01-15,Active\n" +
		"S-2003,,John Smith,2024-01-15,Active\n" +
		"s-2001,Copy,John Smith,2024-01-15,Active\n"

	plan := buildPlan(t, shopTarget(), shopRefs(), csvData)

	want := []Disposition{Duplicate, Ready, Invalid, Invalid, Duplicate}
	if len(plan.Rows) != len(want) {
		t.Fatalf("plan has %d rows, want %d", len(plan.Rows), len(want))
	}
	for i, row := range plan.Rows {
		if row.Disposition != want[i] {
			t.Errorf("row %d (line %d) = %v, want %v", i, row.Line, row.Disposition, want[i])
		}
	}

	counts := plan.Counts()
	if counts.Total != 5 || counts.Ready != 1 || counts.Duplicate != 2 || counts.Invalid != 2 {
		t.Errorf("Counts() = %+v, want total 5, ready 1, duplicate 2, invalid 2", counts)
	}

	ready := plan.Ready()
	if len(ready) != 1 {
		t.Fatalf("Ready() = %d rows, want 1", len(ready))
	}
	if ready[0].Line != 3 {
		t.Errorf("Ready()[0].Line = %d, want 3", ready[0].Line)
	}
}
