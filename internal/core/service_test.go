package core

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// registerTestTargets installs a known registry state and restores an
// empty one when the test finishes.
func registerTestTargets(t *testing.T) {
	t.Helper()
	importer.Clear()
	t.Cleanup(importer.Clear)

	importer.Register(importer.Target{
		Key:       "shops",
		Label:     "Shops",
		Table:     "shops",
		KeyFields: []string{"shopId"},
		Columns: []importer.FieldSpec{
			{Name: "shopId", DBColumn: "shop_id", Type: importer.FieldText, Required: true},
			{Name: "agent", Type: importer.FieldText, Required: true, Reference: importer.RefAgent},
			{Name: "status", Type: importer.FieldEnum, Required: true, EnumValues: []string{"Active", "Inactive"}},
		},
	})
	importer.Register(importer.Target{
		Key:       "deposits",
		Label:     "Deposits",
		Table:     "deposits",
		KeyFields: []string{"shopid", "date"},
		Columns: []importer.FieldSpec{
			{Name: "shopId", DBColumn: "shop_id", Type: importer.FieldText, Required: true, Reference: importer.RefShop},
			{Name: "date", DBColumn: "deposit_date", Type: importer.FieldDate, Required: true},
			{Name: "amount", Type: importer.FieldNumeric, Required: true, Positive: true},
		},
	})
}

func TestListTargets(t *testing.T) {
	registerTestTargets(t)
	svc := NewService(nil, discardLogger(), Options{})

	infos := svc.ListTargets()
	if len(infos) != 2 {
		t.Fatalf("ListTargets returned %d targets, want 2", len(infos))
	}

	// Sorted by key.
	if infos[0].Key != "deposits" || infos[1].Key != "shops" {
		t.Errorf("target order = [%s %s], want [deposits shops]", infos[0].Key, infos[1].Key)
	}

	shops := infos[1]
	if shops.Label != "Shops" {
		t.Errorf("Label = %q, want Shops", shops.Label)
	}
	if len(shops.KeyFields) != 1 || shops.KeyFields[0] != "shopId" {
		t.Errorf("KeyFields = %v, want [shopId]", shops.KeyFields)
	}
	if len(shops.Columns) != 3 {
		t.Fatalf("shops has %d columns, want 3", len(shops.Columns))
	}

	id := shops.Columns[0]
	if id.Name != "shopId" || id.Type != "text" || !id.Required {
		t.Errorf("shopId column = %+v, want required text", id)
	}
	agent := shops.Columns[1]
	if agent.Reference != "agent" {
		t.Errorf("agent column Reference = %q, want agent", agent.Reference)
	}
	status := shops.Columns[2]
	if status.Type != "enum" || len(status.Allowed) != 2 {
		t.Errorf("status column = %+v, want enum with 2 allowed values", status)
	}

	amount := infos[0].Columns[2]
	if amount.Type != "number" || amount.Reference != "" {
		t.Errorf("amount column = %+v, want plain number", amount)
	}
}

func TestListTargetsEmpty(t *testing.T) {
	importer.Clear()
	t.Cleanup(importer.Clear)
	svc := NewService(nil, discardLogger(), Options{})

	if infos := svc.ListTargets(); len(infos) != 0 {
		t.Errorf("ListTargets on empty registry = %v, want none", infos)
	}
}

func TestTemplateCSV(t *testing.T) {
	registerTestTargets(t)
	svc := NewService(nil, discardLogger(), Options{})

	data, name, err := svc.TemplateCSV("deposits")
	if err != nil {
		t.Fatalf("TemplateCSV failed: %v", err)
	}

	if name != "deposits_template.csv" {
		t.Errorf("file name = %q, want deposits_template.csv", name)
	}
	if got := strings.TrimRight(string(data), "\r\n"); got != "shopId,date,amount" {
		t.Errorf("template content = %q, want the canonical header row", got)
	}
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("template should contain the header row only, got %q", data)
	}
}

func TestTemplateCSVUnknownTarget(t *testing.T) {
	registerTestTargets(t)
	svc := NewService(nil, discardLogger(), Options{})

	_, _, err := svc.TemplateCSV("phones")
	if err == nil {
		t.Fatal("TemplateCSV should reject an unknown target")
	}
	if !strings.Contains(err.Error(), "unknown import target") {
		t.Errorf("error = %v, want unknown import target", err)
	}
}
