package core

// records.go wraps the store's CRUD operations with audit logging so
// every manual change is attributable. Reads go straight to the store;
// only mutations and exports pass through here.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// ReferenceError reports a mutation that names an agent or shop not
// present in the current data set.
type ReferenceError struct {
	Field string
	Value string
	Kind  string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not match any existing %s", e.Field, e.Value, e.Kind)
}

// resolveAgent matches an agent name case-insensitively, the same way
// the import pipeline resolves references, and returns the stored
// casing so rows written through the API join cleanly with imports.
func (s *Service) resolveAgent(ctx context.Context, field, name string) (string, error) {
	a, err := s.store.GetAgent(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return "", &ReferenceError{Field: field, Value: name, Kind: "agent"}
	}
	if err != nil {
		return "", err
	}
	return a.Name, nil
}

func (s *Service) resolveShop(ctx context.Context, field, shopID string) (string, error) {
	sh, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return "", &ReferenceError{Field: field, Value: shopID, Kind: "shop"}
	}
	if err != nil {
		return "", err
	}
	return sh.ShopID, nil
}

// --- Agents ---

func (s *Service) CreateAgent(ctx context.Context, a store.Agent) error {
	if err := s.store.CreateAgent(ctx, a); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordCreate,
		Target: "agents",
		RowKey: a.Name,
	})
	return nil
}

func (s *Service) UpdateAgent(ctx context.Context, a store.Agent) error {
	if err := s.store.UpdateAgent(ctx, a); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordUpdate,
		Target: "agents",
		RowKey: a.Name,
	})
	return nil
}

func (s *Service) DeleteAgent(ctx context.Context, name string) error {
	if err := s.store.DeleteAgent(ctx, name); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordDelete,
		Target: "agents",
		RowKey: name,
	})
	return nil
}

// --- Shops ---

func (s *Service) CreateShop(ctx context.Context, sh store.Shop) error {
	agent, err := s.resolveAgent(ctx, "agent", sh.Agent)
	if err != nil {
		return err
	}
	sh.Agent = agent
	if err := s.store.CreateShop(ctx, sh); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordCreate,
		Target: "shops",
		RowKey: sh.ShopID,
	})
	return nil
}

func (s *Service) UpdateShop(ctx context.Context, sh store.Shop) error {
	agent, err := s.resolveAgent(ctx, "agent", sh.Agent)
	if err != nil {
		return err
	}
	sh.Agent = agent
	if err := s.store.UpdateShop(ctx, sh); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordUpdate,
		Target: "shops",
		RowKey: sh.ShopID,
	})
	return nil
}

func (s *Service) DeleteShop(ctx context.Context, shopID string) error {
	if err := s.store.DeleteShop(ctx, shopID); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordDelete,
		Target: "shops",
		RowKey: shopID,
	})
	return nil
}

// --- Inventory ---

func (s *Service) CreateInventoryItem(ctx context.Context, it store.InventoryItem) error {
	agent, err := s.resolveAgent(ctx, "agent", it.Agent)
	if err != nil {
		return err
	}
	it.Agent = agent
	if err := s.store.CreateInventoryItem(ctx, it); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordCreate,
		Target: "inventory",
		RowKey: it.IMEI,
	})
	return nil
}

func (s *Service) UpdateInventoryItem(ctx context.Context, it store.InventoryItem) error {
	agent, err := s.resolveAgent(ctx, "agent", it.Agent)
	if err != nil {
		return err
	}
	it.Agent = agent
	if err := s.store.UpdateInventoryItem(ctx, it); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordUpdate,
		Target: "inventory",
		RowKey: it.IMEI,
	})
	return nil
}

func (s *Service) DeleteInventoryItem(ctx context.Context, imei string) error {
	if err := s.store.DeleteInventoryItem(ctx, imei); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordDelete,
		Target: "inventory",
		RowKey: imei,
	})
	return nil
}

// --- Transactions ---

func (s *Service) CreateTransaction(ctx context.Context, kind string, tr store.Transaction) (string, error) {
	shopID, err := s.resolveShop(ctx, "shopId", tr.ShopID)
	if err != nil {
		return "", err
	}
	tr.ShopID = shopID
	agent, err := s.resolveAgent(ctx, "agent", tr.Agent)
	if err != nil {
		return "", err
	}
	tr.Agent = agent

	id, err := s.store.CreateTransaction(ctx, kind, tr)
	if err != nil {
		return "", err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordCreate,
		Target: kind,
		RowKey: id,
	})
	return id, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, kind string, tr store.Transaction) error {
	shopID, err := s.resolveShop(ctx, "shopId", tr.ShopID)
	if err != nil {
		return err
	}
	tr.ShopID = shopID
	agent, err := s.resolveAgent(ctx, "agent", tr.Agent)
	if err != nil {
		return err
	}
	tr.Agent = agent

	if err := s.store.UpdateTransaction(ctx, kind, tr); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordUpdate,
		Target: kind,
		RowKey: tr.ID,
	})
	return nil
}

func (s *Service) DeleteTransaction(ctx context.Context, kind, id string) error {
	if err := s.store.DeleteTransaction(ctx, kind, id); err != nil {
		return err
	}
	s.audit(ctx, store.AuditParams{
		Action: store.ActionRecordDelete,
		Target: kind,
		RowKey: id,
	})
	return nil
}

// --- Exports ---

// ExportRecords renders a full collection as CSV. For importable
// collections the headers match the import template so an export can
// be re-imported as-is. Returns the content and a suggested file name.
func (s *Service) ExportRecords(ctx context.Context, collection string) ([]byte, string, error) {
	var (
		header []string
		rows   [][]string
	)

	switch collection {
	case "agents":
		agents, err := s.store.AllAgents(ctx)
		if err != nil {
			return nil, "", err
		}
		header = []string{"name", "phone", "status", "createdAt"}
		for _, a := range agents {
			rows = append(rows, []string{a.Name, a.Phone, a.Status, a.CreatedAt.Format(time.RFC3339)})
		}

	case "shops":
		shops, err := s.store.AllShops(ctx)
		if err != nil {
			return nil, "", err
		}
		header = []string{"shopId", "clientName", "agent", "kycCompletedDate", "status"}
		for _, sh := range shops {
			kyc := ""
			if !sh.KYCCompletedDate.IsZero() {
				kyc = sh.KYCCompletedDate.Format(importer.DateOnly)
			}
			rows = append(rows, []string{sh.ShopID, sh.ClientName, sh.Agent, kyc, sh.Status})
		}

	case "inventory":
		items, err := s.store.AllInventory(ctx)
		if err != nil {
			return nil, "", err
		}
		header = []string{"agent", "imei", "model", "color", "appleIdUsername", "appleIdPassword", "remarks"}
		for _, it := range items {
			rows = append(rows, []string{it.Agent, it.IMEI, it.Model, it.Color, it.AppleIDUsername, it.AppleIDPassword, it.Remarks})
		}

	case store.KindDeposit, store.KindWithdrawal:
		txs, err := s.store.AllTransactions(ctx, collection)
		if err != nil {
			return nil, "", err
		}
		header = []string{"shopid", "agent", "date", "amount", "payment"}
		for _, tr := range txs {
			rows = append(rows, []string{
				tr.ShopID, tr.Agent,
				tr.Date.Format(importer.DateOnly),
				strconv.FormatFloat(tr.Amount, 'f', 2, 64),
				tr.Payment,
			})
		}

	default:
		return nil, "", fmt.Errorf("unknown collection: %s", collection)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("write export header: %w", err)
	}
	for i, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("write export row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush export: %w", err)
	}

	s.audit(ctx, store.AuditParams{
		Action:       store.ActionExport,
		Target:       collection,
		RowsAffected: len(rows),
	})

	return buf.Bytes(), collection + ".csv", nil
}
