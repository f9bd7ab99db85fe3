package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// InventoryItem is one device held by an agent, keyed by IMEI.
type InventoryItem struct {
	IMEI            string    `json:"imei"`
	Agent           string    `json:"agent"`
	Model           string    `json:"model"`
	Color           string    `json:"color,omitempty"`
	AppleIDUsername string    `json:"appleIdUsername,omitempty"`
	AppleIDPassword string    `json:"appleIdPassword,omitempty"`
	Remarks         string    `json:"remarks,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ImportID        string    `json:"importId,omitempty"`
}

const inventoryColumns = `imei, agent, model, color, apple_id_username, apple_id_password, remarks, created_at, import_id`

func scanInventoryItem(row pgx.Row) (InventoryItem, error) {
	var it InventoryItem
	var color, username, password, remarks pgtype.Text
	var importID pgtype.UUID
	err := row.Scan(&it.IMEI, &it.Agent, &it.Model, &color, &username, &password, &remarks, &it.CreatedAt, &importID)
	if err != nil {
		return InventoryItem{}, err
	}
	it.Color = color.String
	it.AppleIDUsername = username.String
	it.AppleIDPassword = password.String
	it.Remarks = remarks.String
	it.ImportID = PgUUIDToString(importID)
	return it, nil
}

// CreateInventoryItem inserts a device added through the dashboard.
func (s *Store) CreateInventoryItem(ctx context.Context, it InventoryItem) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO inventory (imei, agent, model, color, apple_id_username, apple_id_password, remarks) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		it.IMEI, it.Agent, it.Model,
		ToPgText(it.Color), ToPgText(it.AppleIDUsername), ToPgText(it.AppleIDPassword), ToPgText(it.Remarks))
	if err != nil {
		return fmt.Errorf("create inventory item: %w", err)
	}
	return nil
}

// GetInventoryItem looks a device up by IMEI, case-insensitively.
func (s *Store) GetInventoryItem(ctx context.Context, imei string) (*InventoryItem, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM inventory WHERE LOWER(imei) = LOWER($1)", inventoryColumns),
		imei)
	it, err := scanInventoryItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// ListInventory returns a page of devices plus the total count. Agent
// narrows the listing when non-empty.
func (s *Store) ListInventory(ctx context.Context, opts ListOptions, agent string) ([]InventoryItem, int64, error) {
	opts = opts.normalize()

	wb := NewWhereBuilder()
	wb.AddSearch(opts.Search, []importer.FieldSpec{
		{Name: "imei"},
		{Name: "model"},
		{Name: "agent"},
		{Name: "remarks"},
	})
	wb.Add("LOWER(agent)", strings.ToLower(agent))
	whereClause, args := wb.Build()

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM inventory"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory: %w", err)
	}

	order := orderClause(opts.SortBy, opts.SortDir, "imei", map[string]string{
		"imei":      "imei",
		"agent":     "agent",
		"model":     "model",
		"createdAt": "created_at",
	})

	limit, offset := opts.window()
	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT %s FROM inventory%s%s LIMIT $%d OFFSET $%d",
		inventoryColumns, whereClause, order, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]InventoryItem, 0)
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// AllInventory returns every device ordered by IMEI, for exports.
func (s *Store) AllInventory(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM inventory ORDER BY imei ASC", inventoryColumns))
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]InventoryItem, 0)
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateInventoryItem updates a device's mutable fields by IMEI.
func (s *Store) UpdateInventoryItem(ctx context.Context, it InventoryItem) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE inventory SET agent = $1, model = $2, color = $3, apple_id_username = $4, apple_id_password = $5, remarks = $6 WHERE LOWER(imei) = LOWER($7)",
		it.Agent, it.Model,
		ToPgText(it.Color), ToPgText(it.AppleIDUsername), ToPgText(it.AppleIDPassword), ToPgText(it.Remarks),
		it.IMEI)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInventoryItem removes a device by IMEI.
func (s *Store) DeleteInventoryItem(ctx context.Context, imei string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM inventory WHERE LOWER(imei) = LOWER($1)", imei)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
