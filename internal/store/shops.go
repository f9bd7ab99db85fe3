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

// Shop is a client shop managed by an agent.
type Shop struct {
	ShopID           string    `json:"shopId"`
	ClientName       string    `json:"clientName"`
	Agent            string    `json:"agent"`
	KYCCompletedDate time.Time `json:"kycCompletedDate"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	ImportID         string    `json:"importId,omitempty"`
}

const shopColumns = `shop_id, client_name, agent, kyc_completed_date, status, created_at, import_id`

func scanShop(row pgx.Row) (Shop, error) {
	var sh Shop
	var kyc pgtype.Date
	var importID pgtype.UUID
	err := row.Scan(&sh.ShopID, &sh.ClientName, &sh.Agent, &kyc, &sh.Status, &sh.CreatedAt, &importID)
	if err != nil {
		return Shop{}, err
	}
	sh.KYCCompletedDate = kyc.Time
	sh.ImportID = PgUUIDToString(importID)
	return sh, nil
}

// CreateShop inserts a shop created through the dashboard (no import).
func (s *Store) CreateShop(ctx context.Context, sh Shop) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO shops (shop_id, client_name, agent, kyc_completed_date, status) VALUES ($1, $2, $3, $4, $5)",
		sh.ShopID, sh.ClientName, sh.Agent,
		pgtype.Date{Time: sh.KYCCompletedDate, Valid: !sh.KYCCompletedDate.IsZero()},
		sh.Status)
	if err != nil {
		return fmt.Errorf("create shop: %w", err)
	}
	return nil
}

// GetShop looks a shop up by ID, case-insensitively.
func (s *Store) GetShop(ctx context.Context, shopID string) (*Shop, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM shops WHERE LOWER(shop_id) = LOWER($1)", shopColumns),
		shopID)
	sh, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sh, nil
}

// ListShops returns a page of shops plus the total count. Status and
// agent narrow the listing when non-empty.
func (s *Store) ListShops(ctx context.Context, opts ListOptions, status, agent string) ([]Shop, int64, error) {
	opts = opts.normalize()

	wb := NewWhereBuilder()
	wb.AddSearch(opts.Search, []importer.FieldSpec{
		{Name: "shopId", DBColumn: "shop_id"},
		{Name: "clientName", DBColumn: "client_name"},
		{Name: "agent"},
	})
	wb.Add("status", status)
	wb.Add("LOWER(agent)", strings.ToLower(agent))
	whereClause, args := wb.Build()

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM shops"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shops: %w", err)
	}

	order := orderClause(opts.SortBy, opts.SortDir, "shop_id", map[string]string{
		"shopId":           "shop_id",
		"clientName":       "client_name",
		"agent":            "agent",
		"kycCompletedDate": "kyc_completed_date",
		"status":           "status",
		"createdAt":        "created_at",
	})

	limit, offset := opts.window()
	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT %s FROM shops%s%s LIMIT $%d OFFSET $%d",
		shopColumns, whereClause, order, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query shops: %w", err)
	}
	defer rows.Close()

	shops := make([]Shop, 0)
	for rows.Next() {
		sh, err := scanShop(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, sh)
	}
	return shops, total, rows.Err()
}

// AllShops returns every shop ordered by ID, for exports.
func (s *Store) AllShops(ctx context.Context) ([]Shop, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM shops ORDER BY shop_id ASC", shopColumns))
	if err != nil {
		return nil, fmt.Errorf("query shops: %w", err)
	}
	defer rows.Close()

	shops := make([]Shop, 0)
	for rows.Next() {
		sh, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, sh)
	}
	return shops, rows.Err()
}

// UpdateShop updates a shop's mutable fields by ID.
func (s *Store) UpdateShop(ctx context.Context, sh Shop) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE shops SET client_name = $1, agent = $2, kyc_completed_date = $3, status = $4 WHERE LOWER(shop_id) = LOWER($5)",
		sh.ClientName, sh.Agent,
		pgtype.Date{Time: sh.KYCCompletedDate, Valid: !sh.KYCCompletedDate.IsZero()},
		sh.Status, sh.ShopID)
	if err != nil {
		return fmt.Errorf("update shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteShop removes a shop. Fails if transactions still reference it.
func (s *Store) DeleteShop(ctx context.Context, shopID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM shops WHERE LOWER(shop_id) = LOWER($1)", shopID)
	if err != nil {
		return fmt.Errorf("delete shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
