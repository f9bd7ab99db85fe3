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

// Transaction kinds, matching their import target keys.
const (
	KindDeposit    = "deposits"
	KindWithdrawal = "withdrawals"
)

// Transaction is one money movement at a shop: a deposit or a
// withdrawal depending on the kind it is stored under.
type Transaction struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shopId"`
	Agent     string    `json:"agent"`
	Date      time.Time `json:"date"`
	Amount    float64   `json:"amount"`
	Payment   string    `json:"payment"`
	CreatedAt time.Time `json:"createdAt"`
	ImportID  string    `json:"importId,omitempty"`
}

// transactionTable maps a kind to its table and date column.
func transactionTable(kind string) (table, dateColumn string, err error) {
	switch kind {
	case KindDeposit:
		return "deposits", "deposit_date", nil
	case KindWithdrawal:
		return "withdrawals", "withdrawal_date", nil
	default:
		return "", "", fmt.Errorf("unknown transaction kind: %s", kind)
	}
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tr Transaction
	var id, importID pgtype.UUID
	var date pgtype.Date
	var amount pgtype.Numeric
	err := row.Scan(&id, &tr.ShopID, &tr.Agent, &date, &amount, &tr.Payment, &tr.CreatedAt, &importID)
	if err != nil {
		return Transaction{}, err
	}
	tr.ID = PgUUIDToString(id)
	tr.Date = date.Time
	tr.Amount = NumericToFloat(amount)
	tr.ImportID = PgUUIDToString(importID)
	return tr, nil
}

// CreateTransaction inserts a transaction added through the dashboard
// and returns its generated ID.
func (s *Store) CreateTransaction(ctx context.Context, kind string, tr Transaction) (string, error) {
	table, dateColumn, err := transactionTable(kind)
	if err != nil {
		return "", err
	}

	var id pgtype.UUID
	err = s.pool.QueryRow(ctx, fmt.Sprintf(
		"INSERT INTO %s (shop_id, agent, %s, amount, payment) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		quoteIdentifier(table), quoteIdentifier(dateColumn)),
		tr.ShopID, tr.Agent,
		pgtype.Date{Time: tr.Date, Valid: !tr.Date.IsZero()},
		numericFromFloat(tr.Amount), tr.Payment,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", strings.TrimSuffix(kind, "s"), err)
	}
	return PgUUIDToString(id), nil
}

// GetTransaction looks a transaction up by ID.
func (s *Store) GetTransaction(ctx context.Context, kind, id string) (*Transaction, error) {
	table, dateColumn, err := transactionTable(kind)
	if err != nil {
		return nil, err
	}
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return nil, ErrNotFound
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT id, shop_id, agent, %s, amount, payment, created_at, import_id FROM %s WHERE id = $1",
		quoteIdentifier(dateColumn), quoteIdentifier(table)), pgID)
	tr, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tr, nil
}

// ListTransactions returns a page of transactions plus the total count.
// Shop, agent, and the inclusive date bounds narrow the listing when
// non-empty.
func (s *Store) ListTransactions(ctx context.Context, kind string, opts ListOptions, shopID, agent, from, to string) ([]Transaction, int64, error) {
	table, dateColumn, err := transactionTable(kind)
	if err != nil {
		return nil, 0, err
	}
	opts = opts.normalize()

	wb := NewWhereBuilder()
	wb.AddSearch(opts.Search, []importer.FieldSpec{
		{Name: "shopId", DBColumn: "shop_id"},
		{Name: "agent"},
		{Name: "payment"},
	})
	wb.Add("LOWER(shop_id)", strings.ToLower(shopID))
	wb.Add("LOWER(agent)", strings.ToLower(agent))
	wb.AddTimestampRange(quoteIdentifier(dateColumn), from, to)
	whereClause, args := wb.Build()

	var total int64
	if err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(table), whereClause),
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", kind, err)
	}

	order := orderClause(opts.SortBy, opts.SortDir, dateColumn, map[string]string{
		"date":      dateColumn,
		"shopId":    "shop_id",
		"agent":     "agent",
		"amount":    "amount",
		"payment":   "payment",
		"createdAt": "created_at",
	})
	if opts.SortBy == "" {
		order = fmt.Sprintf(" ORDER BY %s DESC", quoteIdentifier(dateColumn))
	}

	limit, offset := opts.window()
	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT id, shop_id, agent, %s, amount, payment, created_at, import_id FROM %s%s%s LIMIT $%d OFFSET $%d",
		quoteIdentifier(dateColumn), quoteIdentifier(table), whereClause, order, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, tr)
	}
	return transactions, total, rows.Err()
}

// AllTransactions returns every transaction of a kind ordered by date,
// newest first, for exports.
func (s *Store) AllTransactions(ctx context.Context, kind string) ([]Transaction, error) {
	table, dateColumn, err := transactionTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT id, shop_id, agent, %s, amount, payment, created_at, import_id FROM %s ORDER BY %s DESC",
		quoteIdentifier(dateColumn), quoteIdentifier(table), quoteIdentifier(dateColumn)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, tr)
	}
	return transactions, rows.Err()
}

// UpdateTransaction updates a transaction's fields by ID.
func (s *Store) UpdateTransaction(ctx context.Context, kind string, tr Transaction) error {
	table, dateColumn, err := transactionTable(kind)
	if err != nil {
		return err
	}
	pgID := ToPgUUID(tr.ID)
	if !pgID.Valid {
		return ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET shop_id = $1, agent = $2, %s = $3, amount = $4, payment = $5 WHERE id = $6",
		quoteIdentifier(table), quoteIdentifier(dateColumn)),
		tr.ShopID, tr.Agent,
		pgtype.Date{Time: tr.Date, Valid: !tr.Date.IsZero()},
		numericFromFloat(tr.Amount), tr.Payment, pgID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, kind, id string) error {
	table, _, err := transactionTable(kind)
	if err != nil {
		return err
	}
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return ErrNotFound
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", quoteIdentifier(table)), pgID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
