package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// Import log status values.
const (
	ImportStatusActive     = "active"
	ImportStatusRolledBack = "rolled_back"
)

var (
	ErrImportNotFound    = errors.New("import not found")
	ErrAlreadyRolledBack = errors.New("import already rolled back")
)

// ImportLogEntry is one row of import_log.
type ImportLogEntry struct {
	ID            string    `json:"id"`
	Target        string    `json:"target"`
	FileName      string    `json:"fileName"`
	RowsImported  int       `json:"rowsImported"`
	RowsDuplicate int       `json:"rowsDuplicate"`
	RowsInvalid   int       `json:"rowsInvalid"`
	DurationMs    int64     `json:"durationMs"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

const importLogColumns = `id, target, file_name, rows_imported, rows_duplicate, rows_invalid, duration_ms, status, created_at`

func scanImportLogEntry(row pgx.Row) (ImportLogEntry, error) {
	var e ImportLogEntry
	var id pgtype.UUID
	err := row.Scan(&id, &e.Target, &e.FileName,
		&e.RowsImported, &e.RowsDuplicate, &e.RowsInvalid,
		&e.DurationMs, &e.Status, &e.CreatedAt)
	if err != nil {
		return ImportLogEntry{}, err
	}
	e.ID = PgUUIDToString(id)
	return e, nil
}

// ImportHistory lists import_log entries, newest first. A non-empty
// target narrows the listing to that target.
func (s *Store) ImportHistory(ctx context.Context, target string, limit int) ([]ImportLogEntry, error) {
	wb := NewWhereBuilder()
	wb.Add("target", target)
	whereClause, args := wb.Build()

	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	query := fmt.Sprintf("SELECT %s FROM import_log%s ORDER BY created_at DESC LIMIT $%d",
		importLogColumns, whereClause, wb.NextArgIndex())
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	entries := make([]ImportLogEntry, 0)
	for rows.Next() {
		e, err := scanImportLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetImport returns one import_log entry by ID.
func (s *Store) GetImport(ctx context.Context, importID string) (*ImportLogEntry, error) {
	id := ToPgUUID(importID)
	if !id.Valid {
		return nil, ErrImportNotFound
	}

	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM import_log WHERE id = $1", importLogColumns), id)
	e, err := scanImportLogEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrImportNotFound
		}
		return nil, err
	}
	return &e, nil
}

// LastImport returns the most recent active import for a target, or
// nil when the target has never been imported into.
func (s *Store) LastImport(ctx context.Context, target string) (*ImportLogEntry, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM import_log WHERE target = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1",
		importLogColumns), target, ImportStatusActive)
	e, err := scanImportLogEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// RollbackResult reports a rollback of one committed import.
type RollbackResult struct {
	ImportID    string `json:"importId"`
	Target      string `json:"target"`
	RowsDeleted int64  `json:"rowsDeleted"`
}

// RollbackImport deletes every row a committed import inserted and
// marks its log entry rolled back, in one transaction.
func (s *Store) RollbackImport(ctx context.Context, importID string) (*RollbackResult, error) {
	entry, err := s.GetImport(ctx, importID)
	if err != nil {
		return nil, err
	}
	if entry.Status == ImportStatusRolledBack {
		return nil, ErrAlreadyRolledBack
	}

	t, ok := importer.Get(entry.Target)
	if !ok {
		return nil, fmt.Errorf("unknown target: %s", entry.Target)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE import_id = $1", quoteIdentifier(t.Table)),
		ToPgUUID(importID))
	if err != nil {
		return nil, fmt.Errorf("delete imported rows: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE import_log SET status = $1 WHERE id = $2",
		ImportStatusRolledBack, ToPgUUID(importID)); err != nil {
		return nil, fmt.Errorf("mark rolled back: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &RollbackResult{
		ImportID:    importID,
		Target:      entry.Target,
		RowsDeleted: tag.RowsAffected(),
	}, nil
}
