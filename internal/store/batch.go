package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// BatchResult reports one committed import batch.
type BatchResult struct {
	ImportID     string `json:"importId"`
	RowsInserted int    `json:"rowsInserted"`
	DurationMs   int64  `json:"durationMs"`
}

// CommitBatch writes every ready row of a plan in one transaction,
// together with its import_log entry. Either everything lands or
// nothing does: any insert error rolls the whole batch back.
func (s *Store) CommitBatch(ctx context.Context, t importer.Target, fileName string, plan *importer.Plan) (*BatchResult, error) {
	ready := plan.Ready()
	if len(ready) == 0 {
		return nil, fmt.Errorf("no rows ready to import")
	}

	start := time.Now()
	importID := uuid.New().String()
	createdAt := start.UTC()

	cols := t.DBColumns()
	insertCols := append(append([]string{}, cols...), "created_at", "import_id")
	placeholders := make([]string, len(insertCols))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(t.Table),
		strings.Join(quoteColumns(insertCols), ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range ready {
		args := make([]any, 0, len(insertCols))
		for _, col := range cols {
			args = append(args, bindValue(row.Record[col]))
		}
		args = append(args, createdAt, ToPgUUID(importID))

		if _, err := tx.Exec(ctx, insertSQL, args...); err != nil {
			return nil, fmt.Errorf("insert row %d: %w", row.Line, err)
		}
	}

	counts := plan.Counts()
	_, err = tx.Exec(ctx, `
		INSERT INTO import_log (id, target, file_name, rows_imported, rows_duplicate, rows_invalid, duration_ms, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8)`,
		ToPgUUID(importID), t.Key, fileName,
		counts.Ready, counts.Duplicate, counts.Invalid,
		time.Since(start).Milliseconds(), createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &BatchResult{
		ImportID:     importID,
		RowsInserted: len(ready),
		DurationMs:   time.Since(start).Milliseconds(),
	}, nil
}
