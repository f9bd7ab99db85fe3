package core

// history.go covers the lifecycle of committed imports: listing them,
// inspecting one, and rolling one back. A rollback deletes exactly the
// rows the import inserted and marks the log entry, so history stays
// auditable instead of disappearing.

import (
	"context"

	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// ImportHistory lists committed imports, newest first. An empty target
// lists every target.
func (s *Service) ImportHistory(ctx context.Context, target string, limit int) ([]store.ImportLogEntry, error) {
	if target != "" {
		if _, err := targetOrErr(target); err != nil {
			return nil, err
		}
	}
	return s.store.ImportHistory(ctx, target, limit)
}

// GetImport returns one import log entry by ID.
func (s *Service) GetImport(ctx context.Context, importID string) (*store.ImportLogEntry, error) {
	return s.store.GetImport(ctx, importID)
}

// RollbackImport deletes every row a committed import inserted, marks
// the log entry rolled back, and records the action in the audit log.
func (s *Service) RollbackImport(ctx context.Context, importID, reason string) (*store.RollbackResult, error) {
	res, err := s.store.RollbackImport(ctx, importID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, store.AuditParams{
		Action:       store.ActionImportRollback,
		Target:       res.Target,
		RowsAffected: int(res.RowsDeleted),
		ImportID:     importID,
		Reason:       reason,
	})

	s.log.Info("import rolled back",
		"target", res.Target,
		"import_id", importID,
		"rows_deleted", res.RowsDeleted,
	)

	return res, nil
}
