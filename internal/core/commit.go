package core

// commit.go implements the second half of the import lifecycle. A
// commit writes every ready row of a parked plan in one transaction;
// on failure the session and its plan survive untouched so the user
// can retry or discard.

import (
	"context"
	"errors"
	"time"

	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// ErrNothingToImport is returned when a plan has zero ready rows.
// Nothing is written and the session is left in place.
var ErrNothingToImport = errors.New("nothing to import: no rows are ready")

// CommitResult reports a successful batch commit.
type CommitResult struct {
	ImportID     string `json:"importId"`
	Target       string `json:"target"`
	FileName     string `json:"fileName"`
	RowsInserted int    `json:"rowsInserted"`
	DurationMs   int64  `json:"durationMs"`
}

// Commit writes all ready rows of a parked plan in a single
// all-or-nothing transaction and logs the batch. The session is
// removed only after the commit succeeds.
func (s *Service) Commit(ctx context.Context, sessionID string) (*CommitResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	t, err := targetOrErr(sess.TargetKey)
	if err != nil {
		return nil, err
	}

	counts := sess.Plan.Counts()
	if counts.Ready == 0 {
		return nil, ErrNothingToImport
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()

	res, err := s.store.CommitBatch(ctx, t, sess.FileName, sess.Plan)
	if err != nil {
		s.log.Error("import commit failed",
			"target", t.Key,
			"session", sess.ID,
			"error", err,
		)
		return nil, err
	}

	s.audit(ctx, store.AuditParams{
		Action:       store.ActionImport,
		Target:       t.Key,
		RowsAffected: res.RowsInserted,
		ImportID:     res.ImportID,
		Details: map[string]any{
			"fileName":  sess.FileName,
			"total":     counts.Total,
			"ready":     counts.Ready,
			"duplicate": counts.Duplicate,
			"invalid":   counts.Invalid,
		},
	})

	s.deleteSession(sessionID)

	s.log.Info("import committed",
		"target", t.Key,
		"session", sess.ID,
		"import_id", res.ImportID,
		"rows", res.RowsInserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &CommitResult{
		ImportID:     res.ImportID,
		Target:       t.Key,
		FileName:     sess.FileName,
		RowsInserted: res.RowsInserted,
		DurationMs:   res.DurationMs,
	}, nil
}

// Discard drops a parked plan without writing anything.
func (s *Service) Discard(sessionID string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}
	s.deleteSession(sessionID)

	s.log.Info("import preview discarded",
		"target", sess.TargetKey,
		"session", sess.ID,
	)
	return nil
}

// audit writes an audit entry, logging instead of failing when the
// write itself errors. Request metadata rides in on the context.
func (s *Service) audit(ctx context.Context, params store.AuditParams) {
	if params.IPAddress == "" {
		params.IPAddress = GetIPAddressFromContext(ctx)
	}
	if params.UserAgent == "" {
		params.UserAgent = GetUserAgentFromContext(ctx)
	}
	if err := s.store.InsertAudit(ctx, params); err != nil {
		s.log.Warn("audit write failed", "action", params.Action, "error", err)
	}
}
