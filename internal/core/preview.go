package core

// preview.go implements the first half of the import lifecycle: parse
// and validate a CSV upload into a plan, park the plan in a session,
// and serve pages of the annotated rows. Nothing here writes to the
// data tables; commit.go does that.

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// PreviewResult summarizes a parked plan for API consumers.
type PreviewResult struct {
	SessionID string              `json:"sessionId"`
	Target    string              `json:"target"`
	FileName  string              `json:"fileName"`
	Counts    importer.PlanCounts `json:"counts"`
	CreatedAt time.Time           `json:"createdAt"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

func previewResult(sess importSession, ttl time.Duration) *PreviewResult {
	return &PreviewResult{
		SessionID: sess.ID,
		Target:    sess.TargetKey,
		FileName:  sess.FileName,
		Counts:    sess.Plan.Counts(),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.UpdatedAt.Add(ttl),
	}
}

// Preview validates an uploaded CSV against the current database state
// and parks the resulting plan in a session awaiting confirmation.
// Every data row of the file appears in the plan, classified as ready,
// duplicate, or invalid; nothing is written yet.
func (s *Service) Preview(ctx context.Context, targetKey, fileName string, data []byte) (*PreviewResult, error) {
	t, err := targetOrErr(targetKey)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes exceeds the %d byte limit", len(data), s.maxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()

	refs, err := s.store.LoadReferences(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}

	plan, err := importer.BuildPlan(t, refs, data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &importSession{
		ID:        uuid.New().String(),
		TargetKey: t.Key,
		FileName:  fileName,
		Data:      data,
		Plan:      plan,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.putSession(sess)

	counts := plan.Counts()
	s.log.Info("import preview built",
		"target", t.Key,
		"file", fileName,
		"session", sess.ID,
		"rows", counts.Total,
		"ready", counts.Ready,
		"duplicate", counts.Duplicate,
		"invalid", counts.Invalid,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return previewResult(*sess, s.sessionTTL), nil
}

// Revalidate rebuilds a parked plan from the original file bytes
// against a fresh reference snapshot. Rows that were duplicates of
// since-deleted records become ready; rows whose references vanished
// become invalid.
func (s *Service) Revalidate(ctx context.Context, sessionID string) (*PreviewResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	t, err := targetOrErr(sess.TargetKey)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	refs, err := s.store.LoadReferences(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}

	plan, err := importer.BuildPlan(t, refs, sess.Data)
	if err != nil {
		return nil, err
	}
	if err := s.setSessionPlan(sessionID, plan); err != nil {
		return nil, err
	}

	sess, err = s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.log.Info("import preview revalidated",
		"target", sess.TargetKey,
		"session", sess.ID,
		"ready", plan.Counts().Ready,
	)

	return previewResult(sess, s.sessionTTL), nil
}

// PlanStatus returns the current summary of a parked plan.
func (s *Service) PlanStatus(sessionID string) (*PreviewResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return previewResult(sess, s.sessionTTL), nil
}

// RowsOptions selects a page of plan rows. Disposition narrows the page
// to "ready", "duplicate", or "invalid"; empty means all rows.
type RowsOptions struct {
	Disposition string
	Page        int
	PerPage     int
}

// RowsPage is one page of annotated plan rows, in file order.
type RowsPage struct {
	Rows    []importer.ValidatedRow `json:"rows"`
	Total   int                     `json:"total"`
	Page    int                     `json:"page"`
	PerPage int                     `json:"perPage"`
	Counts  importer.PlanCounts     `json:"counts"`
}

// PlanRows returns a page of the plan's rows, preserving file order.
func (s *Service) PlanRows(sessionID string, opts RowsOptions) (*RowsPage, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	rows := sess.Plan.Rows
	if opts.Disposition != "" {
		filtered := make([]importer.ValidatedRow, 0, len(rows))
		for _, row := range rows {
			if row.Disposition.String() == opts.Disposition {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 100
	}
	if perPage > 1000 {
		perPage = 1000
	}

	total := len(rows)
	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	end := offset + perPage
	if end > total {
		end = total
	}

	return &RowsPage{
		Rows:    rows[offset:end],
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Counts:  sess.Plan.Counts(),
	}, nil
}

// ExportPlan renders the full annotated plan as CSV: the target's
// columns followed by Line, Status, and Reason. Every uploaded row is
// present in file order. Returns the content and a suggested file name.
func (s *Service) ExportPlan(sessionID string) ([]byte, string, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, "", err
	}
	t, err := targetOrErr(sess.TargetKey)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(t.ColumnNames(), "Line", "Status", "Reason")
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("write export header: %w", err)
	}

	for _, row := range sess.Plan.Rows {
		out := make([]string, 0, len(header))
		for _, spec := range t.Columns {
			out = append(out, row.Values[spec.Name])
		}
		out = append(out, strconv.Itoa(row.Line), row.Disposition.String(), row.Reason)
		if err := w.Write(out); err != nil {
			return nil, "", fmt.Errorf("write export row %d: %w", row.Line, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush export: %w", err)
	}

	return buf.Bytes(), t.Key + "_preview.csv", nil
}
