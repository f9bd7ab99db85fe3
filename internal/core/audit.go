package core

// audit.go exposes the audit trail: paged queries, CSV export, and a
// background pruner that enforces the retention window.

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// AuditLog returns a page of audit entries plus the total match count.
func (s *Service) AuditLog(ctx context.Context, opts store.AuditQueryOptions) ([]store.AuditEntry, int64, error) {
	return s.store.AuditLog(ctx, opts)
}

// ExportAudit renders every audit entry matching the filter as CSV,
// paging through the store so no single query is unbounded. Returns
// the content and a suggested file name.
func (s *Service) ExportAudit(ctx context.Context, opts store.AuditQueryOptions) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"createdAt", "action", "severity", "target", "rowKey", "importId", "rowsAffected", "ipAddress", "reason", "details"}
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("write audit header: %w", err)
	}

	opts.Page = 1
	opts.PerPage = store.MaxPageSize
	for {
		entries, _, err := s.store.AuditLog(ctx, opts)
		if err != nil {
			return nil, "", err
		}
		for _, e := range entries {
			details := ""
			if len(e.Details) > 0 {
				if b, err := json.Marshal(e.Details); err == nil {
					details = string(b)
				}
			}
			row := []string{
				e.CreatedAt.Format(time.RFC3339),
				string(e.Action),
				string(e.Severity),
				e.Target,
				e.RowKey,
				e.ImportID,
				strconv.Itoa(e.RowsAffected),
				e.IPAddress,
				e.Reason,
				details,
			}
			if err := w.Write(row); err != nil {
				return nil, "", fmt.Errorf("write audit row: %w", err)
			}
		}
		if len(entries) < opts.PerPage {
			break
		}
		opts.Page++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush audit export: %w", err)
	}

	return buf.Bytes(), "audit_log.csv", nil
}

// AuditRetention configures the background pruner. Zero values select
// defaults.
type AuditRetention struct {
	// KeepFor is how long entries survive (default: 180 days).
	KeepFor time.Duration
	// CheckInterval is how often the pruner runs (default: 24h).
	CheckInterval time.Duration
}

// StartAuditPruner starts a background goroutine that periodically
// deletes audit entries older than the retention window. It runs once
// at startup, then every CheckInterval, and stops when the context is
// cancelled.
func (s *Service) StartAuditPruner(ctx context.Context, cfg AuditRetention) {
	if cfg.KeepFor <= 0 {
		cfg.KeepFor = 180 * 24 * time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}

	s.log.Info("audit pruner started",
		"keep_for", cfg.KeepFor,
		"check_interval", cfg.CheckInterval,
	)

	s.runAuditPrune(ctx, cfg.KeepFor)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("audit pruner stopped")
			return
		case <-ticker.C:
			s.runAuditPrune(ctx, cfg.KeepFor)
		}
	}
}

func (s *Service) runAuditPrune(ctx context.Context, keepFor time.Duration) {
	start := time.Now()
	pruned, err := s.store.PruneAudit(ctx, keepFor)
	if err != nil {
		s.log.Error("audit prune failed", "error", err)
		return
	}
	if pruned > 0 {
		s.log.Info("audit entries pruned",
			"count", pruned,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
