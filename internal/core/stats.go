package core

// stats.go serves the reporting screens: dashboard totals, per-agent
// performance, monthly volumes, and per-target import status.

import (
	"context"

	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// DashboardStats returns row counts and money totals for the overview.
func (s *Service) DashboardStats(ctx context.Context) (*store.DashboardStats, error) {
	return s.store.GetDashboardStats(ctx)
}

// AgentSummaries returns the per-agent performance rollup.
func (s *Service) AgentSummaries(ctx context.Context) ([]store.AgentSummary, error) {
	return s.store.AgentSummaries(ctx)
}

// MonthlyVolumes returns deposit and withdrawal totals per calendar
// month for the trailing window.
func (s *Service) MonthlyVolumes(ctx context.Context, months int) ([]store.MonthlyVolume, error) {
	return s.store.MonthlyVolumes(ctx, months)
}

// TargetStats describes one import target's table for the import page.
type TargetStats struct {
	RowCount   int64                 `json:"rowCount"`
	LastImport *store.ImportLogEntry `json:"lastImport,omitempty"`
}

// AllTargetStats returns, for every registered target, the current row
// count and the most recent active import.
func (s *Service) AllTargetStats(ctx context.Context) (map[string]TargetStats, error) {
	counts, err := s.store.TableCounts(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]TargetStats)
	for _, info := range s.ListTargets() {
		t, err := targetOrErr(info.Key)
		if err != nil {
			continue
		}
		last, err := s.store.LastImport(ctx, t.Key)
		if err != nil {
			return nil, err
		}
		result[t.Key] = TargetStats{
			RowCount:   counts[t.Table],
			LastImport: last,
		}
	}
	return result, nil
}
