package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DashboardStats aggregates table counts and money totals for the
// overview screen.
type DashboardStats struct {
	Agents          int64   `json:"agents"`
	Shops           int64   `json:"shops"`
	InventoryItems  int64   `json:"inventoryItems"`
	Deposits        int64   `json:"deposits"`
	Withdrawals     int64   `json:"withdrawals"`
	DepositTotal    float64 `json:"depositTotal"`
	WithdrawalTotal float64 `json:"withdrawalTotal"`
	NetBalance      float64 `json:"netBalance"`
}

// TableCounts returns row counts for every dashboard table in a single
// UNION ALL query.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	tables := []string{"agents", "shops", "inventory", "deposits", "withdrawals"}

	var unionParts []string
	for _, table := range tables {
		unionParts = append(unionParts, fmt.Sprintf(
			"SELECT '%s' as table_name, COUNT(*) as cnt FROM %s",
			table, quoteIdentifier(table)))
	}
	query := strings.Join(unionParts, " UNION ALL ")

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query table counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(tables))
	for rows.Next() {
		var table string
		var count int64
		if err := rows.Scan(&table, &count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[table] = count
	}
	return counts, rows.Err()
}

// GetDashboardStats builds the overview numbers.
func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.TableCounts(ctx)
	if err != nil {
		return nil, err
	}

	var depositTotal, withdrawalTotal pgtype.Numeric
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE((SELECT SUM(amount) FROM deposits), 0),
		       COALESCE((SELECT SUM(amount) FROM withdrawals), 0)`).
		Scan(&depositTotal, &withdrawalTotal)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	stats := &DashboardStats{
		Agents:          counts["agents"],
		Shops:           counts["shops"],
		InventoryItems:  counts["inventory"],
		Deposits:        counts["deposits"],
		Withdrawals:     counts["withdrawals"],
		DepositTotal:    NumericToFloat(depositTotal),
		WithdrawalTotal: NumericToFloat(withdrawalTotal),
	}
	stats.NetBalance = stats.DepositTotal - stats.WithdrawalTotal
	return stats, nil
}

// AgentSummary is the per-agent performance rollup.
type AgentSummary struct {
	Agent           string  `json:"agent"`
	Shops           int64   `json:"shops"`
	InventoryItems  int64   `json:"inventoryItems"`
	Deposits        int64   `json:"deposits"`
	DepositTotal    float64 `json:"depositTotal"`
	Withdrawals     int64   `json:"withdrawals"`
	WithdrawalTotal float64 `json:"withdrawalTotal"`
	NetBalance      float64 `json:"netBalance"`
}

// AgentSummaries rolls shops, inventory, and transactions up per agent.
func (s *Store) AgentSummaries(ctx context.Context) ([]AgentSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.name,
		       (SELECT COUNT(*) FROM shops sh WHERE sh.agent = a.name),
		       (SELECT COUNT(*) FROM inventory i WHERE i.agent = a.name),
		       (SELECT COUNT(*) FROM deposits d WHERE d.agent = a.name),
		       COALESCE((SELECT SUM(d.amount) FROM deposits d WHERE d.agent = a.name), 0),
		       (SELECT COUNT(*) FROM withdrawals w WHERE w.agent = a.name),
		       COALESCE((SELECT SUM(w.amount) FROM withdrawals w WHERE w.agent = a.name), 0)
		FROM agents a
		ORDER BY a.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query agent summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]AgentSummary, 0)
	for rows.Next() {
		var sum AgentSummary
		var depositTotal, withdrawalTotal pgtype.Numeric
		err := rows.Scan(&sum.Agent, &sum.Shops, &sum.InventoryItems,
			&sum.Deposits, &depositTotal, &sum.Withdrawals, &withdrawalTotal)
		if err != nil {
			return nil, fmt.Errorf("scan agent summary: %w", err)
		}
		sum.DepositTotal = NumericToFloat(depositTotal)
		sum.WithdrawalTotal = NumericToFloat(withdrawalTotal)
		sum.NetBalance = sum.DepositTotal - sum.WithdrawalTotal
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// MonthlyVolume is one month's transaction volume.
type MonthlyVolume struct {
	Month           time.Time `json:"month"`
	DepositTotal    float64   `json:"depositTotal"`
	WithdrawalTotal float64   `json:"withdrawalTotal"`
}

// MonthlyVolumes returns deposit and withdrawal totals per calendar
// month for the trailing window, oldest first.
func (s *Store) MonthlyVolumes(ctx context.Context, months int) ([]MonthlyVolume, error) {
	if months < 1 {
		months = 12
	}
	since := time.Now().AddDate(0, -months, 0)

	rows, err := s.pool.Query(ctx, `
		SELECT month, COALESCE(SUM(deposit), 0), COALESCE(SUM(withdrawal), 0)
		FROM (
			SELECT date_trunc('month', deposit_date) AS month, amount AS deposit, NULL::numeric AS withdrawal
			FROM deposits WHERE deposit_date >= $1
			UNION ALL
			SELECT date_trunc('month', withdrawal_date) AS month, NULL::numeric AS deposit, amount AS withdrawal
			FROM withdrawals WHERE withdrawal_date >= $1
		) volumes
		GROUP BY month
		ORDER BY month ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("query monthly volumes: %w", err)
	}
	defer rows.Close()

	volumes := make([]MonthlyVolume, 0)
	for rows.Next() {
		var v MonthlyVolume
		var deposits, withdrawals pgtype.Numeric
		if err := rows.Scan(&v.Month, &deposits, &withdrawals); err != nil {
			return nil, fmt.Errorf("scan monthly volume: %w", err)
		}
		v.DepositTotal = NumericToFloat(deposits)
		v.WithdrawalTotal = NumericToFloat(withdrawals)
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}
