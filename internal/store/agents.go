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

// Agent statuses.
var AgentStatuses = []string{"Active", "Inactive"}

// Agent is a sales agent. Agents anchor shops, inventory, and
// transactions; every import resolves agent references against this
// table case-insensitively.
type Agent struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	var phone pgtype.Text
	if err := row.Scan(&a.Name, &phone, &a.Status, &a.CreatedAt); err != nil {
		return Agent{}, err
	}
	a.Phone = phone.String
	return a, nil
}

// CreateAgent inserts a new agent.
func (s *Store) CreateAgent(ctx context.Context, a Agent) error {
	if a.Status == "" {
		a.Status = AgentStatuses[0]
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO agents (name, phone, status) VALUES ($1, $2, $3)",
		a.Name, ToPgText(a.Phone), a.Status)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

// GetAgent looks an agent up by name, case-insensitively.
func (s *Store) GetAgent(ctx context.Context, name string) (*Agent, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT name, phone, status, created_at FROM agents WHERE LOWER(name) = LOWER($1)",
		name)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAgents returns a page of agents plus the total count.
func (s *Store) ListAgents(ctx context.Context, opts ListOptions) ([]Agent, int64, error) {
	opts = opts.normalize()

	wb := NewWhereBuilder()
	wb.AddSearch(opts.Search, []importer.FieldSpec{{Name: "name"}, {Name: "phone"}, {Name: "status"}})
	whereClause, args := wb.Build()

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM agents"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count agents: %w", err)
	}

	order := orderClause(opts.SortBy, opts.SortDir, "name", map[string]string{
		"name":      "name",
		"status":    "status",
		"createdAt": "created_at",
	})

	limit, offset := opts.window()
	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT name, phone, status, created_at FROM agents%s%s LIMIT $%d OFFSET $%d",
		whereClause, order, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, total, rows.Err()
}

// AllAgents returns every agent ordered by name, for exports.
func (s *Store) AllAgents(ctx context.Context) ([]Agent, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT name, phone, status, created_at FROM agents ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// UpdateAgent updates an agent's phone and status by name.
func (s *Store) UpdateAgent(ctx context.Context, a Agent) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE agents SET phone = $1, status = $2 WHERE LOWER(name) = LOWER($3)",
		ToPgText(a.Phone), a.Status, a.Name)
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAgent removes an agent. Fails if shops, inventory, or
// transactions still reference the agent.
func (s *Store) DeleteAgent(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM agents WHERE LOWER(name) = LOWER($1)", name)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
