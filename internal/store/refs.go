package store

// refs.go loads the reference snapshot an import preview validates
// against. The snapshot is taken once per preview; database constraints
// catch anything that changes between preview and commit.

import (
	"context"
	"fmt"
	"strings"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// LoadReferences builds the validation snapshot for one target: every
// existing natural key of the target's table plus the agent and shop
// lookups used to resolve references.
func (s *Store) LoadReferences(ctx context.Context, t importer.Target) (importer.References, error) {
	refs := importer.References{
		ExistingKeys: make(map[string]struct{}),
		Agents:       make(map[string]string),
		Shops:        make(map[string]string),
	}

	if err := s.loadLookup(ctx, "agents", "name", refs.Agents); err != nil {
		return refs, fmt.Errorf("load agents: %w", err)
	}
	if err := s.loadLookup(ctx, "shops", "shop_id", refs.Shops); err != nil {
		return refs, fmt.Errorf("load shops: %w", err)
	}
	if err := s.loadExistingKeys(ctx, t, refs.ExistingKeys); err != nil {
		return refs, fmt.Errorf("load existing keys: %w", err)
	}

	return refs, nil
}

// loadLookup fills a case-insensitive map from lower-cased value to its
// canonical database form.
func (s *Store) loadLookup(ctx context.Context, table, column string, into map[string]string) error {
	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdentifier(column), quoteIdentifier(table))
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		into[strings.ToLower(strings.TrimSpace(v))] = v
	}
	return rows.Err()
}

// loadExistingKeys collects the canonical natural key of every row in
// the target's table, in the same form the pipeline computes for
// incoming rows.
func (s *Store) loadExistingKeys(ctx context.Context, t importer.Target, into map[string]struct{}) error {
	cols := make([]string, len(t.KeyFields))
	specs := make([]importer.FieldSpec, len(t.KeyFields))
	for i, field := range t.KeyFields {
		spec, ok := t.Field(field)
		if !ok {
			return fmt.Errorf("target %s: key field %q is not a column", t.Key, field)
		}
		specs[i] = spec
		cols[i] = fmt.Sprintf("COALESCE(%s::text, '')", quoteIdentifier(spec.Column()))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdentifier(t.Table))
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	parts := make([]string, len(cols))
	dests := make([]any, len(cols))
	for i := range parts {
		dests[i] = &parts[i]
	}

	for rows.Next() {
		if err := rows.Scan(dests...); err != nil {
			return err
		}
		keyParts := make([]string, len(parts))
		for i, p := range parts {
			keyParts[i] = importer.KeyPart(p, specs[i])
		}
		into[strings.Join(keyParts, "|")] = struct{}{}
	}
	return rows.Err()
}
