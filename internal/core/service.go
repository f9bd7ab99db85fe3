package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// DefaultMaxFileSize caps uploaded CSV files at 10MB.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultSessionTTL is how long an unconfirmed preview survives before
// the janitor discards it.
const DefaultSessionTTL = 30 * time.Minute

// Service coordinates import previews, commits, rollbacks, record
// mutations, and reporting on top of the store.
type Service struct {
	store   *store.Store
	log     *slog.Logger
	limiter *ImportLimiter

	maxFileSize int64
	sessionTTL  time.Duration

	mu       sync.RWMutex
	sessions map[string]*importSession
}

// Options tunes service behavior. Zero values select defaults.
type Options struct {
	MaxConcurrentImports int
	MaxImportWait        time.Duration
	SessionTTL           time.Duration
	MaxFileSize          int64
}

// NewService creates a Service backed by the given store.
func NewService(st *store.Store, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	return &Service{
		store:       st,
		log:         log,
		limiter:     NewImportLimiter(opts.MaxConcurrentImports, opts.MaxImportWait),
		maxFileSize: maxSize,
		sessionTTL:  ttl,
		sessions:    make(map[string]*importSession),
	}
}

// Store exposes the underlying store for read-only handlers.
func (s *Service) Store() *store.Store {
	return s.store
}

// Limiter exposes the import limiter for monitoring and shutdown drain.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// MaxFileSize returns the upload size cap in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// targetOrErr resolves a registered import target by key.
func targetOrErr(key string) (importer.Target, error) {
	t, ok := importer.Get(key)
	if !ok {
		return importer.Target{}, fmt.Errorf("unknown import target: %s", key)
	}
	return t, nil
}

// ColumnInfo describes one CSV column of a target for API consumers.
type ColumnInfo struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Required  bool     `json:"required"`
	Allowed   []string `json:"allowed,omitempty"`
	Reference string   `json:"reference,omitempty"`
}

// TargetInfo describes one import target for API consumers.
type TargetInfo struct {
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Columns   []ColumnInfo `json:"columns"`
	KeyFields []string     `json:"keyFields"`
}

// ListTargets returns information about all registered import targets,
// sorted by key.
func (s *Service) ListTargets() []TargetInfo {
	targets := importer.All()
	infos := make([]TargetInfo, len(targets))
	for i, t := range targets {
		cols := make([]ColumnInfo, len(t.Columns))
		for j, c := range t.Columns {
			cols[j] = ColumnInfo{
				Name:      c.Name,
				Type:      c.Type.String(),
				Required:  c.Required,
				Allowed:   c.EnumValues,
				Reference: c.Reference.String(),
			}
		}
		infos[i] = TargetInfo{
			Key:       t.Key,
			Label:     t.Label,
			Columns:   cols,
			KeyFields: t.KeyFields,
		}
	}
	return infos
}

// TemplateCSV builds a downloadable CSV template for a target: the
// canonical header row and nothing else. Returns the content and a
// suggested file name.
func (s *Service) TemplateCSV(targetKey string) ([]byte, string, error) {
	t, err := targetOrErr(targetKey)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.ColumnNames()); err != nil {
		return nil, "", fmt.Errorf("write template header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush template: %w", err)
	}

	return buf.Bytes(), t.Key + "_template.csv", nil
}
