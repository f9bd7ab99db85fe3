package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport         AuditAction = "import"
	ActionImportRollback AuditAction = "import_rollback"
	ActionRecordCreate   AuditAction = "record_create"
	ActionRecordUpdate   AuditAction = "record_update"
	ActionRecordDelete   AuditAction = "record_delete"
	ActionExport         AuditAction = "export"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionImportRollback, ActionRecordDelete:
		return SeverityHigh
	case ActionExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string         `json:"id"`
	Action       AuditAction    `json:"action"`
	Severity     AuditSeverity  `json:"severity"`
	Target       string         `json:"target"`
	RowKey       string         `json:"rowKey,omitempty"`
	ColumnName   string         `json:"columnName,omitempty"`
	OldValue     string         `json:"oldValue,omitempty"`
	NewValue     string         `json:"newValue,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	RowsAffected int            `json:"rowsAffected,omitempty"`
	ImportID     string         `json:"importId,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// AuditParams contains parameters for creating an audit log entry.
// Severity is derived from the action.
type AuditParams struct {
	Action       AuditAction
	Target       string
	RowKey       string
	ColumnName   string
	OldValue     string
	NewValue     string
	Details      map[string]any
	RowsAffected int
	ImportID     string
	IPAddress    string
	UserAgent    string
	Reason       string
}

// InsertAudit creates a new audit log entry.
func (s *Store) InsertAudit(ctx context.Context, params AuditParams) error {
	severity := determineSeverity(params.Action)

	var detailsJSON []byte
	if params.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(params.Details)
		if err != nil {
			detailsJSON = nil
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (action, severity, target, row_key, column_name, old_value, new_value, details, rows_affected, import_id, ip_address, user_agent, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(params.Action), string(severity), params.Target,
		ToPgText(params.RowKey), ToPgText(params.ColumnName),
		ToPgText(params.OldValue), ToPgText(params.NewValue),
		detailsJSON, params.RowsAffected, ToPgUUID(params.ImportID),
		ToPgText(params.IPAddress), ToPgText(params.UserAgent), ToPgText(params.Reason),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AuditQueryOptions contains options for querying audit logs.
type AuditQueryOptions struct {
	Target   string
	Action   AuditAction
	Severity string
	From     string
	To       string
	Page     int
	PerPage  int
}

func scanAuditEntry(row pgx.Row) (AuditEntry, error) {
	var e AuditEntry
	var id, importID pgtype.UUID
	var rowKey, columnName, oldValue, newValue, ipAddress, userAgent, reason pgtype.Text
	var details []byte
	err := row.Scan(&id, &e.Action, &e.Severity, &e.Target,
		&rowKey, &columnName, &oldValue, &newValue, &details,
		&e.RowsAffected, &importID, &ipAddress, &userAgent, &reason, &e.CreatedAt)
	if err != nil {
		return AuditEntry{}, err
	}
	e.ID = PgUUIDToString(id)
	e.RowKey = rowKey.String
	e.ColumnName = columnName.String
	e.OldValue = oldValue.String
	e.NewValue = newValue.String
	e.ImportID = PgUUIDToString(importID)
	e.IPAddress = ipAddress.String
	e.UserAgent = userAgent.String
	e.Reason = reason.String
	if len(details) > 0 {
		_ = json.Unmarshal(details, &e.Details)
	}
	return e, nil
}

const auditColumns = `id, action, severity, target, row_key, column_name, old_value, new_value, details, rows_affected, import_id, ip_address, user_agent, reason, created_at`

// AuditLog retrieves audit entries with optional filtering, newest
// first, plus the total count of matching entries.
func (s *Store) AuditLog(ctx context.Context, opts AuditQueryOptions) ([]AuditEntry, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 || opts.PerPage > MaxPageSize {
		opts.PerPage = DefaultPageSize
	}

	wb := NewWhereBuilder()
	wb.Add("action", string(opts.Action))
	wb.Add("target", opts.Target)
	wb.Add("severity", opts.Severity)
	wb.AddTimestampRange("created_at", opts.From, opts.To)
	whereClause, args := wb.Build()

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM audit_log"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT %s FROM audit_log%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		auditColumns, whereClause, argIndex, argIndex+1)
	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// PruneAudit deletes audit entries older than the retention period and
// returns how many were removed.
func (s *Store) PruneAudit(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM audit_log WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}
