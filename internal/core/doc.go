// Package core provides the business logic for the operations dashboard.
//
// This package contains all domain logic independent of any transport
// layer. The web handlers and the importctl CLI both drive it through
// the same [Service] API.
//
// # Import Lifecycle
//
// CSV imports are a two-step flow:
//
//  1. [Service.Preview] validates the file against a snapshot of the
//     current data and parks the resulting plan in a session. Nothing
//     is written.
//  2. [Service.Commit] re-reads the session and writes every ready row
//     in a single transaction, or [Service.Discard] throws it away.
//
// Unconfirmed sessions expire after a TTL; [Service.StartSessionJanitor]
// sweeps them in the background. Committed imports are recorded and can
// be undone later with [Service.Rollback], which deletes exactly the
// rows the import inserted.
//
// Concurrency is bounded by [ImportLimiter] so a burst of uploads
// cannot exhaust the database pool.
//
// # Import Targets
//
// Which collections can be imported, their columns, and their duplicate
// keys are defined by the targets registered in the importer package.
// [Service.ListTargets] exposes them to clients and
// [Service.TemplateCSV] produces a downloadable header template.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using
// [MapError]. Each error category has a unique code for support
// reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL007: Validation errors (formats, references, missing columns)
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - IMP001-IMP006: Import lifecycle errors (sessions, rollbacks, limits)
//   - TGT001: Unknown import target
//   - RATE001: Request throttling
//   - ERR000: Fallback when nothing matches
//
// When a user reports ERR000, check the application logs for the
// original technical error.
//
// # Audit Logging
//
// All data modifications are recorded in the audit log with severity
// levels:
//
//   - Low: Exports
//   - Medium: Record creates and edits
//   - High: Imports, rollbacks, deletions
//
// Old entries are pruned automatically based on the retention policy
// given to [Service.StartAuditPruner].
package core
