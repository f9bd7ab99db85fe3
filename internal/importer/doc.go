// Package importer implements the CSV import reconciliation pipeline.
//
// The pipeline turns an uploaded CSV file plus a snapshot of the existing
// reference data into a reviewable plan: every uploaded row appears in the
// plan, in file order, classified as ready, duplicate, or invalid with a
// human-readable reason. Nothing is persisted here; committing a plan is the
// caller's job.
//
// # Targets
//
// Import targets are registered at init time using [Register]. Each [Target]
// describes one importable collection: its CSV columns, field types, natural
// key, and which columns reference other collections:
//
//	importer.Register(Target{
//	    Key:       "shops",
//	    Table:     "shops",
//	    KeyFields: []string{"shopId"},
//	    Columns: []FieldSpec{
//	        {Name: "shopId", DBColumn: "shop_id", Required: true},
//	        {Name: "agent", Required: true, Reference: RefAgent},
//	    },
//	})
//
// # Classification
//
// [BuildPlan] is a pure function over (target, references, file bytes). Per
// row, the first failing rule wins:
//
//  1. Natural key already persisted -> Duplicate.
//  2. Natural key already produced by an earlier ready row in the same
//     file -> Duplicate.
//  3. A non-empty reference value that does not resolve case-insensitively
//     against the snapshot -> Invalid.
//  4. A required field missing, an unparseable date, a non-positive amount,
//     or a value outside an enum -> Invalid.
//  5. Otherwise Ready, with a normalized record: canonical reference
//     casing, parsed dates and amounts, canonical enum values, empty
//     optionals defaulted.
//
// Header problems are different: a missing required column aborts the whole
// run with [*FormatError] before any row is read.
//
// # Purity
//
// The reference snapshot is passed in explicitly, so the pipeline has no
// I/O, no clock, and no hidden state. Running it twice over the same inputs
// yields identical plans, which is what makes the preview step safely
// repeatable.
package importer
