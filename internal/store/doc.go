// Package store persists the classification ledger, runtime settings and the
// ignore lists in SQLite.
//
// The ledger is append-only: every recorded outcome becomes a new row, and the
// rescanner asks HasOutcome before classifying a path again. Failed outcomes do
// not count as seen, so a path whose move failed is retried on the next pass.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package store
