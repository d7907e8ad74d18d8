// Package database provides the SQLite connection used by the command
// audit trail.
//
// SQLite is configured for a single writer with WAL mode enabled, which
// allows concurrent reads during writes. The database file and directory
// are created on first open with restrictive permissions.
package database
