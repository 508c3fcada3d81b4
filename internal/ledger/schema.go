package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion gates the on-disk layout. The ledger holds transient render
// state, so version bumps do not migrate: a mismatched database must be
// cleared or deleted before the new layout applies.
const schemaVersion = 1

// ErrSchemaMismatch reports a ledger database written under a different
// schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema brings a fresh database to the current layout and rejects an
// existing one written under another version.
func (s *Store) initSchema(ctx context.Context) error {
	version, initialized, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return s.applySchema(ctx)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: %s has version %d, want %d (run 'popquiz ledger clear' or delete the file)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
	return nil
}

// storedVersion reads the version recorded in the database. initialized is
// false when no schema_version table exists yet.
func (s *Store) storedVersion(ctx context.Context) (version int, initialized bool, err error) {
	var tables int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables)
	if err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
