// Package ledger persists the ingestion run's durable state: one
// archive record per downloaded attachment and one resume cursor per
// user, backed by SQLite through bun.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Store is the SQLite-backed ingestion ledger
type Store struct {
	db *bun.DB
}

// Open opens (or creates) the ledger database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	store := &Store{db: db}

	if _, err := db.NewCreateTable().Model((*ArchiveRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create archive_records table: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*PageCursor)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create page_cursors table: %w", err)
	}

	return store, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// GetRecord returns the archive record for a key, or nil if none exists
func (s *Store) GetRecord(ctx context.Context, key string) (*ArchiveRecord, error) {
	record := new(ArchiveRecord)
	err := s.db.NewSelect().Model(record).Where("key = ?", key).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up archive record %s: %w", key, err)
	}
	return record, nil
}

// PutRecord upserts an archive record. Re-writing an existing key is
// harmless; the bytes it marks were already durably written.
func (s *Store) PutRecord(ctx context.Context, record *ArchiveRecord) error {
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("write_time = EXCLUDED.write_time").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store archive record %s: %w", record.Key, err)
	}
	return nil
}

// GetCursor returns the persisted resume token for a user. ok is false
// when no cursor exists, which means "start from the head of the feed".
func (s *Store) GetCursor(ctx context.Context, userID string) (token string, ok bool, err error) {
	cursor := new(PageCursor)
	err = s.db.NewSelect().Model(cursor).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to look up cursor for user %s: %w", userID, err)
	}
	return cursor.Token, true, nil
}

// PutCursor replaces the user's single cursor slot
func (s *Store) PutCursor(ctx context.Context, userID, token string) error {
	cursor := &PageCursor{
		UserID:    userID,
		Token:     token,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(cursor).
		On("CONFLICT (user_id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store cursor for user %s: %w", userID, err)
	}
	return nil
}
