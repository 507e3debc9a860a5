package db

import (
	"context"
	"database/sql"

	"github.com/tabscribe/tabscribe/internal/errors"
)

// LensEntry is a raw lens cache row.
type LensEntry struct {
	Key     string
	SavedAt int64 // Unix milliseconds
	Payload []byte
}

// GetLensEntry returns the cache row for key, or nil, nil when absent.
// Expiry is decided by the caller.
func GetLensEntry(ctx context.Context, q Querier, key string) (*LensEntry, error) {
	var (
		e       LensEntry
		payload string
	)
	err := q.QueryRowContext(ctx,
		"SELECT cache_key, saved_at, payload_json FROM lens_cache WHERE cache_key = ?", key,
	).Scan(&e.Key, &e.SavedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	e.Payload = []byte(payload)
	return &e, nil
}

// PutLensEntry stores or overwrites the cache row for e.Key.
func PutLensEntry(ctx context.Context, q Querier, e *LensEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO lens_cache (cache_key, saved_at, payload_json) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			saved_at     = excluded.saved_at,
			payload_json = excluded.payload_json
	`, e.Key, e.SavedAt, string(e.Payload))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
