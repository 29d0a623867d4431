package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"profilemeister/internal/util"
)

// CacheRepo is the durable variant of the response cache. Entries are
// written once and never updated; a re-insert with different content is a
// collision and fails the caller.
type CacheRepo struct {
	db *DB
}

func NewCacheRepo(db *DB) *CacheRepo {
	return &CacheRepo{db: db}
}

func (r *CacheRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var text string
	err := r.db.Pool.QueryRow(ctx, `
SELECT response_text FROM response_cache WHERE cache_key=$1`, key).Scan(&text)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return text, true, nil
}

func (r *CacheRepo) Put(ctx context.Context, key, text string) error {
	contentHash := util.SHA256Hex([]byte(text))
	tag, err := r.db.Pool.Exec(ctx, `
INSERT INTO response_cache (cache_key, response_text, content_hash)
VALUES ($1, $2, $3)
ON CONFLICT (cache_key) DO NOTHING`, key, text, contentHash)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// The key already exists. Identical content is an idempotent no-op,
	// anything else is a collision.
	var existingHash string
	if err := r.db.Pool.QueryRow(ctx, `
SELECT content_hash FROM response_cache WHERE cache_key=$1`, key).Scan(&existingHash); err != nil {
		return fmt.Errorf("cache recheck: %w", err)
	}
	if existingHash != contentHash {
		return fmt.Errorf("%w: key %s", util.ErrCacheCollision, key)
	}
	return nil
}
