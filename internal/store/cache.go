package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/cache"
	"github.com/valpere/lexpure/internal/script"
)

// Get implements cache.Backend. Expiry and version are checked by the
// cache front-end, so stale rows are returned as they are.
func (s *Store) Get(ctx context.Context, hash string, target script.Language) (*cache.Entry, error) {
	var (
		e                cache.Entry
		created, expires int64
		targetLang, path string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash, target_lang, text, purity_score, path, rule_set_version, created_at, expires_at
		 FROM purified_cache WHERE content_hash = ? AND target_lang = ?`,
		hash, target.String()).Scan(&e.ContentHash, &targetLang, &e.Text, &e.PurityScore, &path, &e.RuleSetVersion, &created, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	e.TargetLanguage = script.Language(targetLang)
	e.Path = internal.Path(path)
	e.CreatedAt = fromMillis(created)
	e.ExpiresAt = fromMillis(expires)

	_, err = s.db.ExecContext(ctx,
		`UPDATE purified_cache SET usage_count = usage_count + 1, last_used = ? WHERE content_hash = ? AND target_lang = ?`,
		s.now().UnixMilli(), hash, target.String())
	return &e, err
}

// Put implements cache.Backend. The last writer wins.
func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO purified_cache
		 (content_hash, target_lang, text, purity_score, path, rule_set_version, usage_count, created_at, expires_at, last_used)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, NULL)`,
		e.ContentHash, e.TargetLanguage.String(), e.Text, e.PurityScore, string(e.Path), e.RuleSetVersion,
		e.CreatedAt.UnixMilli(), e.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// CacheRow is a purified_cache row with its usage counters.
type CacheRow struct {
	cache.Entry
	UsageCount int
}

// ListCache returns cache rows, most recently created first.
func (s *Store) ListCache(ctx context.Context) ([]CacheRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content_hash, target_lang, text, purity_score, path, rule_set_version, usage_count, created_at, expires_at
		 FROM purified_cache ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CacheRow
	for rows.Next() {
		var (
			r                CacheRow
			targetLang, path string
			created, expires int64
		)
		if err := rows.Scan(&r.ContentHash, &targetLang, &r.Text, &r.PurityScore, &path, &r.RuleSetVersion, &r.UsageCount, &created, &expires); err != nil {
			return nil, err
		}
		r.TargetLanguage = script.Language(targetLang)
		r.Path = internal.Path(path)
		r.CreatedAt = fromMillis(created)
		r.ExpiresAt = fromMillis(expires)
		results = append(results, r)
	}
	return results, rows.Err()
}

// CacheStats summarises the purified cache.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	ExpiredEntries int
	StaleEntries   int
	TotalUsage     int
}

// CacheStats counts entries; stale entries are those written under a
// rule-set version other than version.
func (s *Store) CacheStats(ctx context.Context, version string) (*CacheStats, error) {
	stats := &CacheStats{}
	now := s.now().UnixMilli()

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at > ? AND rule_set_version = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rule_set_version != ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM purified_cache`, now, version, now, version).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.ExpiredEntries,
		&stats.StaleEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// PurgeCache removes expired entries and entries written under a rule-set
// version other than version.
func (s *Store) PurgeCache(ctx context.Context, version string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM purified_cache WHERE expires_at <= ? OR rule_set_version != ?`,
		s.now().UnixMilli(), version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCacheEntry removes one entry.
func (s *Store) DeleteCacheEntry(ctx context.Context, hash string, target script.Language) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM purified_cache WHERE content_hash = ? AND target_lang = ?`, hash, target.String())
	return err
}

// ClearCache removes every cache entry.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM purified_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ cache.Backend = (*Store)(nil)
