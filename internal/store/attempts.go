package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/cache"
)

// RecordAttempt implements orchestrator.Recorder.
func (s *Store) RecordAttempt(ctx context.Context, unit internal.ContentUnit, a internal.TranslationAttempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, content_hash, source_text, source_lang, target_lang, content_type, provider, output_text, score, accepted, latency_ms, failure_kind, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		cache.Key(unit.RawText, unit.SourceLanguage, unit.TargetLanguage),
		normalizeText(unit.RawText),
		unit.SourceLanguage.String(),
		unit.TargetLanguage.String(),
		unit.ContentType.String(),
		a.Provider,
		a.Text,
		a.Score,
		a.Accepted,
		a.Latency.Milliseconds(),
		a.FailureKind,
		a.Failure,
		s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ProviderStats summarises recorded attempts for one provider.
type ProviderStats struct {
	Provider   string
	Attempts   int
	Accepted   int
	Failed     int
	AvgScore   float64
	AvgLatency time.Duration
}

// ProviderStats returns per-provider attempt statistics ordered by name.
func (s *Store) ProviderStats(ctx context.Context) ([]ProviderStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			provider,
			COUNT(*),
			COALESCE(SUM(CASE WHEN accepted THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN failure_kind != '' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN failure_kind = '' THEN score END), 0),
			COALESCE(AVG(latency_ms), 0)
		FROM attempts
		GROUP BY provider
		ORDER BY provider`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ProviderStats
	for rows.Next() {
		var (
			ps        ProviderStats
			latencyMs float64
		)
		if err := rows.Scan(&ps.Provider, &ps.Attempts, &ps.Accepted, &ps.Failed, &ps.AvgScore, &latencyMs); err != nil {
			return nil, err
		}
		ps.AvgLatency = time.Duration(latencyMs * float64(time.Millisecond))
		stats = append(stats, ps)
	}
	return stats, rows.Err()
}
