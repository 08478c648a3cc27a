// Package cache memoizes gate-accepted purification results.
//
// Entries are pure functions of (content hash, target language, rule-set
// version), so concurrent writers for the same key always store equivalent
// values and the last write wins without locking.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/script"
)

// Entry is one cached result.
type Entry struct {
	ContentHash    string          `json:"content_hash"`
	TargetLanguage script.Language `json:"target_language"`
	Text           string          `json:"text"`
	PurityScore    float64         `json:"purity_score"`
	Path           internal.Path   `json:"path"`
	RuleSetVersion string          `json:"rule_set_version"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// Backend stores entries. Get returns (nil, nil) on a miss.
type Backend interface {
	Get(ctx context.Context, hash string, target script.Language) (*Entry, error)
	Put(ctx context.Context, e Entry) error
}

// Key returns the content hash of a request: SHA-256 over the NFC-normalized,
// trimmed text and both language codes.
func Key(rawText string, source, target script.Language) string {
	h := sha256.New()
	io.WriteString(h, norm.NFC.String(strings.TrimSpace(rawText)))
	h.Write([]byte{0})
	io.WriteString(h, source.String())
	h.Write([]byte{0})
	io.WriteString(h, target.String())
	return hex.EncodeToString(h.Sum(nil))
}

// Cache enforces the entry lifecycle on top of a Backend: only accepted
// results go in, and stale, expired or under-threshold entries never come
// out. Backend failures are logged and reported as misses.
type Cache struct {
	backend Backend
	ttl     time.Duration
	version string
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns a cache over b. version is the sanitizer rule-set version;
// entries written under any other version are ignored.
func New(b Backend, ttl time.Duration, version string, opts ...Option) *Cache {
	c := &Cache{
		backend: b,
		ttl:     ttl,
		version: version,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version returns the rule-set version entries must carry.
func (c *Cache) Version() string { return c.version }

// Lookup returns a usable entry scoring at least minScore.
func (c *Cache) Lookup(ctx context.Context, hash string, target script.Language, minScore float64) (*Entry, bool) {
	e, err := c.backend.Get(ctx, hash, target)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", "hash", hash, "target", target, "error", err)
		return nil, false
	}
	if e == nil {
		return nil, false
	}
	switch {
	case e.RuleSetVersion != c.version:
		c.logger.Debug("cache entry has stale rule set", "hash", hash, "version", e.RuleSetVersion)
		return nil, false
	case !e.ExpiresAt.After(c.now()):
		return nil, false
	case e.PurityScore < minScore:
		return nil, false
	case e.Path == internal.Fallback || e.Path == internal.PassThrough:
		return nil, false
	}
	return e, true
}

// Store caches r if it came from an accepting stage and meets threshold.
// It reports whether an entry was written.
func (c *Cache) Store(ctx context.Context, hash string, target script.Language, r internal.PurifiedResult, threshold float64) bool {
	if r.Path != internal.ProviderAccepted && r.Path != internal.Sanitized {
		return false
	}
	if r.PurityScore < threshold || c.ttl <= 0 {
		return false
	}
	now := c.now()
	e := Entry{
		ContentHash:    hash,
		TargetLanguage: target,
		Text:           r.Text,
		PurityScore:    r.PurityScore,
		Path:           r.Path,
		RuleSetVersion: c.version,
		CreatedAt:      now,
		ExpiresAt:      now.Add(c.ttl),
	}
	if err := c.backend.Put(ctx, e); err != nil {
		c.logger.Warn("cache write failed", "hash", hash, "target", target, "error", err)
		return false
	}
	return true
}
