// Package auditor sweeps text that has already been handed out and repairs
// fragments that fall below their purity threshold.
package auditor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/fallback"
	"github.com/valpere/lexpure/internal/gate"
	"github.com/valpere/lexpure/internal/intent"
	"github.com/valpere/lexpure/internal/sanitize"
	"github.com/valpere/lexpure/internal/script"
	"github.com/valpere/lexpure/internal/session"
)

// Fragment is one piece of emitted text owned by the host.
type Fragment struct {
	ID          string
	Language    script.Language
	ContentType internal.ContentType
	Text        string
}

// Store is the host's text store.
type Store interface {
	// Fragments returns every fragment written in lang.
	Fragments(ctx context.Context, lang script.Language) ([]Fragment, error)
	// Replace swaps the text of fragment id to newText only if it still
	// equals oldText, and reports whether it did.
	Replace(ctx context.Context, id, oldText, newText string) (bool, error)
}

type Auditor struct {
	classifier *script.Classifier
	gate       *gate.Gate
	sanitizer  *sanitize.Sanitizer
	intents    *intent.Classifier
	templates  *fallback.Table
	registry   *session.Registry
	logger     *slog.Logger
}

type Option func(*Auditor)

// WithRegistry publishes a fragment_fixed event for every replacement.
func WithRegistry(r *session.Registry) Option {
	return func(a *Auditor) { a.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.logger = l
		}
	}
}

func New(c *script.Classifier, g *gate.Gate, s *sanitize.Sanitizer, ic *intent.Classifier, t *fallback.Table, opts ...Option) *Auditor {
	a := &Auditor{
		classifier: c,
		gate:       g,
		sanitizer:  s,
		intents:    ic,
		templates:  t,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuditAndFix rescans every fragment in lang and returns how many were
// rewritten. Fragments at or above threshold are left alone. Below it the
// sanitized text is tried, then the fallback template, and the fragment is
// replaced only when the candidate scores strictly higher. A fragment that
// changed under us is skipped and picked up by the next sweep.
func (a *Auditor) AuditAndFix(ctx context.Context, store Store, lang script.Language) (int, error) {
	if !a.classifier.Supports(lang) {
		return 0, fmt.Errorf("%w: unsupported language %q", internal.ErrInvalidRequest, lang)
	}
	fragments, err := store.Fragments(ctx, lang)
	if err != nil {
		return 0, fmt.Errorf("failed to list fragments: %w", err)
	}

	changed := 0
	for _, f := range fragments {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		text, score, ok := a.repair(f, lang)
		if !ok {
			continue
		}
		replaced, err := store.Replace(ctx, f.ID, f.Text, text)
		if err != nil {
			return changed, fmt.Errorf("failed to replace fragment %s: %w", f.ID, err)
		}
		if !replaced {
			a.logger.Debug("fragment changed during audit, skipping", "fragment", f.ID)
			continue
		}
		changed++
		a.logger.Info("fragment repaired", "fragment", f.ID, "language", lang, "score", score)
		a.registry.Notify(session.Event{
			Kind:       session.EventFragmentFixed,
			Language:   lang,
			Score:      score,
			FragmentID: f.ID,
			Text:       text,
		})
	}
	return changed, nil
}

// repair returns the replacement for f, if any.
func (a *Auditor) repair(f Fragment, lang script.Language) (string, float64, bool) {
	v := a.gate.Evaluate(f.Text, lang, f.ContentType)
	if v.Accepted {
		return "", 0, false
	}

	text, profile := a.sanitizer.Sanitize(f.Text, lang)
	score := a.classifier.PurityOf(profile, lang)
	if score < v.Threshold {
		if tmpl, ok := a.templates.Generate(a.intents.Classify(f.Text), lang); ok {
			text, score = tmpl, a.classifier.Purity(tmpl, lang)
		}
	}
	if score <= v.Score || text == f.Text {
		return "", 0, false
	}
	return text, score, true
}

// Run sweeps store immediately and then every interval until ctx is done.
// A non-positive interval performs the single immediate sweep and returns.
// Sweep errors are logged.
func (a *Auditor) Run(ctx context.Context, store Store, lang script.Language, interval time.Duration) {
	sweep := func() {
		n, err := a.AuditAndFix(ctx, store, lang)
		if err != nil && ctx.Err() == nil {
			a.logger.Error("audit sweep failed", "language", lang, "error", err)
			return
		}
		if n > 0 {
			a.logger.Info("audit sweep complete", "language", lang, "changed", n)
		}
	}

	sweep()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
