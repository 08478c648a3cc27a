// Package purifier runs the full purification pipeline for one content
// unit: pass-through, cache, providers, sanitizer and fallback, in that
// order. Every well-formed request ends with an accepted result.
package purifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/cache"
	"github.com/valpere/lexpure/internal/fallback"
	"github.com/valpere/lexpure/internal/gate"
	"github.com/valpere/lexpure/internal/intent"
	"github.com/valpere/lexpure/internal/orchestrator"
	"github.com/valpere/lexpure/internal/sanitize"
	"github.com/valpere/lexpure/internal/script"
	"github.com/valpere/lexpure/internal/session"
)

type Purifier struct {
	classifier   *script.Classifier
	gate         *gate.Gate
	sanitizer    *sanitize.Sanitizer
	intents      *intent.Classifier
	templates    *fallback.Table
	orchestrator *orchestrator.Orchestrator

	languages []script.Language
	cache     *cache.Cache
	registry  *session.Registry
	logger    *slog.Logger
}

type Option func(*Purifier)

// WithCache enables result caching.
func WithCache(c *cache.Cache) Option {
	return func(p *Purifier) { p.cache = c }
}

// WithRegistry sets where purified events go for requests made outside a
// session.
func WithRegistry(r *session.Registry) Option {
	return func(p *Purifier) { p.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Purifier) {
		if l != nil {
			p.logger = l
		}
	}
}

// New wires the pipeline stages. The supported target languages are the
// languages t has templates for.
func New(c *script.Classifier, g *gate.Gate, s *sanitize.Sanitizer, ic *intent.Classifier, t *fallback.Table, o *orchestrator.Orchestrator, opts ...Option) *Purifier {
	p := &Purifier{
		classifier:   c,
		gate:         g,
		sanitizer:    s,
		intents:      ic,
		templates:    t,
		orchestrator: o,
		languages:    t.Languages(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Languages returns the supported target languages.
func (p *Purifier) Languages() []script.Language {
	return slices.Clone(p.languages)
}

// Purify returns text in unit.TargetLanguage. The only error is
// internal.ErrInvalidRequest, returned before any stage runs.
func (p *Purifier) Purify(ctx context.Context, unit internal.ContentUnit) (internal.PurifiedResult, error) {
	if err := p.validate(unit); err != nil {
		return internal.PurifiedResult{}, err
	}

	res, hash := p.purify(ctx, unit)
	p.logger.Debug("purified",
		"target", unit.TargetLanguage, "content_type", unit.ContentType, "path", res.Path, "score", res.PurityScore)
	p.notify(ctx, unit, res)

	if p.cache != nil && hash != "" {
		p.cache.Store(ctx, hash, unit.TargetLanguage, res, p.gate.Threshold(unit.ContentType))
	}
	return res, nil
}

func (p *Purifier) validate(unit internal.ContentUnit) error {
	if unit.TargetLanguage == "" {
		return fmt.Errorf("%w: missing target language", internal.ErrInvalidRequest)
	}
	if !slices.Contains(p.languages, unit.TargetLanguage) {
		return fmt.Errorf("%w: unsupported target language %q", internal.ErrInvalidRequest, unit.TargetLanguage)
	}
	if !slices.Contains(internal.ContentTypes(), unit.ContentType) {
		return fmt.Errorf("%w: unknown content type %d", internal.ErrInvalidRequest, int(unit.ContentType))
	}
	return nil
}

// purify returns the result and, when the result may be cached, the
// content hash to cache it under.
func (p *Purifier) purify(ctx context.Context, unit internal.ContentUnit) (internal.PurifiedResult, string) {
	if strings.TrimSpace(unit.RawText) == "" || p.orchestrator.SameLanguage(unit) {
		return passThrough(unit), ""
	}

	hash := cache.Key(unit.RawText, unit.SourceLanguage, unit.TargetLanguage)
	if p.cache != nil {
		if e, ok := p.cache.Lookup(ctx, hash, unit.TargetLanguage, p.gate.Threshold(unit.ContentType)); ok {
			p.logger.Debug("cache hit", "hash", hash, "target", unit.TargetLanguage)
			return internal.PurifiedResult{Text: e.Text, PurityScore: e.PurityScore, Path: e.Path}, ""
		}
	}

	candidate := unit.RawText
	if a := p.orchestrator.Translate(ctx, unit); a != nil {
		if a.PassThrough {
			return passThrough(unit), ""
		}
		if a.Accepted {
			return internal.PurifiedResult{Text: a.Text, PurityScore: a.Score, Path: internal.ProviderAccepted}, hash
		}
		candidate = a.Text
	} else {
		p.logger.Warn("no provider output, sanitizing raw text", "target", unit.TargetLanguage)
	}

	sr := p.sanitizer.Apply(candidate, unit.TargetLanguage)
	v := p.gate.EvaluateProfile(sr.Text, sr.Profile, unit.TargetLanguage, unit.ContentType)
	if v.Accepted {
		return internal.PurifiedResult{Text: sr.Text, PurityScore: v.Score, Path: internal.Sanitized}, hash
	}
	p.logger.Info("sanitized text rejected, using fallback",
		"target", unit.TargetLanguage, "score", v.Score, "threshold", v.Threshold, "refused_runs", sr.Refused)

	return p.fallback(unit, candidate), ""
}

func passThrough(unit internal.ContentUnit) internal.PurifiedResult {
	return internal.PurifiedResult{Text: unit.RawText, PurityScore: 100, Path: internal.PassThrough}
}

// fallback picks a template by the intent of the source text, or of the
// best candidate when the source says nothing specific.
func (p *Purifier) fallback(unit internal.ContentUnit, candidate string) internal.PurifiedResult {
	cat := p.intents.Classify(unit.RawText)
	if cat == intent.General && candidate != unit.RawText {
		cat = p.intents.Classify(candidate)
	}
	text, _ := p.templates.Generate(cat, unit.TargetLanguage)
	return internal.PurifiedResult{
		Text:        text,
		PurityScore: p.classifier.Purity(text, unit.TargetLanguage),
		Path:        internal.Fallback,
	}
}

func (p *Purifier) notify(ctx context.Context, unit internal.ContentUnit, res internal.PurifiedResult) {
	e := session.Event{
		Kind:     session.EventPurified,
		Language: unit.TargetLanguage,
		Path:     string(res.Path),
		Score:    res.PurityScore,
		Text:     res.Text,
	}
	if s, ok := session.FromContext(ctx); ok {
		s.Notify(e)
		return
	}
	p.registry.Notify(e)
}
