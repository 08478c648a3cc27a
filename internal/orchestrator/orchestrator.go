package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/chunker"
	"github.com/valpere/lexpure/internal/detector"
	"github.com/valpere/lexpure/internal/gate"
	"github.com/valpere/lexpure/internal/placeholder"
	"github.com/valpere/lexpure/internal/script"
	"github.com/valpere/lexpure/internal/session"
	"github.com/valpere/lexpure/internal/translator"
	"github.com/valpere/lexpure/internal/validator"
)

// PassThroughProvider names the trivial attempt returned when no provider
// call is needed.
const PassThroughProvider = "pass_through"

type Config struct {
	InteractiveCallTimeout    time.Duration
	InteractiveRequestTimeout time.Duration
	BatchCallTimeout          time.Duration
	BatchRequestTimeout       time.Duration

	// MaxAttempts bounds calls to one provider for one piece of text,
	// retries included.
	MaxAttempts int
	RetryDelay  time.Duration

	// ChunkChars splits LegalDocument text longer than this many runes.
	// Zero disables chunking.
	ChunkChars int
}

func DefaultConfig() Config {
	return Config{
		InteractiveCallTimeout:    4 * time.Second,
		InteractiveRequestTimeout: 12 * time.Second,
		BatchCallTimeout:          30 * time.Second,
		BatchRequestTimeout:       2 * time.Minute,
		MaxAttempts:               2,
		RetryDelay:                200 * time.Millisecond,
		ChunkChars:                4000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InteractiveCallTimeout <= 0 {
		c.InteractiveCallTimeout = d.InteractiveCallTimeout
	}
	if c.InteractiveRequestTimeout <= 0 {
		c.InteractiveRequestTimeout = d.InteractiveRequestTimeout
	}
	if c.BatchCallTimeout <= 0 {
		c.BatchCallTimeout = d.BatchCallTimeout
	}
	if c.BatchRequestTimeout <= 0 {
		c.BatchRequestTimeout = d.BatchRequestTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	return c
}

func (c Config) timeouts(p internal.Priority) (call, request time.Duration) {
	if p == internal.Batch {
		return c.BatchCallTimeout, c.BatchRequestTimeout
	}
	return c.InteractiveCallTimeout, c.InteractiveRequestTimeout
}

// Recorder persists provider attempts. Errors are logged and otherwise
// ignored.
type Recorder interface {
	RecordAttempt(ctx context.Context, unit internal.ContentUnit, a internal.TranslationAttempt) error
}

// Orchestrator calls providers one after another in priority order until
// one produces text the gate accepts.
type Orchestrator struct {
	services   []translator.Service
	gate       *gate.Gate
	classifier *script.Classifier
	config     Config

	languages []script.Language
	detector  *detector.Detector
	validator *validator.Validator
	limiters  map[string]*rate.Limiter
	recorder  Recorder
	logger    *slog.Logger
}

type Option func(*Orchestrator)

// WithLanguages sets the configured languages used to decide pass-through
// for units whose source language is unknown.
func WithLanguages(langs []script.Language) Option {
	return func(o *Orchestrator) { o.languages = langs }
}

func WithDetector(d *detector.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithValidator rejects gate-accepted output detected as another language.
func WithValidator(v *validator.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithRateLimit throttles calls to the named provider to perSecond.
func WithRateLimit(provider string, perSecond float64) Option {
	return func(o *Orchestrator) {
		if perSecond > 0 {
			o.limiters[provider] = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func New(services []translator.Service, g *gate.Gate, c *script.Classifier, config Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		services:   services,
		gate:       g,
		classifier: c,
		config:     config.withDefaults(),
		limiters:   make(map[string]*rate.Limiter),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Translate returns the first gate-accepted provider output for unit or, if
// none was accepted, the purest usable output. It returns nil when every
// provider failed or the request deadline ran out first. Provider errors are
// never returned.
func (o *Orchestrator) Translate(ctx context.Context, unit internal.ContentUnit) *internal.TranslationAttempt {
	if o.SameLanguage(unit) {
		profile := o.classifier.Classify(unit.RawText)
		return &internal.TranslationAttempt{
			Provider:    PassThroughProvider,
			Text:        unit.RawText,
			Profile:     profile,
			Score:       100,
			Accepted:    true,
			PassThrough: true,
		}
	}
	if len(o.services) == 0 {
		return nil
	}

	callTimeout, requestTimeout := o.config.timeouts(unit.Priority)
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	protected, originals := placeholder.Protect(unit.RawText)
	var instructions string
	if len(originals) > 0 {
		instructions = placeholder.InstructionHint()
	}
	chunks := []string{protected}
	if unit.ContentType == internal.LegalDocument {
		chunks = chunker.Chunk(protected, o.config.ChunkChars)
	}

	var caller any
	if s, ok := session.FromContext(ctx); ok {
		caller = s.Caller
	}

	var best *internal.TranslationAttempt
	for _, svc := range o.services {
		if ctx.Err() != nil {
			o.logger.Warn("request deadline reached, skipping remaining providers",
				"provider", svc.Name(), "target", unit.TargetLanguage)
			break
		}

		start := time.Now()
		text, err := o.translateChunks(ctx, svc, chunks, unit, instructions, caller, callTimeout)
		if err == nil {
			if missing := placeholder.Missing(text, originals); len(missing) > 0 {
				err = &translator.Error{Service: svc.Name(), Kind: translator.KindMalformed,
					Err: fmt.Errorf("output lost %d protected markers", len(missing))}
			}
		}

		attempt := internal.TranslationAttempt{Provider: svc.Name(), Latency: time.Since(start)}
		if err != nil {
			attempt.FailureKind = string(translator.KindOf(err))
			attempt.Failure = err.Error()
			o.logger.Warn("provider failed",
				"provider", svc.Name(), "kind", attempt.FailureKind, "latency", attempt.Latency, "error", err)
			o.record(ctx, unit, attempt)
			continue
		}

		attempt.Text = placeholder.Restore(text, originals)
		attempt.Profile = o.classifier.Classify(attempt.Text)
		v := o.gate.EvaluateProfile(attempt.Text, attempt.Profile, unit.TargetLanguage, unit.ContentType)
		if v.Accepted {
			if err := o.validator.Check(attempt.Text, unit.TargetLanguage); err != nil {
				err = &translator.Error{Service: svc.Name(), Kind: translator.KindWrongLanguage, Err: err}
				attempt.Text, attempt.Profile = "", script.Profile{}
				attempt.FailureKind = string(translator.KindWrongLanguage)
				attempt.Failure = err.Error()
				o.logger.Warn("provider output in wrong language",
					"provider", svc.Name(), "target", unit.TargetLanguage, "error", err)
				o.record(ctx, unit, attempt)
				continue
			}
		}
		attempt.Score = v.Score
		attempt.Accepted = v.Accepted
		o.logger.Debug("provider attempt",
			"provider", svc.Name(), "score", v.Score, "threshold", v.Threshold,
			"accepted", v.Accepted, "latency", attempt.Latency)
		o.record(ctx, unit, attempt)

		if attempt.Accepted {
			return &attempt
		}
		if best == nil || attempt.Score > best.Score {
			a := attempt
			best = &a
		}
	}
	return best
}

func (o *Orchestrator) translateChunks(ctx context.Context, svc translator.Service, chunks []string, unit internal.ContentUnit, instructions string, caller any, callTimeout time.Duration) (string, error) {
	out := make([]string, 0, len(chunks))
	var previous string
	for _, chunk := range chunks {
		req := translator.Request{
			Text:            chunk,
			SourceLang:      unit.SourceLanguage.String(),
			TargetLang:      unit.TargetLanguage.String(),
			PreviousContext: previous,
			Instructions:    instructions,
			Caller:          caller,
		}
		res, err := o.call(ctx, svc, req, callTimeout)
		if err != nil {
			return "", err
		}
		out = append(out, res.TranslatedText)
		if len(chunks) > 1 {
			previous = chunker.ExtractContext(res.TranslatedText, chunker.DefaultContextWords)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

// call makes one bounded provider call, retrying retryable failures with
// exponential backoff inside the same deadline.
func (o *Orchestrator) call(ctx context.Context, svc translator.Service, req translator.Request, timeout time.Duration) (*translator.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if lim, ok := o.limiters[svc.Name()]; ok {
		if err := lim.Wait(ctx); err != nil {
			return nil, &translator.Error{Service: svc.Name(), Kind: translator.KindRateLimited, Err: err}
		}
	}

	backoff := retry.WithMaxRetries(uint64(o.config.MaxAttempts-1), retry.NewExponential(o.config.RetryDelay))
	var lastErr error
	res, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*translator.Result, error) {
		res, err := svc.Translate(ctx, req)
		if err == nil && (res == nil || strings.TrimSpace(res.TranslatedText) == "") {
			err = &translator.Error{Service: svc.Name(), Kind: translator.KindMalformed, Err: fmt.Errorf("empty output")}
		}
		if err != nil {
			lastErr = err
			if translator.IsRetryable(err) {
				return nil, retry.RetryableError(err)
			}
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			if lastErr != nil {
				err = fmt.Errorf("%w after: %v", ctx.Err(), lastErr)
			}
			return nil, &translator.Error{Service: svc.Name(), Kind: translator.KindTimeout, Err: err}
		}
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) record(ctx context.Context, unit internal.ContentUnit, a internal.TranslationAttempt) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordAttempt(context.WithoutCancel(ctx), unit, a); err != nil {
		o.logger.Warn("failed to record attempt", "provider", a.Provider, "error", err)
	}
}
