/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valpere/lexpure/internal/auditor"
	"github.com/valpere/lexpure/internal/cache"
	"github.com/valpere/lexpure/internal/config"
	"github.com/valpere/lexpure/internal/detector"
	"github.com/valpere/lexpure/internal/fallback"
	"github.com/valpere/lexpure/internal/gate"
	"github.com/valpere/lexpure/internal/intent"
	"github.com/valpere/lexpure/internal/orchestrator"
	"github.com/valpere/lexpure/internal/purifier"
	"github.com/valpere/lexpure/internal/sanitize"
	"github.com/valpere/lexpure/internal/script"
	"github.com/valpere/lexpure/internal/session"
	"github.com/valpere/lexpure/internal/store"
	"github.com/valpere/lexpure/internal/translator"
	"github.com/valpere/lexpure/internal/validator"
)

// buildServices constructs the provider list in configured order.
func buildServices(providers []config.Provider) ([]translator.Service, error) {
	var list []translator.Service

	for _, p := range providers {
		switch p.Name {
		case "google":
			list = append(list, translator.NewGoogleService(p.Credentials, p.APIKey))
		case "systran":
			list = append(list, translator.NewSystranService(p.APIKey))
		case "mymemory":
			list = append(list, translator.NewMyMemoryService(p.Email))
		case "ollama":
			list = append(list, translator.NewOllamaService(p.BaseURL, p.Models))
		case "openrouter":
			list = append(list, translator.NewOpenRouterService(p.APIKey, p.BaseURL, p.Models))
		default:
			return nil, fmt.Errorf("unknown provider: %s", p.Name)
		}
	}
	return list, nil
}

// pipeline holds everything a command needs to purify or audit text.
type pipeline struct {
	classifier *script.Classifier
	sanitizer  *sanitize.Sanitizer
	purifier   *purifier.Purifier
	auditor    *auditor.Auditor
	registry   *session.Registry
	languages  []script.Language

	db      *store.Store
	closers []func() error
}

func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	return errors.Join(errs...)
}

// openStore opens the SQLite store, creating its directory.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

type pipelineOptions struct {
	noCache bool
}

func buildPipeline(ctx context.Context, c *config.Config, log *slog.Logger, opts pipelineOptions) (*pipeline, error) {
	langs, err := c.LanguageList()
	if err != nil {
		return nil, err
	}
	cl := script.NewClassifier()

	g, err := gate.New(cl, c.GateThresholds())
	if err != nil {
		return nil, err
	}

	rules, err := sanitize.DefaultRules()
	if c.Sanitizer.RulesFile != "" {
		rules, err = sanitize.LoadRules(c.Sanitizer.RulesFile)
	}
	if err != nil {
		return nil, err
	}
	san, err := sanitize.New(cl, rules, c.Sanitizer.MaxRun)
	if err != nil {
		return nil, err
	}

	ic, err := intent.Default()
	if c.Intent.RulesFile != "" {
		ic, err = intent.LoadFile(c.Intent.RulesFile)
	}
	if err != nil {
		return nil, err
	}

	templates, err := fallback.Default(cl, langs)
	if c.Fallback.TemplatesFile != "" {
		templates, err = fallback.LoadFile(c.Fallback.TemplatesFile, cl, langs)
	}
	if err != nil {
		return nil, err
	}

	services, err := buildServices(c.Providers)
	if err != nil {
		return nil, err
	}

	p := &pipeline{classifier: cl, sanitizer: san, registry: session.NewRegistry(), languages: langs}

	if c.DB.Path != "" {
		db, err := openStore(c.DB.Path)
		if err != nil {
			return nil, err
		}
		p.db = db
		p.closers = append(p.closers, db.Close)
	}

	det := detector.New(langs)
	orchOpts := []orchestrator.Option{
		orchestrator.WithLanguages(langs),
		orchestrator.WithDetector(det),
		orchestrator.WithValidator(validator.New(det)),
		orchestrator.WithLogger(log),
	}
	for _, pc := range c.Providers {
		if pc.RatePerSecond > 0 {
			orchOpts = append(orchOpts, orchestrator.WithRateLimit(pc.Name, pc.RatePerSecond))
		}
	}
	if p.db != nil && c.DB.RecordAttempts {
		orchOpts = append(orchOpts, orchestrator.WithRecorder(p.db))
	}
	orch := orchestrator.New(services, g, cl, c.OrchestratorConfig(), orchOpts...)

	purOpts := []purifier.Option{purifier.WithRegistry(p.registry), purifier.WithLogger(log)}
	if !opts.noCache {
		backend, err := p.cacheBackend(ctx, c, log)
		if err != nil {
			p.Close()
			return nil, err
		}
		if backend != nil {
			purOpts = append(purOpts, purifier.WithCache(cache.New(backend, c.Cache.TTL, san.Version(), cache.WithLogger(log))))
		}
	}

	p.purifier = purifier.New(cl, g, san, ic, templates, orch, purOpts...)
	p.auditor = auditor.New(cl, g, san, ic, templates, auditor.WithRegistry(p.registry), auditor.WithLogger(log))
	return p, nil
}

func (p *pipeline) cacheBackend(ctx context.Context, c *config.Config, log *slog.Logger) (cache.Backend, error) {
	switch c.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemory(), nil
	case config.CacheSQLite:
		if p.db == nil {
			return nil, fmt.Errorf("cache backend sqlite requires db.path")
		}
		return p.db, nil
	case config.CacheRedis:
		r := cache.NewRedis(cache.RedisOptions{
			Address:  c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.RedisPrefix,
		})
		p.closers = append(p.closers, r.Close)
		if err := r.Ping(ctx); err != nil {
			log.Warn("redis unavailable, cache reads will miss", "addr", c.Cache.RedisAddr, "error", err)
		}
		return r, nil
	}
	return nil, nil
}

// requireStore returns the SQLite store or an error naming the setting.
func (p *pipeline) requireStore() (*store.Store, error) {
	if p.db == nil {
		return nil, fmt.Errorf("this command needs a database; set db.path")
	}
	return p.db, nil
}
