// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package main

import (
	"log/slog"
	"path/filepath"

	"github.com/mnemo-dev/mnemo/internal/config"
	"github.com/mnemo-dev/mnemo/internal/contact"
	"github.com/mnemo-dev/mnemo/internal/engine"
	anthropiceng "github.com/mnemo-dev/mnemo/internal/engine/anthropic"
	openaieng "github.com/mnemo-dev/mnemo/internal/engine/openai"
	"github.com/mnemo-dev/mnemo/internal/pipeline"
	"github.com/mnemo-dev/mnemo/internal/source"
	"github.com/mnemo-dev/mnemo/internal/store"
	"github.com/mnemo-dev/mnemo/internal/store/sqlite"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// App holds the wired subsystems for one command invocation. Acquisition is
// scoped to the command: wire at start, Close on exit regardless of outcome.
type App struct {
	Config   *config.Config
	Store    store.Store
	Resolver *contact.Resolver
	Source   source.Source
	Engine   engine.Engine
	Runner   *pipeline.Runner
}

// wireStore opens only the store and resolver, enough for read-only
// commands (status, export) that never touch the source or engine.
func wireStore(cfg *config.Config) (store.Store, *contact.Resolver, error) {
	dir, err := dataDir(cfg)
	if err != nil {
		return nil, nil, err
	}

	resolver := contact.NewResolver(newDirectory(cfg), cfg.Directory.DefaultRegion, slog.Default())

	st, err := sqlite.New(filepath.Join(dir, "mnemo.db"), resolver.Resolve)
	if err != nil {
		return nil, nil, mnemoerr.Wrap(err, mnemoerr.CodeCLISetupFailure, "opening pipeline store")
	}
	return st, resolver, nil
}

// WireApp creates all subsystems for a pipeline run.
func WireApp(cfg *config.Config) (*App, error) {
	st, resolver, err := wireStore(cfg)
	if err != nil {
		return nil, err
	}

	src, err := newSource(cfg)
	if err != nil {
		_ = st.Close()
		return nil, mnemoerr.Wrap(err, mnemoerr.CodeCLISetupFailure, "creating message source")
	}

	eng, err := newEngine(cfg)
	if err != nil {
		_ = st.Close()
		return nil, mnemoerr.Wrap(err, mnemoerr.CodeCLISetupFailure, "creating engine")
	}

	runner := pipeline.NewRunner(st, src, eng, resolver, pipeline.Options{
		NoisePatterns: cfg.Filter.NoisePatterns,
		MinWords:      cfg.Filter.MinWords,
		Traits:        cfg.Labels.Traits,
		Relationships: cfg.Labels.Relationships,
		Topics:        cfg.Labels.Topics,
		Weekly: engine.Constraints{
			MaxWords: cfg.Summaries.WeeklyMaxWords,
			MinWords: cfg.Summaries.WeeklyMinWords,
		},
		Identity: engine.Constraints{
			MaxWords: cfg.Summaries.IdentityMaxWords,
			MinWords: cfg.Summaries.IdentityMinWords,
		},
	}, slog.Default())

	return &App{
		Config:   cfg,
		Store:    st,
		Resolver: resolver,
		Source:   src,
		Engine:   eng,
		Runner:   runner,
	}, nil
}

// Close releases everything the App holds.
func (a *App) Close() error {
	return a.Store.Close()
}

func newDirectory(cfg *config.Config) contact.Directory {
	switch cfg.Directory.Type {
	case "static":
		return contact.StaticDirectory(cfg.Directory.Entries)
	case "none":
		return nil
	default:
		return contact.NewAddressBookDirectory("", cfg.Directory.DefaultRegion)
	}
}

func newSource(cfg *config.Config) (source.Source, error) {
	return source.NewIMessageSource(cfg.Source.DBPath)
}

func newEngine(cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine.Provider {
	case "openai":
		return openaieng.New(openaieng.Config{
			APIKey:    cfg.Engine.APIKey,
			Model:     cfg.Engine.Model,
			BaseURL:   cfg.Engine.Endpoint,
			MaxTokens: cfg.Engine.MaxTokens,
		})
	default:
		return anthropiceng.New(anthropiceng.Config{
			APIKey:    cfg.Engine.APIKey,
			Model:     cfg.Engine.Model,
			BaseURL:   cfg.Engine.Endpoint,
			MaxTokens: cfg.Engine.MaxTokens,
		})
	}
}
