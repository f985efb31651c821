// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package app wires the independently-authored internal/ packages into the
// collaborators cmd/ needs, mirroring the teacher's own
// config-then-logger-then-engine construction order (cmd/main.go).
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkgforge/pkgforge/internal/config"
	"github.com/pkgforge/pkgforge/internal/endpoint"
	"github.com/pkgforge/pkgforge/internal/lint"
	"github.com/pkgforge/pkgforge/internal/logger"
	"github.com/pkgforge/pkgforge/internal/pkgrepo"
	"github.com/pkgforge/pkgforge/internal/source"
	"github.com/pkgforge/pkgforge/internal/store"
)

// Container holds every long-lived collaborator one CLI invocation needs,
// constructed once in Bootstrap and threaded into whichever command ran.
type Container struct {
	Config     *config.Config
	Logger     logger.Logger
	Repo       *pkgrepo.Repository
	Pool       *endpoint.Pool
	Sources    *source.Cache
	Store      *store.Store // nil when database.host is unset (e.g. `tree-of`, `find-artifact`)
	Linter     *lint.ExternalProcess
	RepoDir    string
	RepoHead   string
	RepoAuthor string
}

// Bootstrap loads configuration rooted at repoDir, then constructs every
// collaborator that configuration implies. Database connectivity is
// optional: commands that don't touch the audit store (tree-of,
// find-artifact, source) run without it.
func Bootstrap(ctx context.Context, repoDir string, quiet, debug bool) (*Container, error) {
	cfg, err := config.Load(repoDir)
	if err != nil {
		return nil, err
	}

	logOpts := []logger.Option{}
	if quiet {
		logOpts = append(logOpts, logger.WithQuiet())
	}
	if debug {
		logOpts = append(logOpts, logger.WithDebug())
	}
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err == nil {
			if f, err := os.OpenFile(cfg.LogDir+"/pkgforge.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				logOpts = append(logOpts, logger.WithTee(f))
			}
		}
	}
	log := logger.NewLogger(logOpts...)

	repo, err := pkgrepo.Load(repoDir, cfg)
	if err != nil {
		return nil, err
	}

	pool, err := endpoint.NewPool(cfg.Docker.Endpoints, cfg.Docker.Images, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}

	srcCache, err := source.NewCache(cfg.SourceCache)
	if err != nil {
		return nil, err
	}

	var db *store.Store
	if cfg.Database.Host != "" {
		db, err = store.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
	}

	head, err := pkgrepo.GitHead(ctx, repoDir)
	if err != nil {
		head = ""
	}
	author, err := pkgrepo.GitAuthor(ctx, repoDir)
	if err != nil {
		author = ""
	}

	return &Container{
		Config:     cfg,
		Logger:     log,
		Repo:       repo,
		Pool:       pool,
		Sources:    srcCache,
		Store:      db,
		Linter:     lint.NewExternalProcess(cfg.ScriptLinter),
		RepoDir:    repoDir,
		RepoHead:   head,
		RepoAuthor: author,
	}, nil
}

// Close releases every collaborator holding a live connection.
func (c *Container) Close(ctx context.Context) {
	if c.Pool != nil {
		_ = c.Pool.Close(ctx)
	}
	if c.Store != nil {
		c.Store.Close()
	}
}

// RequireStore returns an error command handlers can surface directly when
// a subcommand needs the audit database but none is configured.
func (c *Container) RequireStore() error {
	if c.Store == nil {
		return fmt.Errorf("app: database.host is not configured")
	}
	return nil
}
