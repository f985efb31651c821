// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkgforge/pkgforge/internal/config"
)

// Store owns the audit database connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the audit database described by cfg, bounding connection
// establishment by cfg.ConnectionTimeout (spec.md §4.6). The DSN is built
// in-process and handed only to pgxpool; it is never logged or wrapped in
// an error message, so a bad-password failure never leaks the password.
func Open(ctx context.Context, cfg config.Database) (*Store, error) {
	timeout := time.Duration(cfg.ConnectionTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn(cfg))
	if err != nil {
		return nil, &DbError{Kind: "Connect", Err: errConnect()}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &DbError{Kind: "Connect", Err: errConnect()}
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

func dsn(cfg config.Database) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	return u.String()
}

type connectError struct{}

func (connectError) Error() string { return "unable to reach audit database" }

func errConnect() error { return connectError{} }
