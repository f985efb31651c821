// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver goose needs
	"github.com/pressly/goose/v3"

	"github.com/pkgforge/pkgforge/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the audit database schema up to the latest migration.
// goose requires a database/sql handle rather than a pgxpool.Pool, so this
// opens (and closes) its own short-lived connection via the pgx stdlib
// driver rather than reusing Store's pool.
func Migrate(ctx context.Context, cfg config.Database) error {
	db, err := sql.Open("pgx", dsn(cfg))
	if err != nil {
		return &DbError{Kind: "Migrate", Err: errConnect()}
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return &DbError{Kind: "Migrate", Err: err}
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return &DbError{Kind: "Migrate", Err: err}
	}
	return nil
}
