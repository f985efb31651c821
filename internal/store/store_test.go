// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkgforge/pkgforge/internal/config"
)

func TestDsnEncodesCredentialsWithoutLeakingPlaintextPassword(t *testing.T) {
	got := dsn(config.Database{Host: "db.internal", Port: 5432, User: "pkgforge", Password: "p@ss w/ord!", Name: "audit"})

	assert.True(t, strings.HasPrefix(got, "postgres://pkgforge:"))
	assert.Contains(t, got, "@db.internal:5432/audit")
	// url.UserPassword percent-encodes the raw password; the literal
	// plaintext with its unescaped special characters must not appear.
	assert.NotContains(t, got, "p@ss w/ord!")
}

func TestDsnOmitsQueryParamsWhenUnset(t *testing.T) {
	got := dsn(config.Database{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "db"})
	assert.Equal(t, "postgres://u:p@localhost:5432/db", got)
}
