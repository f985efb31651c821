// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package build holds version information stamped in at link time.
package build

var (
	Version = "dev"
	AppName = "pkgforge"
	Commit  = ""
)
