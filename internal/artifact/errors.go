// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package artifact implements the staging area (one subdirectory per
// submit) and the named release stores outputs are promoted into
// (spec.md §4.7).
package artifact

import "fmt"

// StoreError reports a failure copying or promoting a staged artifact.
type StoreError struct {
	Kind string // "Copy", "Overwrite"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("artifact: %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
