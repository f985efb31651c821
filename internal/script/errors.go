// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package script assembles a package's declared build phases into one
// shell script, interpolating package metadata and injecting the
// marker-protocol helpers the scheduler later parses out of container logs.
package script

import "fmt"

// ScriptError reports a compile-time failure: either an unbound template
// variable or a rejection from the configured external linter.
type ScriptError struct {
	Kind     string // "UnboundVariable" or "LinterFailed"
	Phase    string
	Variable string
	Output   string
	Err      error
}

func (e *ScriptError) Error() string {
	switch e.Kind {
	case "UnboundVariable":
		return fmt.Sprintf("script: phase %q references undefined variable %q", e.Phase, e.Variable)
	case "LinterFailed":
		return fmt.Sprintf("script: linter rejected script: %s", e.Output)
	default:
		return fmt.Sprintf("script: %s", e.Err)
	}
}

func (e *ScriptError) Unwrap() error { return e.Err }
