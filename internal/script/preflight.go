// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Preflight parses (but does not execute) the compiled script, rejecting
// anything the shell itself would refuse to run before it is ever shipped
// to a container.
func Preflight(compiled string) error {
	parser := syntax.NewParser(syntax.KeepComments(true))
	if _, err := parser.Parse(strings.NewReader(compiled), ""); err != nil {
		return fmt.Errorf("script: shell syntax check failed: %w", err)
	}
	return nil
}
