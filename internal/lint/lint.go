// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package lint adapts an external script-linter process to the Linter
// interface internal/script depends on, keeping the core free of any
// assumption about which linter is installed (spec.md §1 lists the linter
// as an out-of-scope collaborator reached only through this interface).
package lint

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExternalProcess pipes a compiled script to a configured command's
// standard input; a non-zero exit fails the lint with the process's
// combined output surfaced verbatim (spec.md §4.3 item 5).
type ExternalProcess struct {
	Command string
	Args    []string
}

// NewExternalProcess splits commandLine on whitespace into a command and
// its fixed arguments, leaving the script itself to be piped on stdin.
func NewExternalProcess(commandLine string) *ExternalProcess {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return &ExternalProcess{}
	}
	return &ExternalProcess{Command: fields[0], Args: fields[1:]}
}

// Lint implements script.Linter.
func (p *ExternalProcess) Lint(ctx context.Context, script string) error {
	if p.Command == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = strings.NewReader(script)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(out.String()), err)
	}
	return nil
}
