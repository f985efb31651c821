// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package lint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalProcessAcceptsZeroExit(t *testing.T) {
	p := NewExternalProcess("cat")
	err := p.Lint(context.Background(), "#!/bin/bash\necho hi\n")
	require.NoError(t, err)
}

func TestExternalProcessSurfacesNonZeroExit(t *testing.T) {
	p := NewExternalProcess("false")
	err := p.Lint(context.Background(), "#!/bin/bash\n")
	assert.Error(t, err)
}

func TestExternalProcessNoopWhenUnconfigured(t *testing.T) {
	p := &ExternalProcess{}
	err := p.Lint(context.Background(), "anything")
	assert.NoError(t, err)
}

func TestNewExternalProcessSplitsArgs(t *testing.T) {
	p := NewExternalProcess("shellcheck -s bash -")
	assert.Equal(t, "shellcheck", p.Command)
	assert.Equal(t, []string{"-s", "bash", "-"}, p.Args)
}
