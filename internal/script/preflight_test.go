// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreflightAcceptsValidScript(t *testing.T) {
	err := Preflight("#!/bin/bash\nset -e\nmake -j4\n")
	assert.NoError(t, err)
}

func TestPreflightRejectsMalformedScript(t *testing.T) {
	err := Preflight("#!/bin/bash\nif [ -z \"$FOO\" ]; then\n")
	assert.Error(t, err)
}
