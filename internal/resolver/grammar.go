// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var nameToken = regexp.MustCompile(`^[A-Za-z0-9_+.-]+`)

// parsedDependency is the output of the small grammar spec.md §4.2 calls
// for: a package name plus an optional semantic-version range constraint.
type parsedDependency struct {
	Name       string
	Constraint *semver.Constraints
	Raw        string
}

// parseDependency splits a raw dependency string such as "zlib>=1.2,<2.0"
// or a bare "zlib" into (name, constraint).
func parseDependency(raw string) (parsedDependency, error) {
	trimmed := strings.TrimSpace(raw)
	name := nameToken.FindString(trimmed)
	if name == "" {
		return parsedDependency{}, fmt.Errorf("resolver: malformed dependency spec %q", raw)
	}
	rest := strings.TrimSpace(trimmed[len(name):])
	if rest == "" {
		return parsedDependency{Name: name, Raw: raw}, nil
	}
	c, err := semver.NewConstraint(rest)
	if err != nil {
		return parsedDependency{}, fmt.Errorf("resolver: invalid constraint %q for %q: %w", rest, name, err)
	}
	return parsedDependency{Name: name, Constraint: c, Raw: raw}, nil
}
