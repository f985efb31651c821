// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker kinds recognized on container stdout/stderr (spec.md §4.3).
const (
	MarkerState    = "STATE"
	MarkerPhase    = "PHASE"
	MarkerProgress = "PROGRESS"
)

// Marker is one parsed `#BUTIDO:<kind>:<payload>` line.
type Marker struct {
	Kind    string
	Payload string
}

var markerLine = regexp.MustCompile(`^#` + markerPrefix + `:([A-Z]+):(.*)$`)

// ParseLine reports the Marker encoded in line, if any. Lines with no
// recognized marker prefix are returned as ok=false and should be forwarded
// as regular log text.
func ParseLine(line string) (Marker, bool) {
	m := markerLine.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return Marker{}, false
	}
	return Marker{Kind: m[1], Payload: m[2]}, true
}

// StateResult is the terminal status a STATE marker's payload encodes.
type StateResult struct {
	OK      bool
	Message string
}

// ParseState decodes a STATE marker's payload: "OK" or `ERR:"message"`.
func ParseState(payload string) (StateResult, bool) {
	if payload == "OK" {
		return StateResult{OK: true}, true
	}
	rest, ok := strings.CutPrefix(payload, "ERR:")
	if !ok {
		return StateResult{}, false
	}
	msg, err := strconv.Unquote(rest)
	if err != nil {
		msg = rest
	}
	return StateResult{OK: false, Message: msg}, true
}

// ParseProgress decodes a PROGRESS marker's payload, clamped to [0, 100].
func ParseProgress(payload string) (int, bool) {
	n, err := strconv.Atoi(payload)
	if err != nil {
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n, true
}
