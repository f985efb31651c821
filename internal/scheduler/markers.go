// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"strings"

	"github.com/pkgforge/pkgforge/internal/script"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// terminalState accumulates a job's persisted log and its last-seen
// terminal marker while its container is streaming (spec.md §4.3's
// "the last such line wins if multiple occur").
type terminalState struct {
	log       strings.Builder
	lastState *script.StateResult
}

// consumeMarkers drains lines until the container's log stream closes,
// stripping color, persisting every line, parsing markers, and forwarding
// phase/progress updates to sink (if any).
func consumeMarkers(lines <-chan string, ref submitctx.JobRef, sink ProgressSink) *terminalState {
	t := &terminalState{}
	for raw := range lines {
		clean := script.StripColor(raw)
		t.log.WriteString(clean)
		t.log.WriteString("\n")

		marker, ok := script.ParseLine(clean)
		if !ok {
			continue
		}
		switch marker.Kind {
		case script.MarkerState:
			if st, ok := script.ParseState(marker.Payload); ok {
				t.lastState = &st
			}
		case script.MarkerPhase:
			if sink != nil {
				sink.Phase(ref, marker.Payload)
			}
		case script.MarkerProgress:
			if pct, ok := script.ParseProgress(marker.Payload); ok && sink != nil {
				sink.Progress(ref, pct)
			}
		}
	}
	return t
}

// resolve derives a terminal status from the last-seen STATE marker and
// the container's exit code, per spec.md §4.3's fallback rules.
func (t *terminalState) resolve(exitCode int64) (submitctx.Status, error) {
	if t.lastState != nil {
		if t.lastState.OK {
			return submitctx.StatusSucceeded, nil
		}
		return submitctx.StatusFailed, &JobError{Kind: "ContainerExitNonZero", Err: fmt.Errorf("%s", t.lastState.Message)}
	}
	if exitCode != 0 {
		return submitctx.StatusFailed, &JobError{Kind: "ContainerExitNonZero", Err: fmt.Errorf("container exited %d with no terminal marker", exitCode)}
	}
	return submitctx.StatusFailed, &JobError{Kind: "MissingTerminalState"}
}
