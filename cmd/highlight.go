// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bufio"
	"strings"

	"github.com/fatih/color"
)

// colorHighlighter is cmd/'s concrete highlighter (SPEC_FULL.md §6):
// a line-oriented bash colorizer, grounded on the same fatih/color palette
// terminalProgress uses for status icons. internal/ never imports this —
// it only ever hands Compile's output to the Linter, never colors it
// itself (spec.md §1 "highlighting of printed scripts" is out of scope
// there).
type colorHighlighter struct {
	theme string
}

func newHighlighter(theme string) *colorHighlighter {
	return &colorHighlighter{theme: theme}
}

// Highlight colors comments, the marker-echo helper lines Compile injects,
// and shebangs; everything else passes through unchanged. An empty theme or
// "plain" disables coloring entirely; every other theme value colors with
// the same fixed palette.
func (h *colorHighlighter) Highlight(script string) string {
	if h.theme == "" || h.theme == "plain" {
		return script
	}

	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out.WriteString(highlightLine(scanner.Text()))
		out.WriteString("\n")
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func highlightLine(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "#!"):
		return color.New(color.FgMagenta, color.Bold).Sprint(line)
	case strings.HasPrefix(trimmed, "echo '#BUTIDO:"):
		return color.New(color.Faint).Sprint(line)
	case strings.HasPrefix(trimmed, "#"):
		return color.New(color.FgGreen).Sprint(line)
	default:
		return line
	}
}
