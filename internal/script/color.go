// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package script

import "regexp"

// ansiEscape matches CSI-style ANSI escape sequences. No example repo in
// this corpus carries a dedicated ANSI-stripping dependency, so this stays
// a small hand-rolled regexp rather than reaching for one.
var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

// StripColor removes ANSI escape sequences before log text is persisted
// (spec.md §4.3: "Color escape sequences are stripped before persisting
// log text").
func StripColor(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
