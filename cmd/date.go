// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDate accepts either an RFC3339 timestamp or a relative duration
// ("2h", "7d", "30m") measured back from now, for the `--older-than` /
// `--newer-than` filter flags (spec.md §6: "Dates accept human-readable
// forms"). An empty string parses to the zero time, meaning "unfiltered".
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := parseRelativeDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("cmd: %q is neither RFC3339 nor a relative duration like \"24h\" or \"7d\"", s)
}

// parseRelativeDuration extends time.ParseDuration with a "d" (day) unit,
// which the standard library's duration grammar doesn't support.
func parseRelativeDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
