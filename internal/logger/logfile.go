// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// LogFileConfig describes where a job's raw container log is written.
type LogFileConfig struct {
	Prefix    string
	LogDir    string
	JobLogDir string
	Package   string
	RequestID string
}

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// OpenLogFile creates (or appends to) the log file for one job and returns
// it opened for writing.
func OpenLogFile(cfg LogFileConfig) (*os.File, error) {
	dir, err := prepareLogDirectory(cfg)
	if err != nil {
		return nil, err
	}
	name := generateLogFilename(cfg)
	return os.OpenFile(
		filepath.Join(dir, name),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC,
		0644,
	)
}

func prepareLogDirectory(cfg LogFileConfig) (string, error) {
	dir := cfg.LogDir
	if cfg.JobLogDir != "" {
		dir = cfg.JobLogDir
	}
	dir = filepath.Join(dir, validFilename(cfg.Package))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func generateLogFilename(cfg LogFileConfig) string {
	return fmt.Sprintf("%s%s.%s.%s.log",
		cfg.Prefix,
		validFilename(cfg.Package),
		time.Now().Format("20060102.150405.000"),
		truncString(cfg.RequestID, 8),
	)
}

func validFilename(s string) string {
	return invalidFilenameChars.ReplaceAllString(s, "_")
}

func truncString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
