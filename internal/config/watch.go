// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"github.com/fsnotify/fsnotify"
)

// Watch re-invokes onChange with a freshly reloaded Config whenever any
// config layer under startDir changes on disk. It returns a stop function.
func Watch(startDir string, onChange func(*Config, error)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range searchPath(startDir) {
		dir := parentOf(p)
		_ = watcher.Add(dir) // best-effort: ancestor directories may not exist
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				cfg, err := Load(startDir)
				onChange(cfg, err)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
