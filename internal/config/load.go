// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

const configFileName = "pkgforge.yml"

// Load walks upward from startDir to the filesystem root (plus the XDG
// config home as the outermost fallback) collecting `pkgforge.yml` files,
// merges them child-wins per nesting level, applies PKGFORGE_* environment
// overrides, fills in documented defaults, and validates the result.
func Load(startDir string) (*Config, error) {
	paths := searchPath(startDir)

	merged := map[string]any{}
	// Apply from outermost (xdg / filesystem root) to innermost (startDir)
	// so a child directory's values win over its ancestors' (mergo.WithOverride
	// lets the later map overwrite the earlier one at every nesting level).
	for i := len(paths) - 1; i >= 0; i-- {
		layer, err := readLayer(paths[i])
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return nil, &ConfigError{Path: paths[i], Reason: "merging config layer", Err: err}
		}
	}

	applyEnvOverrides(merged)

	cfg := defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, &ConfigError{Reason: "building decoder", Err: err}
	}
	if err := dec.Decode(merged); err != nil {
		return nil, &ConfigError{Reason: "decoding merged config", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPath returns config file candidates from innermost (startDir) to
// outermost (the XDG config home), in the order Load wants to read them.
func searchPath(startDir string) []string {
	var paths []string
	dir := startDir
	for {
		paths = append(paths, filepath.Join(dir, configFileName))
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if home, err := xdg.ConfigFile(filepath.Join("pkgforge", configFileName)); err == nil {
		paths = append(paths, home)
	}
	return paths
}

func readLayer(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ConfigError{Path: path, Reason: "reading config file", Err: err}
	}
	var layer map[string]any
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, &ConfigError{Path: path, Reason: "parsing yaml", Err: err}
	}
	return layer, nil
}

// nestedSections are the only top-level keys with sub-keys of their own;
// every other config key is a flat snake_case name, so PKGFORGE_<KEY>
// overrides must only split on "_" when <KEY> starts with one of these.
var nestedSections = map[string]bool{"database": true, "docker": true, "containers": true}

// applyEnvOverrides applies PKGFORGE_<KEY> (and PKGFORGE_<SECTION>_<KEY> for
// the nested sections above) overrides on top of the merged file layers,
// matching the teacher's env-override convention.
func applyEnvOverrides(merged map[string]any) {
	const prefix = "PKGFORGE_"
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], prefix))
		if section, rest, ok := strings.Cut(key, "_"); ok && nestedSections[section] {
			child, ok := merged[section].(map[string]any)
			if !ok {
				child = map[string]any{}
				merged[section] = child
			}
			child[rest] = coerce(parts[1])
			continue
		}
		merged[key] = coerce(parts[1])
	}
}

func coerce(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return value
}
