// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the orchestrator's layered configuration: a root
// file plus per-directory overrides found walking upward from the working
// directory, merged child-value-wins per nesting level.
package config

// CurrentCompatibility is the configuration schema version this build
// understands. A repo config declaring a different value is rejected.
const CurrentCompatibility = 1

// Image describes one admission-controlled container image. Platform is
// an optional OCI platform specifier ("linux/amd64", "linux/arm64/v8")
// the image is restricted to; empty means "any platform this host can
// run" (spec.md §4 domain stack: "OCI platform matching").
type Image struct {
	Name      string `mapstructure:"name" yaml:"name"`
	ShortName string `mapstructure:"short_name" yaml:"short_name"`
	Platform  string `mapstructure:"platform" yaml:"platform"`
}

// Endpoint describes one configured container-engine endpoint.
type Endpoint struct {
	URI          string `mapstructure:"uri" yaml:"uri"`
	EndpointType string `mapstructure:"endpoint_type" yaml:"endpoint_type"`
	Timeout      int    `mapstructure:"timeout" yaml:"timeout"`
	MaxJobs      int    `mapstructure:"maxjobs" yaml:"maxjobs"`
}

// ReleaseStore names one promotion target and where it lives: a `file://`
// URI promotes into a local directory tree, an `s3://` URI promotes into an
// S3-compatible bucket (scheme sniffed once at wiring time, §4.7).
type ReleaseStore struct {
	Name string `mapstructure:"name" yaml:"name"`
	URI  string `mapstructure:"uri" yaml:"uri"`
}

// Docker groups the image allow-list and endpoint fleet.
type Docker struct {
	Images    []Image             `mapstructure:"images" yaml:"images"`
	Endpoints map[string]Endpoint `mapstructure:"endpoints" yaml:"endpoints"`
}

// Database holds the audit store's connection parameters.
type Database struct {
	Host              string `mapstructure:"host" yaml:"host"`
	Port              int    `mapstructure:"port" yaml:"port"`
	User              string `mapstructure:"user" yaml:"user"`
	Password          string `mapstructure:"password" yaml:"password"`
	Name              string `mapstructure:"name" yaml:"name"`
	ConnectionTimeout int    `mapstructure:"connection_timeout" yaml:"connection_timeout"`
}

// Containers controls what reaches a running container's environment.
type Containers struct {
	CheckEnvNames  bool     `mapstructure:"check_env_names" yaml:"check_env_names"`
	AllowedEnv     []string `mapstructure:"allowed_env" yaml:"allowed_env"`
	GitAuthor      string   `mapstructure:"git_author" yaml:"git_author"`
	GitCommitHash  string   `mapstructure:"git_commit_hash" yaml:"git_commit_hash"`
}

// Config is the fully merged, validated configuration for one invocation.
type Config struct {
	Compatibility             int        `mapstructure:"compatibility" yaml:"compatibility"`
	Shebang                   string     `mapstructure:"shebang" yaml:"shebang"`
	BuildErrorLines           int        `mapstructure:"build_error_lines" yaml:"build_error_lines"`
	ScriptHighlightTheme      string     `mapstructure:"script_highlight_theme" yaml:"script_highlight_theme"`
	ScriptLinter              string     `mapstructure:"script_linter" yaml:"script_linter"`
	ReleasesRoot              string     `mapstructure:"releases_root" yaml:"releases_root"`
	ReleaseStores             []ReleaseStore `mapstructure:"release_stores" yaml:"release_stores"`
	Staging                   string     `mapstructure:"staging" yaml:"staging"`
	SourceCache               string     `mapstructure:"source_cache" yaml:"source_cache"`
	LogDir                    string     `mapstructure:"log_dir" yaml:"log_dir"`
	StrictScriptInterpolation bool       `mapstructure:"strict_script_interpolation" yaml:"strict_script_interpolation"`
	AvailablePhases           []string   `mapstructure:"available_phases" yaml:"available_phases"`
	Database                  Database   `mapstructure:"database" yaml:"database"`
	Docker                    Docker     `mapstructure:"docker" yaml:"docker"`
	Containers                Containers `mapstructure:"containers" yaml:"containers"`
}

// defaults returns the zero-value Config with every documented default
// applied (§4.1 of the spec).
func defaults() *Config {
	return &Config{
		Compatibility:             CurrentCompatibility,
		Shebang:                   "#!/bin/bash",
		BuildErrorLines:           10,
		StrictScriptInterpolation: true,
		Database: Database{
			ConnectionTimeout: 30,
		},
	}
}

// Validate checks schema invariants that cannot be expressed as defaults:
// compatibility match, non-empty release store list when releases_root is
// set, and an endpoint_type of http or socket on every endpoint. It also
// sets an endpoint's timeout to 10 seconds when none is configured.
func (c *Config) Validate() error {
	if c.Compatibility != CurrentCompatibility {
		return &ConfigError{Reason: "unsupported compatibility version"}
	}
	if c.ReleasesRoot != "" && len(c.ReleaseStores) == 0 {
		return &ConfigError{Reason: "release_stores must be non-empty when releases_root is set"}
	}
	for name, ep := range c.Docker.Endpoints {
		if ep.EndpointType != "http" && ep.EndpointType != "socket" {
			return &ConfigError{Reason: "docker.endpoints." + name + ": endpoint_type must be http or socket"}
		}
		if ep.Timeout == 0 {
			ep.Timeout = 10
			c.Docker.Endpoints[name] = ep
		}
	}
	return nil
}

// HasPhase reports whether name is a recognized phase, per available_phases.
func (c *Config) HasPhase(name string) bool {
	for _, p := range c.AvailablePhases {
		if p == name {
			return true
		}
	}
	return false
}

// AllowedImage reports whether name is in the global image allow-list.
func (c *Config) AllowedImage(name string) bool {
	for _, img := range c.Docker.Images {
		if img.Name == name || img.ShortName == name {
			return true
		}
	}
	return false
}

// ImagePlatform returns the configured platform restriction for name, and
// whether that image is declared at all.
func (c *Config) ImagePlatform(name string) (string, bool) {
	for _, img := range c.Docker.Images {
		if img.Name == name || img.ShortName == name {
			return img.Platform, true
		}
	}
	return "", false
}
