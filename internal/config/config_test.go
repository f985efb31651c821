package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "#!/bin/bash", cfg.Shebang)
	require.Equal(t, 10, cfg.BuildErrorLines)
	require.True(t, cfg.StrictScriptInterpolation)
	require.Equal(t, 30, cfg.Database.ConnectionTimeout)
}

func TestLoadChildOverridesParent(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "child")
	require.NoError(t, os.MkdirAll(child, 0755))

	writeConfig(t, root, "shebang: \"#!/bin/sh\"\nbuild_error_lines: 5\n")
	writeConfig(t, child, "build_error_lines: 20\n")

	cfg, err := Load(child)
	require.NoError(t, err)
	require.Equal(t, "#!/bin/sh", cfg.Shebang)
	require.Equal(t, 20, cfg.BuildErrorLines)
}

func TestLoadRejectsCompatibilityMismatch(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "compatibility: 99\n")
	_, err := Load(dir)
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestLoadRejectsEmptyReleaseStoresWithReleasesRoot(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "releases_root: /var/releases\n")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoadRejectsBadEndpointType(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "docker:\n  endpoints:\n    a:\n      uri: tcp://x\n      endpoint_type: carrier-pigeon\n")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestHasPhaseAndAllowedImage(t *testing.T) {
	cfg := defaults()
	cfg.AvailablePhases = []string{"unpack", "build"}
	cfg.Docker.Images = []Image{{Name: "debian:bullseye", ShortName: "bullseye"}}

	require.True(t, cfg.HasPhase("build"))
	require.False(t, cfg.HasPhase("pack"))
	require.True(t, cfg.AllowedImage("bullseye"))
	require.False(t, cfg.AllowedImage("alpine"))
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PKGFORGE_BUILD_ERROR_LINES", "42")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 42, cfg.BuildErrorLines)
}
