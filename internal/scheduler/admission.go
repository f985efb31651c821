// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"strings"

	"github.com/containerd/platforms"

	"github.com/pkgforge/pkgforge/internal/config"
	"github.com/pkgforge/pkgforge/internal/pkgrepo"
	"github.com/pkgforge/pkgforge/internal/resolver"
)

// preflight validates image admission (I4), the image's platform
// restriction when one is configured, and the env-name allow-list (I5) for
// every node in the plan before any job is spawned. Failures here are
// fatal to the whole submit (spec.md §4.5 "Admission").
func preflight(cfg *config.Config, repo *pkgrepo.Repository, dag *resolver.DAG, image string, env map[string]string) error {
	if !cfg.AllowedImage(image) {
		return fmt.Errorf("scheduler: image %q is not in the global allow-list", image)
	}
	if err := checkImagePlatform(cfg, image); err != nil {
		return err
	}

	for _, node := range dag.Nodes {
		pkg, ok := repo.Get(node.Name, node.Version)
		if !ok {
			return fmt.Errorf("scheduler: plan references unknown package %s-%s", node.Name, node.Version)
		}
		if !pkg.AllowsImage(image) {
			return fmt.Errorf("scheduler: package %s-%s does not allow image %q", node.Name, node.Version, image)
		}
	}

	if cfg.Containers.CheckEnvNames {
		for name := range env {
			if !allowedEnvName(cfg.Containers.AllowedEnv, name) {
				return fmt.Errorf("scheduler: env variable %q is not in the allowed_env list", name)
			}
		}
	}

	return nil
}

// checkImagePlatform rejects image if it declares a platform restriction
// this host's container engine can't satisfy, matched via
// containerd/platforms' OCI platform-specifier semantics ("os/arch[/variant]")
// rather than a bare string comparison, so "linux/arm64" admits
// "linux/arm64/v8" and vice versa.
func checkImagePlatform(cfg *config.Config, image string) error {
	restriction, ok := cfg.ImagePlatform(image)
	if !ok || restriction == "" {
		return nil
	}
	want, err := platforms.Parse(restriction)
	if err != nil {
		return fmt.Errorf("scheduler: image %q has an invalid platform restriction %q: %w", image, restriction, err)
	}
	if !platforms.NewMatcher(platforms.DefaultSpec()).Match(want) {
		return fmt.Errorf("scheduler: image %q requires platform %q, which this host cannot run", image, restriction)
	}
	return nil
}

func allowedEnvName(allowList []string, name string) bool {
	for _, pattern := range allowList {
		if pattern == name {
			return true
		}
		if strings.HasSuffix(pattern, "*") && strings.HasPrefix(name, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}

// filteredEnv returns only the entries of env whose names pass the
// allow-list, plus git author/commit when configured. cfg.Containers.
// GitAuthor/GitCommitHash each name the env var to inject, not its value
// (spec.md §4.1: "optional env-var names to inject"; §6: "optional git
// author as a named variable; optional git commit hash as a named
// variable") — the values come from the submit's repo metadata.
func filteredEnv(cfg *config.Config, env map[string]string, repoAuthor, repoCommitHash string) []string {
	var out []string
	for name, value := range env {
		if cfg.Containers.CheckEnvNames && !allowedEnvName(cfg.Containers.AllowedEnv, name) {
			continue
		}
		out = append(out, name+"="+value)
	}
	if cfg.Containers.GitAuthor != "" {
		out = append(out, cfg.Containers.GitAuthor+"="+repoAuthor)
	}
	if cfg.Containers.GitCommitHash != "" {
		out = append(out, cfg.Containers.GitCommitHash+"="+repoCommitHash)
	}
	return out
}
