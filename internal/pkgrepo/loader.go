// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package pkgrepo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
)

const manifestFile = "pkg.yml"

// PhaseChecker reports whether a phase name is recognized, backed by the
// loaded configuration's available_phases list.
type PhaseChecker interface {
	HasPhase(name string) bool
}

// Load walks the package-definition tree rooted at dir, applying directory
// inheritance (child overrides parent, lists replace wholesale) and
// materializing one Package for every manifest that declares both a name
// and a version.
func Load(dir string, phases PhaseChecker) (*Repository, error) {
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "**/"+manifestFile)
	if err != nil {
		return nil, &RepoError{Path: dir, Reason: "walking package tree", Err: err}
	}
	// Also consider a manifest at the tree root itself.
	if _, err := os.Stat(filepath.Join(dir, manifestFile)); err == nil {
		matches = append(matches, manifestFile)
	}

	sort.Slice(matches, func(i, j int) bool {
		return strings.Count(matches[i], "/") < strings.Count(matches[j], "/")
	})

	repo := NewRepository()
	inherited := map[string]map[string]any{"": {}}

	seen := map[string]bool{}
	for _, rel := range matches {
		if seen[rel] {
			continue
		}
		seen[rel] = true

		relDir := filepath.Dir(rel)
		if relDir == "." {
			relDir = ""
		}
		parentDir := filepath.Dir(relDir)
		if parentDir == "." {
			parentDir = ""
		}

		own, err := readManifest(filepath.Join(dir, rel))
		if err != nil {
			return nil, err
		}

		base := cloneMap(inherited[parentDir])
		if err := mergo.Merge(&base, own, mergo.WithOverride); err != nil {
			return nil, &RepoError{Path: rel, Reason: "merging inherited values", Err: err}
		}
		inherited[relDir] = base

		name, _ := base["name"].(string)
		version, _ := base["version"].(string)
		if name == "" || version == "" {
			// Partial manifest: only contributes to descendants' inheritance.
			continue
		}

		pkg, err := decodePackage(base, filepath.Join(dir, relDir))
		if err != nil {
			return nil, &RepoError{Path: rel, Reason: "decoding package", Err: err}
		}
		if existing, ok := repo.Get(pkg.Name, pkg.Version); ok {
			return nil, &RepoError{
				Path:   rel,
				Reason: "duplicate package " + pkg.Name + "@" + pkg.Version + " also defined at " + existing.Dir,
			}
		}
		for phase := range pkg.Phases {
			if !phases.HasPhase(phase) {
				return nil, &RepoError{Path: rel, Reason: "unknown phase " + phase}
			}
		}
		repo.Add(pkg)
	}

	return repo, nil
}

func readManifest(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RepoError{Path: path, Reason: "reading manifest", Err: err}
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &RepoError{Path: path, Reason: "parsing yaml", Err: err}
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func decodePackage(raw map[string]any, dir string) (*Package, error) {
	pkg := &Package{Dir: dir, Phases: map[string]string{}, Env: map[string]string{}}
	pkg.Name, _ = raw["name"].(string)
	pkg.Version, _ = raw["version"].(string)
	pkg.Patches = toStringSlice(raw["patches"])
	pkg.AllowedImages = toStringSlice(raw["allowed_images"])
	pkg.DeniedImages = toStringSlice(raw["denied_images"])
	pkg.Flags = toStringSlice(raw["flags"])

	if srcs, ok := raw["sources"].([]any); ok {
		for _, s := range srcs {
			sm, ok := s.(map[string]any)
			if !ok {
				continue
			}
			src := Source{}
			src.Key, _ = sm["key"].(string)
			src.URL, _ = sm["url"].(string)
			if hm, ok := sm["hash"].(map[string]any); ok {
				src.Hash.Algo, _ = hm["algo"].(string)
				src.Hash.Hex, _ = hm["hex"].(string)
			}
			pkg.Sources = append(pkg.Sources, src)
		}
	}

	if deps, ok := raw["dependencies"].(map[string]any); ok {
		pkg.Dependencies.Build = toStringSlice(deps["build"])
		pkg.Dependencies.Runtime = toStringSlice(deps["runtime"])
	}

	if phases, ok := raw["phases"].(map[string]any); ok {
		for k, v := range phases {
			if s, ok := v.(string); ok {
				pkg.Phases[k] = s
			}
		}
	}

	if env, ok := raw["env"].(map[string]any); ok {
		for k, v := range env {
			if s, ok := v.(string); ok {
				pkg.Env[k] = s
			}
		}
	}

	return pkg, nil
}

func toStringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
