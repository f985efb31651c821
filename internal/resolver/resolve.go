// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package resolver

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

// Resolve performs the memoized depth-first expansion from (rootName,
// rootConstraint) over repo, producing the dependency DAG and its
// topological build plan. Sibling edges are visited in (name, version)
// ascending order so the result is deterministic across runs (P1).
func Resolve(repo *pkgrepo.Repository, rootName, rootConstraint string) (*DAG, *Plan, error) {
	var rootConstraints *semver.Constraints
	if rootConstraint != "" {
		c, err := semver.NewConstraint(rootConstraint)
		if err != nil {
			return nil, nil, err
		}
		rootConstraints = c
	}

	r := &resolution{
		repo:     repo,
		nodes:    map[string]int{},
		version:  map[string]string{},
		visiting: map[string]bool{},
		path:     nil,
	}

	rootIdx, err := r.visit(rootName, rootConstraints)
	if err != nil {
		return nil, nil, err
	}

	dag := &DAG{Nodes: r.out, Root: rootIdx}
	plan := buildPlan(dag)
	return dag, plan, nil
}

type resolution struct {
	repo     *pkgrepo.Repository
	nodes    map[string]int // name -> index in out
	version  map[string]string
	visiting map[string]bool
	path     []string
	out      []Node
}

func (r *resolution) visit(name string, constraint *semver.Constraints) (int, error) {
	if idx, ok := r.nodes[name]; ok {
		if r.visiting[name] {
			return 0, &CycleError{Cycle: append(append([]string{}, r.path[indexOf(r.path, name):]...), name)}
		}
		if constraint != nil {
			v, err := semver.NewVersion(r.version[name])
			if err == nil && !constraint.Check(v) {
				return 0, &NoMatchError{Name: name, Constraint: constraint.String()}
			}
		}
		return idx, nil
	}

	candidates := r.repo.Versions(name)
	if len(candidates) == 0 {
		return 0, &MissingError{Name: name}
	}
	sort.Slice(candidates, func(i, j int) bool {
		vi, erri := semver.NewVersion(candidates[i])
		vj, errj := semver.NewVersion(candidates[j])
		if erri != nil || errj != nil {
			return candidates[i] < candidates[j]
		}
		return vi.LessThan(vj)
	})

	chosen := ""
	for i := len(candidates) - 1; i >= 0; i-- {
		if constraint == nil {
			chosen = candidates[i]
			break
		}
		v, err := semver.NewVersion(candidates[i])
		if err != nil {
			continue
		}
		if constraint.Check(v) {
			chosen = candidates[i]
			break
		}
	}
	if chosen == "" {
		cs := ""
		if constraint != nil {
			cs = constraint.String()
		}
		return 0, &NoMatchError{Name: name, Constraint: cs}
	}

	pkg, _ := r.repo.Get(name, chosen)

	idx := len(r.out)
	r.out = append(r.out, Node{Name: name, Version: chosen})
	r.nodes[name] = idx
	r.version[name] = chosen
	r.visiting[name] = true
	r.path = append(r.path, name)

	buildEdges, err := r.visitAll(pkg.Dependencies.Build)
	if err != nil {
		return 0, err
	}
	runtimeEdges, err := r.visitAll(pkg.Dependencies.Runtime)
	if err != nil {
		return 0, err
	}

	r.out[idx].BuildEdges = buildEdges
	r.out[idx].RuntimeEdges = runtimeEdges

	r.visiting[name] = false
	r.path = r.path[:len(r.path)-1]

	return idx, nil
}

func (r *resolution) visitAll(raws []string) ([]int, error) {
	type dep struct {
		parsed parsedDependency
	}
	deps := make([]dep, 0, len(raws))
	for _, raw := range raws {
		parsed, err := parseDependency(raw)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep{parsed})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].parsed.Name < deps[j].parsed.Name })

	edges := make([]int, 0, len(deps))
	for _, d := range deps {
		idx, err := r.visit(d.parsed.Name, d.parsed.Constraint)
		if err != nil {
			return nil, err
		}
		edges = append(edges, idx)
	}
	return edges, nil
}

func indexOf(path []string, name string) int {
	for i, p := range path {
		if p == name {
			return i
		}
	}
	return 0
}
