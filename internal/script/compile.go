// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

// Linter validates a fully compiled script before it is handed to an
// endpoint. internal/lint.ExternalProcess implements this by piping the
// script to a configured external command's standard input.
type Linter interface {
	Lint(ctx context.Context, script string) error
}

// thisContext is the "this.*" namespace exposed to phase templates.
type thisContext struct {
	Name    string
	Version string
	Patches []string
	Dependencies struct {
		Build   []string
		Runtime []string
	}
	Sources []pkgrepo.Source
}

// templateData is the full root object phase templates render against.
type templateData struct {
	This thisContext
	Env  map[string]string
}

// Options configures one Compile call.
type Options struct {
	Shebang         string
	AvailablePhases []string
	Strict          bool
	Linter          Linter
}

// Compile renders pkg's declared phases, in AvailablePhases order, into one
// shell script: shebang, then a banner-and-body block per declared phase,
// each interpolated against pkg's metadata and env, with marker helpers
// available to every phase body (spec.md §4.3 items 1-4).
func Compile(ctx context.Context, pkg *pkgrepo.Package, opts Options) (string, error) {
	var buf bytes.Buffer

	shebang := opts.Shebang
	if shebang == "" {
		shebang = "#!/bin/bash"
	}
	buf.WriteString(shebang)
	buf.WriteString("\n")

	data := templateData{
		This: thisContext{
			Name:    pkg.Name,
			Version: pkg.Version,
			Patches: pkg.Patches,
			Sources: pkg.Sources,
		},
		Env: pkg.Env,
	}
	data.This.Dependencies.Build = pkg.Dependencies.Build
	data.This.Dependencies.Runtime = pkg.Dependencies.Runtime

	for _, phase := range opts.AvailablePhases {
		body, ok := pkg.Phases[phase]
		if !ok {
			continue
		}

		fmt.Fprintf(&buf, "# phase: %s\n", phase)
		buf.WriteString(markerEcho("PHASE", phase))
		buf.WriteString("\n")

		rendered, err := renderPhase(phase, body, data, opts.Strict)
		if err != nil {
			return "", err
		}
		buf.WriteString(rendered)
		if !strings.HasSuffix(rendered, "\n") {
			buf.WriteString("\n")
		}
	}

	compiled := buf.String()

	if opts.Linter != nil {
		if err := opts.Linter.Lint(ctx, compiled); err != nil {
			return "", &ScriptError{Kind: "LinterFailed", Output: err.Error(), Err: err}
		}
	}

	return compiled, nil
}

func renderPhase(phase, body string, data templateData, strict bool) (string, error) {
	missingKey := "missingkey=zero"
	if strict {
		missingKey = "missingkey=error"
	}

	tmpl, err := template.New(phase).Option(missingKey).Funcs(markerFuncs).Parse(body)
	if err != nil {
		return "", &ScriptError{Kind: "UnboundVariable", Phase: phase, Err: err}
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", &ScriptError{Kind: "UnboundVariable", Phase: phase, Variable: unboundVariableName(err), Err: err}
	}
	return out.String(), nil
}

var unboundVarPattern = regexp.MustCompile(`map has no entry for key "([^"]+)"|can't evaluate field (\w+)`)

func unboundVariableName(err error) string {
	m := unboundVarPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// markerFuncs are the template helpers spec.md §4.3 item 4 injects:
// {{state "OK"}}, {{state "ERR" "msg"}}, {{phase "p"}}, {{progress N}}.
var markerFuncs = template.FuncMap{
	"state": func(args ...string) string {
		if len(args) == 0 {
			return ""
		}
		if args[0] == "ERR" && len(args) > 1 {
			return markerEcho("STATE", "ERR:"+strconv.Quote(args[1]))
		}
		return markerEcho("STATE", args[0])
	},
	"phase": func(name string) string {
		return markerEcho("PHASE", name)
	},
	"progress": func(pct int) string {
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return markerEcho("PROGRESS", strconv.Itoa(pct))
	},
}

// markerPrefix is the wire prefix recognized by the log marker parser; it
// must match exactly on both sides of the pipe.
const markerPrefix = "BUTIDO"

func markerEcho(kind, payload string) string {
	return fmt.Sprintf("echo '#%s:%s:%s'", markerPrefix, kind, payload)
}
