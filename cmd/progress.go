// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pkgforge/pkgforge/app"
	"github.com/pkgforge/pkgforge/internal/scheduler"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// terminalProgress is the CLI-only scheduler.ProgressSink: one line per
// phase/terminal transition, printed as it happens (grounded on the
// teacher's fatih/color usage in internal/agent/progress.go, simplified
// to line-at-a-time output rather than a redrawn full-screen dashboard
// since this orchestrator's jobs are minutes-long container runs, not the
// sub-second steps a DAG scheduler redraws around).
type terminalProgress struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newTerminalProgress() *terminalProgress {
	return &terminalProgress{seen: map[string]bool{}}
}

var _ scheduler.ProgressSink = (*terminalProgress)(nil)

func (p *terminalProgress) Phase(job submitctx.JobRef, phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(os.Stderr, "%s %s: %s\n", color.New(color.FgCyan).Sprint("phase"), job, phase)
}

func (p *terminalProgress) Progress(job submitctx.JobRef, pct int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(os.Stderr, "%s %s: %d%%\n", color.New(color.FgCyan).Sprint("progress"), job, pct)
}

func (p *terminalProgress) Done(job submitctx.JobRef, status submitctx.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[job.String()] = true
	fmt.Fprintf(os.Stderr, "%s %s: %s\n", statusIcon(status), job, status)
}

func (p *terminalProgress) finish() {}

func statusIcon(status submitctx.Status) string {
	switch status {
	case submitctx.StatusSucceeded:
		return color.GreenString("done")
	case submitctx.StatusFailed:
		return color.RedString("failed")
	default:
		return color.New(color.Faint).Sprint(string(status))
	}
}

// printSubmitResult renders the final per-job table and, for any job that
// failed, the last config.BuildErrorLines lines of its log (fetched from
// the audit store when one is configured; skipped silently otherwise since
// a database-less build has nowhere durable to read a job's log back
// from).
func printSubmitResult(ctx context.Context, c *app.Container, submit *submitctx.Submit, result *scheduler.SubmitResult) {
	if result == nil {
		return
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Package", "Status"})
	refs := make([]string, 0, len(result.Jobs))
	for ref := range result.Jobs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		t.AppendRow(table.Row{ref, result.Jobs[ref]})
	}
	fmt.Println(t.Render())

	if result.Succeeded || c.Store == nil {
		return
	}

	// result.Jobs is keyed by "<name>-<version>", which is ambiguous for
	// names containing a hyphen (the same convention internal/scheduler
	// itself uses internally), so failed refs are resolved back to
	// (name, version) via the DAG nodes rather than by splitting the string.
	byRef := make(map[string][2]string, len(submit.DAG.Nodes))
	for _, node := range submit.DAG.Nodes {
		byRef[node.Name+"-"+node.Version] = [2]string{node.Name, node.Version}
	}

	for _, ref := range result.Failed {
		nv, ok := byRef[ref]
		if !ok {
			continue
		}
		logText, err := c.Store.GetJobLog(ctx, submit.UUID, nv[0], nv[1])
		if err != nil {
			continue
		}
		fmt.Printf("\n%s last %d lines:\n%s\n", ref, c.Config.BuildErrorLines, lastLines(logText, c.Config.BuildErrorLines))
	}
}

// truncateID shortens a container/image ID for table display without
// panicking on IDs shorter than n (e.g. test fixtures, unusual runtimes).
func truncateID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

func lastLines(text string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
