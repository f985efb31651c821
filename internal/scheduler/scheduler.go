// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkgforge/pkgforge/internal/config"
	"github.com/pkgforge/pkgforge/internal/endpoint"
	"github.com/pkgforge/pkgforge/internal/pkgrepo"
	"github.com/pkgforge/pkgforge/internal/resolver"
	"github.com/pkgforge/pkgforge/internal/script"
	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// SourceResolver resolves a package source's on-disk cache path, so the
// scheduler can stage it under /inputs without knowing how it got there.
// internal/source.Cache implements this.
type SourceResolver interface {
	CachePath(src pkgrepo.Source) (string, error)
}

// Scheduler runs one submit's resolved DAG to completion (spec.md §4.5).
type Scheduler struct {
	Config   *config.Config
	Repo     *pkgrepo.Repository
	Pool     *endpoint.Pool
	Staging  StagingStore
	Audit    AuditStore
	Sources  SourceResolver
	Linter   Linter
	Progress ProgressSink // optional
}

// SubmitResult is the terminal outcome of one submit: per-job status,
// keyed by "<name>-<version>", and the overall success/failure verdict.
type SubmitResult struct {
	Succeeded bool
	Jobs      map[string]submitctx.Status
	Failed    []string
}

// Run schedules and executes every job in submit.DAG, blocking until all
// are terminal or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, submit *submitctx.Submit) (*SubmitResult, error) {
	dag := submit.DAG

	if err := preflight(s.Config, s.Repo, dag, submit.RequestedImage, submit.Env); err != nil {
		return nil, err
	}

	handles := make([]*handle, len(dag.Nodes))
	for i := range dag.Nodes {
		handles[i] = newHandle()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := range dag.Nodes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.runJob(ctx, submit, dag, handles, i)
		}(i)
	}
	wg.Wait()

	res := &SubmitResult{Succeeded: true, Jobs: map[string]submitctx.Status{}}
	for i, node := range dag.Nodes {
		ref := node.Name + "-" + node.Version
		res.Jobs[ref] = handles[i].result.status
		if handles[i].result.status != submitctx.StatusSucceeded {
			res.Succeeded = false
			res.Failed = append(res.Failed, ref)
		}
	}
	if ctx.Err() != nil {
		return res, Cancelled{}
	}
	return res, nil
}

// runJob drives one node's Pending -> WaitingForInputs -> WaitingForSlot ->
// Running -> (Succeeded|Failed) state machine, always publishing to its
// handle exactly once on every exit path.
func (s *Scheduler) runJob(ctx context.Context, submit *submitctx.Submit, dag *resolver.DAG, handles []*handle, i int) {
	node := dag.Nodes[i]
	ref := submitctx.JobRef{Submit: submit.UUID, Package: node.Name, Version: node.Version}

	// WaitingForInputs: block on every upstream (build and runtime alike).
	upstreamForwards, err := waitUpstream(ctx, handles, node.BuildEdges, node.RuntimeEdges)
	if err != nil {
		handles[i].publish(result{status: submitctx.StatusFailed, err: err})
		s.finish(ctx, submit, ref, nil, err)
		return
	}
	inputSet := mergeForward(upstreamForwards...)

	pkg, ok := s.Repo.Get(node.Name, node.Version)
	if !ok {
		err := fmt.Errorf("scheduler: %s missing from repository at schedule time", ref)
		handles[i].publish(result{status: submitctx.StatusFailed, err: err})
		s.finish(ctx, submit, ref, nil, err)
		return
	}

	// WaitingForSlot
	lease, err := s.Pool.Reserve(submit.RequestedImage)
	if err != nil {
		handles[i].publish(result{status: submitctx.StatusFailed, err: err})
		s.finish(ctx, submit, ref, nil, err)
		return
	}
	defer s.Pool.Release(lease)

	rec, outputs, runErr := s.execute(ctx, submit, ref, pkg, lease, inputSet)
	status := rec.Status

	forward := outputs
	if status == submitctx.StatusSucceeded {
		runtimeForwards := make([][]submitctx.ArtifactDescriptor, 0, len(node.RuntimeEdges))
		for _, up := range node.RuntimeEdges {
			<-handles[up].done
			runtimeForwards = append(runtimeForwards, handles[up].result.forward)
		}
		forward = mergeForward(append(runtimeForwards, outputs)...)
	}

	handles[i].publish(result{status: status, outputs: outputs, forward: forward, err: runErr})
	s.finish(ctx, submit, ref, rec, runErr)
}

// waitUpstream blocks on every listed upstream handle, returning
// JobError{UpstreamFailed} the moment any of them did not succeed (a
// downstream never runs its own container once that happens), or every
// upstream's Forward set once all have succeeded.
func waitUpstream(ctx context.Context, handles []*handle, buildEdges, runtimeEdges []int) ([][]submitctx.ArtifactDescriptor, error) {
	all := append(append([]int{}, buildEdges...), runtimeEdges...)
	forwards := make([][]submitctx.ArtifactDescriptor, 0, len(all))
	for _, up := range all {
		select {
		case <-handles[up].done:
		case <-ctx.Done():
			return nil, &JobError{Kind: "UpstreamFailed", Err: ctx.Err()}
		}
		if handles[up].result.status != submitctx.StatusSucceeded {
			return nil, &JobError{Kind: "UpstreamFailed"}
		}
		forwards = append(forwards, handles[up].result.forward)
	}
	return forwards, nil
}

// execute runs the Running state: stage inputs, compile the script, run
// the container, consume its marker stream, and accept outputs. It always
// returns a JobRecord suitable for the audit store, whatever the outcome.
func (s *Scheduler) execute(
	ctx context.Context,
	submit *submitctx.Submit,
	ref submitctx.JobRef,
	pkg *pkgrepo.Package,
	lease *endpoint.Lease,
	inputSet []submitctx.ArtifactDescriptor,
) (*submitctx.JobRecord, []submitctx.ArtifactDescriptor, error) {
	rec := &submitctx.JobRecord{
		Submit:   submit.UUID,
		Endpoint: lease.Endpoint,
		Image:    submit.RequestedImage,
		Package:  pkg.Name,
		Version:  pkg.Version,
		Inputs:   inputSet,
	}

	fail := func(kind string, err error) (*submitctx.JobRecord, []submitctx.ArtifactDescriptor, error) {
		rec.Status = submitctx.StatusFailed
		rec.FailReason = err.Error()
		return rec, nil, &JobError{Kind: kind, Err: err}
	}

	jobDir, err := s.Staging.JobDir(submit.UUID, pkg.Name, pkg.Version)
	if err != nil {
		return fail("OutputMissing", err)
	}
	inputsDir := filepath.Join(jobDir, "inputs")
	outputsDir := filepath.Join(jobDir, "outputs")
	patchesDir := filepath.Join(jobDir, "patches")
	for _, dir := range []string{inputsDir, outputsDir, patchesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail("OutputMissing", err)
		}
	}

	if err := stageInputs(inputsDir, patchesDir, pkg, inputSet, s.Sources); err != nil {
		return fail("OutputMissing", err)
	}

	env := map[string]string{}
	for k, v := range pkg.Env {
		env[k] = v
	}
	for k, v := range submit.Env {
		env[k] = v
	}
	rec.Env = env

	compiled, err := script.Compile(ctx, pkg, script.Options{
		Shebang:         s.Config.Shebang,
		AvailablePhases: s.Config.AvailablePhases,
		Strict:          s.Config.StrictScriptInterpolation,
		Linter:          s.Linter,
	})
	if err != nil {
		return fail("MissingTerminalState", err)
	}
	rec.ScriptText = compiled
	if err := script.Preflight(compiled); err != nil {
		return fail("MissingTerminalState", err)
	}

	scriptPath := filepath.Join(jobDir, "script")
	if err := os.WriteFile(scriptPath, []byte(compiled), 0o755); err != nil {
		return fail("OutputMissing", err)
	}

	containerID, lines, err := lease.Run(ctx, endpoint.ContainerSpec{
		Image:      submit.RequestedImage,
		InputsDir:  inputsDir,
		ScriptPath: scriptPath,
		OutputsDir: outputsDir,
		PatchesDir: patchesDir,
		Env:        filteredEnv(s.Config, env, submit.RepoAuthor, submit.RepoCommitHash),
	})
	if err != nil {
		s.Pool.MarkTransportFailure(lease)
		return fail("ContainerExitNonZero", err)
	}
	rec.ContainerID = containerID

	terminal := consumeMarkers(lines, ref, s.Progress)
	rec.LogText = terminal.log.String()

	exitCode, waitErr := lease.Wait(ctx, containerID)
	if waitErr != nil {
		s.Pool.MarkTransportFailure(lease)
		return fail("ContainerExitNonZero", waitErr)
	}

	status, jobErr := terminal.resolve(exitCode)
	rec.Status = status
	if jobErr != nil {
		rec.FailReason = jobErr.Error()
	}

	var outputs []submitctx.ArtifactDescriptor
	if status == submitctx.StatusSucceeded {
		outputs, err = s.Staging.AcceptOutputs(submit.UUID, outputsDir, pkg.Name, pkg.Version)
		if err != nil {
			return fail("OutputMissing", err)
		}
	}
	rec.Outputs = outputs

	return rec, outputs, jobErr
}

// finish reports a job's terminal status to the progress sink and writes
// its audit row, regardless of which exit path produced it.
func (s *Scheduler) finish(ctx context.Context, submit *submitctx.Submit, ref submitctx.JobRef, rec *submitctx.JobRecord, err error) {
	if rec == nil {
		rec = &submitctx.JobRecord{
			Submit:  submit.UUID,
			Package: ref.Package,
			Version: ref.Version,
			Status:  submitctx.StatusFailed,
		}
		if err != nil {
			rec.FailReason = err.Error()
		}
	}
	if s.Progress != nil {
		s.Progress.Done(ref, rec.Status)
	}
	if s.Audit != nil {
		_ = s.Audit.RecordJob(ctx, submit.UUID, *rec)
	}
}
