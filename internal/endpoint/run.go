// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package endpoint

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	containertypes "github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/filters"
	"github.com/moby/moby/api/types/image"
	"github.com/moby/moby/api/types/mount"
	"github.com/shirou/gopsutil/v4/process"
)

// ContainerSpec is everything Run needs to start one job's container:
// the admission-checked image, the mounts for /inputs, /script, /outputs
// and /patches, and the env already filtered through the allow-list.
type ContainerSpec struct {
	Image      string
	InputsDir  string
	ScriptPath string
	OutputsDir string
	PatchesDir string
	Env        []string // "KEY=VALUE" pairs
}

// Run starts a container on the leased endpoint, mounting the job's
// filesystem contract (spec.md §6 "Container contract") and returning its
// ID plus a channel streaming merged stdout/stderr lines in emitted order.
// The channel is closed when the container exits; the caller must still
// inspect the exit code via the client to learn success/failure.
func (l *Lease) Run(ctx context.Context, spec ContainerSpec) (string, <-chan string, error) {
	cli := l.Client()

	if _, _, err := cli.ImageInspect(ctx, spec.Image); err != nil {
		if _, err := cli.ImagePull(ctx, spec.Image, image.PullOptions{}); err != nil {
			return "", nil, &EndpointError{Kind: "ImageMissing", Endpoint: l.Endpoint, Err: err}
		}
	}

	mounts := []mount.Mount{
		{Type: mount.TypeBind, Source: spec.InputsDir, Target: "/inputs", ReadOnly: true},
		{Type: mount.TypeBind, Source: spec.ScriptPath, Target: "/script", ReadOnly: true},
		{Type: mount.TypeBind, Source: spec.OutputsDir, Target: "/outputs"},
	}
	if spec.PatchesDir != "" {
		mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: spec.PatchesDir, Target: "/patches", ReadOnly: true})
	}

	created, err := cli.ContainerCreate(ctx,
		&containertypes.Config{
			Image: spec.Image,
			Cmd:   []string{"/bin/sh", "/script"},
			Env:   spec.Env,
		},
		&containertypes.HostConfig{Mounts: mounts},
		nil, nil, "",
	)
	if err != nil {
		return "", nil, &EndpointError{Kind: "Transport", Endpoint: l.Endpoint, Err: err}
	}

	if err := cli.ContainerStart(ctx, created.ID, containertypes.StartOptions{}); err != nil {
		return "", nil, &EndpointError{Kind: "Transport", Endpoint: l.Endpoint, Err: err}
	}

	logs, err := cli.ContainerLogs(ctx, created.ID, containertypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return created.ID, nil, &EndpointError{Kind: "Transport", Endpoint: l.Endpoint, Err: err}
	}

	lines := make(chan string, 64)
	go streamLines(logs, lines)

	return created.ID, lines, nil
}

func streamLines(r io.ReadCloser, out chan<- string) {
	defer close(out)
	defer r.Close()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// Wait blocks until the container exits and reports its exit code.
func (l *Lease) Wait(ctx context.Context, containerID string) (int64, error) {
	cli := l.Client()
	statusCh, errCh := cli.ContainerWait(ctx, containerID, containertypes.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, &EndpointError{Kind: "Transport", Endpoint: l.Endpoint, Err: err}
	case st := <-statusCh:
		return st.StatusCode, nil
	case <-ctx.Done():
		return -1, &EndpointError{Kind: "Transport", Endpoint: l.Endpoint, Err: ctx.Err()}
	}
}

// Stop requests a running container to stop and removes it; used by the
// `endpoint stop <endpoint> <container-id>` subcommand.
func (p *Pool) Stop(ctx context.Context, endpointName, containerID string) error {
	s, err := p.sessionByName(endpointName)
	if err != nil {
		return err
	}
	if err := s.client.ContainerStop(ctx, containerID, containertypes.StopOptions{}); err != nil {
		return &EndpointError{Kind: "Transport", Endpoint: endpointName, Err: err}
	}
	return s.client.ContainerRemove(ctx, containerID, containertypes.RemoveOptions{Force: true})
}

// ProcessStat is one process inside a running container, reported by the
// `endpoint top <endpoint> <container-id>` administrative subcommand.
type ProcessStat struct {
	PID        int32
	Command    string
	CPUPercent float64
	MemoryRSS  uint64 // bytes
}

// Top reports per-process CPU/memory stats for the processes running
// inside containerID on endpointName. It fetches the container's
// host-namespace PIDs via the container engine's own `top` exec API
// (containertypes ContainerTop, the same call the engine's CLI `top`
// subcommand uses) and resolves CPU/RSS for each through gopsutil, which
// reads them from the host's /proc rather than requiring a second
// in-container exec.
func (p *Pool) Top(ctx context.Context, endpointName, containerID string) ([]ProcessStat, error) {
	s, err := p.sessionByName(endpointName)
	if err != nil {
		return nil, err
	}
	top, err := s.client.ContainerTop(ctx, containerID, nil)
	if err != nil {
		return nil, &EndpointError{Kind: "Transport", Endpoint: endpointName, Err: err}
	}

	pidCol, cmdCol := -1, -1
	for i, title := range top.Titles {
		switch title {
		case "PID":
			pidCol = i
		case "CMD", "COMMAND":
			cmdCol = i
		}
	}
	if pidCol == -1 {
		return nil, &EndpointError{Kind: "Transport", Endpoint: endpointName, Err: fmt.Errorf("endpoint: container engine top output has no PID column")}
	}

	stats := make([]ProcessStat, 0, len(top.Processes))
	for _, row := range top.Processes {
		pid, err := strconv.ParseInt(strings.TrimSpace(row[pidCol]), 10, 32)
		if err != nil {
			continue
		}
		stat := ProcessStat{PID: int32(pid)}
		if cmdCol != -1 {
			stat.Command = row[cmdCol]
		}
		if proc, err := process.NewProcessWithContext(ctx, int32(pid)); err == nil {
			if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
				stat.CPUPercent = cpu
			}
			if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
				stat.MemoryRSS = mem.RSS
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// Prune removes stopped containers on one endpoint.
func (p *Pool) Prune(ctx context.Context, endpointName string) error {
	s, err := p.sessionByName(endpointName)
	if err != nil {
		return err
	}
	_, err = s.client.ContainersPrune(ctx, filters.NewArgs())
	if err != nil {
		return &EndpointError{Kind: "Transport", Endpoint: endpointName, Err: err}
	}
	return nil
}

// Images lists the images available on one endpoint, for the
// `endpoint images` administrative subcommand.
func (p *Pool) Images(ctx context.Context, endpointName string) ([]image.Summary, error) {
	s, err := p.sessionByName(endpointName)
	if err != nil {
		return nil, err
	}
	out, err := s.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, &EndpointError{Kind: "Transport", Endpoint: endpointName, Err: err}
	}
	return out, nil
}
