// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package endpoint

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/moby/moby/client"

	"github.com/pkgforge/pkgforge/internal/config"
)

// session is one configured endpoint's live connection plus the mutable
// bookkeeping the pool's critical section guards: running count and
// failure state. Container RPCs run outside the lock (§5).
type session struct {
	name    string
	uri     string
	maxJobs int
	images  map[string]bool

	mu      sync.Mutex
	running int
	failed  bool

	client *client.Client
}

// Lease represents one reserved, uncommitted slot on an endpoint. The
// scheduler must call Release exactly once, whether or not Run was called.
type Lease struct {
	Endpoint string
	sess     *session
}

// Pool holds one session per configured endpoint and arbitrates reserve()
// calls across the concurrently running jobs of one submit.
type Pool struct {
	mu       sync.Mutex
	sessions []*session
	rng      *rand.Rand
}

// NewPool dials a lazily-connected session for every configured endpoint;
// dialing itself is cheap (client.NewClientWithOpts does not block), the
// connection timeout applies at first use. seed should be derived once per
// submit so endpoint tie-breaks are reproducible within that submit but
// vary across submits (spec.md §4.4: "pseudo-random shuffle seeded once
// per submit").
func NewPool(endpoints map[string]config.Endpoint, images []config.Image, seed int64) (*Pool, error) {
	imageNames := make(map[string]bool, len(images))
	for _, img := range images {
		imageNames[img.Name] = true
		if img.ShortName != "" {
			imageNames[img.ShortName] = true
		}
	}

	p := &Pool{
		rng: rand.New(rand.NewSource(seed)),
	}
	for name, ep := range endpoints {
		opts := []client.Opt{client.WithHost(ep.URI), client.WithAPIVersionNegotiation()}
		cli, err := client.NewClientWithOpts(opts...)
		if err != nil {
			return nil, &EndpointError{Kind: "Transport", Endpoint: name, Err: err}
		}
		p.sessions = append(p.sessions, &session{
			name:    name,
			uri:     ep.URI,
			maxJobs: ep.MaxJobs,
			images:  imageNames,
			client:  cli,
		})
	}
	return p, nil
}

// Reserve selects an endpoint carrying image with the most free capacity,
// breaking ties with the pool's seeded shuffle, and returns a Lease
// counted against that endpoint's running total (spec.md §4.4, I3).
func (p *Pool) Reserve(image string) (*Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var candidates []*session
	for _, s := range p.sessions {
		s.mu.Lock()
		eligible := !s.failed && s.running < s.maxJobs && s.images[image]
		s.mu.Unlock()
		if eligible {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, &EndpointError{Kind: "NoCapacity"}
	}

	p.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	best := candidates[0]
	bestFree := freeSlots(best)
	for _, c := range candidates[1:] {
		if free := freeSlots(c); free > bestFree {
			best, bestFree = c, free
		}
	}

	best.mu.Lock()
	best.running++
	best.mu.Unlock()

	return &Lease{Endpoint: best.name, sess: best}, nil
}

func freeSlots(s *session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxJobs - s.running
}

// Release returns a lease's slot to its endpoint. Safe to call once a job
// reaches any exit path, running or not.
func (p *Pool) Release(l *Lease) {
	l.sess.mu.Lock()
	if l.sess.running > 0 {
		l.sess.running--
	}
	l.sess.mu.Unlock()
}

// MarkTransportFailure marks the leased endpoint failed for the remainder
// of the submit (spec.md §4.4): it is excluded from every subsequent
// Reserve call on this Pool. There is no cooldown or retry — a fresh Pool
// is built per submit, so the exclusion does not outlive it.
func (p *Pool) MarkTransportFailure(l *Lease) {
	l.sess.mu.Lock()
	defer l.sess.mu.Unlock()
	l.sess.failed = true
}

// Client returns the leased endpoint's engine client, for Run/top/stop.
func (l *Lease) Client() *client.Client { return l.sess.client }

// Endpoints returns the configured endpoint names, for administrative
// subcommands and diagnostics.
func (p *Pool) Endpoints() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sessions))
	for i, s := range p.sessions {
		out[i] = s.name
	}
	return out
}

// sessionByName resolves a configured endpoint by name, for the
// administrative stop/top/prune/images subcommands that act on an
// endpoint by name rather than through a Lease.
func (p *Pool) sessionByName(name string) (*session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		if s.name == name {
			return s, nil
		}
	}
	return nil, &EndpointError{Kind: "Transport", Endpoint: name, Err: fmt.Errorf("no such endpoint")}
}

// Close releases every session's engine client.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, s := range p.sessions {
		if err := s.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
