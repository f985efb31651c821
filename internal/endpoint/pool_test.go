// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package endpoint

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(sessions ...*session) *Pool {
	return &Pool{
		sessions: sessions,
		rng:      rand.New(rand.NewSource(1)),
	}
}

func TestReservePicksMostFreeCapacity(t *testing.T) {
	p := testPool(
		&session{name: "busy", maxJobs: 4, running: 3, images: map[string]bool{"alpine": true}},
		&session{name: "idle", maxJobs: 4, running: 0, images: map[string]bool{"alpine": true}},
	)

	lease, err := p.Reserve("alpine")
	require.NoError(t, err)
	assert.Equal(t, "idle", lease.Endpoint)
}

func TestReserveSkipsEndpointsMissingImage(t *testing.T) {
	p := testPool(
		&session{name: "a", maxJobs: 4, images: map[string]bool{"debian": true}},
		&session{name: "b", maxJobs: 4, images: map[string]bool{"alpine": true}},
	)

	lease, err := p.Reserve("alpine")
	require.NoError(t, err)
	assert.Equal(t, "b", lease.Endpoint)
}

func TestReserveFailsAtCapacity(t *testing.T) {
	p := testPool(&session{name: "a", maxJobs: 1, running: 1, images: map[string]bool{"alpine": true}})

	_, err := p.Reserve("alpine")
	require.Error(t, err)
	var epErr *EndpointError
	require.ErrorAs(t, err, &epErr)
	assert.Equal(t, "NoCapacity", epErr.Kind)
}

func TestReserveIncrementsAndReleaseDecrements(t *testing.T) {
	s := &session{name: "a", maxJobs: 2, images: map[string]bool{"alpine": true}}
	p := testPool(s)

	lease, err := p.Reserve("alpine")
	require.NoError(t, err)
	assert.Equal(t, 1, s.running)

	p.Release(lease)
	assert.Equal(t, 0, s.running)
}

func TestMarkTransportFailureExcludesEndpointForRestOfSubmit(t *testing.T) {
	s := &session{name: "a", maxJobs: 2, images: map[string]bool{"alpine": true}}
	p := testPool(s)

	lease, err := p.Reserve("alpine")
	require.NoError(t, err)
	p.MarkTransportFailure(lease)

	_, err = p.Reserve("alpine")
	require.Error(t, err, "the only endpoint is now marked failed")
}

func TestReserveSkipsFailedEndpointInFavorOfHealthyOne(t *testing.T) {
	failing := &session{
		name: "failing", maxJobs: 2, images: map[string]bool{"alpine": true},
		failed: true,
	}
	healthy := &session{name: "healthy", maxJobs: 2, images: map[string]bool{"alpine": true}}
	p := testPool(failing, healthy)

	lease, err := p.Reserve("alpine")
	require.NoError(t, err)
	assert.Equal(t, "healthy", lease.Endpoint)
}
