// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package viewport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/scene"
)

type surface struct {
	calls  [][2]int
	fail   error
	width  int
	height int
}

func (s *surface) Resize(w, h int) error {
	s.calls = append(s.calls, [2]int{w, h})
	if s.fail != nil {
		return s.fail
	}
	s.width, s.height = w, h
	return nil
}

func setup(t *testing.T) (*Manager, *scene.Camera, *surface, *Host) {
	t.Helper()
	cam := scene.DefaultCamera()
	surf := &surface{}
	host := NewHost(640, 480)
	m, err := New(cam, surf, host)
	require.NoError(t, err)
	return m, cam, surf, host
}

func TestInitialSizeIsPending(t *testing.T) {
	m, cam, surf, _ := setup(t)
	w, h, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, [2]int{640, 480}, [2]int{w, h})

	applied, err := m.Apply()
	require.NoError(t, err)
	assert.True(t, applied)
	assert.InDelta(t, 640.0/480.0, cam.Aspect(), 1e-12)
	assert.Equal(t, [][2]int{{640, 480}}, surf.calls)
}

func TestResizeCoalescing(t *testing.T) {
	m, cam, surf, host := setup(t)
	_, err := m.Apply()
	require.NoError(t, err)

	host.SetSize(800, 600)
	host.SetSize(1000, 500)
	assert.Equal(t, 1, m.Applied(), "events alone apply nothing")
	assert.InDelta(t, 640.0/480.0, cam.Aspect(), 1e-12)

	applied, err := m.Apply()
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, m.Applied())
	assert.InDelta(t, 2.0, cam.Aspect(), 1e-12)
	assert.Equal(t, [][2]int{{640, 480}, {1000, 500}}, surf.calls)

	applied, err = m.Apply()
	require.NoError(t, err)
	assert.False(t, applied, "nothing pending")
	assert.Equal(t, 2, m.Applied())
}

func TestSameSizeIsNotReapplied(t *testing.T) {
	m, _, surf, host := setup(t)
	_, err := m.Apply()
	require.NoError(t, err)
	host.SetSize(640, 480)
	applied, err := m.Apply()
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, surf.calls, 1)
}

func TestEmptySizeIgnored(t *testing.T) {
	m, _, _, host := setup(t)
	_, err := m.Apply()
	require.NoError(t, err)
	host.SetSize(0, 0)
	_, _, ok := m.Pending()
	assert.False(t, ok)
}

func TestFailedResizeLeavesCamera(t *testing.T) {
	m, cam, surf, host := setup(t)
	_, err := m.Apply()
	require.NoError(t, err)

	surf.fail = errors.New("out of memory")
	host.SetSize(300, 100)
	applied, err := m.Apply()
	require.ErrorIs(t, err, surf.fail)
	assert.False(t, applied)
	assert.InDelta(t, 640.0/480.0, cam.Aspect(), 1e-12)
	assert.Equal(t, 1, m.Applied())
	w, h := m.Size()
	assert.Equal(t, [2]int{640, 480}, [2]int{w, h})
}

func TestDisposeUnsubscribes(t *testing.T) {
	m, _, _, host := setup(t)
	assert.Equal(t, 1, host.Subscribers())

	require.NoError(t, m.Dispose())
	assert.Zero(t, host.Subscribers())
	assert.ErrorIs(t, m.Dispose(), ErrDisposed)

	host.SetSize(10, 10)
	applied, err := m.Apply()
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestNewRejectsNil(t *testing.T) {
	_, err := New(nil, &surface{}, NewHost(1, 1))
	assert.ErrorIs(t, err, ErrNilArgument)
}
