// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !tinygo

package ebitenhost

import (
	"errors"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/scene"
	"github.com/gogpu/shade/viewport"
)

type surface struct{ sizes [][2]int }

func (s *surface) Resize(w, h int) error {
	s.sizes = append(s.sizes, [2]int{w, h})
	return nil
}

func TestLayoutPublishesResize(t *testing.T) {
	h := New(320, 240)
	var got [][2]int
	cancel := h.OnResize(func(w, hgt int) { got = append(got, [2]int{w, hgt}) })
	defer cancel()

	w, hgt := h.Layout(320, 240)
	assert.Equal(t, [2]int{320, 240}, [2]int{w, hgt})
	assert.Empty(t, got, "unchanged size is not published")

	h.Layout(640, 480)
	h.Layout(640, 480)
	assert.Equal(t, [][2]int{{640, 480}}, got)
}

func TestUpdateTicks(t *testing.T) {
	h := New(10, 10)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return at }
	var ticks []time.Time
	h.OnTick(func(now time.Time) error {
		ticks = append(ticks, now)
		return errors.New("frame dropped")
	})

	require.NoError(t, h.Update(), "tick errors do not end the game")
	require.NoError(t, h.Update())
	assert.Equal(t, []time.Time{at, at}, ticks)

	h.Close()
	assert.ErrorIs(t, h.Update(), ebiten.Termination)
	assert.Len(t, ticks, 2)
}

func TestHostDrivesViewport(t *testing.T) {
	h := New(100, 50)
	surf := &surface{}
	cam := scene.DefaultCamera()
	m, err := viewport.New(cam, surf, h)
	require.NoError(t, err)
	defer m.Dispose()

	h.Layout(300, 100)
	_, err = m.Apply()
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{300, 100}}, surf.sizes)
	assert.InDelta(t, 3.0, cam.Aspect(), 1e-12)
}
