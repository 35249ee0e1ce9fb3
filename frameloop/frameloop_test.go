// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shade/scene"
	"github.com/gogpu/shade/viewport"
)

// recorder captures what each submission observed.
type recorder struct {
	times   []float64
	aspects []float64
	sizes   [][2]int
	width   int
	height  int
	fail    error
	during  func()
}

func (r *recorder) SubmitFrame(s *scene.Scene, _ *scene.Camera) error {
	if r.during != nil {
		r.during()
	}
	r.times = append(r.times, s.Time())
	r.aspects = append(r.aspects, s.Camera().Aspect())
	r.sizes = append(r.sizes, [2]int{r.width, r.height})
	return r.fail
}

func (r *recorder) Resize(w, h int) error {
	r.width, r.height = w, h
	return nil
}

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTickAdvancesClockAndSubmits(t *testing.T) {
	dev := &recorder{}
	s := scene.New(scene.DefaultCamera())
	var frames []Frame
	l := New(dev, s, WithHook(func(_ *scene.Scene, f Frame) { frames = append(frames, f) }))

	require.NoError(t, l.Tick(t0))
	require.NoError(t, l.Tick(t0.Add(500*time.Millisecond)))

	assert.Equal(t, []float64{0, 0.5}, dev.times)
	assert.Equal(t, []Frame{{Number: 1}, {Number: 2, Time: 0.5, Delta: 0.5}}, frames)
	assert.Equal(t, uint64(2), s.Frame())
	assert.Equal(t, uint64(2), l.Frames())
}

func TestHookReplacedOnNextTick(t *testing.T) {
	dev := &recorder{}
	s := scene.New(scene.DefaultCamera())
	var calls []string
	l := New(dev, s)

	second := func(*scene.Scene, Frame) { calls = append(calls, "second") }
	l.SetHook(func(*scene.Scene, Frame) {
		calls = append(calls, "first")
		l.SetHook(second)
	})

	require.NoError(t, l.Tick(t0))
	require.NoError(t, l.Tick(t0.Add(time.Second)))
	assert.Equal(t, []string{"first", "second"}, calls)

	l.SetHook(nil)
	require.NoError(t, l.Tick(t0.Add(2*time.Second)))
	assert.Len(t, calls, 2)
	assert.Len(t, dev.times, 3)
}

func TestTickDoesNotReenter(t *testing.T) {
	dev := &recorder{}
	s := scene.New(scene.DefaultCamera())
	l := New(dev, s)
	var inner error
	dev.during = func() { inner = l.Tick(t0) }

	require.NoError(t, l.Tick(t0))
	assert.ErrorIs(t, inner, ErrTickInFlight)
	assert.Len(t, dev.times, 1)
}

func TestStopIsImmediateAndIdempotent(t *testing.T) {
	dev := &recorder{}
	s := scene.New(scene.DefaultCamera())
	l := New(dev, s, WithHook(func(*scene.Scene, Frame) {}))
	require.NoError(t, l.Tick(t0))

	l.Stop()
	l.Stop()
	assert.True(t, l.Stopped())
	require.NoError(t, l.Tick(t0.Add(time.Second)))
	assert.Len(t, dev.times, 1)
	select {
	case <-l.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestStopFromHookSkipsSubmit(t *testing.T) {
	dev := &recorder{}
	s := scene.New(scene.DefaultCamera())
	var l *Loop
	l = New(dev, s, WithHook(func(*scene.Scene, Frame) { l.Stop() }))
	require.NoError(t, l.Tick(t0))
	assert.Empty(t, dev.times)
}

func TestSubmitErrorsDoNotStopLoop(t *testing.T) {
	dev := &recorder{fail: errors.New("device lost")}
	s := scene.New(scene.DefaultCamera())
	var handled []error
	l := New(dev, s, OnError(func(err error) { handled = append(handled, err) }))

	assert.ErrorIs(t, l.Tick(t0), dev.fail)
	dev.fail = nil
	assert.NoError(t, l.Tick(t0.Add(time.Second)))
	assert.False(t, l.Stopped())
	assert.Len(t, dev.times, 2)
	require.Len(t, handled, 1)
}

func TestViewportAppliedBeforeSubmit(t *testing.T) {
	dev := &recorder{}
	cam := scene.DefaultCamera()
	s := scene.New(cam)
	host := viewport.NewHost(400, 200)
	vp, err := viewport.New(cam, dev, host)
	require.NoError(t, err)
	l := New(dev, s, WithViewport(vp))

	require.NoError(t, l.Tick(t0))
	host.SetSize(300, 300)
	host.SetSize(900, 300)
	require.NoError(t, l.Tick(t0.Add(time.Second)))
	require.NoError(t, l.Tick(t0.Add(2*time.Second)))

	assert.Equal(t, []float64{2, 3, 3}, dev.aspects)
	assert.Equal(t, [][2]int{{400, 200}, {900, 300}, {900, 300}}, dev.sizes)
	assert.Equal(t, 2, vp.Applied())
}

func TestRunUntilStopped(t *testing.T) {
	dev := &recorder{}
	s := scene.New(scene.DefaultCamera())
	l := New(dev, s)
	l.SetHook(func(_ *scene.Scene, f Frame) {
		if f.Number == 3 {
			l.Stop()
		}
	})

	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background(), ticks) }()
	for i := range 3 {
		ticks <- t0.Add(time.Duration(i) * time.Second)
	}
	require.NoError(t, <-done)
	assert.Len(t, dev.times, 2)
}

func TestRunHonorsContext(t *testing.T) {
	l := New(&recorder{}, scene.New(scene.DefaultCamera()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx, make(chan time.Time)), context.Canceled)
}
