// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frameloop drives a scene through a device one tick at a time.
//
// Each tick applies a pending viewport resize, advances the scene clock,
// runs the per-frame hook and submits the frame. Ticks are cooperative:
// a tick that starts while another is still running fails with
// ErrTickInFlight instead of overlapping it.
package frameloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/scene"
)

// ErrTickInFlight is returned by Tick while a previous tick is running.
var ErrTickInFlight = errors.New("frameloop: tick already in flight")

// Submitter renders one frame. device.Context implements it.
type Submitter interface {
	SubmitFrame(s *scene.Scene, cam *scene.Camera) error
}

// Applier brings the surface and camera up to date before a frame.
// *viewport.Manager implements it.
type Applier interface {
	Apply() (bool, error)
}

// Frame describes the tick a hook runs in.
type Frame struct {
	Number uint64  // 1 for the first tick
	Time   float64 // seconds since the first tick
	Delta  float64 // seconds since the previous tick
}

// Hook mutates the scene before it is submitted.
type Hook func(s *scene.Scene, f Frame)

// Option configures a Loop.
type Option func(*Loop)

// WithHook sets the initial per-frame hook.
func WithHook(h Hook) Option {
	return func(l *Loop) { l.hook = h }
}

// WithViewport applies v at the start of every tick.
func WithViewport(v Applier) Option {
	return func(l *Loop) { l.viewport = v }
}

// OnError sets the handler for resize and submission errors. The default
// logs them at Warn.
func OnError(fn func(error)) Option {
	return func(l *Loop) { l.onError = fn }
}

// Loop is the per-frame scheduler of one device and scene.
type Loop struct {
	dev      Submitter
	scene    *scene.Scene
	viewport Applier
	onError  func(error)

	mu   sync.Mutex
	hook Hook

	inFlight atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}

	frames atomic.Uint64

	// Touched only by the tick holding inFlight.
	start time.Time
	last  time.Time
}

// New returns a loop submitting s to dev.
func New(dev Submitter, s *scene.Scene, opts ...Option) *Loop {
	l := &Loop{dev: dev, scene: s, done: make(chan struct{})}
	for _, o := range opts {
		o(l)
	}
	if l.onError == nil {
		l.onError = func(err error) {
			logging.Logger().Warn("frameloop: frame error", "err", err)
		}
	}
	return l
}

// SetHook replaces the per-frame hook. A tick already running keeps the
// hook it started with; the new one runs from the next tick. nil removes
// the hook.
func (l *Loop) SetHook(h Hook) {
	l.mu.Lock()
	l.hook = h
	l.mu.Unlock()
}

// Tick runs one frame at time now. It returns the resize and submission
// errors of the frame, which are also passed to the error handler; the
// loop keeps running either way. After Stop, Tick does nothing.
func (l *Loop) Tick(now time.Time) error {
	if l.stopped.Load() {
		return nil
	}
	if !l.inFlight.CompareAndSwap(false, true) {
		return ErrTickInFlight
	}
	defer l.inFlight.Store(false)

	var errs []error
	if l.viewport != nil {
		if _, err := l.viewport.Apply(); err != nil {
			errs = append(errs, err)
		}
	}

	n := l.frames.Add(1)
	if n == 1 {
		l.start, l.last = now, now
	}
	f := Frame{
		Number: n,
		Time:   now.Sub(l.start).Seconds(),
		Delta:  now.Sub(l.last).Seconds(),
	}
	l.last = now
	l.scene.SetClock(f.Time, f.Number)

	l.mu.Lock()
	hook := l.hook
	l.mu.Unlock()
	if hook != nil {
		hook(l.scene, f)
	}

	if !l.stopped.Load() {
		if err := l.dev.SubmitFrame(l.scene, nil); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		l.onError(err)
	}
	return err
}

// Stop ends the loop. Later ticks are no-ops and Run returns. Stop may be
// called any number of times, including from a hook, in which case the
// current frame is not submitted.
func (l *Loop) Stop() {
	l.stopped.Store(true)
	l.stopOnce.Do(func() { close(l.done) })
}

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool { return l.stopped.Load() }

// Done is closed by Stop.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Frames returns the number of ticks run so far.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// Run ticks once per value received from ticks until ctx is done, ticks
// is closed or the loop is stopped. Tick errors go to the error handler
// and do not end Run.
func (l *Loop) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case now, ok := <-ticks:
			if !ok {
				return nil
			}
			_ = l.Tick(now)
		}
	}
}
