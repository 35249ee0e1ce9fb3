// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"sync"
)

// State is the lifecycle state of a device context.
type State int32

// Lifecycle states. Disposed and Failed are terminal.
const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDisposed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Ready resolves once initialization finishes.
type Ready struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newReady() *Ready { return &Ready{done: make(chan struct{})} }

func (r *Ready) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed when initialization finished, successfully or not.
func (r *Ready) Done() <-chan struct{} { return r.done }

// Err returns the init error once resolved, nil before.
func (r *Ready) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until initialization finished or ctx is done.
func (r *Ready) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lifecycle is the state machine shared by device implementations.
// Its zero value is an uninitialized context.
type Lifecycle struct {
	mu     sync.Mutex
	state  State
	ready  *Ready
	cancel context.CancelFunc
	done   chan struct{}
}

// Begin starts initialization. The first call moves the context to
// Initializing and returns start=true with a context the init work must
// honour; the caller then calls Finish exactly once. Later calls return
// the existing Ready handle and start=false.
func (l *Lifecycle) Begin(ctx context.Context) (r *Ready, initCtx context.Context, start bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready != nil {
		return l.ready, nil, false
	}
	l.ready = newReady()
	if l.state == StateDisposed {
		l.ready.resolve(ErrDisposed)
		return l.ready, nil, false
	}
	initCtx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	l.state = StateInitializing
	return l.ready, initCtx, true
}

// Finish ends initialization with err. It reports whether the context
// became ready; it does not when err is non-nil or the context was
// disposed meanwhile, and the caller must then release what init created.
func (l *Lifecycle) Finish(err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer close(l.done)
	l.cancel()
	switch {
	case l.state == StateDisposed:
		l.ready.resolve(ErrDisposed)
		return false
	case err != nil:
		l.state = StateFailed
		l.ready.resolve(err)
		return false
	}
	l.state = StateReady
	l.ready.resolve(nil)
	return true
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// CheckReady returns nil when frames may be submitted.
func (l *Lifecycle) CheckReady() error {
	switch l.State() {
	case StateReady:
		return nil
	case StateDisposed:
		return ErrDisposed
	case StateFailed:
		return ErrInitFailed
	}
	return ErrNotReady
}

// Dispose moves the context to Disposed. A pending init is cancelled and
// waited for before Dispose returns, so the caller can release resources
// without racing it. Disposing twice returns ErrDisposed.
func (l *Lifecycle) Dispose() error {
	l.mu.Lock()
	if l.state == StateDisposed {
		l.mu.Unlock()
		return ErrDisposed
	}
	prev := l.state
	l.state = StateDisposed
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if prev == StateInitializing {
		cancel()
		<-done
	}
	return nil
}
