// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package viewport keeps a camera and a render surface in step with the
// host window.
//
// Resize notifications from the host only record the latest size. The
// frame loop calls Apply at the start of each tick, which resizes the
// surface and then updates the camera aspect, so a submitted frame never
// sees one of them changed without the other. Any number of resizes
// between two ticks is applied once.
package viewport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/scene"
)

var (
	// ErrDisposed is returned by Dispose on a manager already disposed.
	ErrDisposed = errors.New("viewport: manager disposed")

	// ErrNilArgument is returned by New for a missing collaborator.
	ErrNilArgument = errors.New("viewport: nil camera, surface or host")
)

// HostSurface is the window or canvas frames are presented to.
type HostSurface interface {
	// Size returns the current size in pixels.
	Size() (width, height int)

	// OnResize subscribes fn to size changes. fn may be called from any
	// goroutine. The returned func cancels the subscription.
	OnResize(fn func(width, height int)) (cancel func())
}

// Resizer is the render surface sized by the manager, usually a
// device.Context.
type Resizer interface {
	Resize(width, height int) error
}

type size struct{ width, height int }

// Manager applies host resizes to a camera and a surface.
type Manager struct {
	camera  *scene.Camera
	surface Resizer

	mu       sync.Mutex
	pending  *size
	current  size
	applied  int
	cancel   func()
	disposed bool
}

// New subscribes to host. The host's current size is pending, so the
// first Apply brings camera and surface in line with it.
func New(camera *scene.Camera, surface Resizer, host HostSurface) (*Manager, error) {
	if camera == nil || surface == nil || host == nil {
		return nil, ErrNilArgument
	}
	m := &Manager{camera: camera, surface: surface}
	if w, h := host.Size(); w > 0 && h > 0 {
		m.pending = &size{w, h}
	}
	m.cancel = host.OnResize(m.request)
	return m, nil
}

// request records a host resize. Zero sizes, as reported for minimized
// windows, are ignored.
func (m *Manager) request(width, height int) {
	if width <= 0 || height <= 0 {
		logging.Logger().Debug("viewport: ignoring empty size", "width", width, "height", height)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	if m.pending == nil && m.current == (size{width, height}) {
		return
	}
	m.pending = &size{width, height}
}

// Apply resizes the surface to the latest pending size and, if that
// succeeds, sets the camera aspect. It reports whether anything was
// applied. A failed resize drops the pending size; the camera is left as
// it was.
func (m *Manager) Apply() (bool, error) {
	m.mu.Lock()
	p := m.pending
	m.pending = nil
	m.mu.Unlock()
	if p == nil {
		return false, nil
	}

	if err := m.surface.Resize(p.width, p.height); err != nil {
		return false, fmt.Errorf("viewport: resize %dx%d: %w", p.width, p.height, err)
	}
	m.camera.SetAspect(float64(p.width) / float64(p.height))

	m.mu.Lock()
	m.current = *p
	m.applied++
	m.mu.Unlock()
	logging.Logger().Debug("viewport: applied", "width", p.width, "height", p.height)
	return true, nil
}

// Size returns the last applied size.
func (m *Manager) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.width, m.current.height
}

// Pending reports the size the next Apply would use.
func (m *Manager) Pending() (width, height int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0, 0, false
	}
	return m.pending.width, m.pending.height, true
}

// Applied counts successful applications.
func (m *Manager) Applied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied
}

// Dispose cancels the host subscription and drops any pending size.
func (m *Manager) Dispose() error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	m.disposed = true
	m.pending = nil
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}
