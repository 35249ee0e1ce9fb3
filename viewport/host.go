// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package viewport

import (
	"maps"
	"slices"
	"sync"
)

// Host is an in-memory HostSurface for headless rendering and tests.
// SetSize notifies subscribers synchronously.
type Host struct {
	mu     sync.Mutex
	width  int
	height int
	nextID int
	subs   map[int]func(width, height int)
}

// NewHost returns a host of the given size.
func NewHost(width, height int) *Host {
	return &Host{width: width, height: height, subs: make(map[int]func(int, int))}
}

// Size implements HostSurface.
func (h *Host) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// OnResize implements HostSurface.
func (h *Host) OnResize(fn func(width, height int)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Host) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// SetSize changes the size and notifies subscribers in subscription order.
func (h *Host) SetSize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	ids := slices.Sorted(maps.Keys(h.subs))
	fns := make([]func(int, int), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
}
