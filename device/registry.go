// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/shade/backend"
)

// ErrNotRegistered is returned by New for a backend kind without a factory.
var ErrNotRegistered = errors.New("device: backend not registered")

// Factory creates an uninitialized context.
type Factory func(opts Options) (Context, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[backend.Kind]Factory)
	prober     backend.Prober
)

// Register installs the factory for kind. Backend packages call it from
// init(); registering a kind again replaces the previous factory.
func Register(kind backend.Kind, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[kind] = f
}

// RegisterProber installs the probe that decides whether the Capable
// backend can run on this machine.
func RegisterProber(p backend.Prober) {
	registryMu.Lock()
	defer registryMu.Unlock()
	prober = p
}

// Unregister removes kind. Useful in tests.
func Unregister(kind backend.Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, kind)
	if kind == backend.Capable {
		prober = nil
	}
}

// Available lists registered kinds in ascending order.
func Available() []backend.Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]backend.Kind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// IsRegistered reports whether kind has a factory.
func IsRegistered(kind backend.Kind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[kind]
	return ok
}

// CapabilityProber returns the registered Capable probe. Without a
// registered Capable backend it always reports unsupported.
func CapabilityProber() backend.Prober {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if _, ok := factories[backend.Capable]; !ok || prober == nil {
		return backend.Static(false)
	}
	return prober
}

// New creates a context of the given kind.
func New(kind backend.Kind, opts Options) (Context, error) {
	registryMu.RLock()
	f, ok := factories[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistered, kind)
	}
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	return f(opts)
}
