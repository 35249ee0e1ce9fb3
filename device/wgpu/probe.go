// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shade/backend"
)

// Probe returns a prober that looks for an adapter on the given HAL
// backend. It creates a throwaway instance and opens no device.
func Probe(variant gputypes.Backend) backend.Prober {
	return backend.ProberFunc(func() (backend.ProbeResult, error) {
		b, ok := hal.GetBackend(variant)
		if !ok {
			return backend.ProbeResult{Err: fmt.Errorf("%w: %v", ErrBackendUnavailable, variant)}, nil
		}
		inst, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return backend.ProbeResult{}, fmt.Errorf("wgpu: probe instance: %w", err)
		}
		defer inst.Destroy()

		adapters := inst.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			return backend.ProbeResult{Err: ErrNoAdapter}, nil
		}
		return backend.ProbeResult{Supported: true, Adapter: adapters[0].Info.Name}, nil
	})
}
