// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrEmptyStorage is returned for storage buffers without elements.
var ErrEmptyStorage = errors.New("scene: empty storage buffer")

// StorageBuffer is an immutable array of float32 read by storage nodes.
type StorageBuffer struct {
	data []float32
}

// NewStorageBuffer copies data.
func NewStorageBuffer(data []float32) (*StorageBuffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyStorage
	}
	return &StorageBuffer{data: append([]float32(nil), data...)}, nil
}

// Len returns the element count.
func (b *StorageBuffer) Len() int { return len(b.data) }

// At returns element i, clamping i to the buffer bounds.
func (b *StorageBuffer) At(i int) float32 {
	return b.data[min(max(i, 0), len(b.data)-1)]
}

// Bytes returns the little-endian upload representation.
func (b *StorageBuffer) Bytes() []byte {
	out := make([]byte, 0, len(b.data)*4)
	for _, f := range b.data {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}
