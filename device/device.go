// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/scene"
)

// Errors returned by device contexts.
var (
	// ErrNotReady is returned when a frame is submitted before Init resolved.
	ErrNotReady = errors.New("device: context not ready")

	// ErrDisposed is returned by every operation on a disposed context.
	ErrDisposed = errors.New("context disposed")

	// ErrInitFailed is returned when submitting to a context whose Init failed.
	ErrInitFailed = errors.New("device: context init failed")

	// ErrInvalidSize is returned for non-positive surface dimensions.
	ErrInvalidSize = errors.New("device: invalid surface size")

	// ErrNoCompiler is returned when Options carry no compiler.
	ErrNoCompiler = errors.New("device: options need a compiler")
)

// InitError reports a failed device initialization.
type InitError struct {
	Backend backend.Kind
	Stage   string // "instance", "adapter", "device", "target", ...
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("device: %v init failed at %s: %v", e.Backend, e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Context owns the backend resources used to render one scene.
//
// Init starts initialization and returns its Ready handle; Capable
// contexts initialize asynchronously, Compatible contexts resolve before
// Init returns. SubmitFrame renders the scene through the given camera and
// may only be called once the context is ready. Dispose releases every
// resource synchronously; the context is unusable afterwards.
//
// Contexts are driven by one goroutine (the frame loop). Only Ready.Wait,
// State, IsReady and Resources may be called from other goroutines.
type Context interface {
	Kind() backend.Kind
	Init(ctx context.Context) *Ready
	IsReady() bool
	State() State
	SubmitFrame(s *scene.Scene, cam *scene.Camera) error
	Resize(width, height int) error
	Size() (width, height int)
	Dispose() error
	Resources() ResourceCounts
}

// ResourceCounts is a snapshot of live backend resources.
type ResourceCounts struct {
	Buffers       int
	Textures      int
	TextureViews  int
	Samplers      int
	ShaderModules int
	Pipelines     int
	Layouts       int // bind group and pipeline layouts
	BindGroups    int
}

// Total sums every count.
func (r ResourceCounts) Total() int {
	return r.Buffers + r.Textures + r.TextureViews + r.Samplers +
		r.ShaderModules + r.Pipelines + r.Layouts + r.BindGroups
}

// IsZero reports whether no resource is live.
func (r ResourceCounts) IsZero() bool { return r.Total() == 0 }

// FrameReport describes one submitted frame.
type FrameReport struct {
	Backend   backend.Kind
	Frame     uint64
	Time      float64
	Meshes    int   // meshes drawn
	Fallbacks int   // materials drawn with at least one diagnostic slot
	Err       error // joined compile errors, nil when every slot compiled
}

// Options configure a device context.
type Options struct {
	// Compiler compiles material graphs. Required.
	Compiler *compiler.Compiler

	// Width and Height are the initial surface size. Zero picks 640x480.
	Width, Height int

	// ClearColor fills the surface before each frame (RGBA in [0,1]).
	ClearColor [4]float64

	// OnReport receives a report after every submitted frame.
	OnReport func(FrameReport)

	// Provider shares a host GPU device. Capable contexts use it when it
	// exposes HalDevice() and HalQueue(); others ignore it.
	Provider any
}

// Default surface size.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Normalize validates o and fills defaults.
func (o Options) Normalize() (Options, error) {
	if o.Compiler == nil {
		return o, ErrNoCompiler
	}
	if o.Width == 0 && o.Height == 0 {
		o.Width, o.Height = DefaultWidth, DefaultHeight
	}
	if o.Width <= 0 || o.Height <= 0 {
		return o, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.Width, o.Height)
	}
	return o, nil
}

// Report delivers r to the OnReport hook, if any.
func (o Options) Report(r FrameReport) {
	if o.OnReport != nil {
		o.OnReport(r)
	}
}

// CheckSize validates surface dimensions.
func CheckSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return nil
}
