// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/internal/cache"
	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/internal/parallel"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

// DefaultCacheCapacity is the default number of cached programs.
const DefaultCacheCapacity = 512

// failureCapacity bounds how many failed keys are remembered.
const failureCapacity = 64

// Compiler compiles graphs and caches the resulting programs.
// A Compiler is safe for concurrent use.
type Compiler struct {
	programs   *cache.LRU[Key, *Program]
	failures   *cache.LRU[Key, error]
	flight     singleflight.Group
	pool       *parallel.WorkerPool
	translator Translator
	store      Store
	tolerance  float64

	capacity int
	workers  int

	mu        sync.Mutex
	fallbacks map[Key]*Program

	builds atomic.Uint64
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCacheCapacity bounds the program cache.
func WithCacheCapacity(n int) Option {
	return func(c *Compiler) { c.capacity = n }
}

// WithWorkers sets the size of the compile worker pool.
// Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Compiler) { c.workers = n }
}

// WithTranslator replaces the naga translator.
func WithTranslator(t Translator) Option {
	return func(c *Compiler) { c.translator = t }
}

// WithStore persists translated artifacts.
func WithStore(s Store) Option {
	return func(c *Compiler) { c.store = s }
}

// WithTolerance sets the equivalence tolerance.
func WithTolerance(tol float64) Option {
	return func(c *Compiler) {
		if tol > 0 {
			c.tolerance = tol
		}
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		translator: NagaTranslator{},
		tolerance:  DefaultTolerance,
		capacity:   DefaultCacheCapacity,
		fallbacks:  make(map[Key]*Program),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.programs = cache.New[Key, *Program](c.capacity)
	c.failures = cache.New[Key, error](failureCapacity)
	c.programs.OnEvict(func(k Key, _ *Program) {
		logging.Logger().Debug("compiler: program evicted", "key", k.String())
	})
	c.pool = parallel.NewWorkerPool(c.workers)
	return c
}

// Close stops the worker pool. Compile keeps working afterwards but runs
// material fan-out on the calling goroutine.
func (c *Compiler) Close() { c.pool.Close() }

// Tolerance returns the equivalence tolerance.
func (c *Compiler) Tolerance() float64 { return c.tolerance }

// Pool returns the worker pool shared with software rasterization.
func (c *Compiler) Pool() *parallel.WorkerPool { return c.pool }

// Stats reports cache behaviour.
type Stats struct {
	Cache  cache.Stats
	Builds uint64 // programs generated from scratch
}

// Stats returns cache statistics.
func (c *Compiler) Stats() Stats {
	return Stats{Cache: c.programs.Stats(), Builds: c.builds.Load()}
}

// Purge empties the program cache and forgets remembered failures.
func (c *Compiler) Purge() {
	c.programs.Purge()
	c.failures.Purge()
}

// Compile returns the program for g in slot on the given backend.
// Equal graphs return the same *Program while it stays cached. Failures
// are *CompileError; context errors are returned as is.
func (c *Compiler) Compile(ctx context.Context, g *node.Graph, slot scene.Slot, kind backend.Kind) (*Program, error) {
	if g == nil {
		return nil, &CompileError{Slot: slot, Backend: kind, Err: ErrNilGraph}
	}
	if g.Type() != slot.Type() {
		return nil, &CompileError{Slot: slot, Backend: kind,
			Err: fmt.Errorf("%w: %v wants %v, graph produces %v", scene.ErrSlotType, slot, slot.Type(), g.Type())}
	}
	key := Key{Hash: g.Hash(), Backend: kind, Slot: slot}
	if p, ok := c.programs.Get(key); ok {
		return p, nil
	}
	if err, ok := c.failures.Get(key); ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := c.flight.DoChan(key.String(), func() (any, error) {
		if p, ok := c.programs.Peek(key); ok {
			return p, nil
		}
		if err, ok := c.failures.Peek(key); ok {
			return nil, err
		}
		p, err := c.build(g, key, false)
		if err != nil {
			// Graphs are immutable per hash, so the same key fails the
			// same way until Purge.
			c.failures.Add(key, err)
			logging.Logger().Warn("compiler: build failed", "key", key.String(), "err", err)
			return nil, err
		}
		return c.programs.Add(key, p), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Program), nil
	}
}

func (c *Compiler) build(g *node.Graph, key Key, fallback bool) (*Program, error) {
	fail := func(op node.Op, err error) error {
		return &CompileError{Slot: key.Slot, Backend: key.Backend, Op: op, Err: err}
	}
	for _, n := range g.Nodes() {
		if need := n.Op().Requires(); !key.Backend.Supports(need) {
			return nil, fail(n.Op(), fmt.Errorf("%w: needs %v", ErrUnsupported, need))
		}
	}

	stage := StageOf(key.Slot)
	layout := newLayout(g, stage)
	src, err := generateWGSL(g, stage, layout)
	if err != nil {
		return nil, fail(node.OpInvalid, err)
	}

	art, stored := Artifact{}, false
	if c.store != nil {
		art, stored = c.store.Load(key, src)
	}
	if !stored {
		art, err = c.translator.Translate(src, stage, key.Backend)
		if err != nil && !fallback {
			return nil, fail(node.OpInvalid, err)
		}
		if err == nil && c.store != nil {
			if serr := c.store.Save(key, src, art); serr != nil {
				logging.Logger().Warn("compiler: store save failed", "key", key.String(), "err", serr)
			}
		}
	}

	bits := 64
	if key.Backend == backend.Capable {
		bits = 32
	}
	c.builds.Add(1)
	logging.Logger().Debug("compiler: built program",
		"key", key.String(), "stage", stage.String(), "nodes", g.Len(), "stored", stored)
	return &Program{
		Key:        key,
		Stage:      stage,
		EntryPoint: stage.EntryPoint(),
		WGSL:       src,
		Artifact:   art,
		Layout:     layout,
		Kernel:     NewKernel(g, bits),
		Fallback:   fallback,
	}, nil
}

// Fallback returns the diagnostic program for slot on kind.
func (c *Compiler) Fallback(slot scene.Slot, kind backend.Kind) *Program {
	g := fallbackGraph(slot)
	key := Key{Hash: g.Hash(), Backend: kind, Slot: slot}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.fallbacks[key]; ok {
		return p
	}
	// Fallback graphs use no backend features, so build only fails in
	// translation, which fallback mode tolerates.
	p, err := c.build(g, key, true)
	if err != nil {
		panic(err)
	}
	c.fallbacks[key] = p
	return p
}

// CompileMaterial compiles every slot of m. Slots that fail get the
// diagnostic fallback; their errors are joined into the returned error
// while the returned programs stay usable. Only context errors yield a nil
// result.
func (c *Compiler) CompileMaterial(ctx context.Context, m *scene.Material, kind backend.Kind) (*MaterialPrograms, error) {
	slots := scene.Slots()
	progs := make([]*Program, len(slots))
	errs := make([]error, len(slots))
	work := make([]func(), len(slots))
	for i, slot := range slots {
		work[i] = func() { progs[i], errs[i] = c.compileSlot(ctx, m, slot, kind) }
	}
	c.pool.ExecuteAll(work)
	return c.collect(m, kind, slots, progs, errs)
}

// CompileAll compiles materials concurrently on the worker pool. The
// result is index-aligned with mats.
func (c *Compiler) CompileAll(ctx context.Context, mats []*scene.Material, kind backend.Kind) ([]*MaterialPrograms, error) {
	out := make([]*MaterialPrograms, len(mats))
	errs := make([]error, len(mats))
	work := make([]func(), len(mats))
	for i, m := range mats {
		work[i] = func() {
			// Slots run inline: pool tasks must not fan out again.
			slots := scene.Slots()
			progs := make([]*Program, len(slots))
			slotErrs := make([]error, len(slots))
			for j, slot := range slots {
				progs[j], slotErrs[j] = c.compileSlot(ctx, m, slot, kind)
			}
			out[i], errs[i] = c.collect(m, kind, slots, progs, slotErrs)
		}
	}
	c.pool.ExecuteAll(work)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, errors.Join(errs...)
}

func (c *Compiler) compileSlot(ctx context.Context, m *scene.Material, slot scene.Slot, kind backend.Kind) (*Program, error) {
	p, err := c.Compile(ctx, SlotGraph(m, slot), slot, kind)
	if err == nil {
		return p, nil
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		return nil, err
	}
	logging.Logger().Debug("compiler: slot failed, using fallback",
		"material", m.Name, "slot", slot.String(), "backend", kind.String(), "err", err)
	return c.Fallback(slot, kind), err
}

func (c *Compiler) collect(m *scene.Material, kind backend.Kind, slots []scene.Slot, progs []*Program, errs []error) (*MaterialPrograms, error) {
	mp := &MaterialPrograms{Material: m, Backend: kind}
	for i, slot := range slots {
		if progs[i] == nil {
			return nil, errs[i]
		}
		mp.programs[slot] = progs[i]
	}
	return mp, errors.Join(errs...)
}
