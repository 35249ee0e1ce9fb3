// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"context"
	"fmt"
	"math"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

// DefaultTolerance bounds the per-lane difference accepted between the
// Capable (float32) and Compatible (float64) evaluation of one graph.
// Differences are measured relative to the magnitude once it exceeds 1.
const DefaultTolerance = 1e-4

// Equivalent reports whether a and b agree within tol on every lane.
// Equal infinities and pairs of NaN agree.
func Equivalent(a, b [4]float64, tol float64) bool {
	for i := range a {
		x, y := a[i], b[i]
		if x == y || (math.IsNaN(x) && math.IsNaN(y)) {
			continue
		}
		scale := max(1, math.Abs(x), math.Abs(y))
		if !(math.Abs(x-y) <= tol*scale) {
			return false
		}
	}
	return true
}

// EquivalenceError reports the first sample on which two backends disagree.
type EquivalenceError struct {
	Sample              int
	Capable, Compatible [4]float64
	Tolerance           float64
}

func (e *EquivalenceError) Error() string {
	return fmt.Sprintf("compiler: backends disagree at sample %d: capable %v, compatible %v (tolerance %g)",
		e.Sample, e.Capable, e.Compatible, e.Tolerance)
}

// CheckEquivalence compiles g for both backends and compares their kernels
// over samples using the compiler tolerance.
func (c *Compiler) CheckEquivalence(ctx context.Context, g *node.Graph, slot scene.Slot, samples []Inputs) error {
	capable, err := c.Compile(ctx, g, slot, backend.Capable)
	if err != nil {
		return err
	}
	compatible, err := c.Compile(ctx, g, slot, backend.Compatible)
	if err != nil {
		return err
	}
	for i := range samples {
		in := samples[i]
		a := capable.Eval(&in)
		b := compatible.Eval(&in)
		if !Equivalent(a, b, c.tolerance) {
			return &EquivalenceError{Sample: i, Capable: a, Compatible: b, Tolerance: c.tolerance}
		}
	}
	return nil
}
