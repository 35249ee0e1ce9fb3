// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"errors"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/scene"
)

// Draw is one mesh together with the programs of its material.
type Draw struct {
	Mesh     *scene.Mesh
	Programs *compiler.MaterialPrograms
}

// Frame is a scene compiled for one submission.
type Frame struct {
	Draws    []Draw
	ViewProj scene.Mat4
	Time     float64
	Number   uint64

	// Fallbacks counts materials with at least one diagnostic slot.
	Fallbacks int
	// Err joins the compile errors behind those fallbacks.
	Err error
}

// PrepareFrame compiles the materials of every visible mesh of s for kind.
// Compile errors do not fail the frame: affected slots render with their
// diagnostic program and the errors are kept in Frame.Err. A nil cam uses
// the scene camera.
func PrepareFrame(ctx context.Context, c *compiler.Compiler, kind backend.Kind, s *scene.Scene, cam *scene.Camera) (*Frame, error) {
	if cam == nil {
		cam = s.Camera()
	}
	mats := s.Materials()
	progs, err := c.CompileAll(ctx, mats, kind)
	var ce *compiler.CompileError
	if progs == nil || (err != nil && !errors.As(err, &ce)) {
		return nil, err
	}

	byMat := make(map[*scene.Material]*compiler.MaterialPrograms, len(mats))
	f := &Frame{
		ViewProj: cam.ViewProjection(),
		Time:     s.Time(),
		Number:   s.Frame(),
		Err:      err,
	}
	for i, m := range mats {
		if progs[i] == nil {
			return nil, err
		}
		byMat[m] = progs[i]
		if progs[i].HasFallback() {
			f.Fallbacks++
		}
	}
	for _, m := range s.Meshes() {
		if m.Hidden || m.Geometry == nil || m.Material == nil {
			continue
		}
		f.Draws = append(f.Draws, Draw{Mesh: m, Programs: byMat[m.Material]})
	}
	return f, nil
}

// Report summarizes f for the OnReport hook.
func (f *Frame) Report(kind backend.Kind) FrameReport {
	return FrameReport{
		Backend:   kind,
		Frame:     f.Number,
		Time:      f.Time,
		Meshes:    len(f.Draws),
		Fallbacks: f.Fallbacks,
		Err:       f.Err,
	}
}
