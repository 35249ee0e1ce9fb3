// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "math"

// Camera holds perspective projection parameters.
//
// FovY, Near, Far and the pose fields belong to the caller. The aspect
// ratio belongs to the viewport manager, which keeps it in step with the
// surface size; other code should only read it.
type Camera struct {
	FovY     float64 // vertical field of view, radians
	Near     float64
	Far      float64
	Position [3]float64
	Target   [3]float64
	Up       [3]float64

	aspect float64
}

// NewPerspective returns a camera at (0, 0, 3) looking at the origin.
func NewPerspective(fovY, aspect, near, far float64) *Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return &Camera{
		FovY:     fovY,
		Near:     near,
		Far:      far,
		Position: [3]float64{0, 0, 3},
		Up:       [3]float64{0, 1, 0},
		aspect:   aspect,
	}
}

// DefaultCamera returns a 60 degree camera with a square aspect.
func DefaultCamera() *Camera { return NewPerspective(math.Pi/3, 1, 0.1, 100) }

// Aspect returns width / height of the surface the camera renders to.
func (c *Camera) Aspect() float64 { return c.aspect }

// SetAspect updates the aspect ratio. Reserved for the viewport manager.
func (c *Camera) SetAspect(aspect float64) {
	if aspect > 0 {
		c.aspect = aspect
	}
}

// Projection returns the projection matrix.
func (c *Camera) Projection() Mat4 { return Perspective(c.FovY, c.aspect, c.Near, c.Far) }

// View returns the world-to-camera matrix.
func (c *Camera) View() Mat4 { return LookAt(c.Position, c.Target, c.Up) }

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() Mat4 { return c.Projection().Mul(c.View()) }
