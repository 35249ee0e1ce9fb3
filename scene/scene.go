// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "slices"

// Mesh pairs geometry with the material that shades it.
type Mesh struct {
	Name     string
	Geometry *Geometry
	Material *Material
	Hidden   bool
}

// NewMesh returns a visible mesh.
func NewMesh(name string, g *Geometry, m *Material) *Mesh {
	return &Mesh{Name: name, Geometry: g, Material: m}
}

// Scene is the set of objects rendered each frame.
type Scene struct {
	meshes []*Mesh
	lights []*Light
	camera *Camera

	time  float64
	frame uint64
}

// New returns an empty scene viewed through cam. A nil cam selects
// DefaultCamera.
func New(cam *Camera) *Scene {
	if cam == nil {
		cam = DefaultCamera()
	}
	return &Scene{camera: cam}
}

// Add appends meshes in draw order.
func (s *Scene) Add(meshes ...*Mesh) {
	for _, m := range meshes {
		if m != nil {
			s.meshes = append(s.meshes, m)
		}
	}
}

// Remove deletes m and reports whether it was present.
func (s *Scene) Remove(m *Mesh) bool {
	i := slices.Index(s.meshes, m)
	if i < 0 {
		return false
	}
	s.meshes = slices.Delete(s.meshes, i, i+1)
	return true
}

// Meshes returns the meshes in draw order.
func (s *Scene) Meshes() []*Mesh { return slices.Clone(s.meshes) }

// AddLight appends a light.
func (s *Scene) AddLight(l *Light) {
	if l != nil {
		s.lights = append(s.lights, l)
	}
}

// Lights returns the scene lights.
func (s *Scene) Lights() []*Light { return slices.Clone(s.lights) }

// Camera returns the active camera.
func (s *Scene) Camera() *Camera { return s.camera }

// SetCamera switches the active camera. nil is ignored.
func (s *Scene) SetCamera(c *Camera) {
	if c != nil {
		s.camera = c
	}
}

// Materials returns the distinct materials of visible meshes, in first-use order.
func (s *Scene) Materials() []*Material {
	var out []*Material
	for _, m := range s.meshes {
		if m.Hidden || m.Material == nil || slices.Contains(out, m.Material) {
			continue
		}
		out = append(out, m.Material)
	}
	return out
}

// Time returns the scene clock in seconds.
func (s *Scene) Time() float64 { return s.time }

// Frame returns the number of ticks that have advanced the clock.
func (s *Scene) Frame() uint64 { return s.frame }

// SetClock sets the scene clock. The frame loop owns the clock; other
// callers should treat it as read-only.
func (s *Scene) SetClock(t float64, frame uint64) {
	s.time = t
	s.frame = frame
}
