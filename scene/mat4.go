// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "math"

// Mat4 is a column-major 4x4 matrix, laid out as WGSL mat4x4<f32> expects.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 { return m[c*4+r] }

// Mul returns m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m.At(r, k) * n.At(k, c)
			}
			out[c*4+r] = s
		}
	}
	return out
}

// Transform returns m * v.
func (m Mat4) Transform(v [4]float64) [4]float64 {
	var out [4]float64
	for r := 0; r < 4; r++ {
		out[r] = m.At(r, 0)*v[0] + m.At(r, 1)*v[1] + m.At(r, 2)*v[2] + m.At(r, 3)*v[3]
	}
	return out
}

// Float32 converts m for upload.
func (m Mat4) Float32() [16]float32 {
	var out [16]float32
	for i, f := range m {
		out[i] = float32(f)
	}
	return out
}

// Perspective returns a right-handed projection mapping depth to [0, 1],
// the WebGPU clip-space convention.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far * nf, -1,
		0, 0, near * far * nf, 0,
	}
}

// LookAt returns a right-handed view matrix.
func LookAt(eye, target, up [3]float64) Mat4 {
	z := normalize(sub(eye, target))
	x := normalize(cross(up, z))
	y := cross(z, x)
	return Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-dot(x, eye), -dot(y, eye), -dot(z, eye), 1,
	}
}

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func normalize(a [3]float64) [3]float64 {
	l := math.Sqrt(dot(a, a))
	if l == 0 {
		return a
	}
	return [3]float64{a[0] / l, a[1] / l, a[2] / l}
}
