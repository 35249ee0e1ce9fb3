// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"image"
	"math"

	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/internal/parallel"
	"github.com/gogpu/shade/scene"
)

// Vertices with a clip-space w at or below this lie on or behind the eye.
const minW = 1e-6

// bandsPerWorker controls how finely rows are split across the pool.
const bandsPerWorker = 4

// framebuffer holds the color and depth planes of the surface.
type framebuffer struct {
	color *image.RGBA
	depth []float64
}

func newFramebuffer(w, h int) *framebuffer {
	return &framebuffer{
		color: image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float64, w*h),
	}
}

func (fb *framebuffer) clear(c [4]float64) {
	px := [4]uint8{unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])}
	pix := fb.color.Pix
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
	for i := range fb.depth {
		fb.depth[i] = 1
	}
}

func unorm8(v float64) uint8 {
	if !(v > 0) { // also catches NaN
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// vertex is the output of a position program.
type vertex struct {
	clip  [4]float64
	local [3]float64
	uv    [2]float64
}

// triangle is a screen-space triangle ready for scan conversion.
type triangle struct {
	x, y, z [3]float64
	invW    [3]float64
	local   [3][3]float64
	uv      [3][2]float64
	area    float64

	minX, maxX, minY, maxY int

	program   *compiler.Program
	resources compiler.Resources
}

// setup runs the position program of every draw and builds the visible
// triangles in draw order. Triangles touching the eye plane are dropped.
func (c *Context) setup(f *device.Frame) []triangle {
	w, h := c.target.color.Rect.Dx(), c.target.color.Rect.Dy()
	var tris []triangle
	in := &compiler.Inputs{Time: f.Time}
	// Only what this frame draws survives; removed meshes and rebound
	// slots drop out here.
	programs := make(map[compiler.Key]*compiler.Program, len(c.programs))
	vertices := make(map[*scene.Geometry][]vertex, len(c.vertices))
	for _, d := range f.Draws {
		geo, mat := d.Mesh.Geometry, d.Mesh.Material
		pos, col := d.Programs.Position(), d.Programs.Color()
		programs[pos.Key] = pos
		programs[col.Key] = col

		verts, seen := vertices[geo]
		if !seen {
			verts = c.vertices[geo]
			if len(verts) != geo.VertexCount() {
				verts = make([]vertex, geo.VertexCount())
			}
			vertices[geo] = verts
		}
		in.Resources = mat
		for i := range verts {
			p, uv := geo.Position(i), geo.UV(i)
			in.Position = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
			in.UV = [2]float64{float64(uv[0]), float64(uv[1])}
			out := pos.Eval(in)
			local := [3]float64{out[0], out[1], out[2]}
			verts[i] = vertex{
				clip:  f.ViewProj.Transform([4]float64{local[0], local[1], local[2], 1}),
				local: local,
				uv:    in.UV,
			}
		}

		for t := range geo.TriangleCount() {
			a, b, cc := geo.Triangle(t)
			tri, ok := project(verts[a], verts[b], verts[cc], w, h)
			if !ok {
				continue
			}
			tri.program, tri.resources = col, mat
			tris = append(tris, tri)
		}
	}
	c.programs, c.vertices = programs, vertices
	return tris
}

func project(a, b, c vertex, w, h int) (triangle, bool) {
	var t triangle
	for i, v := range [3]vertex{a, b, c} {
		if v.clip[3] <= minW {
			return t, false
		}
		iw := 1 / v.clip[3]
		t.x[i] = (v.clip[0]*iw*0.5 + 0.5) * float64(w)
		t.y[i] = (0.5 - v.clip[1]*iw*0.5) * float64(h)
		t.z[i] = v.clip[2] * iw
		t.invW[i] = iw
		t.local[i] = v.local
		t.uv[i] = v.uv
	}
	t.area = edge(t.x[0], t.y[0], t.x[1], t.y[1], t.x[2], t.y[2])
	if math.Abs(t.area) < 1e-12 {
		return t, false
	}
	t.minX = max(0, int(math.Floor(min(t.x[0], t.x[1], t.x[2]))))
	t.maxX = min(w-1, int(math.Ceil(max(t.x[0], t.x[1], t.x[2]))))
	t.minY = max(0, int(math.Floor(min(t.y[0], t.y[1], t.y[2]))))
	t.maxY = min(h-1, int(math.Ceil(max(t.y[0], t.y[1], t.y[2]))))
	if t.minX > t.maxX || t.minY > t.maxY {
		return t, false
	}
	return t, true
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// rasterize shades tris into fb, one row band per pool task. Bands own
// disjoint rows, so workers never touch the same pixel.
func rasterize(pool *parallel.WorkerPool, fb *framebuffer, tris []triangle, t float64) {
	if len(tris) == 0 {
		return
	}
	h := fb.color.Rect.Dy()
	bands := max(1, pool.Workers()*bandsPerWorker)
	rows := max(1, (h+bands-1)/bands)

	var work []func()
	for y0 := 0; y0 < h; y0 += rows {
		y1 := min(h, y0+rows)
		work = append(work, func() { shadeBand(fb, tris, t, y0, y1) })
	}
	pool.ExecuteAll(work)
}

func shadeBand(fb *framebuffer, tris []triangle, t float64, y0, y1 int) {
	in := &compiler.Inputs{Time: t}
	w := fb.color.Rect.Dx()
	for i := range tris {
		tri := &tris[i]
		if tri.maxY < y0 || tri.minY >= y1 {
			continue
		}
		in.Resources = tri.resources
		for y := max(y0, tri.minY); y <= min(y1-1, tri.maxY); y++ {
			py := float64(y) + 0.5
			for x := tri.minX; x <= tri.maxX; x++ {
				px := float64(x) + 0.5
				b0 := edge(tri.x[1], tri.y[1], tri.x[2], tri.y[2], px, py) / tri.area
				b1 := edge(tri.x[2], tri.y[2], tri.x[0], tri.y[0], px, py) / tri.area
				b2 := edge(tri.x[0], tri.y[0], tri.x[1], tri.y[1], px, py) / tri.area
				if b0 < 0 || b1 < 0 || b2 < 0 {
					continue
				}
				z := b0*tri.z[0] + b1*tri.z[1] + b2*tri.z[2]
				idx := y*w + x
				if z < 0 || z >= fb.depth[idx] {
					continue
				}

				// Perspective-correct weights.
				p0, p1, p2 := b0*tri.invW[0], b1*tri.invW[1], b2*tri.invW[2]
				s := p0 + p1 + p2
				p0, p1, p2 = p0/s, p1/s, p2/s
				for k := range 3 {
					in.Position[k] = p0*tri.local[0][k] + p1*tri.local[1][k] + p2*tri.local[2][k]
				}
				for k := range 2 {
					in.UV[k] = p0*tri.uv[0][k] + p1*tri.uv[1][k] + p2*tri.uv[2][k]
				}

				c := tri.program.Eval(in)
				fb.depth[idx] = z
				o := fb.color.PixOffset(x, y)
				fb.color.Pix[o+0] = unorm8(c[0])
				fb.color.Pix[o+1] = unorm8(c[1])
				fb.color.Pix[o+2] = unorm8(c[2])
				fb.color.Pix[o+3] = unorm8(c[3])
			}
		}
	}
}
