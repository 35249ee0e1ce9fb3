// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"errors"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ErrEmptyImage is returned for zero-sized texture sources.
var ErrEmptyImage = errors.New("scene: empty texture image")

// Texture is an immutable RGBA8 image in non-premultiplied form.
type Texture struct {
	img *image.NRGBA
}

// NewTexture converts src to the NRGBA layout both backends upload.
func NewTexture(src image.Image) (*Texture, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, src, b, xdraw.Src, nil)
	return &Texture{img: dst}, nil
}

// Width returns the width in texels.
func (t *Texture) Width() int { return t.img.Rect.Dx() }

// Height returns the height in texels.
func (t *Texture) Height() int { return t.img.Rect.Dy() }

// Pix returns the tightly packed RGBA8 rows. The slice must not be modified.
func (t *Texture) Pix() []byte { return t.img.Pix }

// Resized returns t scaled so neither side exceeds maxDim, or t itself when
// it already fits.
func (t *Texture) Resized(maxDim int) *Texture {
	w, h := t.Width(), t.Height()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return t
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.BiLinear.Scale(dst, dst.Rect, t.img, t.img.Rect, xdraw.Src, nil)
	return &Texture{img: dst}
}

// Texel returns texel (x, y) in [0, 1], clamping coordinates to the edge.
func (t *Texture) Texel(x, y int) [4]float64 {
	x = min(max(x, 0), t.Width()-1)
	y = min(max(y, 0), t.Height()-1)
	i := t.img.PixOffset(x, y)
	p := t.img.Pix[i : i+4 : i+4]
	return [4]float64{
		float64(p[0]) / 255,
		float64(p[1]) / 255,
		float64(p[2]) / 255,
		float64(p[3]) / 255,
	}
}

// Sample filters t bilinearly at uv with clamp-to-edge addressing. v = 0 is
// the first row.
func (t *Texture) Sample(u, v float64) [4]float64 {
	x := u*float64(t.Width()) - 0.5
	y := v*float64(t.Height()) - 0.5
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	a := t.Texel(ix, iy)
	b := t.Texel(ix+1, iy)
	c := t.Texel(ix, iy+1)
	d := t.Texel(ix+1, iy+1)
	var out [4]float64
	for i := range out {
		top := a[i] + (b[i]-a[i])*fx
		bot := c[i] + (d[i]-c[i])*fx
		out[i] = top + (bot-top)*fy
	}
	return out
}
