// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/scene"
)

// Formats of the offscreen render target.
const (
	ColorFormat = gputypes.TextureFormatRGBA8Unorm
	DepthFormat = gputypes.TextureFormatDepth32Float
)

// renderTarget is the color and depth attachment pair.
type renderTarget struct {
	width, height int
	color         hal.Texture
	colorView     hal.TextureView
	depth         hal.Texture
	depthView     hal.TextureView
}

func newRenderTarget(dev hal.Device, width, height int) (_ *renderTarget, err error) {
	t := &renderTarget{width: width, height: height}
	defer func() {
		if err != nil {
			t.destroy(dev)
		}
	}()
	size := hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	t.color, err = dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "shade_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("color texture: %w", err)
	}
	t.colorView, err = dev.CreateTextureView(t.color, &hal.TextureViewDescriptor{
		Label:         "shade_color_view",
		Format:        ColorFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("color view: %w", err)
	}
	t.depth, err = dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "shade_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("depth texture: %w", err)
	}
	t.depthView, err = dev.CreateTextureView(t.depth, &hal.TextureViewDescriptor{
		Label:         "shade_depth_view",
		Format:        DepthFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectDepthOnly,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("depth view: %w", err)
	}
	return t, nil
}

func (t *renderTarget) destroy(dev hal.Device) {
	if t == nil || dev == nil {
		return
	}
	if t.depthView != nil {
		dev.DestroyTextureView(t.depthView)
	}
	if t.depth != nil {
		dev.DestroyTexture(t.depth)
	}
	if t.colorView != nil {
		dev.DestroyTextureView(t.colorView)
	}
	if t.color != nil {
		dev.DestroyTexture(t.color)
	}
	*t = renderTarget{}
}

func (t *renderTarget) count(r *device.ResourceCounts) {
	if t == nil {
		return
	}
	for _, tex := range []hal.Texture{t.color, t.depth} {
		if tex != nil {
			r.Textures++
		}
	}
	for _, v := range []hal.TextureView{t.colorView, t.depthView} {
		if v != nil {
			r.TextureViews++
		}
	}
}

// frameGroup holds the objects shared by every draw: the frame uniform
// block in group 0, the sampler, and the placeholders bound for textures
// and storage buffers a material does not provide.
type frameGroup struct {
	uniform hal.Buffer
	layout  hal.BindGroupLayout
	group   hal.BindGroup
	sampler hal.Sampler
	white   *gpuTexture
	zeros   hal.Buffer
}

func newFrameGroup(dev hal.Device, queue hal.Queue) (_ *frameGroup, err error) {
	f := &frameGroup{}
	defer func() {
		if err != nil {
			f.destroy(dev)
		}
	}()
	f.uniform, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "shade_frame",
		Size:  compiler.FrameSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("frame buffer: %w", err)
	}
	f.layout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "shade_frame_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStagesVertexFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("frame layout: %w", err)
	}
	f.group, err = dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "shade_frame_group",
		Layout: f.layout,
		Entries: []gputypes.BindGroupEntry{{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: f.uniform.NativeHandle(), Size: compiler.FrameSize},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("frame group: %w", err)
	}
	f.sampler, err = dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        "shade_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	f.white, err = uploadPixels(dev, queue, "shade_missing", 1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return nil, err
	}
	f.zeros, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "shade_missing_storage",
		Size:  16,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("placeholder storage: %w", err)
	}
	return f, nil
}

func (f *frameGroup) destroy(dev hal.Device) {
	if f == nil || dev == nil {
		return
	}
	if f.zeros != nil {
		dev.DestroyBuffer(f.zeros)
	}
	f.white.destroy(dev)
	if f.sampler != nil {
		dev.DestroySampler(f.sampler)
	}
	if f.group != nil {
		dev.DestroyBindGroup(f.group)
	}
	if f.layout != nil {
		dev.DestroyBindGroupLayout(f.layout)
	}
	if f.uniform != nil {
		dev.DestroyBuffer(f.uniform)
	}
	*f = frameGroup{}
}

func (f *frameGroup) count(r *device.ResourceCounts) {
	if f == nil {
		return
	}
	for _, b := range []hal.Buffer{f.uniform, f.zeros} {
		if b != nil {
			r.Buffers++
		}
	}
	if f.layout != nil {
		r.Layouts++
	}
	if f.group != nil {
		r.BindGroups++
	}
	if f.sampler != nil {
		r.Samplers++
	}
	f.white.count(r)
}

// gpuTexture is a sampled RGBA8 texture and its view.
type gpuTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

func uploadPixels(dev hal.Device, queue hal.Queue, label string, w, h int, pix []byte) (_ *gpuTexture, err error) {
	t := &gpuTexture{}
	defer func() {
		if err != nil {
			t.destroy(dev)
		}
	}()
	size := hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	t.tex, err = dev.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", label, err)
	}
	t.view, err = dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("texture view %s: %w", label, err)
	}
	err = queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(4 * w), RowsPerImage: uint32(h)},
		&size,
	)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return t, nil
}

func (t *gpuTexture) destroy(dev hal.Device) {
	if t == nil || dev == nil {
		return
	}
	if t.view != nil {
		dev.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		dev.DestroyTexture(t.tex)
	}
	*t = gpuTexture{}
}

func (t *gpuTexture) count(r *device.ResourceCounts) {
	if t == nil {
		return
	}
	if t.tex != nil {
		r.Textures++
	}
	if t.view != nil {
		r.TextureViews++
	}
}

// vertexBytes de-indexes g into a triangle list of position (vec3) and
// uv (vec2) attributes.
func vertexBytes(g *scene.Geometry) []byte {
	idx := g.Indices()
	buf := make([]byte, len(idx)*scene.VertexStride)
	for i, v := range idx {
		p, uv := g.Position(int(v)), g.UV(int(v))
		off := i * scene.VertexStride
		for k, f := range [5]float32{p[0], p[1], p[2], uv[0], uv[1]} {
			binary.LittleEndian.PutUint32(buf[off+4*k:], math.Float32bits(f))
		}
	}
	return buf
}

// providerName describes a host device provider for logs.
func providerName(provider any) string {
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		if info := dp.AdapterInfo(); info.Name != "" {
			return info.Name
		}
	}
	return "host device"
}

// sortedKeys returns map keys ordered by their string form.
func sortedKeys[V any](m map[compiler.Key]V) []compiler.Key {
	keys := make([]compiler.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b compiler.Key) int { return strings.Compare(a.String(), b.String()) })
	return keys
}
