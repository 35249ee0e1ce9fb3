// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/scene"
)

type pipelineKey struct {
	vertex, fragment compiler.Key
}

// pipeline combines one vertex and one fragment program.
type pipeline struct {
	stageLayouts [2]hal.BindGroupLayout // vertex, fragment
	layout       hal.PipelineLayout
	pipe         hal.RenderPipeline
}

type meshBuffer struct {
	buf   hal.Buffer
	count uint32
}

// groupKey ties a stage bind group to the pipeline whose layout built it.
type groupKey struct {
	pipeline pipelineKey
	program  compiler.Key
	material *scene.Material
}

// bindings is the stage bind group of one program and material. The
// group is rebuilt when the material swaps a texture or storage buffer.
type bindings struct {
	params   hal.Buffer
	group    hal.BindGroup
	resource []any
}

// retainFrames is how many frames an unused cached object survives.
const retainFrames = 4

// resourceCache owns every object created lazily by frames.
type resourceCache struct {
	modules   map[compiler.Key]hal.ShaderModule
	pipelines map[pipelineKey]*pipeline
	meshes    map[*scene.Geometry]*meshBuffer
	textures  map[*scene.Texture]*gpuTexture
	storage   map[*scene.StorageBuffer]hal.Buffer
	groups    map[groupKey]*bindings

	frame uint64
	used  map[any]uint64 // cache key -> last frame that used it
}

func newResourceCache() *resourceCache {
	return &resourceCache{
		modules:   make(map[compiler.Key]hal.ShaderModule),
		pipelines: make(map[pipelineKey]*pipeline),
		meshes:    make(map[*scene.Geometry]*meshBuffer),
		textures:  make(map[*scene.Texture]*gpuTexture),
		storage:   make(map[*scene.StorageBuffer]hal.Buffer),
		groups:    make(map[groupKey]*bindings),
		used:      make(map[any]uint64),
	}
}

func (rc *resourceCache) touch(key any) { rc.used[key] = rc.frame }

// sweep destroys objects no frame used in the last retainFrames frames.
// Users of an object touch what it depends on, so dependencies never go
// before their dependents. Call only once the queue is idle.
func (rc *resourceCache) sweep(dev hal.Device) int {
	n := 0
	for key, at := range rc.used {
		if rc.frame-at < retainFrames {
			continue
		}
		delete(rc.used, key)
		switch k := key.(type) {
		case compiler.Key:
			if m, ok := rc.modules[k]; ok {
				dev.DestroyShaderModule(m)
				delete(rc.modules, k)
				n++
			}
		case pipelineKey:
			if p, ok := rc.pipelines[k]; ok {
				p.destroy(dev)
				delete(rc.pipelines, k)
				n++
			}
		case groupKey:
			if b, ok := rc.groups[k]; ok {
				b.destroy(dev)
				delete(rc.groups, k)
				n++
			}
		case *scene.Geometry:
			if m, ok := rc.meshes[k]; ok {
				dev.DestroyBuffer(m.buf)
				delete(rc.meshes, k)
				n++
			}
		case *scene.Texture:
			if t, ok := rc.textures[k]; ok {
				t.destroy(dev)
				delete(rc.textures, k)
				n++
			}
		case *scene.StorageBuffer:
			if b, ok := rc.storage[k]; ok {
				dev.DestroyBuffer(b)
				delete(rc.storage, k)
				n++
			}
		}
	}
	return n
}

func (rc *resourceCache) destroy(dev hal.Device) {
	if rc == nil || dev == nil {
		return
	}
	for _, b := range rc.groups {
		b.destroy(dev)
	}
	for _, p := range rc.pipelines {
		p.destroy(dev)
	}
	for _, m := range rc.modules {
		dev.DestroyShaderModule(m)
	}
	for _, t := range rc.textures {
		t.destroy(dev)
	}
	for _, b := range rc.storage {
		dev.DestroyBuffer(b)
	}
	for _, m := range rc.meshes {
		dev.DestroyBuffer(m.buf)
	}
	*rc = resourceCache{}
}

func (rc *resourceCache) count(r *device.ResourceCounts) {
	if rc == nil {
		return
	}
	r.ShaderModules += len(rc.modules)
	r.Pipelines += len(rc.pipelines)
	r.Layouts += 3 * len(rc.pipelines)
	r.Buffers += len(rc.meshes) + len(rc.storage)
	for _, t := range rc.textures {
		t.count(r)
	}
	for _, b := range rc.groups {
		r.BindGroups++
		if b.params != nil {
			r.Buffers++
		}
	}
}

func (rc *resourceCache) moduleKeys() []compiler.Key {
	if rc == nil {
		return nil
	}
	return sortedKeys(rc.modules)
}

func (p *pipeline) destroy(dev hal.Device) {
	if p.pipe != nil {
		dev.DestroyRenderPipeline(p.pipe)
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
	}
	for _, l := range p.stageLayouts {
		if l != nil {
			dev.DestroyBindGroupLayout(l)
		}
	}
}

func (b *bindings) destroy(dev hal.Device) {
	if b.group != nil {
		dev.DestroyBindGroup(b.group)
	}
	if b.params != nil {
		dev.DestroyBuffer(b.params)
	}
}

// drawCall is one draw with every object it binds resolved.
type drawCall struct {
	pipe     *pipeline
	vertex   *bindings
	fragment *bindings
	mesh     *meshBuffer
}

// render records and submits one frame, then waits for the queue. Draws
// whose programs carry no SPIR-V are skipped and counted.
func (c *Context) render(f *device.Frame) (int, error) {
	g := c.gpu
	if g == nil {
		// Dispose ran after CheckReady.
		return 0, device.ErrDisposed
	}
	if g.target.width != c.width || g.target.height != c.height {
		g.target.destroy(g.dev)
		t, err := newRenderTarget(g.dev, c.width, c.height)
		if err != nil {
			return 0, fmt.Errorf("wgpu: resize target: %w", err)
		}
		g.target = t
	}
	if err := g.queue.WriteBuffer(g.frame.uniform, 0, compiler.PackFrame(f.ViewProj.Float32(), float32(f.Time))); err != nil {
		return 0, fmt.Errorf("wgpu: frame uniforms: %w", err)
	}

	g.cache.frame++
	skipped := 0
	calls := make([]drawCall, 0, len(f.Draws))
	for _, d := range f.Draws {
		vs, fs := d.Programs.Position(), d.Programs.Color()
		if len(vs.Artifact.SPIRV) == 0 || len(fs.Artifact.SPIRV) == 0 {
			skipped++
			continue
		}
		call, err := g.prepare(d.Mesh, vs, fs)
		if err != nil {
			return skipped, err
		}
		calls = append(calls, call)
	}
	if err := g.submit(calls, c.opts.ClearColor); err != nil {
		return skipped, err
	}
	if n := g.cache.sweep(g.dev); n > 0 {
		logging.Logger().Debug("wgpu: released unused objects", "count", n, "frame", f.Number)
	}
	return skipped, nil
}

func (g *gpu) prepare(m *scene.Mesh, vs, fs *compiler.Program) (drawCall, error) {
	var call drawCall
	var err error
	if call.pipe, err = g.pipeline(vs, fs); err != nil {
		return call, err
	}
	pk := pipelineKey{vertex: vs.Key, fragment: fs.Key}
	if call.vertex, err = g.bind(pk, vs, m.Material, call.pipe.stageLayouts[0]); err != nil {
		return call, err
	}
	if call.fragment, err = g.bind(pk, fs, m.Material, call.pipe.stageLayouts[1]); err != nil {
		return call, err
	}
	call.mesh, err = g.mesh(m.Geometry)
	return call, err
}

func (g *gpu) submit(calls []drawCall, clear [4]float64) error {
	enc, err := g.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "shade_frame"})
	if err != nil {
		return fmt.Errorf("wgpu: command encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("shade_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "shade_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       g.target.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: clear[0], G: clear[1], B: clear[2], A: clear[3]},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            g.target.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1,
		},
	})
	for _, d := range calls {
		pass.SetPipeline(d.pipe.pipe)
		pass.SetBindGroup(compiler.GroupFrame, g.frame.group, nil)
		pass.SetBindGroup(compiler.GroupVertex, d.vertex.group, nil)
		pass.SetBindGroup(compiler.GroupFragment, d.fragment.group, nil)
		pass.SetVertexBuffer(0, d.mesh.buf, 0)
		pass.Draw(d.mesh.count, 1, 0, 0)
	}
	pass.End()

	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer g.dev.FreeCommandBuffer(cmd)
	if _, err := g.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := g.dev.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}

func (g *gpu) module(p *compiler.Program) (hal.ShaderModule, error) {
	g.cache.touch(p.Key)
	if m, ok := g.cache.modules[p.Key]; ok {
		return m, nil
	}
	m, err := g.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.Key.String(),
		Source: hal.ShaderSource{SPIRV: p.Artifact.SPIRV},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: shader module %s: %w", p.Key, err)
	}
	g.cache.modules[p.Key] = m
	return m, nil
}

func (g *gpu) pipeline(vs, fs *compiler.Program) (_ *pipeline, err error) {
	key := pipelineKey{vertex: vs.Key, fragment: fs.Key}
	g.cache.touch(key)
	if p, ok := g.cache.pipelines[key]; ok {
		g.cache.touch(vs.Key)
		g.cache.touch(fs.Key)
		return p, nil
	}
	vm, err := g.module(vs)
	if err != nil {
		return nil, err
	}
	fm, err := g.module(fs)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}
	defer func() {
		if err != nil {
			p.destroy(g.dev)
		}
	}()
	for i, prog := range []*compiler.Program{vs, fs} {
		if p.stageLayouts[i], err = g.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   prog.Key.String() + "_layout",
			Entries: layoutEntries(prog),
		}); err != nil {
			return nil, fmt.Errorf("wgpu: bind group layout %s: %w", prog.Key, err)
		}
	}
	if p.layout, err = g.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "shade_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{g.frame.layout, p.stageLayouts[0], p.stageLayouts[1]},
	}); err != nil {
		return nil, fmt.Errorf("wgpu: pipeline layout: %w", err)
	}

	p.pipe, err = g.dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "shade_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     vm,
			EntryPoint: vs.EntryPoint,
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: scene.VertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
				},
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
			StencilBack:       hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     fm,
			EntryPoint: fs.EntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    ColorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: render pipeline %s+%s: %w", vs.Key, fs.Key, err)
	}
	g.cache.pipelines[key] = p
	return p, nil
}

func layoutEntries(p *compiler.Program) []gputypes.BindGroupLayoutEntry {
	vis := gputypes.ShaderStageFragment
	if p.Stage == compiler.StageVertex {
		vis = gputypes.ShaderStageVertex
	}
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(p.Layout.Bindings))
	for _, b := range p.Layout.Bindings {
		e := gputypes.BindGroupLayoutEntry{Binding: b.Binding, Visibility: vis}
		switch b.Kind {
		case compiler.BindUniform:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case compiler.BindTexture:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case compiler.BindSampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		case compiler.BindStorage:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
		}
		entries = append(entries, e)
	}
	return entries
}

// bind returns the stage bind group of p for m under pipeline pk and
// refreshes its params.
func (g *gpu) bind(pk pipelineKey, p *compiler.Program, m *scene.Material, layout hal.BindGroupLayout) (*bindings, error) {
	key := groupKey{pipeline: pk, program: p.Key, material: m}
	g.cache.touch(key)
	resource := make([]any, 0, len(p.Layout.Bindings))
	for _, b := range p.Layout.Bindings {
		switch b.Kind {
		case compiler.BindTexture:
			t := m.Texture(b.Name)
			if t != nil {
				g.cache.touch(t)
			}
			resource = append(resource, t)
		case compiler.BindStorage:
			sb := m.Storage(b.Name)
			if sb != nil {
				g.cache.touch(sb)
			}
			resource = append(resource, sb)
		}
	}

	b, ok := g.cache.groups[key]
	if ok && !slices.Equal(b.resource, resource) {
		b.destroy(g.dev)
		delete(g.cache.groups, key)
		ok = false
	}
	if !ok {
		var err error
		if b, err = g.newBindings(p, m, layout); err != nil {
			return nil, err
		}
		b.resource = resource
		g.cache.groups[key] = b
	}
	if b.params != nil {
		if err := g.queue.WriteBuffer(b.params, 0, p.Layout.PackParams(m)); err != nil {
			return nil, fmt.Errorf("wgpu: params %s: %w", p.Key, err)
		}
	}
	return b, nil
}

func (g *gpu) newBindings(p *compiler.Program, m *scene.Material, layout hal.BindGroupLayout) (_ *bindings, err error) {
	b := &bindings{}
	defer func() {
		if err != nil {
			b.destroy(g.dev)
		}
	}()
	if p.Layout.ParamsSize > 0 {
		if b.params, err = g.dev.CreateBuffer(&hal.BufferDescriptor{
			Label: p.Key.String() + "_params",
			Size:  uint64(p.Layout.ParamsSize),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		}); err != nil {
			return nil, fmt.Errorf("wgpu: params buffer: %w", err)
		}
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(p.Layout.Bindings))
	for _, lb := range p.Layout.Bindings {
		e := gputypes.BindGroupEntry{Binding: lb.Binding}
		switch lb.Kind {
		case compiler.BindUniform:
			e.Resource = gputypes.BufferBinding{Buffer: b.params.NativeHandle(), Size: uint64(p.Layout.ParamsSize)}
		case compiler.BindTexture:
			tex, err := g.texture(m.Texture(lb.Name))
			if err != nil {
				return nil, err
			}
			e.Resource = gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}
		case compiler.BindSampler:
			e.Resource = gputypes.SamplerBinding{Sampler: g.frame.sampler.NativeHandle()}
		case compiler.BindStorage:
			buf, size, err := g.storageBuffer(m.Storage(lb.Name))
			if err != nil {
				return nil, err
			}
			e.Resource = gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: size}
		}
		entries = append(entries, e)
	}
	if b.group, err = g.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.Key.String() + "_group",
		Layout:  layout,
		Entries: entries,
	}); err != nil {
		return nil, fmt.Errorf("wgpu: bind group %s: %w", p.Key, err)
	}
	return b, nil
}

// texture uploads t on first use, downscaled to the device limit. A nil
// t binds the white placeholder.
func (g *gpu) texture(t *scene.Texture) (*gpuTexture, error) {
	if t == nil {
		return g.frame.white, nil
	}
	g.cache.touch(t)
	if gt, ok := g.cache.textures[t]; ok {
		return gt, nil
	}
	src := t.Resized(int(gputypes.DefaultLimits().MaxTextureDimension2D))
	gt, err := uploadPixels(g.dev, g.queue, "shade_texture", src.Width(), src.Height(), src.Pix())
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	g.cache.textures[t] = gt
	return gt, nil
}

// storageBuffer uploads s on first use. A nil s binds the zero placeholder.
func (g *gpu) storageBuffer(s *scene.StorageBuffer) (hal.Buffer, uint64, error) {
	if s == nil {
		return g.frame.zeros, 16, nil
	}
	data := s.Bytes()
	size := uint64(len(data))
	g.cache.touch(s)
	if buf, ok := g.cache.storage[s]; ok {
		return buf, size, nil
	}
	buf, err := g.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "shade_storage",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("wgpu: storage buffer: %w", err)
	}
	if err := g.queue.WriteBuffer(buf, 0, data); err != nil {
		g.dev.DestroyBuffer(buf)
		return nil, 0, fmt.Errorf("wgpu: storage upload: %w", err)
	}
	g.cache.storage[s] = buf
	return buf, size, nil
}

func (g *gpu) mesh(geo *scene.Geometry) (*meshBuffer, error) {
	g.cache.touch(geo)
	if m, ok := g.cache.meshes[geo]; ok {
		return m, nil
	}
	data := vertexBytes(geo)
	buf, err := g.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "shade_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: vertex buffer: %w", err)
	}
	if err := g.queue.WriteBuffer(buf, 0, data); err != nil {
		g.dev.DestroyBuffer(buf)
		return nil, fmt.Errorf("wgpu: vertex upload: %w", err)
	}
	m := &meshBuffer{buf: buf, count: uint32(geo.IndexCount())}
	g.cache.meshes[geo] = m
	return m, nil
}
