// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"math"
	"strings"

	"github.com/chewxy/math32"

	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

// Resources supplies the per-material inputs a kernel reads.
// *scene.Material implements it.
type Resources interface {
	Uniform(name string) (node.Value, bool)
	Texture(name string) *scene.Texture
	Storage(name string) *scene.StorageBuffer
}

// Inputs is the evaluation environment of one kernel invocation.
// An Inputs value carries scratch registers and must not be shared between
// goroutines; reuse one per worker.
type Inputs struct {
	Time      float64
	Position  [3]float64 // object-space position (displaced, in fragment kernels)
	UV        [2]float64
	Resources Resources

	regs32 [][4]float32
	regs64 [][4]float64
}

// Kernel evaluates a compiled graph on the CPU.
type Kernel interface {
	// Eval returns the graph output. Unused lanes are zero.
	Eval(in *Inputs) [4]float64
	// Precision reports the float width in bits the kernel computes with.
	Precision() int
}

type float interface{ float32 | float64 }

type mathOps[F float] struct {
	sin, cos, abs, floor, sqrt func(F) F
	pow, min, max              func(F, F) F
}

var ops64 = &mathOps[float64]{
	sin: math.Sin, cos: math.Cos, abs: math.Abs, floor: math.Floor, sqrt: math.Sqrt,
	pow: math.Pow, min: math.Min, max: math.Max,
}

var ops32 = &mathOps[float32]{
	sin: math32.Sin, cos: math32.Cos, abs: math32.Abs, floor: math32.Floor, sqrt: math32.Sqrt,
	pow: math32.Pow, min: math32.Min, max: math32.Max,
}

// Placeholder texel for textures a material does not provide.
var missingTexel = [4]float64{1, 1, 1, 1}

type instr struct {
	op    node.Op
	typ   node.Type
	lanes int
	args  []int
	types []node.Type
	value node.Value
	name  string
	swz   []int
}

type kernel[F float] struct {
	prog []instr
	m    *mathOps[F]
	bits int
}

func newKernel[F float](g *node.Graph, m *mathOps[F], bits int) *kernel[F] {
	nodes := g.Nodes()
	index := make(map[node.Hash]int, len(nodes))
	k := &kernel[F]{prog: make([]instr, len(nodes)), m: m, bits: bits}
	for i, n := range nodes {
		index[n.Hash()] = i
		in := instr{
			op:    n.Op(),
			typ:   n.Type(),
			lanes: n.Type().Components(),
			value: n.Value(),
			name:  n.Name(),
		}
		for _, src := range n.Inputs() {
			in.args = append(in.args, index[src.Hash()])
			in.types = append(in.types, src.Type())
		}
		if in.op == node.OpSwizzle {
			for _, c := range in.name {
				in.swz = append(in.swz, strings.IndexRune("xyzw", c))
			}
		}
		k.prog[i] = in
	}
	return k
}

func (k *kernel[F]) Precision() int { return k.bits }

func registers[F float](in *Inputs, n int) [][4]F {
	var p *[][4]F
	switch any(F(0)).(type) {
	case float32:
		p = any(&in.regs32).(*[][4]F)
	default:
		p = any(&in.regs64).(*[][4]F)
	}
	if cap(*p) < n {
		*p = make([][4]F, n)
	}
	*p = (*p)[:n]
	return *p
}

func (k *kernel[F]) Eval(in *Inputs) [4]float64 {
	regs := registers[F](in, len(k.prog))
	for i := range k.prog {
		regs[i] = k.step(&k.prog[i], regs, in)
	}
	var out [4]float64
	last := k.prog[len(k.prog)-1]
	for i := range last.lanes {
		out[i] = float64(regs[len(regs)-1][i])
	}
	return out
}

func splat[F float](v [4]F, t node.Type) [4]F {
	if t == node.Float {
		return [4]F{v[0], v[0], v[0], v[0]}
	}
	return v
}

func (k *kernel[F]) step(ins *instr, regs [][4]F, in *Inputs) [4]F {
	var r [4]F
	m := k.m
	a := func(i int) [4]F { return regs[ins.args[i]] }

	switch ins.op {
	case node.OpConst:
		for i := range ins.lanes {
			r[i] = F(ins.value.V[i])
		}
	case node.OpUniform:
		v := ins.value
		if in.Resources != nil {
			if set, ok := in.Resources.Uniform(ins.name); ok && set.Type == ins.typ {
				v = set
			}
		}
		for i := range ins.lanes {
			r[i] = F(v.V[i])
		}
	case node.OpTime:
		r[0] = F(in.Time)
	case node.OpPosition:
		r = [4]F{F(in.Position[0]), F(in.Position[1]), F(in.Position[2])}
	case node.OpUV:
		r = [4]F{F(in.UV[0]), F(in.UV[1])}

	case node.OpAdd, node.OpSub, node.OpMul, node.OpDiv:
		x, y := splat(a(0), ins.types[0]), splat(a(1), ins.types[1])
		for i := range ins.lanes {
			switch ins.op {
			case node.OpAdd:
				r[i] = x[i] + y[i]
			case node.OpSub:
				r[i] = x[i] - y[i]
			case node.OpMul:
				r[i] = x[i] * y[i]
			case node.OpDiv:
				r[i] = x[i] / y[i]
			}
		}
		// Color with a scalar operand keeps the color's alpha.
		if ins.typ == node.Color {
			switch {
			case ins.types[1] == node.Float:
				r[3] = a(0)[3]
			case ins.types[0] == node.Float:
				r[3] = a(1)[3]
			}
		}
	case node.OpNeg:
		x := a(0)
		for i := range ins.lanes {
			r[i] = -x[i]
		}
	case node.OpSin, node.OpCos, node.OpAbs, node.OpFloor, node.OpFract, node.OpSqrt:
		x := a(0)
		for i := range ins.lanes {
			switch ins.op {
			case node.OpSin:
				r[i] = m.sin(x[i])
			case node.OpCos:
				r[i] = m.cos(x[i])
			case node.OpAbs:
				r[i] = m.abs(x[i])
			case node.OpFloor:
				r[i] = m.floor(x[i])
			case node.OpFract:
				r[i] = x[i] - m.floor(x[i])
			case node.OpSqrt:
				r[i] = m.sqrt(x[i])
			}
		}
	case node.OpPow, node.OpMin, node.OpMax:
		x, y := a(0), a(1)
		for i := range ins.lanes {
			switch ins.op {
			case node.OpPow:
				r[i] = m.pow(m.abs(x[i]), y[i])
			case node.OpMin:
				r[i] = m.min(x[i], y[i])
			case node.OpMax:
				r[i] = m.max(x[i], y[i])
			}
		}
	case node.OpClamp:
		x, lo, hi := a(0), splat(a(1), ins.types[1]), splat(a(2), ins.types[2])
		for i := range ins.lanes {
			r[i] = m.min(m.max(x[i], lo[i]), hi[i])
		}
	case node.OpMix:
		x, y, t := a(0), a(1), splat(a(2), ins.types[2])
		for i := range ins.lanes {
			r[i] = x[i]*(1-t[i]) + y[i]*t[i]
		}
	case node.OpDot:
		x, y := a(0), a(1)
		for i := range ins.types[0].Components() {
			r[0] += x[i] * y[i]
		}
	case node.OpLength:
		r[0] = k.length(a(0), ins.types[0].Components())
	case node.OpNormalize:
		x := a(0)
		l := k.length(x, ins.lanes)
		for i := range ins.lanes {
			r[i] = x[i] / l
		}
	case node.OpSwizzle:
		x := a(0)
		for i, c := range ins.swz {
			r[i] = x[c]
		}
	case node.OpConstruct:
		at := 0
		for p, src := range ins.args {
			x := regs[src]
			for i := range ins.types[p].Components() {
				r[at] = x[i]
				at++
			}
		}
	case node.OpLuminance:
		x := a(0)
		r[0] = F(0.2126)*x[0] + F(0.7152)*x[1] + F(0.0722)*x[2]
	case node.OpTextureSample:
		texel := missingTexel
		if in.Resources != nil {
			if tex := in.Resources.Texture(ins.name); tex != nil {
				uv := a(0)
				texel = tex.Sample(float64(uv[0]), float64(uv[1]))
			}
		}
		r = [4]F{F(texel[0]), F(texel[1]), F(texel[2]), F(texel[3])}
	case node.OpStorageRead:
		if in.Resources != nil {
			if buf := in.Resources.Storage(ins.name); buf != nil {
				// Clamp before converting; huge floats overflow int.
				idx := m.floor(a(0)[0])
				if idx != idx || idx < 0 {
					idx = 0
				}
				idx = min(idx, F(buf.Len()-1))
				r[0] = F(buf.At(int(idx)))
			}
		}
	}
	return r
}

func (k *kernel[F]) length(x [4]F, n int) F {
	var s F
	for i := range n {
		s += x[i] * x[i]
	}
	return k.m.sqrt(s)
}

// NewKernel builds the CPU kernel for g with the given float precision,
// 32 or 64 bits.
func NewKernel(g *node.Graph, bits int) Kernel {
	if bits == 32 {
		return newKernel(g, ops32, 32)
	}
	return newKernel(g, ops64, 64)
}
