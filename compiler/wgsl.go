// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/shade/node"
)

const wgslInterface = `struct Frame {
    view_proj: mat4x4<f32>,
    time: f32,
}

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) local: vec3<f32>,
}

struct FragmentInput {
    @location(0) uv: vec2<f32>,
    @location(1) local: vec3<f32>,
}

@group(0) @binding(0) var<uniform> frame: Frame;
`

// wgslWriter emits one entry point evaluating a graph. Every node in
// dependency order becomes one let binding, so shared sub-expressions are
// computed once.
type wgslWriter struct {
	b      strings.Builder
	g      *node.Graph
	stage  Stage
	layout *Layout
	names  map[node.Hash]string
}

func generateWGSL(g *node.Graph, stage Stage, layout *Layout) (string, error) {
	w := &wgslWriter{g: g, stage: stage, layout: layout, names: make(map[node.Hash]string, g.Len())}
	w.b.WriteString(wgslInterface)
	w.writeResources()
	if err := w.writeEntry(); err != nil {
		return "", err
	}
	return w.b.String(), nil
}

func (w *wgslWriter) printf(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
}

func (w *wgslWriter) writeResources() {
	l := w.layout
	if l.ParamsSize > 0 {
		w.printf("\nstruct Params {\n")
		for _, f := range l.Fields {
			w.printf("    u_%s: %s,\n", f.Name, f.Type.WGSL())
		}
		w.printf("}\n\n@group(%d) @binding(%d) var<uniform> params: Params;\n", l.Group, BindingParams)
	}
	for _, b := range l.Bindings {
		switch b.Kind {
		case BindTexture:
			w.printf("@group(%d) @binding(%d) var t_%s: texture_2d<f32>;\n", l.Group, b.Binding, b.Name)
		case BindSampler:
			w.printf("@group(%d) @binding(%d) var s_%s: sampler;\n", l.Group, b.Binding, b.Name)
		case BindStorage:
			w.printf("@group(%d) @binding(%d) var<storage, read> b_%s: array<f32>;\n", l.Group, b.Binding, b.Name)
		}
	}
}

func (w *wgslWriter) writeEntry() error {
	if w.stage == StageVertex {
		w.printf("\n@vertex\nfn vs_main(vert: VertexInput) -> VertexOutput {\n")
	} else {
		w.printf("\n@fragment\nfn fs_main(frag: FragmentInput) -> @location(0) vec4<f32> {\n")
	}
	nodes := w.g.Nodes()
	for i, n := range nodes {
		expr, err := w.expr(n)
		if err != nil {
			return err
		}
		name := "v_" + strconv.Itoa(i)
		w.names[n.Hash()] = name
		w.printf("    let %s: %s = %s;\n", name, n.Type().WGSL(), expr)
	}
	result := w.names[w.g.Hash()]
	if w.stage == StageVertex {
		w.printf("    var out: VertexOutput;\n")
		w.printf("    out.clip = frame.view_proj * vec4<f32>(%s, 1.0);\n", result)
		w.printf("    out.uv = vert.uv;\n")
		w.printf("    out.local = %s;\n", result)
		w.printf("    return out;\n}\n")
		return nil
	}
	w.printf("    return %s;\n}\n", result)
	return nil
}

func (w *wgslWriter) arg(n *node.Node, i int) string { return w.names[n.Input(i).Hash()] }

// splat widens a Float operand to t.
func (w *wgslWriter) splat(n *node.Node, i int, t node.Type) string {
	in := n.Input(i)
	if in.Type() == node.Float && t != node.Float {
		return t.WGSL() + "(" + w.arg(n, i) + ")"
	}
	return w.arg(n, i)
}

var arithSymbols = map[node.Op]string{
	node.OpAdd: "+",
	node.OpSub: "-",
	node.OpMul: "*",
	node.OpDiv: "/",
}

func (w *wgslWriter) expr(n *node.Node) (string, error) {
	switch op := n.Op(); op {
	case node.OpConst:
		return wgslLiteral(n.Value()), nil
	case node.OpUniform:
		return "params.u_" + n.Name(), nil
	case node.OpTime:
		return "frame.time", nil
	case node.OpPosition:
		if w.stage == StageVertex {
			return "vert.position", nil
		}
		return "frag.local", nil
	case node.OpUV:
		if w.stage == StageVertex {
			return "vert.uv", nil
		}
		return "frag.uv", nil

	case node.OpAdd, node.OpSub, node.OpMul, node.OpDiv:
		sym := arithSymbols[op]
		a, b := w.arg(n, 0), w.arg(n, 1)
		ta, tb := n.Input(0).Type(), n.Input(1).Type()
		switch {
		case ta == node.Color && tb == node.Float:
			return fmt.Sprintf("vec4<f32>(%s.rgb %s %s, %s.a)", a, sym, b, a), nil
		case ta == node.Float && tb == node.Color:
			return fmt.Sprintf("vec4<f32>(%s %s %s.rgb, %s.a)", a, sym, b, b), nil
		}
		return fmt.Sprintf("(%s %s %s)", a, sym, b), nil
	case node.OpNeg:
		return "(-" + w.arg(n, 0) + ")", nil
	case node.OpSin, node.OpCos, node.OpAbs, node.OpFloor, node.OpFract, node.OpSqrt,
		node.OpLength, node.OpNormalize:
		return fmt.Sprintf("%s(%s)", op, w.arg(n, 0)), nil
	case node.OpPow:
		return fmt.Sprintf("pow(abs(%s), %s)", w.arg(n, 0), w.arg(n, 1)), nil
	case node.OpMin, node.OpMax, node.OpDot:
		return fmt.Sprintf("%s(%s, %s)", op, w.arg(n, 0), w.arg(n, 1)), nil
	case node.OpClamp:
		t := n.Type()
		return fmt.Sprintf("clamp(%s, %s, %s)", w.arg(n, 0), w.splat(n, 1, t), w.splat(n, 2, t)), nil
	case node.OpMix:
		t := n.Type()
		return fmt.Sprintf("mix(%s, %s, %s)", w.arg(n, 0), w.arg(n, 1), w.splat(n, 2, t)), nil
	case node.OpSwizzle:
		return w.arg(n, 0) + "." + n.Name(), nil
	case node.OpConstruct:
		parts := make([]string, n.NumInputs())
		for i := range parts {
			parts[i] = w.arg(n, i)
		}
		return n.Type().WGSL() + "(" + strings.Join(parts, ", ") + ")", nil
	case node.OpLuminance:
		return fmt.Sprintf("dot(%s.rgb, vec3<f32>(0.2126, 0.7152, 0.0722))", w.arg(n, 0)), nil
	case node.OpTextureSample:
		return fmt.Sprintf("textureSampleLevel(t_%s, s_%s, %s, 0.0)", n.Name(), n.Name(), w.arg(n, 0)), nil
	case node.OpStorageRead:
		b := "b_" + n.Name()
		return fmt.Sprintf("%s[min(u32(max(floor(%s), 0.0)), arrayLength(&%s) - 1u)]", b, w.arg(n, 0), b), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, n.Op())
}

// wgslFloat formats f as an f32 literal that always carries a decimal point.
func wgslFloat(f float64) string {
	s := strconv.FormatFloat(float64(float32(f)), 'f', -1, 32)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func wgslLiteral(v node.Value) string {
	if v.Type == node.Float {
		return wgslFloat(v.V[0])
	}
	lanes := v.Lanes()
	parts := make([]string, len(lanes))
	for i, f := range lanes {
		parts[i] = wgslFloat(f)
	}
	return v.Type.WGSL() + "(" + strings.Join(parts, ", ") + ")"
}
