// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"fmt"
	"strings"
)

// Const returns a constant node.
func Const(v Value) (*Node, error) {
	if !v.Type.Valid() {
		return nil, fmt.Errorf("node: const: invalid type %v", v.Type)
	}
	return newNode(OpConst, v.Type, v, ""), nil
}

// Num returns a Float constant.
func Num(f float64) *Node { return Must(Const(Scalar(f))) }

// Vec returns a Vec2, Vec3 or Vec4 constant. It panics for other lane counts.
func Vec(c ...float64) *Node { return Must(Const(Vector(c...))) }

// RGBA returns a Color constant.
func RGBA(r, g, b, a float64) *Node { return Must(Const(RGBAValue(r, g, b, a))) }

// Uniform returns a named per-material input. def fixes the type and the
// value used when the material does not set one.
func Uniform(name string, def Value) (*Node, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrName, name)
	}
	if !def.Type.Valid() {
		return nil, fmt.Errorf("node: uniform %q: invalid type %v", name, def.Type)
	}
	return newNode(OpUniform, def.Type, def, name), nil
}

// Time returns the elapsed frame time in seconds.
func Time() *Node { return newNode(OpTime, Float, Value{}, "") }

// Position returns the object-space vertex position.
func Position() *Node { return newNode(OpPosition, Vec3, Value{}, "") }

// UV returns the first texture coordinate set.
func UV() *Node { return newNode(OpUV, Vec2, Value{}, "") }

// arithType applies the Add/Sub/Mul/Div rule: equal types, or a Float
// broadcast against any other type.
func arithType(op Op, a, b *Node) (Type, error) {
	switch {
	case a.typ == b.typ:
		return a.typ, nil
	case a.typ == Float:
		return b.typ, nil
	case b.typ == Float:
		return a.typ, nil
	}
	return Invalid, &TypeError{Op: op, Arg: 1, Want: a.typ.String() + " or float", Got: b.typ}
}

func arith(op Op, a, b *Node) (*Node, error) {
	if err := checkNil(a, b); err != nil {
		return nil, fmt.Errorf("node: %s: %w", op, err)
	}
	t, err := arithType(op, a, b)
	if err != nil {
		return nil, err
	}
	return newNode(op, t, Value{}, "", a, b), nil
}

// Add returns a + b.
func Add(a, b *Node) (*Node, error) { return arith(OpAdd, a, b) }

// Sub returns a - b.
func Sub(a, b *Node) (*Node, error) { return arith(OpSub, a, b) }

// Mul returns a * b, component-wise.
func Mul(a, b *Node) (*Node, error) { return arith(OpMul, a, b) }

// Div returns a / b, component-wise.
func Div(a, b *Node) (*Node, error) { return arith(OpDiv, a, b) }

func unary(op Op, a *Node) (*Node, error) {
	if a == nil {
		return nil, fmt.Errorf("node: %s: %w", op, ErrNilInput)
	}
	return newNode(op, a.typ, Value{}, "", a), nil
}

// Neg returns -a.
func Neg(a *Node) (*Node, error) { return unary(OpNeg, a) }

// Sin returns sin(a).
func Sin(a *Node) (*Node, error) { return unary(OpSin, a) }

// Cos returns cos(a).
func Cos(a *Node) (*Node, error) { return unary(OpCos, a) }

// Abs returns |a|.
func Abs(a *Node) (*Node, error) { return unary(OpAbs, a) }

// Floor returns floor(a).
func Floor(a *Node) (*Node, error) { return unary(OpFloor, a) }

// Fract returns a - floor(a).
func Fract(a *Node) (*Node, error) { return unary(OpFract, a) }

// Sqrt returns the square root of a.
func Sqrt(a *Node) (*Node, error) { return unary(OpSqrt, a) }

func sameType(op Op, a, b *Node) (*Node, error) {
	if err := checkNil(a, b); err != nil {
		return nil, fmt.Errorf("node: %s: %w", op, err)
	}
	if a.typ != b.typ {
		return nil, &TypeError{Op: op, Arg: 1, Want: a.typ.String(), Got: b.typ}
	}
	return newNode(op, a.typ, Value{}, "", a, b), nil
}

// Pow returns |a| raised to b, lane by lane. Both inputs must have the same
// type. Negative bases use their magnitude, so results match shader pow
// wherever that is defined.
func Pow(a, b *Node) (*Node, error) { return sameType(OpPow, a, b) }

// Min returns the component-wise minimum.
func Min(a, b *Node) (*Node, error) { return sameType(OpMin, a, b) }

// Max returns the component-wise maximum.
func Max(a, b *Node) (*Node, error) { return sameType(OpMax, a, b) }

// Clamp limits x to [lo, hi]. Bounds have the type of x or are Float.
func Clamp(x, lo, hi *Node) (*Node, error) {
	if err := checkNil(x, lo, hi); err != nil {
		return nil, fmt.Errorf("node: clamp: %w", err)
	}
	for i, b := range []*Node{lo, hi} {
		if b.typ != x.typ && b.typ != Float {
			return nil, &TypeError{Op: OpClamp, Arg: i + 1, Want: x.typ.String() + " or float", Got: b.typ}
		}
	}
	return newNode(OpClamp, x.typ, Value{}, "", x, lo, hi), nil
}

// Mix linearly interpolates from a to b by t. t is Float or the type of a.
func Mix(a, b, t *Node) (*Node, error) {
	if err := checkNil(a, b, t); err != nil {
		return nil, fmt.Errorf("node: mix: %w", err)
	}
	if b.typ != a.typ {
		return nil, &TypeError{Op: OpMix, Arg: 1, Want: a.typ.String(), Got: b.typ}
	}
	if t.typ != Float && t.typ != a.typ {
		return nil, &TypeError{Op: OpMix, Arg: 2, Want: a.typ.String() + " or float", Got: t.typ}
	}
	return newNode(OpMix, a.typ, Value{}, "", a, b, t), nil
}

func plainVector(t Type) bool { return t >= Vec2 && t <= Vec4 }

// Dot returns the dot product of two vectors of equal type.
func Dot(a, b *Node) (*Node, error) {
	if err := checkNil(a, b); err != nil {
		return nil, fmt.Errorf("node: dot: %w", err)
	}
	if !plainVector(a.typ) {
		return nil, &TypeError{Op: OpDot, Arg: 0, Want: "vector", Got: a.typ}
	}
	if b.typ != a.typ {
		return nil, &TypeError{Op: OpDot, Arg: 1, Want: a.typ.String(), Got: b.typ}
	}
	return newNode(OpDot, Float, Value{}, "", a, b), nil
}

// Length returns the Euclidean length of a Float or vector.
func Length(a *Node) (*Node, error) {
	if a == nil {
		return nil, fmt.Errorf("node: length: %w", ErrNilInput)
	}
	if a.typ == Color {
		return nil, &TypeError{Op: OpLength, Arg: 0, Want: "float or vector", Got: a.typ}
	}
	return newNode(OpLength, Float, Value{}, "", a), nil
}

// Normalize returns a scaled to unit length.
func Normalize(a *Node) (*Node, error) {
	if a == nil {
		return nil, fmt.Errorf("node: normalize: %w", ErrNilInput)
	}
	if !plainVector(a.typ) {
		return nil, &TypeError{Op: OpNormalize, Arg: 0, Want: "vector", Got: a.typ}
	}
	return newNode(OpNormalize, a.typ, Value{}, "", a), nil
}

// Swizzle selects lanes of a vector or color by pattern ("xyz", "rgb", "w").
// The result is Float for one lane and a plain vector otherwise.
func Swizzle(a *Node, pattern string) (*Node, error) {
	if a == nil {
		return nil, fmt.Errorf("node: swizzle: %w", ErrNilInput)
	}
	if !a.typ.IsVector() {
		return nil, &TypeError{Op: OpSwizzle, Arg: 0, Want: "vector or color", Got: a.typ}
	}
	norm, err := normalizeSwizzle(pattern, a.typ.Components())
	if err != nil {
		return nil, err
	}
	return newNode(OpSwizzle, vectorOf(len(norm)), Value{}, norm, a), nil
}

func normalizeSwizzle(pattern string, lanes int) (string, error) {
	if len(pattern) == 0 || len(pattern) > 4 {
		return "", fmt.Errorf("node: swizzle: bad pattern %q", pattern)
	}
	var b strings.Builder
	for _, r := range pattern {
		idx := strings.IndexRune("xyzw", r)
		if idx < 0 {
			idx = strings.IndexRune("rgba", r)
		}
		if idx < 0 || idx >= lanes {
			return "", fmt.Errorf("node: swizzle: component %q out of range for %d lanes", r, lanes)
		}
		b.WriteByte("xyzw"[idx])
	}
	return b.String(), nil
}

// Construct assembles a vector or color of type t from parts whose lane
// counts add up to the lanes of t.
func Construct(t Type, parts ...*Node) (*Node, error) {
	if !t.IsVector() {
		return nil, fmt.Errorf("node: construct: %v is not a vector type", t)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("node: construct: %w", ErrNilInput)
	}
	if err := checkNil(parts...); err != nil {
		return nil, fmt.Errorf("node: construct: %w", err)
	}
	lanes := 0
	for _, p := range parts {
		lanes += p.typ.Components()
	}
	if lanes != t.Components() {
		return nil, fmt.Errorf("node: construct: %v needs %d lanes, parts give %d", t, t.Components(), lanes)
	}
	return newNode(OpConstruct, t, Value{}, "", parts...), nil
}

// Luminance returns the Rec. 709 luminance of a color.
func Luminance(c *Node) (*Node, error) {
	if c == nil {
		return nil, fmt.Errorf("node: luminance: %w", ErrNilInput)
	}
	if c.typ != Color {
		return nil, &TypeError{Op: OpLuminance, Arg: 0, Want: Color.String(), Got: c.typ}
	}
	return newNode(OpLuminance, Float, Value{}, "", c), nil
}

// TextureSample samples the named texture at uv with bilinear filtering and
// clamp-to-edge addressing.
func TextureSample(name string, uv *Node) (*Node, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrName, name)
	}
	if uv == nil {
		return nil, fmt.Errorf("node: texture: %w", ErrNilInput)
	}
	if uv.typ != Vec2 {
		return nil, &TypeError{Op: OpTextureSample, Arg: 0, Want: Vec2.String(), Got: uv.typ}
	}
	return newNode(OpTextureSample, Color, Value{}, name, uv), nil
}

// StorageRead reads element floor(index) of the named storage buffer.
// Out-of-range indices clamp to the buffer bounds.
func StorageRead(name string, index *Node) (*Node, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrName, name)
	}
	if index == nil {
		return nil, fmt.Errorf("node: storage: %w", ErrNilInput)
	}
	if index.typ != Float {
		return nil, &TypeError{Op: OpStorageRead, Arg: 0, Want: Float.String(), Got: index.typ}
	}
	return newNode(OpStorageRead, Float, Value{}, name, index), nil
}

// Attrs carries the non-edge parameters of a node.
type Attrs struct {
	Name  string // uniform, texture or storage name; swizzle pattern
	Type  Type   // OpConstruct result type
	Value Value  // OpConst value, OpUniform default
}

// Attrs returns the parameters needed to rebuild n with Apply.
func (n *Node) Attrs() Attrs {
	a := Attrs{Name: n.name, Value: n.value}
	if n.op == OpConstruct {
		a.Type = n.typ
	}
	return a
}

// Apply builds a node of kind op from attributes and inputs. It routes to
// the typed constructors, so the same checks apply.
func Apply(op Op, attrs Attrs, inputs ...*Node) (*Node, error) {
	arity := func(n int) error {
		if len(inputs) != n {
			return fmt.Errorf("node: %s takes %d inputs, got %d", op, n, len(inputs))
		}
		return nil
	}
	var err error
	switch op {
	case OpConst, OpUniform, OpTime, OpPosition, OpUV:
		err = arity(0)
	case OpAdd, OpSub, OpMul, OpDiv, OpPow, OpMin, OpMax, OpDot:
		err = arity(2)
	case OpClamp, OpMix:
		err = arity(3)
	case OpConstruct:
	default:
		err = arity(1)
	}
	if err != nil {
		return nil, err
	}

	switch op {
	case OpConst:
		return Const(attrs.Value)
	case OpUniform:
		return Uniform(attrs.Name, attrs.Value)
	case OpTime:
		return Time(), nil
	case OpPosition:
		return Position(), nil
	case OpUV:
		return UV(), nil
	case OpAdd:
		return Add(inputs[0], inputs[1])
	case OpSub:
		return Sub(inputs[0], inputs[1])
	case OpMul:
		return Mul(inputs[0], inputs[1])
	case OpDiv:
		return Div(inputs[0], inputs[1])
	case OpNeg, OpSin, OpCos, OpAbs, OpFloor, OpFract, OpSqrt:
		return unary(op, inputs[0])
	case OpPow, OpMin, OpMax:
		return sameType(op, inputs[0], inputs[1])
	case OpClamp:
		return Clamp(inputs[0], inputs[1], inputs[2])
	case OpMix:
		return Mix(inputs[0], inputs[1], inputs[2])
	case OpDot:
		return Dot(inputs[0], inputs[1])
	case OpLength:
		return Length(inputs[0])
	case OpNormalize:
		return Normalize(inputs[0])
	case OpSwizzle:
		return Swizzle(inputs[0], attrs.Name)
	case OpConstruct:
		return Construct(attrs.Type, inputs...)
	case OpLuminance:
		return Luminance(inputs[0])
	case OpTextureSample:
		return TextureSample(attrs.Name, inputs[0])
	case OpStorageRead:
		return StorageRead(attrs.Name, inputs[0])
	}
	return nil, fmt.Errorf("node: unknown op %v", op)
}
