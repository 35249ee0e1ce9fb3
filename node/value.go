// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a constant of a node Type. Unused lanes are zero.
type Value struct {
	Type Type
	V    [4]float64
}

// Scalar returns a Float value.
func Scalar(f float64) Value { return Value{Type: Float, V: [4]float64{f}} }

// Vector returns a Vec2, Vec3 or Vec4 value depending on the lane count.
func Vector(c ...float64) Value {
	v := Value{Type: vectorOf(len(c))}
	if len(c) == 1 || v.Type == Invalid {
		return Value{}
	}
	copy(v.V[:], c)
	return v
}

// RGBAValue returns a Color value.
func RGBAValue(r, g, b, a float64) Value {
	return Value{Type: Color, V: [4]float64{r, g, b, a}}
}

// ValueOf builds a value of type t from lanes. The lane count must match.
func ValueOf(t Type, lanes []float64) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("node: invalid value type %v", t)
	}
	if len(lanes) != t.Components() {
		return Value{}, fmt.Errorf("node: %v needs %d components, got %d", t, t.Components(), len(lanes))
	}
	v := Value{Type: t}
	copy(v.V[:], lanes)
	return v, nil
}

// Lanes returns the meaningful components of v.
func (v Value) Lanes() []float64 {
	return append([]float64(nil), v.V[:v.Type.Components()]...)
}

func (v Value) String() string {
	parts := make([]string, 0, 4)
	for _, f := range v.V[:v.Type.Components()] {
		parts = append(parts, strconv.FormatFloat(f, 'g', -1, 64))
	}
	return v.Type.String() + "(" + strings.Join(parts, ", ") + ")"
}
