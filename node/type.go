// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import "fmt"

// Type is the value type carried by a node output.
type Type uint8

// Node value types.
const (
	Invalid Type = iota
	Float
	Vec2
	Vec3
	Vec4
	Color
)

var typeNames = [...]string{
	Invalid: "invalid",
	Float:   "float",
	Vec2:    "vec2",
	Vec3:    "vec3",
	Vec4:    "vec4",
	Color:   "color",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Components returns the number of scalar lanes of t.
func (t Type) Components() int {
	switch t {
	case Float:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4, Color:
		return 4
	}
	return 0
}

// IsVector reports whether t has more than one lane.
func (t Type) IsVector() bool { return t.Components() > 1 }

// Valid reports whether t is a usable value type.
func (t Type) Valid() bool { return t >= Float && t <= Color }

// WGSL returns the WGSL spelling of t.
func (t Type) WGSL() string {
	switch t {
	case Float:
		return "f32"
	case Vec2:
		return "vec2<f32>"
	case Vec3:
		return "vec3<f32>"
	case Vec4, Color:
		return "vec4<f32>"
	}
	return "invalid"
}

// ParseType converts a type name back to a Type.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if i != int(Invalid) && n == s {
			return Type(i), nil
		}
	}
	return Invalid, fmt.Errorf("node: unknown type %q", s)
}

// vectorOf returns the plain vector (or Float) type with n lanes.
func vectorOf(n int) Type {
	switch n {
	case 1:
		return Float
	case 2:
		return Vec2
	case 3:
		return Vec3
	case 4:
		return Vec4
	}
	return Invalid
}
