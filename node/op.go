// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package node

import "fmt"

// Op identifies the operation a node performs.
type Op uint8

// Operation kinds.
const (
	OpInvalid Op = iota

	// Leaves.
	OpConst
	OpUniform
	OpTime
	OpPosition
	OpUV

	// Arithmetic.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg

	// Component-wise math.
	OpSin
	OpCos
	OpAbs
	OpFloor
	OpFract
	OpSqrt
	OpPow
	OpMin
	OpMax
	OpClamp
	OpMix

	// Vector.
	OpDot
	OpLength
	OpNormalize
	OpSwizzle
	OpConstruct
	OpLuminance

	// Resources.
	OpTextureSample
	OpStorageRead

	opCount
)

var opNames = [...]string{
	OpInvalid:       "invalid",
	OpConst:         "const",
	OpUniform:       "uniform",
	OpTime:          "time",
	OpPosition:      "position",
	OpUV:            "uv",
	OpAdd:           "add",
	OpSub:           "sub",
	OpMul:           "mul",
	OpDiv:           "div",
	OpNeg:           "neg",
	OpSin:           "sin",
	OpCos:           "cos",
	OpAbs:           "abs",
	OpFloor:         "floor",
	OpFract:         "fract",
	OpSqrt:          "sqrt",
	OpPow:           "pow",
	OpMin:           "min",
	OpMax:           "max",
	OpClamp:         "clamp",
	OpMix:           "mix",
	OpDot:           "dot",
	OpLength:        "length",
	OpNormalize:     "normalize",
	OpSwizzle:       "swizzle",
	OpConstruct:     "construct",
	OpLuminance:     "luminance",
	OpTextureSample: "texture",
	OpStorageRead:   "storage",
}

func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// ParseOp converts an operation name back to an Op.
func ParseOp(s string) (Op, error) {
	for i := OpConst; i < opCount; i++ {
		if opNames[i] == s {
			return i, nil
		}
	}
	return OpInvalid, fmt.Errorf("node: unknown op %q", s)
}

// IsLeaf reports whether o takes no node inputs.
func (o Op) IsLeaf() bool { return o >= OpConst && o <= OpUV }

// IsUnaryMath reports whether o is a one-input component-wise function.
func (o Op) IsUnaryMath() bool {
	switch o {
	case OpNeg, OpSin, OpCos, OpAbs, OpFloor, OpFract, OpSqrt:
		return true
	}
	return false
}

// Feature is a backend capability an operation depends on.
type Feature uint32

// Backend features.
const (
	// FeatureTextures allows sampled textures.
	FeatureTextures Feature = 1 << iota

	// FeatureStorageBuffers allows read-only storage buffers in shading stages.
	FeatureStorageBuffers
)

func (f Feature) String() string {
	switch f {
	case FeatureTextures:
		return "textures"
	case FeatureStorageBuffers:
		return "storage-buffers"
	}
	return fmt.Sprintf("Feature(%#x)", uint32(f))
}

// Requires returns the features o needs from a backend.
func (o Op) Requires() Feature {
	switch o {
	case OpTextureSample:
		return FeatureTextures
	case OpStorageRead:
		return FeatureStorageBuffers
	}
	return 0
}
