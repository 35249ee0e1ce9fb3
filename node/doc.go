// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package node builds typed shading expressions.
//
// A Node is an immutable, pure computation with one typed output. Nodes are
// created through constructor functions that infer the output type from the
// inputs and reject mismatches immediately:
//
//	base := node.Must(node.Uniform("baseColor", node.RGBA(1, 0, 0, 1)))
//	wave := node.Must(node.Sin(node.Must(node.Mul(node.Time(), node.Num(2)))))
//	k := node.Must(node.Mul(node.Must(node.Add(wave, node.Num(1))), node.Num(0.5)))
//	color := node.Must(node.Mul(base, k))
//	g, err := node.NewGraph(color)
//
// A Graph fixes the dependency order and the structural hash of an
// expression. The hash depends only on operations, types, constants and
// names, never on object identity, so equal expressions built twice share
// compiled programs.
//
// # Color arithmetic
//
// Color is a four-component RGBA type distinct from Vec4. Mixing a Color
// with a Float in Add, Sub, Mul or Div touches only the RGB channels and
// keeps the alpha of the Color operand.
package node
