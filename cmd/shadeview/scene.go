// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"os"

	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

func readGraph(path string) (*node.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := node.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// pulse is baseColor scaled by (sin(2t)+1)/2.
func pulse() (*node.Graph, error) {
	base, err := node.Uniform("baseColor", node.RGBAValue(1, 0.3, 0.1, 1))
	if err != nil {
		return nil, err
	}
	wave := node.Must(node.Sin(node.Must(node.Mul(node.Time(), node.Num(2)))))
	k := node.Must(node.Mul(node.Must(node.Add(wave, node.Num(1))), node.Num(0.5)))
	return node.NewGraph(node.Must(node.Mul(base, k)))
}

// buildScene returns a scene with one quad covering the default camera's
// view. Empty paths leave the slot to the built-in pulse or the material
// default.
func buildScene(colorPath, positionPath string) (*scene.Scene, *scene.Material, error) {
	var (
		color *node.Graph
		err   error
	)
	if colorPath != "" {
		color, err = readGraph(colorPath)
	} else {
		color, err = pulse()
	}
	if err != nil {
		return nil, nil, err
	}
	m := scene.NewMaterial("view")
	if err := m.Bind(scene.SlotColor, color); err != nil {
		return nil, nil, err
	}
	if positionPath != "" {
		pos, err := readGraph(positionPath)
		if err != nil {
			return nil, nil, err
		}
		if err := m.Bind(scene.SlotPosition, pos); err != nil {
			return nil, nil, err
		}
	}
	s := scene.New(scene.DefaultCamera())
	s.Add(scene.NewMesh("quad", scene.Quad(20), m))
	return s, m, nil
}
