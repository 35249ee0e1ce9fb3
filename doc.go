// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shade renders scenes whose materials are shading node graphs,
// on whichever backend the platform supports.
//
// # Overview
//
// A Renderer selects a backend, opens a device context for it and drives
// the scene through a frame loop:
//
//	probe ─▶ backend.Select ─▶ device.Context.Init ─▶ frameloop.Loop.Tick
//	                                                   ├─ viewport.Manager.Apply
//	                                                   ├─ hook(scene, frame)
//	                                                   └─ SubmitFrame ─▶ compiler
//
// The Capable backend renders through the gogpu/wgpu HAL with SPIR-V
// programs and initializes asynchronously. The Compatible backend runs the
// same graphs on the CPU and is ready as soon as Init returns. Both
// compile every material through one structural cache, so a graph built
// twice compiles once.
//
// # Quick Start
//
//	base := node.Must(node.Uniform("baseColor", node.RGBAValue(1, 0, 0, 1)))
//	wave := node.Must(node.Sin(node.Must(node.Mul(node.Time(), node.Num(2)))))
//	k := node.Must(node.Mul(node.Must(node.Add(wave, node.Num(1))), node.Num(0.5)))
//	g, _ := node.NewGraph(node.Must(node.Mul(base, k)))
//
//	m := scene.NewMaterial("pulse")
//	_ = m.Bind(scene.SlotColor, g)
//	s := scene.New(scene.DefaultCamera())
//	s.Add(scene.NewMesh("quad", scene.Quad(2), m))
//
//	r, err := shade.Open(ctx, s, shade.WithSize(800, 600))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	return r.Run(ctx, time.NewTicker(time.Second/60).C)
//
// # Errors
//
// Probe failures are logged and fall back to Compatible. Init failures
// surface as *device.InitError from Open. Compile failures replace the
// failing slot with a magenta diagnostic program and are reported per
// frame through OnFrameReport. Submission errors are returned from Tick
// and passed to OnError without stopping the loop.
//
// # Logging
//
// shade is silent by default. See SetLogger.
package shade
