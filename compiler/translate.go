// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"

	"github.com/gogpu/shade/backend"
)

// Artifact is the backend-specific output of translation.
type Artifact struct {
	SPIRV []uint32 // Capable
	GLSL  string   // Compatible
}

// Translator converts generated WGSL into a backend artifact.
type Translator interface {
	Translate(wgsl string, stage Stage, kind backend.Kind) (Artifact, error)
}

// NagaTranslator translates with the gogpu naga compiler: SPIR-V for
// Capable, GLSL ES 3.00 for Compatible.
type NagaTranslator struct{}

// Translate implements Translator.
func (NagaTranslator) Translate(src string, stage Stage, kind backend.Kind) (Artifact, error) {
	switch kind {
	case backend.Capable:
		words, err := compileSPIRV(src)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{SPIRV: words}, nil
	case backend.Compatible:
		out, err := compileGLSL(src, stage)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{GLSL: out}, nil
	}
	return Artifact{}, fmt.Errorf("%w: unknown backend %v", ErrTranslate, kind)
}

func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: spir-v: %w", ErrTranslate, err)
	}
	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

func compileGLSL(src string, stage Stage) (string, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: parse: %w", ErrTranslate, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return "", fmt.Errorf("%w: lower: %w", ErrTranslate, err)
	}
	out, _, err := glsl.Compile(module, glsl.Options{
		LangVersion:        glsl.VersionES300,
		EntryPoint:         stage.EntryPoint(),
		ForceHighPrecision: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslate, err)
	}
	return out, nil
}
