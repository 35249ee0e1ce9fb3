// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/internal/watch"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

type compileFlags struct {
	slot    string
	backend string
	emit    string
	watch   bool
}

func newCompileCmd(g *globals) *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a graph document for one slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, kinds, err := f.parse()
			if err != nil {
				return err
			}
			c, err := g.compiler()
			if err != nil {
				return err
			}
			defer c.Close()

			run := func() error {
				return compileFile(cmd.Context(), cmd.OutOrStdout(), c, args[0], slot, kinds, f.emit)
			}
			if !f.watch {
				return run()
			}
			return watch.File(cmd.Context(), args[0], func() {
				if err := run(); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				}
			})
		},
	}
	cmd.Flags().StringVar(&f.slot, "slot", "color", "material slot: color or position")
	cmd.Flags().StringVarP(&f.backend, "backend", "b", "both", "capable, compatible or both")
	cmd.Flags().StringVar(&f.emit, "emit", "", "print source: wgsl, glsl or spirv")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "recompile when the file changes")
	return cmd
}

func (f *compileFlags) parse() (scene.Slot, []backend.Kind, error) {
	slot, err := scene.ParseSlot(f.slot)
	if err != nil {
		return 0, nil, err
	}
	kinds, err := parseKinds(f.backend)
	if err != nil {
		return 0, nil, err
	}
	switch f.emit {
	case "", "wgsl", "glsl", "spirv":
	default:
		return 0, nil, fmt.Errorf("unknown --emit %q", f.emit)
	}
	return slot, kinds, nil
}

func parseKinds(s string) ([]backend.Kind, error) {
	switch strings.ToLower(s) {
	case "capable":
		return []backend.Kind{backend.Capable}, nil
	case "compatible":
		return []backend.Kind{backend.Compatible}, nil
	case "both", "":
		return []backend.Kind{backend.Capable, backend.Compatible}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", s)
}

func compileFile(ctx context.Context, w io.Writer, c *compiler.Compiler, path string, slot scene.Slot, kinds []backend.Kind, emit string) error {
	g, err := readGraph(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "graph %s: %d nodes, %s\n", g.Hash().Short(), g.Len(), g.Type())
	for _, kind := range kinds {
		p, err := c.Compile(ctx, g, slot, kind)
		if err != nil {
			return err
		}
		printProgram(w, p, emit)
	}
	return nil
}

func printProgram(w io.Writer, p *compiler.Program, emit string) {
	fmt.Fprintf(w, "%s %s entry=%s", p.Key, p.Stage, p.EntryPoint)
	if n := len(p.Artifact.SPIRV); n > 0 {
		fmt.Fprintf(w, " spirv=%d words", n)
	}
	if n := len(p.Artifact.GLSL); n > 0 {
		fmt.Fprintf(w, " glsl=%d bytes", n)
	}
	if p.Layout != nil {
		fmt.Fprintf(w, " bindings=%d", len(p.Layout.Bindings))
	}
	if p.Fallback {
		fmt.Fprint(w, " fallback")
	}
	fmt.Fprintln(w)

	switch emit {
	case "wgsl":
		fmt.Fprintln(w, p.WGSL)
	case "glsl":
		if p.Artifact.GLSL != "" {
			fmt.Fprintln(w, p.Artifact.GLSL)
		}
	case "spirv":
		for i, word := range p.Artifact.SPIRV {
			sep := " "
			if i%8 == 7 || i == len(p.Artifact.SPIRV)-1 {
				sep = "\n"
			}
			fmt.Fprintf(w, "%08x%s", word, sep)
		}
	}
}

// hashGraph prints the structural hash of a document and its canonical form.
func hashGraph(w io.Writer, g *node.Graph) error {
	data, err := node.Encode(g)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, g.Hash())
	_, err = w.Write(data)
	return err
}
