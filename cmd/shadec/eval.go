// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/node"
	"github.com/gogpu/shade/scene"
)

type evalFlags struct {
	slot  string
	times []float64
	uv    []float64
	pos   []float64
}

func newEvalCmd(g *globals) *cobra.Command {
	f := &evalFlags{}
	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Evaluate a graph on both backends and compare the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := scene.ParseSlot(f.slot)
			if err != nil {
				return err
			}
			samples, err := f.samples()
			if err != nil {
				return err
			}
			gr, err := readGraph(args[0])
			if err != nil {
				return err
			}
			c, err := g.compiler()
			if err != nil {
				return err
			}
			defer c.Close()

			w := cmd.OutOrStdout()
			progs := make(map[backend.Kind]*compiler.Program, 2)
			for _, kind := range []backend.Kind{backend.Capable, backend.Compatible} {
				p, err := c.Compile(cmd.Context(), gr, slot, kind)
				if err != nil {
					return err
				}
				progs[kind] = p
			}
			for i := range samples {
				in := samples[i]
				a := progs[backend.Capable].Eval(&in)
				in = samples[i]
				b := progs[backend.Compatible].Eval(&in)
				fmt.Fprintf(w, "t=%g uv=%g,%g capable=%s compatible=%s\n",
					in.Time, in.UV[0], in.UV[1], formatLanes(a, gr.Type()), formatLanes(b, gr.Type()))
			}

			err = c.CheckEquivalence(cmd.Context(), gr, slot, samples)
			var ee *compiler.EquivalenceError
			if errors.As(err, &ee) {
				fmt.Fprintf(w, "MISMATCH at sample %d (tolerance %g)\n", ee.Sample, ee.Tolerance)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "equivalent within %g\n", c.Tolerance())
			return nil
		},
	}
	cmd.Flags().StringVar(&f.slot, "slot", "color", "material slot: color or position")
	cmd.Flags().Float64SliceVarP(&f.times, "time", "t", []float64{0}, "scene times to sample")
	cmd.Flags().Float64SliceVar(&f.uv, "uv", []float64{0.5, 0.5}, "texture coordinate u,v")
	cmd.Flags().Float64SliceVar(&f.pos, "pos", []float64{0, 0, 0}, "object-space position x,y,z")
	return cmd
}

func (f *evalFlags) samples() ([]compiler.Inputs, error) {
	if len(f.uv) != 2 {
		return nil, fmt.Errorf("--uv wants 2 values, got %d", len(f.uv))
	}
	if len(f.pos) != 3 {
		return nil, fmt.Errorf("--pos wants 3 values, got %d", len(f.pos))
	}
	out := make([]compiler.Inputs, 0, len(f.times))
	for _, t := range f.times {
		out = append(out, compiler.Inputs{
			Time:     t,
			UV:       [2]float64{f.uv[0], f.uv[1]},
			Position: [3]float64{f.pos[0], f.pos[1], f.pos[2]},
		})
	}
	return out, nil
}

// formatLanes prints the lanes of v that t uses.
func formatLanes(v [4]float64, t node.Type) string {
	n := max(t.Components(), 1)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconv.FormatFloat(v[i], 'g', 6, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
