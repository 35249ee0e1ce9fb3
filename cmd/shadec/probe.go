// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/device"

	_ "github.com/gogpu/shade/device/software"
	_ "github.com/gogpu/shade/device/wgpu"
)

// prober is the capability probe used by the probe command.
var prober = device.CapabilityProber

func newProbeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report which backend this machine would select",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			pref := g.cfg.Renderer.Backend
			res := backend.RunProbe(prober())
			fmt.Fprintf(w, "capable:   %v", res.Supported)
			if res.Adapter != "" {
				fmt.Fprintf(w, " (%s)", res.Adapter)
			}
			if res.Err != nil {
				fmt.Fprintf(w, " (%v)", res.Err)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "preference: %s\n", pref)
			fmt.Fprintf(w, "selected:  %s\n", backend.Select(pref, res))
			fmt.Fprintf(w, "registered: %v\n", device.Available())
			return nil
		},
	}
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE",
		Short: "Print the structural hash and canonical form of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(args[0])
			if err != nil {
				return err
			}
			return hashGraph(cmd.OutOrStdout(), g)
		},
	}
}

