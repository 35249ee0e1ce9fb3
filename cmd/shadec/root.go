// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/config"
	"github.com/gogpu/shade/node"
)

// newCompiler builds the compiler commands use. Tests swap the translator.
var newCompiler = func(opts ...compiler.Option) *compiler.Compiler { return compiler.New(opts...) }

type globals struct {
	configPath string
	verbose    bool
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "shadec",
		Short:         "Compile and evaluate shading graph documents",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log to stderr at the configured level")

	root.AddCommand(newCompileCmd(g), newEvalCmd(g), newProbeCmd(g), newHashCmd())
	return root
}

func (g *globals) load(cmd *cobra.Command) error {
	g.cfg = config.Default()
	if g.configPath != "" {
		cfg, err := config.Load(g.configPath)
		if err != nil {
			return err
		}
		g.cfg = cfg
	}
	if g.verbose {
		shade.SetLogger(g.cfg.Logger(cmd.ErrOrStderr()))
	}
	return nil
}

func (g *globals) compiler() (*compiler.Compiler, error) {
	opts, err := g.cfg.CompilerOptions()
	if err != nil {
		return nil, err
	}
	return newCompiler(opts...), nil
}

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
