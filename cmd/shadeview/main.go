// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !tinygo

// Command shadeview shows a shading graph on a full-window quad.
//
//	shadeview                      # built-in pulse
//	shadeview color.yaml --watch   # reload color.yaml on save
//
// Frames are rendered by the Compatible device and presented through
// ebiten. Resizing the window goes through the viewport manager.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade"
	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/config"
	"github.com/gogpu/shade/device/software"
	"github.com/gogpu/shade/frameloop"
	"github.com/gogpu/shade/host/ebitenhost"
	"github.com/gogpu/shade/internal/watch"
	"github.com/gogpu/shade/scene"
)

type flags struct {
	configPath string
	position   string
	title      string
	watch      bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "shadeview [FILE]",
		Short:        "Preview a shading graph in a window",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var color string
			if len(args) == 1 {
				color = args[0]
			}
			return f.run(cmd.Context(), color)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().StringVar(&f.position, "position", "", "graph document for the position slot")
	cmd.Flags().StringVar(&f.title, "title", "shadeview", "window title")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "reload the color graph when it changes")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log to stderr")
	return cmd
}

func (f *flags) run(ctx context.Context, colorPath string) error {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return err
		}
	}
	if f.verbose {
		shade.SetLogger(cfg.Logger(os.Stderr))
	}

	s, m, err := buildScene(colorPath, f.position)
	if err != nil {
		return err
	}
	host := ebitenhost.New(cfg.Renderer.Width, cfg.Renderer.Height)
	r, err := shade.Open(ctx, s,
		shade.WithConfig(cfg),
		// Only the Compatible device keeps its frames in host memory.
		shade.WithBackend(backend.PreferCompatible),
		shade.WithHost(host),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	sw, ok := r.Device().(*software.Context)
	if !ok {
		return fmt.Errorf("shadeview: unexpected device %T", r.Device())
	}
	host.SetSource(sw.Image)
	host.OnTick(r.Tick)

	if f.watch && colorPath != "" {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := watch.File(ctx, colorPath, func() { reload(r, m, colorPath) })
			if err != nil {
				shade.Logger().Warn("shadeview: watch", "err", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		host.Close()
	}()
	return host.Run(f.title)
}

// reload rebinds the color slot on the next tick. A document that fails
// to build keeps the previous graph.
func reload(r *shade.Renderer, m *scene.Material, path string) {
	g, err := readGraph(path)
	if err != nil {
		shade.Logger().Warn("shadeview: reload", "path", path, "err", err)
		return
	}
	r.SetHook(func(*scene.Scene, frameloop.Frame) {
		if err := m.Bind(scene.SlotColor, g); err != nil {
			shade.Logger().Warn("shadeview: bind", "err", err)
		}
	})
}
