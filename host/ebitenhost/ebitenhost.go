// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !tinygo

// Package ebitenhost presents shade frames in an ebiten window.
//
// Host is both the viewport's host surface and the tick source: ebiten's
// Layout reports the window size, Update runs one tick, and Draw copies
// the latest frame into the window. All three run on ebiten's game
// goroutine, so ticks and resizes never interleave.
package ebitenhost

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/shade/internal/logging"
	"github.com/gogpu/shade/viewport"
)

// TPS is the tick rate of Run.
const TPS = 60

// Host adapts an ebiten game to shade. It implements ebiten.Game and
// viewport.HostSurface.
type Host struct {
	*viewport.Host

	tick   func(now time.Time) error
	source func() *image.RGBA
	now    func() time.Time
	img    *ebiten.Image
	closed atomic.Bool
}

// New returns a host with the given initial window size.
func New(width, height int) *Host {
	return &Host{Host: viewport.NewHost(width, height), now: time.Now}
}

// OnTick sets the function Update calls once per game tick, usually
// Renderer.Tick. Tick errors are logged; the window keeps running.
func (h *Host) OnTick(fn func(now time.Time) error) { h.tick = fn }

// SetSource sets where Draw takes frames from, usually the software
// device's Image.
func (h *Host) SetSource(fn func() *image.RGBA) { h.source = fn }

// Close makes the next Update end the game.
func (h *Host) Close() { h.closed.Store(true) }

// Update implements ebiten.Game.
func (h *Host) Update() error {
	if h.closed.Load() {
		return ebiten.Termination
	}
	if h.tick != nil {
		if err := h.tick(h.now()); err != nil {
			logging.Logger().Warn("ebitenhost: tick failed", "err", err)
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.source == nil {
		return
	}
	frame := h.source()
	if frame == nil {
		return
	}
	w, hgt := frame.Rect.Dx(), frame.Rect.Dy()
	if h.img == nil || h.img.Bounds().Dx() != w || h.img.Bounds().Dy() != hgt {
		if h.img != nil {
			h.img.Deallocate()
		}
		h.img = ebiten.NewImage(w, hgt)
	}
	h.img.WritePixels(frame.Pix)
	screen.DrawImage(h.img, nil)
}

// Layout implements ebiten.Game. A changed outside size is published to
// viewport subscribers.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if w, hgt := h.Size(); w != outsideWidth || hgt != outsideHeight {
		h.SetSize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// Run opens a resizable window and blocks until it is closed.
func (h *Host) Run(title string) error {
	w, hgt := h.Size()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, hgt)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(TPS)
	return ebiten.RunGame(h)
}
