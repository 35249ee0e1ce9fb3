// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads renderer settings from TOML.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default. Unknown keys are rejected so typos do not pass silently.
//
//	[renderer]
//	backend = "auto"      # auto, capable or compatible
//	width = 1280
//	height = 720
//
//	[compiler]
//	cache_capacity = 512
//	workers = 0           # 0 uses GOMAXPROCS
//	tolerance = 1e-4
//	cache_dir = ""        # on-disk artifact store, disabled when empty
//
//	[log]
//	level = "info"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/shade/backend"
	"github.com/gogpu/shade/compiler"
	"github.com/gogpu/shade/device"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid value")

// Config is the complete renderer configuration.
type Config struct {
	Renderer Renderer `toml:"renderer"`
	Compiler Compiler `toml:"compiler"`
	Log      Log      `toml:"log"`
}

// Renderer selects the backend and the initial surface.
type Renderer struct {
	Backend    backend.Preference `toml:"backend"`
	Width      int                `toml:"width"`
	Height     int                `toml:"height"`
	ClearColor [4]float64         `toml:"clear_color"`
}

// Compiler tunes the node compiler.
type Compiler struct {
	CacheCapacity int     `toml:"cache_capacity"`
	Workers       int     `toml:"workers"`
	Tolerance     float64 `toml:"tolerance"`
	CacheDir      string  `toml:"cache_dir"`
}

// Log sets the minimum level of the shade logger.
type Log struct {
	Level slog.Level `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Renderer: Renderer{
			Backend: backend.PreferAuto,
			Width:   device.DefaultWidth,
			Height:  device.DefaultHeight,
		},
		Compiler: Compiler{
			CacheCapacity: compiler.DefaultCacheCapacity,
			Tolerance:     compiler.DefaultTolerance,
		},
		Log: Log{Level: slog.LevelInfo},
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes data over Default and validates the result.
func Parse(data []byte) (Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads TOML from r over Default and validates the result.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if err := device.CheckSize(c.Renderer.Width, c.Renderer.Height); err != nil {
		errs = append(errs, fmt.Errorf("%w: renderer size %dx%d", ErrInvalid, c.Renderer.Width, c.Renderer.Height))
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%w: renderer.clear_color[%d] = %g outside [0, 1]", ErrInvalid, i, v))
		}
	}
	if c.Compiler.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: compiler.cache_capacity must be positive", ErrInvalid))
	}
	if c.Compiler.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: compiler.workers must not be negative", ErrInvalid))
	}
	if !(c.Compiler.Tolerance > 0) {
		errs = append(errs, fmt.Errorf("%w: compiler.tolerance must be positive", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Marshal encodes c as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// CompilerOptions returns the compiler options c describes. An unusable
// cache directory is an error.
func (c Config) CompilerOptions() ([]compiler.Option, error) {
	opts := []compiler.Option{
		compiler.WithCacheCapacity(c.Compiler.CacheCapacity),
		compiler.WithTolerance(c.Compiler.Tolerance),
	}
	if c.Compiler.Workers > 0 {
		opts = append(opts, compiler.WithWorkers(c.Compiler.Workers))
	}
	if c.Compiler.CacheDir != "" {
		store, err := compiler.NewDiskStore(c.Compiler.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("config: cache_dir: %w", err)
		}
		opts = append(opts, compiler.WithStore(store))
	}
	return opts, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Log.Level}))
}
