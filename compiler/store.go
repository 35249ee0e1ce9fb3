// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compiler

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gogpu/shade/backend"
)

// Store persists translated artifacts between runs.
type Store interface {
	// Load returns the artifact saved for key if it was generated from wgsl.
	Load(key Key, wgsl string) (Artifact, bool)
	// Save records the artifact for key.
	Save(key Key, wgsl string, a Artifact) error
}

// DiskStore keeps artifacts as files under a directory: <key>.wgsl next to
// <key>.spv or <key>.glsl.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("compiler: store: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(key Key, ext string) string {
	return filepath.Join(s.dir, key.String()+ext)
}

func artifactExt(kind backend.Kind) string {
	if kind == backend.Capable {
		return ".spv"
	}
	return ".glsl"
}

// Load implements Store.
func (s *DiskStore) Load(key Key, wgsl string) (Artifact, bool) {
	src, err := os.ReadFile(s.path(key, ".wgsl"))
	if err != nil || string(src) != wgsl {
		return Artifact{}, false
	}
	data, err := os.ReadFile(s.path(key, artifactExt(key.Backend)))
	if err != nil {
		return Artifact{}, false
	}
	if key.Backend == backend.Compatible {
		return Artifact{GLSL: string(data)}, true
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return Artifact{}, false
	}
	words := make([]uint32, len(data)/4)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, words); err != nil {
		return Artifact{}, false
	}
	return Artifact{SPIRV: words}, true
}

// Save implements Store. The artifact is written before the source so a
// torn write never matches on Load.
func (s *DiskStore) Save(key Key, wgsl string, a Artifact) error {
	var data []byte
	if key.Backend == backend.Compatible {
		data = []byte(a.GLSL)
	} else {
		data = make([]byte, 0, len(a.SPIRV)*4)
		for _, w := range a.SPIRV {
			data = binary.LittleEndian.AppendUint32(data, w)
		}
	}
	if err := os.WriteFile(s.path(key, artifactExt(key.Backend)), data, 0o644); err != nil {
		return fmt.Errorf("compiler: store: %w", err)
	}
	if err := os.WriteFile(s.path(key, ".wgsl"), []byte(wgsl), 0o644); err != nil {
		return fmt.Errorf("compiler: store: %w", err)
	}
	return nil
}

// Clear removes every stored artifact.
func (s *DiskStore) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".wgsl", ".spv", ".glsl":
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
