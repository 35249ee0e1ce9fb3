// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))
	return path
}

func TestFileReloads(t *testing.T) {
	path := writeFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() { done <- File(ctx, path, func() { calls.Add(1) }) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o600))
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	// Other files in the directory are ignored.
	n := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o600))
	time.Sleep(4 * Settle)
	assert.Equal(t, n, calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("File did not return after cancel")
	}
}

func TestFileMissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "gone", "graph.yaml"), func() {
		t.Fatal("fn must not run")
	})
	assert.Error(t, err)
}
