// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerSilent(t *testing.T) {
	l := Logger()
	assert.NotNil(t, l)
	assert.True(t, Silent(l))
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.False(t, l.Enabled(context.Background(), level), "level %v", level)
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("device ready", "backend", "capable")
	assert.Contains(t, buf.String(), "device ready")
	assert.False(t, Silent(Logger()))

	SetLogger(nil)
	assert.True(t, Silent(Logger()))
}
