// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolCreate(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()
	assert.Equal(t, 4, pool.Workers())
	assert.True(t, pool.IsRunning())
}

func TestWorkerPoolDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		assert.Equal(t, runtime.GOMAXPROCS(0), pool.Workers())
		pool.Close()
	}
}

func TestWorkerPoolExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)
	assert.Equal(t, int64(100), counter.Load())
}

func TestWorkerPoolExecuteAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()
	assert.False(t, pool.IsRunning())

	var counter atomic.Int64
	pool.ExecuteAll([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	assert.Equal(t, int64(2), counter.Load())
}

func TestWorkerPoolNilWork(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()
	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){nil, nil, nil})
}
