// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides the bounded LRU used for compiled shader programs.
//
//	c := cache.New[compiler.Key, *compiler.Program](256)
//	c.Add(key, prog)
//	prog, ok := c.Get(key)
//
// Eviction drops the least recently used entry once Len exceeds the
// capacity. An optional eviction callback lets owners release resources
// tied to an entry. Cache is safe for concurrent use and must not be copied.
package cache
