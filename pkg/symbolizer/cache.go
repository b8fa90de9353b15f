// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"sync"
)

// Cache caches symbolization results in a thread-safe way for callers that
// symbolize many traces against the same binaries within one process.
// Results are not persisted across runs.
type Cache struct {
	mu    sync.RWMutex
	cache map[cacheKey]cacheVal
}

type cacheKey struct {
	bin  string
	addr string
}

type cacheVal struct {
	frame Frame
	err   error
}

func (c *Cache) Symbolize(inner func(string, string) (Frame, error), bin, addr string) (Frame, error) {
	key := cacheKey{bin, addr}
	c.mu.RLock()
	val, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return val.frame, val.err
	}
	frame, err := inner(bin, addr)
	c.mu.Lock()
	if c.cache == nil {
		c.cache = make(map[cacheKey]cacheVal)
	}
	c.cache[key] = cacheVal{frame, err}
	c.mu.Unlock()
	return frame, err
}
