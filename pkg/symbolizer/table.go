// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tracesym/tracesym/pkg/log"
)

// Table maps module -> address -> resolved frame.
type Table map[string]map[string]Frame

// BuildSymbolTable resolves every module's address batch through symb,
// exactly one Symbolize call per module. With jobs <= 1 modules are processed
// strictly sequentially in sorted order; with jobs > 1 up to jobs modules are
// symbolized concurrently (their request/response cycles are independent and
// table keys are disjoint).
func BuildSymbolTable(symb Symbolizer, batches map[string][]string, jobs int) (Table, error) {
	modules := make([]string, 0, len(batches))
	for module := range batches {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	table := make(Table, len(modules))
	if jobs <= 1 {
		for _, module := range modules {
			frames, err := resolveModule(symb, module, batches[module])
			if err != nil {
				return nil, err
			}
			table[module] = frames
		}
		return table, nil
	}

	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(jobs)
	for _, module := range modules {
		eg.Go(func() error {
			frames, err := resolveModule(symb, module, batches[module])
			if err != nil {
				return err
			}
			mu.Lock()
			table[module] = frames
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

func resolveModule(symb Symbolizer, module string, addrs []string) (map[string]Frame, error) {
	frames, err := symb.Symbolize(module, addrs)
	if err != nil {
		return nil, err
	}
	if len(frames) < len(addrs) {
		return nil, &UnderflowError{Module: module, Want: len(addrs), Got: len(frames)}
	}
	resolved := make(map[string]Frame, len(addrs))
	for i, addr := range addrs {
		frame := frames[i]
		frame.Addr = addr
		resolved[addr] = frame
	}
	log.Logf(1, "%v: resolved %v addresses", module, len(addrs))
	return resolved, nil
}
