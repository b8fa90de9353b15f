// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package ftrace parses indentation-encoded function call traces into a call
// tree and renders the tree back as text after symbolization.
//
// The trace format is one call site per line:
//
//	<indentation><hex-address> (<module-path>)
//
// where each two spaces of indentation encode one extra level of call nesting.
package ftrace

import (
	"fmt"
	"sort"
)

// CallSite is one recorded frame in the trace.
type CallSite struct {
	Depth    int
	Addr     string
	Module   string
	Children []*CallSite
}

// Trace is the parsed forest of call sites together with the set of unique
// addresses seen in each module. AddrsByModule determines what must be
// requested from the symbolizer.
type Trace struct {
	Roots         []*CallSite
	AddrsByModule map[string]map[string]bool
}

// Modules returns the names of all modules referenced by the trace, sorted.
func (t *Trace) Modules() []string {
	modules := make([]string, 0, len(t.AddrsByModule))
	for module := range t.AddrsByModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

// SortedAddrs returns the unique addresses of a module in canonical (sorted)
// order. This is the order in which they are sent to the symbolizer.
func (t *Trace) SortedAddrs(module string) []string {
	addrs := make([]string, 0, len(t.AddrsByModule[module]))
	for addr := range t.AddrsByModule[module] {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// AddrBatches returns the per-module symbolization requests: every module in
// the trace mapped to its unique addresses in canonical order.
func (t *Trace) AddrBatches() map[string][]string {
	batches := make(map[string][]string, len(t.AddrsByModule))
	for module := range t.AddrsByModule {
		batches[module] = t.SortedAddrs(module)
	}
	return batches
}

func (t *Trace) noteAddr(module, addr string) {
	addrs := t.AddrsByModule[module]
	if addrs == nil {
		addrs = make(map[string]bool)
		t.AddrsByModule[module] = addrs
	}
	addrs[addr] = true
}

// ParseError means a trace line could not be decoded.
type ParseError struct {
	Line int // 1-based, 0 if unknown
	Text string
}

func (err *ParseError) Error() string {
	if err.Line == 0 {
		return fmt.Sprintf("malformed trace line %q: no address/module separator", err.Text)
	}
	return fmt.Sprintf("malformed trace line %v: %q: no address/module separator", err.Line, err.Text)
}

// LookupError means a call site's (module, address) pair had no entry in the
// symbol table at render time, which indicates an inconsistency between the
// parsing and symbolization stages.
type LookupError struct {
	Module string
	Addr   string
}

func (err *LookupError) Error() string {
	return fmt.Sprintf("no symbol table entry for address %v in module %v", err.Addr, err.Module)
}
