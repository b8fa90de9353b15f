// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package symbolizer resolves instruction addresses to symbol names and
// source locations by batching them through an external symbolizer process
// (llvm-symbolizer by default).
package symbolizer

import (
	"fmt"
	"time"
)

// Frame is the resolved form of one address: the innermost function at that
// address and its source location as reported by the symbolizer tool.
type Frame struct {
	Addr string
	Func string
	File string
}

// Symbolizer resolves a batch of addresses against a single binary/object.
// The returned slice has exactly one frame per address, in request order.
type Symbolizer interface {
	Symbolize(bin string, addrs []string) ([]Frame, error)
	Close()
}

// Config parameterizes the subprocess-backed symbolizer.
type Config struct {
	// Binary is the symbolizer executable name or path
	// (".exe" is appended on windows). Defaults to llvm-symbolizer.
	Binary string
	// Timeout bounds one subprocess run, a hung symbolizer is killed.
	Timeout time.Duration
	// Demangle rewrites mangled symbol names into human-readable form.
	Demangle bool
}

const (
	DefaultBinary  = "llvm-symbolizer"
	DefaultTimeout = 10 * time.Minute
)

// Make returns a Symbolizer backed by one external process invocation per
// Symbolize call.
func Make(cfg Config) Symbolizer {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &llvmSymbolizer{cfg: cfg}
}

// UnderflowError means the external symbolizer produced fewer response
// segments than addresses requested, so results cannot be attributed to
// addresses without misalignment.
type UnderflowError struct {
	Module string
	Want   int
	Got    int
}

func (err *UnderflowError) Error() string {
	return fmt.Sprintf("symbolizer returned %v response segments for %v requested addresses in module %v",
		err.Got, err.Want, err.Module)
}
