// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package ftrace

import (
	"fmt"
	"regexp"
)

// Filters holds the compiled exclusion patterns for a run.
// Patterns are matched anchored at the start of the string.
type Filters struct {
	ExcludeSymbol []*regexp.Regexp
	ExcludeModule []*regexp.Regexp
}

// CompileFilters compiles symbol/source and module exclusion patterns.
func CompileFilters(symbols, modules []string) (*Filters, error) {
	filters := new(Filters)
	var err error
	if filters.ExcludeSymbol, err = compileAnchored(symbols); err != nil {
		return nil, fmt.Errorf("bad exclude-symbol pattern: %w", err)
	}
	if filters.ExcludeModule, err = compileAnchored(modules); err != nil {
		return nil, fmt.Errorf("bad exclude-module pattern: %w", err)
	}
	return filters, nil
}

func compileAnchored(patterns []string) ([]*regexp.Regexp, error) {
	var compiled []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Excluded reports whether a call site with the given symbol and source
// location should be omitted from the output (together with its children).
func (f *Filters) Excluded(symbol, source string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.ExcludeSymbol {
		if re.MatchString(symbol) || re.MatchString(source) {
			return true
		}
	}
	return false
}

// ExcludedModule reports whether all call sites of the module should be
// omitted from the output.
func (f *Filters) ExcludedModule(module string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.ExcludeModule {
		if re.MatchString(module) {
			return true
		}
	}
	return false
}

// ApplyModuleFilters removes excluded modules from the trace: root call sites
// of excluded modules are dropped from the forest, and all addresses of
// excluded modules are dropped from the per-module address sets so that the
// symbolizer is never invoked for them. Call sites of excluded modules deeper
// in a surviving tree are suppressed later, at render time.
func (t *Trace) ApplyModuleFilters(filters *Filters) {
	roots := t.Roots[:0]
	for _, site := range t.Roots {
		if !filters.ExcludedModule(site.Module) {
			roots = append(roots, site)
		}
	}
	t.Roots = roots
	for module := range t.AddrsByModule {
		if filters.ExcludedModule(module) {
			delete(t.AddrsByModule, module)
		}
	}
}
