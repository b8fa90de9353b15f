// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package ftrace

import (
	"fmt"
	"io"
	"strings"

	"github.com/tracesym/tracesym/pkg/symbolizer"
)

// Render prints the symbolized call tree to w, one call site per line,
// indented by 2*(depth-1) spaces and formatted as "symbol (source-location)".
//
// A call site whose module, symbol or source location is excluded by filters
// is skipped together with its entire subtree. If maxDepth > 0, call sites
// deeper than maxDepth are not rendered; maxDepth == 0 renders the full tree.
//
// Every surviving (module, address) pair must be present in table,
// a missing entry is a *LookupError.
func Render(w io.Writer, trace *Trace, table symbolizer.Table, filters *Filters, maxDepth int) error {
	for _, site := range trace.Roots {
		if err := renderSite(w, site, table, filters, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func renderSite(w io.Writer, site *CallSite, table symbolizer.Table, filters *Filters, maxDepth int) error {
	if maxDepth > 0 && site.Depth > maxDepth {
		return nil
	}
	if filters.ExcludedModule(site.Module) {
		return nil
	}
	frame, ok := table[site.Module][site.Addr]
	if !ok {
		return &LookupError{Module: site.Module, Addr: site.Addr}
	}
	if filters.Excluded(frame.Func, frame.File) {
		return nil
	}
	indent := strings.Repeat("  ", site.Depth-1)
	if _, err := fmt.Fprintf(w, "%v%v (%v)\n", indent, frame.Func, frame.File); err != nil {
		return err
	}
	if maxDepth == 0 || site.Depth < maxDepth {
		for _, child := range site.Children {
			if err := renderSite(w, child, table, filters, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
