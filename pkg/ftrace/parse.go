// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package ftrace

import (
	"strings"
)

// ParseLine decodes one raw trace line into (depth, address, module).
// Each two leading whitespace characters encode one level of nesting beyond 1.
func ParseLine(line string) (int, string, string, error) {
	stripped := strings.TrimLeft(line, " \t")
	depth := 1 + (len(line)-len(stripped))/2
	addr, rest, ok := strings.Cut(stripped, " ")
	if !ok {
		return 0, "", "", &ParseError{Text: strings.TrimRight(line, "\r\n")}
	}
	module := strings.Trim(strings.TrimSpace(rest), "()")
	return depth, addr, module, nil
}

// Parse builds the call-site forest from the trace lines and aggregates the
// unique addresses of each module.
//
// The format has no explicit end-of-subtree markers, depth is the only
// structural signal: a line strictly deeper than the current call site starts
// a child, a line at the same or lower depth closes the call site (and any
// deeper open ancestors). Parsing is a cursor-based recursive descent over
// the line sequence.
func Parse(lines []string) (*Trace, error) {
	trace := &Trace{AddrsByModule: make(map[string]map[string]bool)}
	for index := 0; index < len(lines); {
		site, next, err := trace.parseCallSite(lines, index)
		if err != nil {
			return nil, err
		}
		trace.Roots = append(trace.Roots, site)
		index = next
	}
	return trace, nil
}

// parseCallSite parses the call site starting at lines[index] and all of its
// children, and returns the cursor position of the first line it did not
// consume.
func (t *Trace) parseCallSite(lines []string, index int) (*CallSite, int, error) {
	depth, addr, module, err := parseLineAt(lines, index)
	if err != nil {
		return nil, 0, err
	}
	t.noteAddr(module, addr)
	site := &CallSite{Depth: depth, Addr: addr, Module: module}
	index++
	for index < len(lines) {
		nextDepth, _, _, err := parseLineAt(lines, index)
		if err != nil {
			return nil, 0, err
		}
		if nextDepth <= site.Depth {
			// A sibling of this call site or of some ancestor.
			break
		}
		child, next, err := t.parseCallSite(lines, index)
		if err != nil {
			return nil, 0, err
		}
		site.Children = append(site.Children, child)
		index = next
	}
	return site, index, nil
}

func parseLineAt(lines []string, index int) (int, string, string, error) {
	depth, addr, module, err := ParseLine(lines[index])
	if err != nil {
		err.(*ParseError).Line = index + 1
	}
	return depth, addr, module, err
}

// SplitLines splits raw trace file contents into lines suitable for Parse,
// dropping the empty tail produced by the terminating newline.
func SplitLines(data []byte) []string {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for len(lines) != 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
