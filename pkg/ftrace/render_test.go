// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package ftrace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracesym/tracesym/pkg/symbolizer"
)

// testTrace is:
//
//	main (mod1)
//	  alloc (mod1)
//	    memcpy (libc.so)
//	  work (mod1)
//	helper (mod2)
const testInput = `0xA0 (mod1)
  0xA1 (mod1)
    0xB0 (libc.so)
  0xA2 (mod1)
0xC0 (mod2)
`

var testTable = symbolizer.Table{
	"mod1": {
		"0xA0": {Addr: "0xA0", Func: "main", File: "main.c:10"},
		"0xA1": {Addr: "0xA1", Func: "alloc", File: "alloc.c:5"},
		"0xA2": {Addr: "0xA2", Func: "work", File: "work.c:77"},
	},
	"libc.so": {
		"0xB0": {Addr: "0xB0", Func: "memcpy", File: "memcpy.S:1"},
	},
	"mod2": {
		"0xC0": {Addr: "0xC0", Func: "helper", File: "helper.c:3"},
	},
}

func render(t *testing.T, filters *Filters, maxDepth int) (string, error) {
	trace, err := Parse(SplitLines([]byte(testInput)))
	require.NoError(t, err)
	trace.ApplyModuleFilters(filters)
	buf := new(bytes.Buffer)
	err = Render(buf, trace, testTable, filters, maxDepth)
	return buf.String(), err
}

func TestRenderFull(t *testing.T) {
	out, err := render(t, nil, 0)
	require.NoError(t, err)
	want := strings.Join([]string{
		"main (main.c:10)",
		"  alloc (alloc.c:5)",
		"    memcpy (memcpy.S:1)",
		"  work (work.c:77)",
		"helper (helper.c:3)",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

// Re-decoding the renderer's indentation must reproduce the original depths.
func TestRenderIndentRoundTrip(t *testing.T) {
	out, err := render(t, nil, 0)
	require.NoError(t, err)
	var depths []int
	for _, line := range SplitLines([]byte(out)) {
		depth, _, _, err := ParseLine(line)
		require.NoError(t, err)
		depths = append(depths, depth)
	}
	assert.Equal(t, []int{1, 2, 3, 2, 1}, depths)
}

func TestRenderDepthLimit(t *testing.T) {
	out, err := render(t, nil, 1)
	require.NoError(t, err)
	// Only roots, with zero indentation.
	assert.Equal(t, "main (main.c:10)\nhelper (helper.c:3)\n", out)

	out, err = render(t, nil, 2)
	require.NoError(t, err)
	want := strings.Join([]string{
		"main (main.c:10)",
		"  alloc (alloc.c:5)",
		"  work (work.c:77)",
		"helper (helper.c:3)",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRenderSymbolSuppression(t *testing.T) {
	// Excluding alloc suppresses its whole subtree: memcpy does not match
	// any pattern but is not printed either.
	filters, err := CompileFilters([]string{"alloc"}, nil)
	require.NoError(t, err)
	out, err := render(t, filters, 0)
	require.NoError(t, err)
	want := strings.Join([]string{
		"main (main.c:10)",
		"  work (work.c:77)",
		"helper (helper.c:3)",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRenderSourceSuppression(t *testing.T) {
	// Exclusion patterns also match the source location string.
	filters, err := CompileFilters([]string{"work\\.c"}, nil)
	require.NoError(t, err)
	out, err := render(t, filters, 0)
	require.NoError(t, err)
	assert.NotContains(t, out, "work")
	assert.Contains(t, out, "alloc")
}

func TestRenderModuleSuppression(t *testing.T) {
	// Module exclusion applies to inner call sites too, not only roots.
	filters, err := CompileFilters(nil, []string{"libc"})
	require.NoError(t, err)
	out, err := render(t, filters, 0)
	require.NoError(t, err)
	assert.NotContains(t, out, "memcpy")
	assert.Contains(t, out, "alloc")
}

func TestRenderLookupError(t *testing.T) {
	trace, err := Parse(SplitLines([]byte(testInput)))
	require.NoError(t, err)
	table := symbolizer.Table{}
	buf := new(bytes.Buffer)
	err = Render(buf, trace, table, nil, 0)
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "mod1", lookupErr.Module)
	assert.Equal(t, "0xA0", lookupErr.Addr)
}
