// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Canned llvm-symbolizer output: one blank-line-terminated segment per
// address, inlining producing a variable number of lines per segment.
func TestParseOutput(t *testing.T) {
	addrs := []string{"0x1000", "0x2000", "0x3000"}
	output := strings.Join([]string{
		"main",
		"/src/main.c:10:3",
		"",
		// Two inlined frames: only the last pair is kept.
		"inlined_helper",
		"/src/helper.h:5:1",
		"do_work",
		"/src/work.c:20:7",
		"",
		"??",
		"??:0",
		"",
	}, "\n")
	symb := &llvmSymbolizer{}
	frames, err := symb.parseOutput("mod", addrs, output)
	require.NoError(t, err)
	want := []Frame{
		{Addr: "0x1000", Func: "main", File: "/src/main.c:10:3"},
		{Addr: "0x2000", Func: "do_work", File: "/src/work.c:20:7"},
		{Addr: "0x3000", Func: "??", File: "??:0"},
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%v", diff)
	}
}

func TestParseOutputUnderflow(t *testing.T) {
	addrs := []string{"0x1000", "0x2000"}
	output := "main\n/src/main.c:10\n\n"
	symb := &llvmSymbolizer{}
	_, err := symb.parseOutput("mod", addrs, output)
	var underflow *UnderflowError
	require.ErrorAs(t, err, &underflow)
	assert.Equal(t, "mod", underflow.Module)
	assert.Equal(t, 2, underflow.Want)
	assert.Equal(t, 1, underflow.Got)
}

func TestParseOutputTruncatedSegment(t *testing.T) {
	// A segment with fewer than two lines cannot hold a symbol and a
	// source location.
	symb := &llvmSymbolizer{}
	_, err := symb.parseOutput("mod", []string{"0x1000"}, "main\n\n")
	var underflow *UnderflowError
	require.ErrorAs(t, err, &underflow)
}

func TestParseOutputDemangle(t *testing.T) {
	output := "_ZN3foo3barEv\n/src/foo.cc:1:1\n\n"
	symb := &llvmSymbolizer{cfg: Config{Demangle: true}}
	frames, err := symb.parseOutput("mod", []string{"0x1"}, output)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "foo::bar()", frames[0].Func)

	// Names that are not mangled pass through unchanged.
	symb = &llvmSymbolizer{cfg: Config{Demangle: true}}
	frames, err = symb.parseOutput("mod", []string{"0x1"}, "main\n/src/main.c:1:1\n\n")
	require.NoError(t, err)
	assert.Equal(t, "main", frames[0].Func)
}

func TestSymbolizeEmptyBatch(t *testing.T) {
	symb := Make(Config{})
	defer symb.Close()
	frames, err := symb.Symbolize("mod", nil)
	require.NoError(t, err)
	assert.Empty(t, frames)
}
