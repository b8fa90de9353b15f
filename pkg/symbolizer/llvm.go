// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"github.com/ianlancetaylor/demangle"

	"github.com/tracesym/tracesym/pkg/osutil"
)

// llvmSymbolizer shells out to llvm-symbolizer (or a compatible tool).
// The tool is given the whole batch up front, one address per line on stdin,
// and emits one segment per address on stdout: a variable number of lines
// terminated by a blank line. The last two lines of a segment are the
// innermost symbol name and its source location.
type llvmSymbolizer struct {
	cfg Config
}

func (s *llvmSymbolizer) Symbolize(bin string, addrs []string) ([]Frame, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	cmd := osutil.Command(s.binary(), "-obj="+bin)
	cmd.Stdin = strings.NewReader(strings.Join(addrs, "\n") + "\n")
	stdout := new(bytes.Buffer)
	cmd.Stdout = stdout
	if _, err := osutil.Run(s.cfg.Timeout, cmd); err != nil {
		return nil, osutil.PrependContext(fmt.Sprintf("module %v", bin), err)
	}
	return s.parseOutput(bin, addrs, stdout.String())
}

func (s *llvmSymbolizer) Close() {
}

func (s *llvmSymbolizer) binary() string {
	bin := s.cfg.Binary
	if runtime.GOOS == "windows" && !strings.HasSuffix(bin, ".exe") {
		bin += ".exe"
	}
	return bin
}

// parseOutput demultiplexes the batched response: one blank-line-terminated
// segment per requested address, consumed in request order. Running out of
// output before all addresses are consumed is a contract violation and must
// not silently produce misaligned results.
func (s *llvmSymbolizer) parseOutput(bin string, addrs []string, output string) ([]Frame, error) {
	lines := strings.Split(output, "\n")
	frames := make([]Frame, 0, len(addrs))
	pos := 0
	for i, addr := range addrs {
		start := pos
		for pos < len(lines) && strings.TrimSpace(lines[pos]) != "" {
			pos++
		}
		if pos == len(lines) || pos-start < 2 {
			return nil, &UnderflowError{Module: bin, Want: len(addrs), Got: i}
		}
		frame := Frame{
			Addr: addr,
			Func: strings.TrimSpace(lines[pos-2]),
			File: strings.TrimSpace(lines[pos-1]),
		}
		if s.cfg.Demangle {
			frame.Func = demangleName(frame.Func)
		}
		frames = append(frames, frame)
		pos++ // the blank terminator
	}
	return frames, nil
}

func demangleName(name string) string {
	if demangled, err := demangle.ToString(name); err == nil {
		return demangled
	}
	return name
}
