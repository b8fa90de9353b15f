// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tracesym reads an indentation-encoded function call trace (hex addresses
// plus the module each belongs to), resolves the addresses through an
// external symbolizer and prints the symbolized call tree.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tracesym/tracesym/pkg/config"
	"github.com/tracesym/tracesym/pkg/ftrace"
	"github.com/tracesym/tracesym/pkg/log"
	"github.com/tracesym/tracesym/pkg/symbolizer"
	"github.com/tracesym/tracesym/pkg/tool"
)

var (
	flagInput      = flag.String("input", "", "text file containing the function trace (required)")
	flagConfig     = flag.String("config", "", "JSON config file with defaults for the other flags")
	flagDepth      = flag.Int("depth", 0, "depth at which to symbolize the trace (1 = top-level calls only, 0 = arbitrarily deep)")
	flagSymbolizer = flag.String("symbolizer", symbolizer.DefaultBinary, "symbolizer executable to use")
	flagTimeout    = flag.Duration("timeout", symbolizer.DefaultTimeout, "timeout for one symbolizer invocation")
	flagJobs       = flag.Int("jobs", 1, "number of modules to symbolize in parallel")
	flagDemangle   = flag.Bool("demangle", false, "demangle symbol names after resolution")

	flagExcludeSymbol tool.PatternsFlag
	flagExcludeModule tool.PatternsFlag
)

func init() {
	flag.Var(&flagExcludeSymbol, "exclude-symbol",
		"regexp matching symbols or source locations to omit from the output (any child calls are also omitted); can be given multiple times")
	flag.Var(&flagExcludeModule, "exclude-module",
		"regexp matching module names (for example .so files) whose call sites are omitted from the output; can be given multiple times")
}

// Config mirrors the flags that can also be supplied via -config.
// Flags given explicitly on the command line win over config values;
// exclusion patterns from both sources are combined.
type Config struct {
	Symbolizer    string   `json:"symbolizer"`
	Depth         int      `json:"depth"`
	Timeout       string   `json:"timeout"`
	Jobs          int      `json:"jobs"`
	Demangle      bool     `json:"demangle"`
	ExcludeSymbol []string `json:"exclude_symbol"`
	ExcludeModule []string `json:"exclude_module"`
}

func main() {
	flag.Parse()
	if *flagInput == "" || len(flag.Args()) != 0 {
		fmt.Fprintf(os.Stderr, "usage: tracesym -input=trace.txt [flags]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	cfg, timeout, err := loadConfig()
	if err != nil {
		tool.Fail(err)
	}
	if len(cfg.ExcludeSymbol) != 0 {
		log.Logf(1, "excluded symbols: %v", cfg.ExcludeSymbol)
	}
	if len(cfg.ExcludeModule) != 0 {
		log.Logf(1, "excluded modules: %v", cfg.ExcludeModule)
	}
	filters, err := ftrace.CompileFilters(cfg.ExcludeSymbol, cfg.ExcludeModule)
	if err != nil {
		tool.Fail(err)
	}

	log.Logf(0, "reading input file")
	data, err := os.ReadFile(*flagInput)
	if err != nil {
		tool.Failf("failed to open input file: %v", err)
	}

	log.Logf(0, "parsing input file")
	trace, err := ftrace.Parse(ftrace.SplitLines(data))
	if err != nil {
		tool.Fail(err)
	}
	for _, module := range trace.Modules() {
		fmt.Printf("%v: %v unique addresses\n", module, len(trace.AddrsByModule[module]))
	}

	log.Logf(0, "filtering modules")
	trace.ApplyModuleFilters(filters)

	log.Logf(0, "running %v", cfg.Symbolizer)
	symb := symbolizer.Make(symbolizer.Config{
		Binary:   cfg.Symbolizer,
		Timeout:  timeout,
		Demangle: cfg.Demangle,
	})
	defer symb.Close()
	table, err := symbolizer.BuildSymbolTable(symb, trace.AddrBatches(), cfg.Jobs)
	if err != nil {
		tool.Fail(err)
	}

	// Render into a buffer first so that a failure does not leave a
	// misleading partial tree on stdout.
	log.Logf(0, "printing call tree")
	buf := new(bytes.Buffer)
	if err := ftrace.Render(buf, trace, table, filters, cfg.Depth); err != nil {
		tool.Fail(err)
	}
	fmt.Printf("Printing call tree with depth %v for %v global variables.\n", cfg.Depth, len(trace.Roots))
	os.Stdout.Write(buf.Bytes())
}

// loadConfig merges the config file (if any) under the command line flags.
func loadConfig() (*Config, time.Duration, error) {
	cfg := &Config{
		Symbolizer: symbolizer.DefaultBinary,
		Timeout:    symbolizer.DefaultTimeout.String(),
		Jobs:       1,
	}
	if *flagConfig != "" {
		if err := config.LoadFile(*flagConfig, cfg); err != nil {
			return nil, 0, err
		}
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if set["symbolizer"] {
		cfg.Symbolizer = *flagSymbolizer
	}
	if set["depth"] {
		cfg.Depth = *flagDepth
	}
	if set["timeout"] {
		cfg.Timeout = flagTimeout.String()
	}
	if set["jobs"] {
		cfg.Jobs = *flagJobs
	}
	if set["demangle"] {
		cfg.Demangle = *flagDemangle
	}
	cfg.ExcludeSymbol = append(cfg.ExcludeSymbol, flagExcludeSymbol...)
	cfg.ExcludeModule = append(cfg.ExcludeModule, flagExcludeModule...)
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, 0, fmt.Errorf("bad timeout value %q: %w", cfg.Timeout, err)
	}
	return cfg, timeout, nil
}
