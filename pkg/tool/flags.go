// Copyright 2024 tracesym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tool

import (
	"fmt"
	"strings"
)

// PatternsFlag allows passing the same flag multiple times, accumulating
// the values in order (e.g. -exclude-symbol=foo -exclude-symbol=bar).
type PatternsFlag []string

// String converts the flag values into a string which is required to
// parse them afterwards.
func (patterns *PatternsFlag) String() string {
	return fmt.Sprint(*patterns)
}

// Set is used by flag.Parse to correctly parse the command line arguments.
func (patterns *PatternsFlag) Set(value string) error {
	*patterns = append(*patterns, strings.TrimSpace(value))
	return nil
}
