// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the structured logging surface this package calls into for
// non-fatal conditions: warnings for clamped timeouts,
// unconstrained-but-malformed descriptors, padded short frames and
// malformed credential lines, and debug messages such as omitted
// empty-named options. It is satisfied by *log.Logger from
// github.com/charmbracelet/log. A Logger passed in Options.Logger
// receives only the messages Open itself logs; every other message goes
// to the package default.
type Logger interface {
	Warn(msg interface{}, keyvals ...interface{})
	Debug(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

// defaultLogger is used by Open when Options.Logger is nil, and always by
// option decoding, frame reading and credential-file parsing.
var defaultLogger Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "sane",
})
