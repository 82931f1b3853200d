// Copyright 2026 zynq-timestamping Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xlog is the engine's logging surface: a thin wrapper over
// log.Printf, the same idiom concurrency/gopool uses to record a
// recovered panic. A Logger is constructed once per Engine (spec.md
// §12's Args.Quiet controls its own instance's minimum level) rather
// than shared as mutable package state, so two Engines in the same
// process can be quieted independently.
package xlog

import (
	"log"
	"sync/atomic"
)

// Logger wraps a *log.Logger with an independently toggleable quiet
// flag. The zero value is not usable; construct with New.
type Logger struct {
	l     *log.Logger
	quiet int32
}

// New returns a Logger that writes through l. A nil l means
// log.Default().
func New(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{l: l}
}

// SetQuiet suppresses Warnf/Infof output on this Logger only.
func (x *Logger) SetQuiet(q bool) {
	var v int32
	if q {
		v = 1
	}
	atomic.StoreInt32(&x.quiet, v)
}

func (x *Logger) Warnf(format string, args ...interface{}) {
	if atomic.LoadInt32(&x.quiet) != 0 {
		return
	}
	x.l.Printf("zynq-timestamping: WARN: "+format, args...)
}

func (x *Logger) Infof(format string, args ...interface{}) {
	if atomic.LoadInt32(&x.quiet) != 0 {
		return
	}
	x.l.Printf("zynq-timestamping: INFO: "+format, args...)
}
