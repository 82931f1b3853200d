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

// Package errs implements the callback-and-argument indirection used
// to surface LATE/OVERFLOW/UNDERFLOW conditions to the caller
// (spec.md §4.G, §7).
package errs

import "sync"

// Kind enumerates the error taxonomy the engine can report.
type Kind int

const (
	LATE Kind = iota
	OVERFLOW
	UNDERFLOW
	OTHER
)

func (k Kind) String() string {
	switch k {
	case LATE:
		return "LATE"
	case OVERFLOW:
		return "OVERFLOW"
	case UNDERFLOW:
		return "UNDERFLOW"
	default:
		return "OTHER"
	}
}

// Event is the record passed to a registered handler. Opt carries the
// spec's side disambiguation for LATE: 1 marks RX-side, 0 marks TX-side.
type Event struct {
	Kind Kind
	Opt  int
}

// Handler is the user-provided callback, paired with an opaque
// argument it is always invoked with.
type Handler func(ev Event, arg interface{})

// Reporter stores a handler/argument pair and debounces consecutive
// LATE observations, reporting once per five (spec.md §4.D, §4.G).
// It is independently lockable from streamer state, per spec.md §9.
type Reporter struct {
	mu      sync.Mutex
	handler Handler
	arg     interface{}

	lateCountRX int
	lateCountTX int
}

// Register stores the handler and its opaque argument for later use.
func (r *Reporter) Register(h Handler, arg interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
	r.arg = arg
}

// ReportOverflow fires the callback unconditionally: OVERFLOW is
// reported on every observation (spec.md §4.D).
func (r *Reporter) ReportOverflow() {
	r.fire(Event{Kind: OVERFLOW})
}

// ObserveLate records one LATE observation for the given side
// (isRX selects the RX or TX debounce counter) and fires the callback
// once the count reaches five, then resets the counter.
func (r *Reporter) ObserveLate(isRX bool) {
	r.mu.Lock()
	var fire bool
	if isRX {
		r.lateCountRX++
		if r.lateCountRX >= 5 {
			r.lateCountRX = 0
			fire = true
		}
	} else {
		r.lateCountTX++
		if r.lateCountTX >= 5 {
			r.lateCountTX = 0
			fire = true
		}
	}
	handler, arg := r.handler, r.arg
	r.mu.Unlock()

	if fire && handler != nil {
		opt := 0
		if isRX {
			opt = 1
		}
		handler(Event{Kind: LATE, Opt: opt}, arg)
	}
}

// ResetLate clears both debounce counters, used when a stream restarts.
func (r *Reporter) ResetLate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lateCountRX = 0
	r.lateCountTX = 0
}

// ReportFatal fires OTHER for conditions the engine treats as fatal
// (e.g. the RFdc reader giving up after repeated preamble misalignment).
func (r *Reporter) ReportFatal() {
	r.fire(Event{Kind: OTHER})
}

func (r *Reporter) fire(ev Event) {
	r.mu.Lock()
	handler, arg := r.handler, r.arg
	r.mu.Unlock()
	if handler != nil {
		handler(ev, arg)
	}
}
