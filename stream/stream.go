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

// Package stream implements the Streamer (spec.md §4.E): one long-lived
// goroutine per direction, each owning a Ring and a dma.Pool, started
// parked and woken through the {mutex, condvar, thread_completed}
// handshake the source uses instead of a single boolean (spec.md §9 —
// the double flip, engine signals then thread observes and signals
// back, is part of the contract and must not be collapsed).
package stream

import (
	"sync"
	"time"

	"github.com/srsran/zynq-timestamping/backend"
	"github.com/srsran/zynq-timestamping/dma"
	"github.com/srsran/zynq-timestamping/errs"
	"github.com/srsran/zynq-timestamping/internal/xlog"
	"github.com/srsran/zynq-timestamping/protocol/rfpacket"
	"github.com/srsran/zynq-timestamping/ring"
)

// Direction selects whether a Streamer drains RX buffers into its ring
// or drains its ring into TX buffers.
type Direction int

const (
	RX Direction = iota
	TX
)

// Variant selects the preamble-recovery strategy a Streamer's reader
// loop uses on a misaligned RX packet: the IIO backend can afford to
// scan the whole buffer for a fresh sync point, the RFdc kernel driver
// instead counts consecutive misses and gives up (spec.md §4.E).
type Variant int

const (
	IIOVariant Variant = iota
	RFdcVariant
)

// maxConsecutiveMisalignments is the RFdc variant's give-up threshold.
const maxConsecutiveMisalignments = 20

// State is the Streamer's externally-visible lifecycle state
// (spec.md §3 state machine).
type State int

const (
	Idle State = iota
	Active
)

// Streamer owns one OS-thread-equivalent goroutine, a Ring, and a
// dma.Pool, plus the per-direction state spec.md §3 tabulates.
type Streamer struct {
	dir     Direction
	variant Variant

	backend  backend.Backend
	reporter *errs.Reporter
	log      *xlog.Logger
	ring     *ring.Ring

	mu              sync.Mutex
	cond            *sync.Cond
	streamActive    bool
	threadCompleted bool
	shuttingDown    bool

	pool            dma.Pool
	sampleRateHz    uint32
	bufferSize      int // IQ pairs per DMA packet
	metadataSamples int
	sampleSizeBytes int
	useTimestamps   bool

	// prevHeader carries a partially-consumed header across calls: on
	// RX it is owned by the engine across recv_with_time calls (see
	// PrevHeader/SetPrevHeader); on TX it is owned internally by runTX
	// across writer-loop iterations.
	prevHeaderMu  sync.Mutex
	prevHeader    PrevHeader
	preambleWord  int // RX reader's sliding preamble offset, in words
	misalignCount int // RFdc reader's consecutive-miss counter
}

// PrevHeader is the partially-consumed packet header state spec.md §3
// tabulates: a header whose declared sample count has not been fully
// read out of the ring yet.
type PrevHeader struct {
	Header    rfpacket.Header
	Remaining uint32 // samples not yet consumed from this header
}

// PrevHeader returns the engine-owned RX split-header state.
func (s *Streamer) PrevHeader() PrevHeader {
	s.prevHeaderMu.Lock()
	defer s.prevHeaderMu.Unlock()
	return s.prevHeader
}

// SetPrevHeader updates the engine-owned RX split-header state.
func (s *Streamer) SetPrevHeader(h PrevHeader) {
	s.prevHeaderMu.Lock()
	defer s.prevHeaderMu.Unlock()
	s.prevHeader = h
}

// InvalidatePrevHeader clears Remaining to 0, the "no partial packet"
// sentinel used when a reset/restart discards ring contents.
func (s *Streamer) InvalidatePrevHeader() {
	s.SetPrevHeader(PrevHeader{})
}

// New creates a Streamer parked in Idle, with its goroutine started
// and blocked on the activation handshake. threadCompleted starts true
// — the constructed/idle state reads as "thread completed" (spec.md
// §9) — so the first Start() call actually waits for the goroutine to
// wake and flip it to false, rather than skipping the handshake
// because the zero value already happened to read false.
func New(dir Direction, variant Variant, b backend.Backend, reporter *errs.Reporter, log *xlog.Logger, ringCapacity int) *Streamer {
	s := &Streamer{
		dir:             dir,
		variant:         variant,
		backend:         b,
		reporter:        reporter,
		log:             log,
		ring:            ring.New(ringCapacity),
		threadCompleted: true,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Ring exposes the streamer's FIFO for the engine to drain (RX) or
// fill (TX).
func (s *Streamer) Ring() *ring.Ring { return s.ring }

// Configure sets the parameters the engine derives from n_prb and the
// current sample rate (spec.md §3). It is only safe to call while the
// streamer is Idle.
func (s *Streamer) Configure(pool dma.Pool, sampleRateHz uint32, bufferSize, metadataSamples, sampleSizeBytes int, useTimestamps bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = pool
	s.sampleRateHz = sampleRateHz
	s.bufferSize = bufferSize
	s.metadataSamples = metadataSamples
	s.sampleSizeBytes = sampleSizeBytes
	s.useTimestamps = useTimestamps
}

func (s *Streamer) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamActive
}

// Start activates the streamer: re-arms and resets the ring, and waits
// until the goroutine has observed the activation (the handshake's
// first flip, spec.md §4.E). It does not allocate or enable the pool;
// the caller does that before Start.
func (s *Streamer) Start() {
	s.mu.Lock()
	s.ring.Start()
	s.ring.Reset()
	s.streamActive = true
	s.cond.Broadcast()
	for s.threadCompleted {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// Stop deactivates the streamer, cancels any outstanding DMA
// acquisition by disabling the pool, and waits for the goroutine to
// report thread_completed = true (the "join", spec.md §4.E/§4.F).
func (s *Streamer) Stop() {
	s.mu.Lock()
	if !s.streamActive {
		s.mu.Unlock()
		return
	}
	s.streamActive = false
	pool := s.pool
	s.mu.Unlock()

	if pool != nil {
		_ = pool.Disable()
	}
	s.ring.Stop()

	s.mu.Lock()
	for !s.threadCompleted {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// ThreadCompleted reports the handshake's current value.
func (s *Streamer) ThreadCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadCompleted
}

// run is the goroutine's body: parked on cond until activated, then
// the direction-specific main loop, then parked again. It never
// returns while the process is up; Shutdown breaks it out for good.
func (s *Streamer) run() {
	s.mu.Lock()
	for {
		for !s.streamActive {
			if s.shuttingDown {
				s.mu.Unlock()
				return
			}
			s.cond.Wait()
		}
		s.threadCompleted = false
		s.cond.Broadcast()
		s.mu.Unlock()

		if s.dir == RX {
			s.runRX()
		} else {
			s.runTX()
		}

		s.mu.Lock()
		s.threadCompleted = true
		s.cond.Broadcast()
	}
}

// Shutdown parks the goroutine for good; called once from Engine.Close.
func (s *Streamer) Shutdown() {
	s.Stop()
	s.mu.Lock()
	s.shuttingDown = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *Streamer) checkOverflow() {
	v, err := s.backend.StatusRegister(backend.RegOverflow)
	if err == nil && v != 0 {
		s.reporter.ReportOverflow()
	}
}

// observeLateTX reports every nonzero LATE observation to the
// Reporter, which owns the only debounce counter (spec.md §8: fire
// once per five raw observations, not once per twenty-five).
func (s *Streamer) observeLateTX() {
	v, err := s.backend.StatusRegister(backend.RegLate)
	if err != nil {
		return
	}
	if v != 0 {
		s.reporter.ObserveLate(false)
	}
}

func sleepBriefly() { time.Sleep(time.Millisecond) }
