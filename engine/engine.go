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

// Package engine implements the public contract spec.md §4.F describes:
// it owns a DeviceBackend and both Streamers, and coordinates live
// reconfiguration as n_prb and the sample rate change underneath an
// active stream.
package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/srsran/zynq-timestamping/backend"
	"github.com/srsran/zynq-timestamping/dma"
	"github.com/srsran/zynq-timestamping/errs"
	"github.com/srsran/zynq-timestamping/internal/xlog"
	"github.com/srsran/zynq-timestamping/protocol/rfpacket"
	"github.com/srsran/zynq-timestamping/stream"
	"github.com/srsran/zynq-timestamping/timemap"
)

// DefaultTxRxSampleRate is DEFAULT_TXRX_SRATE (spec.md §4.F): applied
// to both directions the first time a stream starts with no rate set.
const DefaultTxRxSampleRate = 1_920_000

// MinDataBufferSize is MIN_DATA_BUFFER_SIZE (spec.md §3), the smallest
// DMA payload size in IQ pairs, used for n_prb <= 6.
const MinDataBufferSize = 1920

// NumDMABuffers is the fixed DMA pool depth on each direction.
const NumDMABuffers = 4

// mmcmLockPollInterval and mmcmLockMaxPolls bound set_rx_srate's wait
// for the MMCM-lock status register (spec.md §5: polled with 100 µs
// sleep).
const (
	mmcmLockPollInterval = 100 * time.Microsecond
	mmcmLockMaxPolls     = 10000 // 1 second upper bound
)

// ErrMMCMNotLocked is returned by a rate change that times out waiting
// for the derived clock to settle.
var ErrMMCMNotLocked = errors.New("engine: MMCM did not lock")

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("engine: closed")

var (
	errInvalidAntenna     = errors.New("engine: invalid antenna index")
	errRecvBufferTooSmall = errors.New("engine: recv buffer shorter than 2*n")
	errSendBufferTooSmall = errors.New("engine: send buffer shorter than 2*n")
)

// PoolFactory builds a fresh, empty dma.Pool for one direction; Engine
// calls Allocate/Enable/Destroy on the result as streams start, stop,
// and resize.
type PoolFactory func(dir stream.Direction) dma.Pool

// Engine owns one Backend and one-or-many RX Streamers (plural under
// n_rx_antennas > 1, spec.md §12) plus a single TX Streamer.
type Engine struct {
	mu     sync.Mutex
	closed bool

	backend backend.Backend
	variant stream.Variant
	pools   PoolFactory
	reporter *errs.Reporter

	args Args
	log  *xlog.Logger

	rx []*stream.Streamer
	tx *stream.Streamer

	rxPool []dma.Pool
	txPool dma.Pool

	sampleRateHz uint32

	rxBufferSize int // IQ pairs per RX DMA packet, excluding metadata
	txBufferSize int // IQ pairs per TX DMA packet, excluding metadata

	rxBufferSizeOverride int // spec.md §12 item 2; 0 means "use n_prb table"

	txContinuationTicks uint64 // next tick to use when send_timed has no explicit time spec
}

// Open constructs an Engine: parses args, creates the backend-owned
// streamers parked, and runs the initial configure_timestamping pass.
// variant selects the RX reader's misalignment-recovery strategy.
// logger is this Engine's own log sink (SPEC_FULL.md §10.1); nil means
// log.Default(). Two Engines in the same process each get an
// independent Logger instance, so their Args.Quiet settings never
// interfere with each other.
func Open(argsStr string, b backend.Backend, variant stream.Variant, pools PoolFactory, logger *log.Logger) (*Engine, error) {
	if b == nil || pools == nil {
		return nil, errors.New("engine: backend and pool factory are required")
	}
	a := ParseArgs(argsStr)
	xl := xlog.New(logger)
	xl.SetQuiet(a.Quiet)

	e := &Engine{
		backend:  b,
		variant:  variant,
		pools:    pools,
		reporter: &errs.Reporter{},
		args:     a,
		log:      xl,
	}

	for i := uint(0); i < a.NRxAntennas; i++ {
		e.rx = append(e.rx, stream.New(stream.RX, variant, b, e.reporter, xl, ringCapacity))
	}
	e.rxPool = make([]dma.Pool, len(e.rx))
	e.tx = stream.New(stream.TX, variant, b, e.reporter, xl, ringCapacity)

	e.configureTimestamping(a.NPRB)
	return e, nil
}

// ringCapacity is generous relative to one DMA buffer so the
// reader/writer threads rarely block the engine thread; spec.md does
// not mandate an exact size, only that Ring be "bounded".
const ringCapacity = 1 << 20

// Close cancels both streamer threads if still running, disables DMA,
// and is idempotent (spec.md §4.F).
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	rx, tx := e.rx, e.tx
	e.mu.Unlock()

	for _, s := range rx {
		s.Shutdown()
	}
	tx.Shutdown()

	e.mu.Lock()
	for i, p := range e.rxPool {
		if p != nil {
			_ = p.Destroy()
		}
		e.rxPool[i] = nil
	}
	if e.txPool != nil {
		_ = e.txPool.Destroy()
		e.txPool = nil
	}
	e.mu.Unlock()

	return e.backend.Close()
}

func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// RegisterErrorHandler stores a handler for later LATE/OVERFLOW/OTHER
// reports (spec.md §4.F, §4.G).
func (e *Engine) RegisterErrorHandler(h errs.Handler, arg interface{}) {
	e.reporter.Register(h, arg)
}

// SetRxBufferSizeOverride consults a fixed RX DMA packet size instead
// of n_prb's table (TX keeps the table's size; 0 clears the override),
// re-running configure_timestamping immediately so
// the override takes effect right away rather than waiting for some
// other, unrelated reconfiguration to consult it later (spec.md §12
// item 2). args.NPRB is fixed at Open and safe to read without e.mu.
func (e *Engine) SetRxBufferSizeOverride(samples int) {
	e.mu.Lock()
	e.rxBufferSizeOverride = samples
	e.mu.Unlock()
	e.configureTimestamping(e.args.NPRB)
}
