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

// Package iio is the libiio/AD9361 DeviceBackend realization (spec.md
// §4.D). Unlike backend/rfdc, the AD9361's "altvoltage0"/"altvoltage1"
// channels take an absolute LO frequency directly — there is no fixed
// PLL to translate around, and hardwaregain is written straight to the
// "voltage0" channel with a fixed 89 dB TX attenuator offset. Status
// registers (late/overflow/MMCM lock) have no hardware equivalent on
// this backend and are simulated in software by a loopback harness.
package iio

import (
	"sync/atomic"

	"github.com/srsran/zynq-timestamping/backend"
)

// txGainOffset mirrors the original driver's TX attenuator bookkeeping:
// the channel attribute is hardwaregain-89, and reads add 89 back.
const txGainOffset = 89

// Backend simulates an AD9361-class frontend driven over libiio. Where
// the real driver calls iio_channel_attr_write_longlong against device
// attributes, this stands in with plain fields a test harness or the
// stream package's loopback can read back.
type Backend struct {
	rxFreqHz int64
	txFreqHz int64

	rxGainDB int64
	txGainDB int64

	late     uint32
	overflow uint32
	mmcmLock uint32
}

// New creates a Backend with MMCM already reporting locked: the IIO
// variant has no clock-settling delay of its own (set_master_clock_rate
// is a no-op in the original driver).
func New() *Backend {
	b := &Backend{}
	atomic.StoreUint32(&b.mmcmLock, 1)
	return b
}

func (b *Backend) SetSampleRate(hz float64) (float64, error) {
	// set_rx_srate/set_tx_srate in the original driver always succeed
	// and report the requested rate back unchanged.
	return hz, nil
}

func (b *Backend) SetFreq(dir backend.Direction, channel int, hz float64) error {
	freq := int64(hz)
	switch dir {
	case backend.RX:
		atomic.StoreInt64(&b.rxFreqHz, freq)
	case backend.TX:
		atomic.StoreInt64(&b.txFreqHz, freq)
	}
	return nil
}

func (b *Backend) RxFreqHz() int64 { return atomic.LoadInt64(&b.rxFreqHz) }
func (b *Backend) TxFreqHz() int64 { return atomic.LoadInt64(&b.txFreqHz) }

func (b *Backend) SetGain(dir backend.Direction, db float64) (float64, error) {
	switch dir {
	case backend.RX:
		atomic.StoreInt64(&b.rxGainDB, int64(db))
		return db, nil
	default:
		atomic.StoreInt64(&b.txGainDB, int64(db)-txGainOffset)
		return db, nil
	}
}

// RxGainDB reads back the gain exactly as configured.
func (b *Backend) RxGainDB() float64 { return float64(atomic.LoadInt64(&b.rxGainDB)) }

// TxGainDB reads back the channel attribute and adds the attenuator
// offset, mirroring rf_iio_get_tx_gain.
func (b *Backend) TxGainDB() float64 {
	return float64(atomic.LoadInt64(&b.txGainDB) + txGainOffset)
}

// SetLate, SetOverflow and SetMMCMLock let a loopback harness simulate
// the status conditions the core polls; the real backend has no such
// registers, so production wiring never calls these.
func (b *Backend) SetLate(v uint32)     { atomic.StoreUint32(&b.late, v) }
func (b *Backend) SetOverflow(v uint32) { atomic.StoreUint32(&b.overflow, v) }
func (b *Backend) SetMMCMLock(locked bool) {
	if locked {
		atomic.StoreUint32(&b.mmcmLock, 1)
	} else {
		atomic.StoreUint32(&b.mmcmLock, 0)
	}
}

func (b *Backend) StatusRegister(reg backend.StatusRegister) (uint32, error) {
	switch reg {
	case backend.RegLate:
		return atomic.LoadUint32(&b.late), nil
	case backend.RegOverflow:
		return atomic.LoadUint32(&b.overflow), nil
	case backend.RegMMCMLock:
		return atomic.LoadUint32(&b.mmcmLock), nil
	}
	return 0, nil
}

func (b *Backend) HasRSSI() bool         { return false }
func (b *Backend) RSSI() (float64, bool) { return 0, false }
func (b *Backend) Close() error          { return nil }
