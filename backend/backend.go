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

// Package backend declares the DeviceBackend capability set (spec.md
// §4.D): sample-rate/frequency/gain control plus the handful of
// memory-mapped status registers the core reads back (late, overflow,
// MMCM lock). backend/rfdc grounds the RFdc variant's NCO math and
// register map on the Zynq RFSoC driver in original_source/; backend/iio
// grounds the IIO variant on the equivalent libiio driver, which has no
// mixer of its own and instead drives an AD9361-style LO.
package backend

// Direction selects which signal path an operation targets.
type Direction int

const (
	RX Direction = iota
	TX
)

// StatusRegister names one of the three status bits the core polls.
// Index values are part of the ABI with the FPGA image (spec.md §9)
// and must not be renumbered.
type StatusRegister int

const (
	// RegLate is non-zero when a TX packet arrived late at the device.
	RegLate StatusRegister = iota
	// RegOverflow is non-zero when an RX FIFO overran.
	RegOverflow
	// RegMMCMLock is non-zero once the derived clock has stabilized.
	RegMMCMLock
)

// Backend is the narrow RF-frontend collaborator the core drives. It
// knows nothing about DMA, rings, or packet framing.
type Backend interface {
	// SetSampleRate configures both directions' converter tiles to hz
	// and returns the rate actually accepted by the hardware.
	SetSampleRate(hz float64) (float64, error)

	// SetFreq tunes dir to hz. The rfdc backend translates hz into an
	// NCO offset around its fixed PLL frequency and applies it to every
	// enabled block on dir's tile; the iio backend stores hz as the
	// absolute LO frequency.
	SetFreq(dir Direction, channel int, hz float64) error

	// SetGain is a no-op stub on backends without a gain stage (spec.md
	// §9 — RFSoC does not support gain control); it still returns the
	// value callers should report back for API compatibility.
	SetGain(dir Direction, db float64) (float64, error)

	// StatusRegister reads one of the three status bits the core
	// polls after stream transitions or on every TX/RX iteration.
	StatusRegister(reg StatusRegister) (uint32, error)

	// HasRSSI reports whether RSSI() returns a meaningful reading.
	HasRSSI() bool

	// RSSI returns the last measured received signal strength in dBm
	// and true, or (0, false) on a backend without RSSI support.
	RSSI() (float64, bool)

	// Close releases any mapped registers or device handles. Idempotent.
	Close() error
}
