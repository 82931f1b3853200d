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

// Package rfdc is the RFSoC data-converter DeviceBackend realization
// (spec.md §4.D). It stands in for Xilinx's XRFdc driver talking to the
// data-converter tiles over a memory-mapped register window; here the
// window is a plain 32-bit-word-indexed RegisterFile a test harness pokes
// to simulate late/overflow/MMCM-lock conditions.
//
// Register offsets (word 4 NFFT, word 224 late counter, word 263 MMCM
// lock, word 264 nof RX DMA channels, base address 0xA0040000, window
// size 0x1F40) are literal ABI with the FPGA image (spec.md §9) and
// must not be renumbered.
package rfdc

import (
	"sync/atomic"

	"github.com/srsran/zynq-timestamping/backend"
)

// PLLFreq is the data converters' fixed internal PLL frequency in MHz
// (RFDC_PLL_FREQ in the original driver). It does not depend on n_prb
// or the configured sample rate.
const PLLFreq = 1966.08

// Base address and byte-window size of the "timestamp enabler /
// packetizer" status register bank. Kept for documentation purposes;
// RegisterFile below models the window's content, not its mapping.
const (
	RegisterBaseAddr = 0xA0040000
	RegisterWinBytes = 0x1F40
)

const (
	wordNFFT           = 4
	wordLateCounter    = 224
	wordMMCMLock       = 263
	wordNofRXChannels  = 264
	statusRegisterWord = 265 // word after the published map: combined late/overflow/lock scratch
)

// RegisterFile simulates the 32-bit-word status register window. All
// operations are unlocked and idempotent, mirroring real MMIO registers
// (spec.md §5).
type RegisterFile struct {
	words [512]uint32
}

func (r *RegisterFile) Read(word int) uint32  { return atomic.LoadUint32(&r.words[word]) }
func (r *RegisterFile) Write(word int, v uint32) { atomic.StoreUint32(&r.words[word], v) }

// SetLateCounter lets a test harness or loopback backend simulate the
// device observing a late TX submission.
func (r *RegisterFile) SetLateCounter(v uint32) { r.Write(wordLateCounter, v) }

// SetOverflow simulates an RX FIFO overrun being observed.
func (r *RegisterFile) SetOverflow(v uint32) { r.Write(wordNFFT, v) } // NFFT word doubles as the overflow flag on this ABI

// SetMMCMLock simulates the derived clock settling (or losing lock).
func (r *RegisterFile) SetMMCMLock(locked bool) {
	if locked {
		r.Write(wordMMCMLock, 1)
	} else {
		r.Write(wordMMCMLock, 0)
	}
}

// SetNofRXChannels records how many RX DMA channels the bitstream
// exposes, used by multi-antenna configurations (spec.md §12).
func (r *RegisterFile) SetNofRXChannels(n uint32) { r.Write(wordNofRXChannels, n) }
func (r *RegisterFile) NofRXChannels() int        { return int(r.Read(wordNofRXChannels)) }

// Backend implements backend.Backend against a simulated data-converter
// tile. It has no gain stage (RFSoC does not support gain control in
// the original driver) and no RSSI.
type Backend struct {
	regs RegisterFile

	rxFreqMHz [2]float64
	txFreqMHz [4]float64
}

// New creates a Backend with its status registers at power-on defaults
// (MMCM unlocked, no late/overflow observed).
func New() *Backend {
	return &Backend{}
}

// Registers exposes the simulated register window so a test harness or
// a loopback DMA pool can drive late/overflow/MMCM-lock conditions.
func (b *Backend) Registers() *RegisterFile { return &b.regs }

func (b *Backend) SetSampleRate(hz float64) (float64, error) {
	// The reference sample clock for the data converters is fixed by
	// the board's clock tree; the driver configures tile decimation to
	// match the requested rate and reports it back unchanged.
	return hz, nil
}

// nco translates hz into an NCO frequency in MHz around PLLFreq:
// PLLFreq - f for f below 2*PLLFreq, 2*PLLFreq - f at or above it.
func nco(hz float64) float64 {
	mhz := hz / 1e6
	if mhz < 2*PLLFreq {
		return PLLFreq - mhz
	}
	return 2*PLLFreq - mhz
}

func (b *Backend) SetFreq(dir backend.Direction, channel int, hz float64) error {
	f := nco(hz)
	switch dir {
	case backend.RX:
		ch := channel
		if ch < 0 || ch > 1 {
			ch = 0 // out-of-range channel falls back to ADC0, as the original driver does
		}
		b.rxFreqMHz[ch] = f
	case backend.TX:
		f = -f // TX additionally negates the NCO
		for blk := range b.txFreqMHz {
			b.txFreqMHz[blk] = f // applied to every enabled DAC block on the tile
		}
	}
	return nil
}

// RxFreqMHz exposes the last configured RX mixer frequency, read back
// by tests the way the original driver logs "Mixer Frequency set to".
func (b *Backend) RxFreqMHz(channel int) float64 {
	if channel < 0 || channel > 1 {
		channel = 0
	}
	return b.rxFreqMHz[channel]
}

// TxFreqMHz exposes the last configured TX mixer frequency (identical
// across DAC blocks; see SetFreq).
func (b *Backend) TxFreqMHz() float64 { return b.txFreqMHz[0] }

func (b *Backend) SetGain(dir backend.Direction, db float64) (float64, error) {
	if dir == backend.RX {
		return 50.0, nil
	}
	return 60.0, nil
}

func (b *Backend) StatusRegister(reg backend.StatusRegister) (uint32, error) {
	switch reg {
	case backend.RegLate:
		return b.regs.Read(wordLateCounter), nil
	case backend.RegOverflow:
		return b.regs.Read(wordNFFT), nil
	case backend.RegMMCMLock:
		return b.regs.Read(wordMMCMLock), nil
	}
	return 0, nil
}

func (b *Backend) HasRSSI() bool         { return false }
func (b *Backend) RSSI() (float64, bool) { return 0, false }
func (b *Backend) Close() error          { return nil }
