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

package engine

import (
	"time"

	"github.com/srsran/zynq-timestamping/backend"
)

// SetRxSrate applies hz to both directions (the backend has one shared
// sample clock). If unchanged, it is a no-op. If RX is active, it is
// stopped, its prev_header invalidated, its ring reset, the new rate
// applied, and — once the MMCM reports locked — restarted. TX is left
// running (spec.md §4.F).
func (e *Engine) SetRxSrate(hz float64) (float64, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	unchanged := uint32(hz) == e.sampleRateHz
	e.mu.Unlock()
	if unchanged {
		return hz, nil
	}

	wasActive := e.rxAnyActive()
	if wasActive {
		for _, s := range e.rx {
			s.Stop()
			s.InvalidatePrevHeader()
		}
	}

	accepted, err := e.backend.SetSampleRate(hz)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.sampleRateHz = uint32(accepted)
	e.mu.Unlock()

	if err := e.waitMMCMLock(); err != nil {
		return 0, err
	}

	if wasActive {
		for i := range e.rx {
			e.armRXStreamer(i)
			e.rx[i].Start()
		}
	}
	return accepted, nil
}

// SetTxSrate mirrors SetRxSrate for the TX direction.
func (e *Engine) SetTxSrate(hz float64) (float64, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	unchanged := uint32(hz) == e.sampleRateHz
	e.mu.Unlock()
	if unchanged {
		return hz, nil
	}

	wasActive := e.txActiveLocked()
	if wasActive {
		e.tx.Stop()
		e.tx.InvalidatePrevHeader()
	}

	accepted, err := e.backend.SetSampleRate(hz)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.sampleRateHz = uint32(accepted)
	e.mu.Unlock()

	if err := e.waitMMCMLock(); err != nil {
		return 0, err
	}

	if wasActive {
		e.armTXStreamer()
		e.tx.Start()
	}
	return accepted, nil
}

func (e *Engine) rxAnyActive() bool {
	for i := range e.rx {
		if e.rxActiveLocked(i) {
			return true
		}
	}
	return false
}

func (e *Engine) waitMMCMLock() error {
	for i := 0; i < mmcmLockMaxPolls; i++ {
		v, err := e.backend.StatusRegister(backend.RegMMCMLock)
		if err == nil && v != 0 {
			return nil
		}
		time.Sleep(mmcmLockPollInterval)
	}
	return ErrMMCMNotLocked
}

// SetRxFreq translates hz to an NCO offset and applies it on the RX
// tile (spec.md §4.F; the NCO math itself lives in the Backend).
func (e *Engine) SetRxFreq(channel int, hz float64) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.backend.SetFreq(backend.RX, channel, hz)
}

// SetTxFreq mirrors SetRxFreq for the TX tile.
func (e *Engine) SetTxFreq(channel int, hz float64) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.backend.SetFreq(backend.TX, channel, hz)
}
