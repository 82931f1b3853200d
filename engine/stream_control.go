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

// StartRxStream activates every RX streamer. If no sample rate has
// been set yet, DefaultTxRxSampleRate is applied to both directions
// first (spec.md §4.F).
func (e *Engine) StartRxStream() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.ensureDefaultRate()

	for i := range e.rx {
		e.mu.Lock()
		p := e.rxPool[i]
		e.mu.Unlock()
		if p == nil {
			e.rebuildRXPool(i, e.rxBufferSize)
		}
		e.armRXStreamer(i)
		e.rx[i].Start()
	}
	return nil
}

// StopRxStream deactivates every RX streamer; the pool is left
// allocated (spec.md §4.F does not ask stop_rx_stream to destroy it,
// unlike stop_tx_stream).
func (e *Engine) StopRxStream() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	for _, s := range e.rx {
		s.Stop()
	}
	return nil
}

// StartTxStream activates the TX streamer, rebuilding its pool first
// if a prior StopTxStream destroyed it.
func (e *Engine) StartTxStream() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.ensureDefaultRate()

	e.mu.Lock()
	p := e.txPool
	e.mu.Unlock()
	if p == nil {
		e.rebuildTXPool(e.txBufferSize)
	}
	e.armTXStreamer()
	e.tx.Start()
	return nil
}

// StopTxStream deactivates the TX streamer and destroys its pool's
// buffers (spec.md §4.F).
func (e *Engine) StopTxStream() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.tx.Stop()

	e.mu.Lock()
	p := e.txPool
	e.txPool = nil
	e.mu.Unlock()
	if p != nil {
		_ = p.Destroy()
	}
	return nil
}

func (e *Engine) ensureDefaultRate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sampleRateHz == 0 {
		e.sampleRateHz = DefaultTxRxSampleRate
		_, _ = e.backend.SetSampleRate(DefaultTxRxSampleRate)
	}
}
