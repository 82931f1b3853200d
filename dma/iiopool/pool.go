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

// Package iiopool is the IIO DmaPool realization: "IIO variant uses
// backend buffers" (spec.md §2). libiio keeps several buffers
// in flight at once (iio_buffer_refill/iio_buffer_push), unlike the
// RFdc kernel driver's strict one-in-flight discipline (dma/kdriver),
// so this pool is a pair of free-running queues rather than a
// pending/in_progress/completed state machine: one queue of ids handed
// to the device for refill (RX) or free to fill (TX), one queue of
// ids ready for the host to acquire. A backend or test harness drains
// the "awaiting" queue, does its (simulated) I/O, and calls Complete.
package iiopool

import (
	"errors"
	"sync"

	"github.com/srsran/zynq-timestamping/cache/mempool"
	"github.com/srsran/zynq-timestamping/container/ring"
)

// ErrCancelled is returned by a blocked Acquire* when Disable runs.
var ErrCancelled = errors.New("iiopool: cancelled")

// ErrNotAllocated mirrors rfdcpool.ErrNotAllocated.
var ErrNotAllocated = errors.New("iiopool: pool not allocated")

type Direction int

const (
	RX Direction = iota
	TX
)

// Pool implements dma.Pool on top of two id queues (channels buffered
// to the pool's buffer count).
type Pool struct {
	dir Direction

	mu      sync.Mutex
	buffers *ring.Ring[[]byte]

	bufSamples  int
	sampleBytes int

	awaiting chan int // ids handed to the "device" (RX: for refill, TX: unused)
	ready    chan int // ids completed and ready for the host

	done    chan struct{}
	enabled bool
}

func New(dir Direction) *Pool {
	return &Pool{dir: dir}
}

func (p *Pool) Allocate(nBuffers, bufferSizeSamples, sampleSizeBytes int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	bufs := make([][]byte, nBuffers)
	byteLen := bufferSizeSamples * sampleSizeBytes
	for i := range bufs {
		b := mempool.Malloc(byteLen)
		for j := range b {
			b[j] = 0
		}
		bufs[i] = b
	}
	p.buffers = ring.NewFromSlice(bufs)
	p.bufSamples = bufferSizeSamples
	p.sampleBytes = sampleSizeBytes
	p.awaiting = make(chan int, nBuffers)
	p.ready = make(chan int, nBuffers)
	return nil
}

func (p *Pool) Destroy() error {
	_ = p.Disable()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buffers != nil {
		p.buffers.Do(func(b *[]byte) {
			mempool.Free(*b)
			*b = nil
		})
		p.buffers = nil
	}
	return nil
}

func (p *Pool) Enable() error {
	p.mu.Lock()
	n := p.numBuffersLocked()
	if n == 0 {
		p.mu.Unlock()
		return ErrNotAllocated
	}
	p.enabled = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	switch p.dir {
	case RX:
		for i := 0; i < n; i++ {
			p.awaiting <- i // hand every buffer to the device for the first refill
		}
	case TX:
		for i := 0; i < n; i++ {
			p.ready <- i // every buffer starts out free to fill
		}
	}
	return nil
}

func (p *Pool) Disable() error {
	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return nil
	}
	p.enabled = false
	done := p.done
	p.mu.Unlock()

	close(done)
	drain(p.awaiting)
	drain(p.ready)
	return nil
}

func drain(ch chan int) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// AwaitingFill lets a backend drain ids handed to the device for
// refill (RX) — the simulated libiio/antenna side of the pipeline.
func (p *Pool) AwaitingFill() <-chan int { return p.awaiting }

// CompleteRefill is called by the backend once it has written fresh
// IQ samples (plus metadata) into the buffer for id, making it ready
// for the host to AcquireRX.
func (p *Pool) CompleteRefill(id int) {
	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()
	ready <- id
}

func (p *Pool) AcquireRX() (int, error) {
	p.mu.Lock()
	ready, done := p.ready, p.done
	p.mu.Unlock()
	select {
	case id := <-ready:
		return id, nil
	case <-done:
		return 0, ErrCancelled
	}
}

func (p *Pool) ReleaseRX(id int) error {
	p.mu.Lock()
	awaiting := p.awaiting
	p.mu.Unlock()
	awaiting <- id
	return nil
}

func (p *Pool) AcquireTX() (int, error) {
	p.mu.Lock()
	ready, done := p.ready, p.done
	p.mu.Unlock()
	select {
	case id := <-ready:
		return id, nil
	case <-done:
		return 0, ErrCancelled
	}
}

// SendTX submits a filled TX buffer. libiio's TX ring allows several
// buffers in flight, so the buffer is simply returned to the free
// (ready) pool once "pushed" and the next free id is handed back.
func (p *Pool) SendTX(id int, payloadBytes int) (int, error) {
	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()
	ready <- id
	return p.AcquireTX()
}

func (p *Pool) DataPtr(id int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, ok := p.buffers.Get(id)
	if !ok {
		return nil
	}
	return *item.Pointer()
}

func (p *Pool) BufferSizeSamples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufSamples
}

func (p *Pool) SampleSizeBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampleBytes
}

func (p *Pool) numBuffersLocked() int {
	if p.buffers == nil {
		return 0
	}
	return p.buffers.Len()
}
