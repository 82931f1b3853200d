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

// Package dma declares the capability every DmaPool realization must
// provide (spec.md §4.C). dma/rfdcpool backs it with the simulated
// kernel character-device queue discipline (dma/kdriver); dma/iiopool
// backs it with a software loopback that stands in for libiio's
// buffer refill/push calls. A Streamer (see package stream) is
// generic over this interface and does not know which realization it
// is driving.
package dma

// Pool is the fixed pool of sample-size-aligned DMA buffers described
// in spec.md §4.C.
type Pool interface {
	// Allocate obtains nBuffers buffers of bufferSizeSamples samples
	// each, sampleSizeBytes bytes per sample (2*sizeof(i16)*channels
	// for RX, always 2*sizeof(i16) for TX — spec.md §9).
	Allocate(nBuffers, bufferSizeSamples, sampleSizeBytes int) error

	// Destroy is idempotent; it also disables the queue.
	Destroy() error

	// Enable submits every buffer to the device for RX, or marks the
	// pool active (with every buffer free) for TX.
	Enable() error

	// Disable cancels in-flight transactions and quiesces the device.
	Disable() error

	// AcquireRX blocks until a completed buffer is available.
	AcquireRX() (id int, err error)

	// ReleaseRX returns a buffer to the device for refill.
	ReleaseRX(id int) error

	// AcquireTX blocks until a free buffer is available.
	AcquireTX() (id int, err error)

	// SendTX submits a filled TX buffer of length payloadBytes bytes
	// and atomically returns the next available buffer's id.
	SendTX(id int, payloadBytes int) (nextID int, err error)

	// DataPtr returns the DMA-visible payload for id as a byte slice
	// (the Go stand-in for a raw pointer into DMA-coherent memory).
	DataPtr(id int) []byte

	// BufferSizeSamples returns the configured per-buffer sample count.
	BufferSizeSamples() int

	// SampleSizeBytes returns the configured per-sample byte size.
	SampleSizeBytes() int
}
