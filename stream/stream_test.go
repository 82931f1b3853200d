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

package stream

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srsran/zynq-timestamping/backend"
	"github.com/srsran/zynq-timestamping/errs"
	"github.com/srsran/zynq-timestamping/internal/xlog"
	"github.com/srsran/zynq-timestamping/protocol/rfpacket"
)

// fakePool is a minimal single-buffer dma.Pool double: RX completions
// are driven by the test pushing onto ready; TX submissions land in
// sent for the test to inspect.
type fakePool struct {
	mu      sync.Mutex
	bufs    [][]byte
	bufSamp int
	sampSz  int

	ready chan int
	sent  chan []byte

	disabled bool
}

func newFakePool(bufs int, bufSamples, sampleSize int) *fakePool {
	p := &fakePool{bufSamp: bufSamples, sampSz: sampleSize}
	for i := 0; i < bufs; i++ {
		p.bufs = append(p.bufs, make([]byte, bufSamples*sampleSize))
	}
	p.ready = make(chan int, bufs)
	p.sent = make(chan []byte, bufs)
	return p
}

func (p *fakePool) Allocate(n, bufSamples, sampSz int) error { return nil }
func (p *fakePool) Destroy() error                           { return nil }
func (p *fakePool) Enable() error                             { p.disabled = false; return nil }
func (p *fakePool) Disable() error {
	p.mu.Lock()
	p.disabled = true
	p.mu.Unlock()
	close(p.ready)
	return nil
}
func (p *fakePool) AcquireRX() (int, error) {
	id, ok := <-p.ready
	if !ok {
		return 0, errors.New("fakepool: cancelled")
	}
	return id, nil
}
func (p *fakePool) ReleaseRX(id int) error { return nil }
func (p *fakePool) AcquireTX() (int, error) {
	return 0, nil
}
func (p *fakePool) SendTX(id int, payloadBytes int) (int, error) {
	buf := make([]byte, payloadBytes)
	copy(buf, p.bufs[id][:payloadBytes])
	p.sent <- buf
	return 0, nil
}
func (p *fakePool) DataPtr(id int) []byte       { return p.bufs[id] }
func (p *fakePool) BufferSizeSamples() int      { return p.bufSamp }
func (p *fakePool) SampleSizeBytes() int        { return p.sampSz }
func (p *fakePool) pushReady(id int)            { p.ready <- id }

type fakeBackend struct{ overflow, late, lock uint32 }

func (b *fakeBackend) SetSampleRate(hz float64) (float64, error) { return hz, nil }
func (b *fakeBackend) SetFreq(backend.Direction, int, float64) error { return nil }
func (b *fakeBackend) SetGain(backend.Direction, float64) (float64, error) { return 0, nil }
func (b *fakeBackend) StatusRegister(reg backend.StatusRegister) (uint32, error) {
	switch reg {
	case backend.RegOverflow:
		return b.overflow, nil
	case backend.RegLate:
		return b.late, nil
	case backend.RegMMCMLock:
		return b.lock, nil
	}
	return 0, nil
}
func (b *fakeBackend) HasRSSI() bool         { return false }
func (b *fakeBackend) RSSI() (float64, bool) { return 0, false }
func (b *fakeBackend) Close() error          { return nil }

func TestRXStreamerDeliversHeaderAndPayload(t *testing.T) {
	const nsamples = 4
	pool := newFakePool(2, nsamples+rfpacket.MetadataNSamples, 4)
	words := make([]uint32, rfpacket.MetadataNSamples)
	rfpacket.EncodeMetadataRX(words, 12345)
	rfpacket.PutWordsToBytes(pool.bufs[0], words)

	s := New(RX, RFdcVariant, &fakeBackend{}, &errs.Reporter{}, xlog.New(nil), 1<<16)
	s.Configure(pool, 1_920_000, nsamples, rfpacket.MetadataNSamples, 4, true)
	s.Start()
	pool.pushReady(0)

	var hb [rfpacket.HeaderSize]byte
	_, err := s.Ring().ReadTimed(hb[:], rfpacket.HeaderSize, time.Second)
	require.NoError(t, err)
	hdr, err := rfpacket.DecodeHeader(hb[:])
	require.NoError(t, err)
	require.Equal(t, uint64(12345), hdr.Timestamp)
	require.Equal(t, uint32(nsamples), hdr.NofSamples)

	payload := make([]byte, nsamples*4)
	_, err = s.Ring().ReadTimed(payload, len(payload), time.Second)
	require.NoError(t, err)

	s.Shutdown()
}

func TestTXStreamerFramesAndSubmits(t *testing.T) {
	const bufSize = 4
	pool := newFakePool(1, bufSize+rfpacket.MetadataNSamples, 4)

	s := New(TX, RFdcVariant, &fakeBackend{}, &errs.Reporter{}, xlog.New(nil), 1<<16)
	s.Configure(pool, 1_920_000, bufSize, rfpacket.MetadataNSamples, 4, true)
	s.Start()

	hdr := rfpacket.NewHeader(1000, bufSize, true)
	enc := hdr.Encode()
	block := append(append([]byte{}, enc[:]...), make([]byte, bufSize*4)...)
	require.NoError(t, s.Ring().Write(block))

	select {
	case sent := <-pool.sent:
		words := rfpacket.WordsFromBytes(sent, rfpacket.MetadataNSamples)
		require.True(t, rfpacket.MatchPreamble(words))
		require.Equal(t, uint64(1000), rfpacket.DecodeTimestamp(words))
	case <-time.After(time.Second):
		t.Fatal("TX streamer never submitted a buffer")
	}

	s.Shutdown()
}
