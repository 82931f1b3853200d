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
	"errors"
	"time"

	"github.com/srsran/zynq-timestamping/protocol/rfpacket"
	"github.com/srsran/zynq-timestamping/ring"
	"github.com/srsran/zynq-timestamping/stream"
	"github.com/srsran/zynq-timestamping/timemap"
)

const recvMaxTrials = 100
const recvReadTimeout = time.Second

// RecvWithTime pulls n IQ pairs (buf must hold 2*n interleaved float32
// I/Q components) from antenna 0's RX ring, converting q15 to float32,
// and reports the wall-time of the first delivered sample. It returns
// the number of IQ pairs actually delivered within the 100-trial
// budget (spec.md §4.F), 0 with the ring reset on an invalid header,
// or a negative count on a ring read error. A cancelled or timed-out
// ring read (ring.ErrCancelled) is not an error: the call returns the
// IQ pairs delivered so far, possibly 0, with a nil error.
func (e *Engine) RecvWithTime(buf []float32, n int) (int, int64, float64, error) {
	return e.recvWithTime(0, buf, n)
}

// RecvWithTimeAntenna is RecvWithTime for a specific RX antenna index
// under n_rx_antennas > 1 (spec.md §12 item 4).
func (e *Engine) RecvWithTimeAntenna(antenna int, buf []float32, n int) (int, int64, float64, error) {
	return e.recvWithTime(antenna, buf, n)
}

func (e *Engine) recvWithTime(antenna int, buf []float32, n int) (int, int64, float64, error) {
	if err := e.checkOpen(); err != nil {
		return -1, 0, 0, err
	}
	if antenna < 0 || antenna >= len(e.rx) {
		return -1, 0, 0, errInvalidAntenna
	}
	if len(buf) < 2*n {
		return -1, 0, 0, errRecvBufferTooSmall
	}
	s := e.rx[antenna]

	var firstTimestamp uint64
	haveFirst := false
	written := 0

	for trial := 0; written < n; trial++ {
		if trial >= recvMaxTrials {
			break
		}
		prev := s.PrevHeader()
		if prev.Remaining == 0 {
			var hb [rfpacket.HeaderSize]byte
			if _, err := s.Ring().ReadTimed(hb[:], rfpacket.HeaderSize, recvReadTimeout); err != nil {
				if errors.Is(err, ring.ErrCancelled) {
					break
				}
				return -1, 0, 0, err
			}
			hdr, err := rfpacket.DecodeHeader(hb[:])
			if err != nil {
				s.Ring().Reset()
				s.InvalidatePrevHeader()
				return 0, 0, 0, nil
			}
			prev = stream.PrevHeader{Header: hdr, Remaining: hdr.NofSamples}
		}
		if !haveFirst {
			firstTimestamp = prev.Header.Timestamp + uint64(prev.Header.NofSamples-prev.Remaining)
			haveFirst = true
		}

		toRead := int(prev.Remaining)
		if room := n - written; toRead > room {
			toRead = room
		}

		payload := make([]byte, toRead*sampleSizeBytes)
		if _, err := s.Ring().ReadTimed(payload, len(payload), recvReadTimeout); err != nil {
			if errors.Is(err, ring.ErrCancelled) {
				break
			}
			return -1, 0, 0, err
		}
		q15 := make([]int16, toRead*2)
		for i := range q15 {
			q15[i] = int16(payload[2*i]) | int16(payload[2*i+1])<<8
		}
		rfpacket.Q15IQToF32(q15, buf[written*2:(written+toRead)*2])

		prev.Remaining -= uint32(toRead)
		written += toRead
		s.SetPrevHeader(prev)
	}

	rate := e.currentSampleRate()
	secs, frac := timemap.ToTime(firstTimestamp, rate)
	return written, secs, frac, nil
}

// SendTimed converts n IQ pairs (buf holds 2*n interleaved float32 I/Q
// components) to q15, pushes one header + payload into the TX ring as
// a single atomic write, and starts the TX thread if it is not already
// running (spec.md §4.F). hasTimeSpec selects whether (secs, frac) or
// the stream's running continuation supplies the timestamp; isStart is
// accepted for API symmetry with the original entry point and is not
// otherwise consulted. blocking always blocks on ring space — the ring
// has no non-blocking write path.
func (e *Engine) SendTimed(buf []float32, n int, secs int64, frac float64, hasTimeSpec, blocking, isStart, isEnd bool) (int, error) {
	if err := e.checkOpen(); err != nil {
		return -1, err
	}
	if len(buf) < 2*n {
		return -1, errSendBufferTooSmall
	}

	rate := e.currentSampleRate()

	var ts uint64
	if hasTimeSpec {
		ts = timemap.ToTicks(secs, frac, rate)
	} else {
		e.mu.Lock()
		ts = e.txContinuationTicks
		e.mu.Unlock()
	}

	q15 := make([]int16, 2*n)
	rfpacket.F32IQToQ15(buf[:2*n], q15)
	payload := make([]byte, len(q15)*2)
	for i, v := range q15 {
		payload[2*i] = byte(v)
		payload[2*i+1] = byte(v >> 8)
	}

	hdr := rfpacket.NewHeader(ts, uint32(n), isEnd)
	enc := hdr.Encode()
	block := make([]byte, 0, rfpacket.HeaderSize+len(payload))
	block = append(block, enc[:]...)
	block = append(block, payload...)

	if !e.txActiveLocked() {
		if err := e.StartTxStream(); err != nil {
			return -1, err
		}
	}
	if err := e.tx.Ring().Write(block); err != nil {
		return -1, err
	}

	e.mu.Lock()
	e.txContinuationTicks = ts + uint64(n)
	e.mu.Unlock()

	return n, nil
}
