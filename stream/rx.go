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
	"github.com/srsran/zynq-timestamping/protocol/rfpacket"
)

// runRX is the reader-thread main loop (spec.md §4.E). It acquires a
// completed RX DMA buffer, recovers sync if needed, and writes a
// header+payload pair into the ring for every buffer it drains.
func (s *Streamer) runRX() {
	for s.isActive() {
		id, err := s.pool.AcquireRX()
		if err != nil {
			if !s.isActive() {
				return
			}
			s.log.Warnf("rx stream: acquire buffer: %v", err)
			sleepBriefly()
			continue
		}

		if !s.rxDrainOne(id) {
			return
		}
	}
}

// rxDrainOne processes one acquired RX buffer. It returns false if the
// reader thread should terminate (RFdc misalignment give-up).
func (s *Streamer) rxDrainOne(id int) bool {
	buf := s.pool.DataPtr(id)
	metaBytes := s.metadataSamples * 4
	nsamples := s.pool.BufferSizeSamples() - s.metadataSamples

	var timestamp uint64
	if s.useTimestamps {
		words := rfpacket.WordsFromBytes(buf, len(buf)/4)
		loc := s.preambleWord
		if loc+6 <= len(words) && rfpacket.MatchPreamble(words[loc:]) {
			timestamp = rfpacket.DecodeTimestamp(words[loc:])
			s.misalignCount = 0
		} else {
			switch s.variant {
			case IIOVariant:
				if off, ok := rfpacket.ScanPreamble(words); ok {
					s.preambleWord = off
					_ = s.pool.ReleaseRX(id)
					return true
				}
				s.log.Warnf("rx stream: misaligned packet")
				_ = s.pool.ReleaseRX(id)
				return true
			default: // RFdcVariant
				s.misalignCount++
				if s.misalignCount >= maxConsecutiveMisalignments {
					s.reporter.ReportFatal()
					return false
				}
				_ = s.pool.ReleaseRX(id)
				return true
			}
		}
	}

	hdr := rfpacket.NewHeader(timestamp, uint32(nsamples), false)
	enc := hdr.Encode()
	if err := s.ring.Write(enc[:]); err != nil {
		_ = s.pool.ReleaseRX(id)
		return s.isActive()
	}

	loc := s.preambleWord
	locBytes := loc * 4
	if locBytes == 0 {
		payload := buf[metaBytes:]
		if err := s.ring.Write(payload); err != nil {
			_ = s.pool.ReleaseRX(id)
			return s.isActive()
		}
	} else {
		head := buf[:locBytes]
		tail := buf[locBytes+metaBytes:]
		if err := s.ring.Write(head); err != nil {
			_ = s.pool.ReleaseRX(id)
			return s.isActive()
		}
		if err := s.ring.Write(tail); err != nil {
			_ = s.pool.ReleaseRX(id)
			return s.isActive()
		}
	}

	s.checkOverflow()
	_ = s.pool.ReleaseRX(id)
	return true
}
