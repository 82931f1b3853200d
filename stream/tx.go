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

// runTX is the writer-thread main loop (spec.md §4.E). It drains the TX
// ring into DMA-aligned packets of exactly bufferSize samples (or a
// short trailing packet on end-of-burst), frames each with preamble and
// timestamp, and submits it to the pool.
func (s *Streamer) runTX() {
	var cur PrevHeader

	for s.isActive() {
		itemsInBuffer := 0
		endOfBurst := false

		id, err := s.pool.AcquireTX()
		if err != nil {
			return
		}
		buf := s.pool.DataPtr(id)
		metaBytes := s.metadataSamples * 4

		for itemsInBuffer < s.bufferSize && !endOfBurst {
			if cur.Remaining == 0 {
				var hb [rfpacket.HeaderSize]byte
				if _, err := s.ring.Read(hb[:], rfpacket.HeaderSize); err != nil {
					if !s.isActive() {
						return
					}
					continue
				}
				hdr, err := rfpacket.DecodeHeader(hb[:])
				if err != nil {
					continue
				}
				// the timestamp a producer attaches refers to the first
				// sample of its call; rewind it by samples already
				// queued in this DMA buffer so cur.Header.Timestamp
				// always reflects this buffer's first-sample tick.
				hdr.Timestamp -= uint64(itemsInBuffer)
				cur = PrevHeader{Header: hdr, Remaining: hdr.NofSamples}
			}

			readSamples := int(cur.Remaining)
			if room := s.bufferSize - itemsInBuffer; readSamples > room {
				readSamples = room
			}
			payload := buf[metaBytes+itemsInBuffer*s.sampleSizeBytes : metaBytes+(itemsInBuffer+readSamples)*s.sampleSizeBytes]
			if _, err := s.ring.Read(payload, len(payload)); err != nil {
				if !s.isActive() {
					return
				}
				continue
			}

			itemsInBuffer += readSamples
			cur.Remaining -= uint32(readSamples)
			endOfBurst = cur.Header.EndOfBurst && cur.Remaining == 0
		}

		if endOfBurst && itemsInBuffer < s.bufferSize {
			tail := buf[metaBytes+itemsInBuffer*s.sampleSizeBytes:]
			for i := range tail {
				tail[i] = 0
			}
		}

		words := rfpacket.WordsFromBytes(buf, s.metadataSamples)
		dmaLengthBytes := uint16(metaBytes + itemsInBuffer*s.sampleSizeBytes)
		rfpacket.EncodeMetadataTX(words, cur.Header.Timestamp, dmaLengthBytes)
		rfpacket.PutWordsToBytes(buf, words)

		if _, err := s.pool.SendTX(id, metaBytes+itemsInBuffer*s.sampleSizeBytes); err != nil {
			return
		}
		// a header that continues into the next DMA buffer starts that
		// buffer itemsInBuffer ticks later.
		if cur.Remaining > 0 {
			cur.Header.Timestamp += uint64(itemsInBuffer)
		}
		s.observeLateTX()
	}
}
