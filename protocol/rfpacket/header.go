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

// Package rfpacket implements the packet header / preamble protocol
// between host and FPGA described in spec.md §3: a fixed 24-byte,
// host-internal header carried in-ring immediately before its IQ
// payload, and the DMA wire preamble that frames the same information
// on the device side.
//
// Encode/Decode build and consume their fixed-size record through
// bufiox's zero-copy buffer primitives rather than raw slice math.
package rfpacket

import (
	"encoding/binary"
	"errors"

	"github.com/srsran/zynq-timestamping/bufiox"
)

// HeaderMagic is the low 32 bits of the 64-bit in-ring header magic.
const HeaderMagic = 0x12345678

// HeaderSize is the fixed size in bytes of an in-ring Header record.
const HeaderSize = 24

// ErrBadMagic is returned by DecodeHeader when the magic field does
// not match HeaderMagic.
var ErrBadMagic = errors.New("rfpacket: bad header magic")

// Header is the in-ring, host-internal record that precedes every
// payload segment moved through a Ring. See spec.md §3.
type Header struct {
	Magic       uint64
	Timestamp   uint64
	NofSamples  uint32
	EndOfBurst  bool
}

// Encode writes h into a fixed 24-byte record: magic(8) | timestamp(8)
// | nof_samples(4) | end_of_burst(1) | pad(3). All multi-byte fields
// are little-endian. The record is built through a bufiox.Writer so
// ring writers can reuse the same zero-copy Malloc/Flush discipline
// used elsewhere for fixed-size protocol headers.
func (h Header) Encode() [HeaderSize]byte {
	var out [HeaderSize]byte
	scratch := make([]byte, 0, HeaderSize)
	w := bufiox.NewBytesWriter(&scratch)
	field, _ := w.Malloc(HeaderSize)
	binary.LittleEndian.PutUint64(field[0:8], h.Magic)
	binary.LittleEndian.PutUint64(field[8:16], h.Timestamp)
	binary.LittleEndian.PutUint32(field[16:20], h.NofSamples)
	if h.EndOfBurst {
		field[20] = 1
	}
	_ = w.Flush()
	copy(out[:], scratch)
	return out
}

// DecodeHeader parses a 24-byte record produced by Encode. buf must be
// at least HeaderSize bytes. Reading goes through a bufiox.Reader so
// the zero-copy Next/Release discipline matches Encode's Writer side.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	r := bufiox.NewBytesReader(buf)
	field, err := r.Next(HeaderSize)
	if err != nil {
		return h, errors.New("rfpacket: header buffer too short")
	}
	h.Magic = binary.LittleEndian.Uint64(field[0:8])
	h.Timestamp = binary.LittleEndian.Uint64(field[8:16])
	h.NofSamples = binary.LittleEndian.Uint32(field[16:20])
	h.EndOfBurst = field[20] != 0
	_ = r.Release(nil)
	if uint32(h.Magic) != HeaderMagic {
		return h, ErrBadMagic
	}
	return h, nil
}

// NewHeader builds a Header with the canonical magic already set.
func NewHeader(timestamp uint64, nofSamples uint32, endOfBurst bool) Header {
	return Header{Magic: HeaderMagic, Timestamp: timestamp, NofSamples: nofSamples, EndOfBurst: endOfBurst}
}
