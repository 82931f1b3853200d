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

package rfpacket

import "encoding/binary"

// MetadataNSamples is the fixed prefix length, in samples, of a wire
// DMA packet: 8 32-bit words carrying the six preamble words and the
// 64-bit timestamp. Literal from the source (rf_iio_imp.c, rf_xlnx_rfdc_imp.c).
const MetadataNSamples = 8

// Wire preamble constants, little-endian 32-bit words. Literal from
// the source; these are part of the ABI with the FPGA image and must
// not be changed independently of it (spec.md §9).
const (
	CommonPreamble1      uint32 = 0xBBBBAAAA
	CommonPreamble2      uint32 = 0xDDDDCCCC
	CommonPreamble3      uint32 = 0xFFFFEEEE
	CommonPreamble3Short uint32 = 0x0000FFEE // TX variant, OR'd with (dma_length_bytes << 16)
	TimePreamble1        uint32 = 0xABCDDCBA
	TimePreamble2        uint32 = 0xFEDCCDEF
	TimePreamble3        uint32 = 0xDFCBAEFD
)

// MatchPreamble reports whether words[0:6] equal the six RX preamble
// constants in order. words must have length >= 6.
func MatchPreamble(words []uint32) bool {
	if len(words) < 6 {
		return false
	}
	return words[0] == CommonPreamble1 &&
		words[1] == CommonPreamble2 &&
		words[2] == CommonPreamble3 &&
		words[3] == TimePreamble1 &&
		words[4] == TimePreamble2 &&
		words[5] == TimePreamble3
}

// ScanPreamble locates a valid six-word preamble anywhere within
// words[0 : len(words)-(MetadataNSamples-1)], used by the RX reader to
// realign after a misaligned DMA packet (spec.md §4.E). It returns the
// offset (in words) and true on success.
func ScanPreamble(words []uint32) (offset int, ok bool) {
	limit := len(words) - (MetadataNSamples - 1)
	for i := 0; i < limit; i++ {
		if MatchPreamble(words[i:]) {
			return i, true
		}
	}
	return 0, false
}

// DecodeTimestamp reads the 64-bit little-endian timestamp stored at
// metadata words 6-7, given a metadata block starting at words[0].
func DecodeTimestamp(words []uint32) uint64 {
	lo := uint64(words[6])
	hi := uint64(words[7])
	return lo | hi<<32
}

// EncodeMetadataRX writes the eight metadata words for an RX-framed
// receive packet (full, unshortened third common word).
func EncodeMetadataRX(words []uint32, timestamp uint64) {
	words[0] = CommonPreamble1
	words[1] = CommonPreamble2
	words[2] = CommonPreamble3
	words[3] = TimePreamble1
	words[4] = TimePreamble2
	words[5] = TimePreamble3
	words[6] = uint32(timestamp)
	words[7] = uint32(timestamp >> 32)
}

// EncodeMetadataTX writes the eight metadata words for a TX-framed
// send packet. dmaLengthBytes is packed into the high 16 bits of the
// shortened third common word (spec.md §3).
func EncodeMetadataTX(words []uint32, timestamp uint64, dmaLengthBytes uint16) {
	words[0] = CommonPreamble1
	words[1] = CommonPreamble2
	words[2] = CommonPreamble3Short | uint32(dmaLengthBytes)<<16
	words[3] = TimePreamble1
	words[4] = TimePreamble2
	words[5] = TimePreamble3
	words[6] = uint32(timestamp)
	words[7] = uint32(timestamp >> 32)
}

// WordsFromBytes reinterprets a little-endian byte buffer as a slice
// of 32-bit words, copying (not aliasing, to keep the DMA buffer's
// byte-slice representation the single source of truth).
func WordsFromBytes(buf []byte, n int) []uint32 {
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		words[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return words
}

// PutWordsToBytes writes words back into buf as little-endian u32s.
func PutWordsToBytes(buf []byte, words []uint32) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
}
