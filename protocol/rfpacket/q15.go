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

// F32ToQ15 converts a float32 sample in [-1, 1] to a signed 16-bit
// fixed-point sample, matching the source's TX scaling: multiply by
// 32767.999 and clamp (spec.md §4.F).
func F32ToQ15(x float32) int16 {
	v := x * 32767.999
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// Q15ToF32 converts a signed 16-bit fixed-point sample back to
// float32, matching the source's RX scaling: divide by 32768.
func Q15ToF32(q int16) float32 {
	return float32(q) / 32768
}

// F32IQToQ15 converts an interleaved I/Q float32 slice to interleaved
// Q15 pairs.
func F32IQToQ15(src []float32, dst []int16) {
	for i, x := range src {
		dst[i] = F32ToQ15(x)
	}
}

// Q15IQToF32 converts interleaved Q15 pairs to interleaved float32.
func Q15IQToF32(src []int16, dst []float32) {
	for i, q := range src {
		dst[i] = Q15ToF32(q)
	}
}
