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

// Package timemap implements the bijection between (seconds,
// fractional-seconds) wall-time representation and the integer
// hardware tick count carried in every packet header (spec.md §4.H).
package timemap

// ToTicks converts wall-time (secs, frac) at the given integer sample
// rate to an integer hardware tick count.
func ToTicks(secs int64, frac float64, rateHz uint32) uint64 {
	r := float64(rateHz)
	return uint64(r)*uint64(secs) + uint64(roundHalfAwayFromZero(r*frac))
}

// ToTime converts an integer hardware tick count back to wall-time
// (secs, frac) at the given integer sample rate.
func ToTime(ticks uint64, rateHz uint32) (secs int64, frac float64) {
	r := uint64(rateHz)
	secs = int64(ticks / r)
	rem := ticks % r
	frac = float64(rem) / float64(rateHz)
	return
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return float64(int64(x - 0.5))
}
