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

package timemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToTicksKnownValue(t *testing.T) {
	// scenario 1 in spec.md §8: 1.92 MHz, t=(1, 0.0) -> 1,920,000 ticks.
	require.Equal(t, uint64(1920000), ToTicks(1, 0.0, 1920000))
}

func TestRoundTripExactWhenIntegral(t *testing.T) {
	rate := uint32(1920000)
	ticks := ToTicks(3, 0.5, rate) // rate*0.5 = 960000, integral
	secs, frac := ToTime(ticks, rate)
	require.Equal(t, int64(3), secs)
	require.InDelta(t, 0.5, frac, 1e-12)
}

func TestToTicksToTimeIdempotent(t *testing.T) {
	rate := uint32(7680000)
	cases := []struct {
		secs int64
		frac float64
	}{
		{0, 0}, {1, 0.25}, {10, 0.999}, {100, 0.0001},
	}
	for _, c := range cases {
		ticks1 := ToTicks(c.secs, c.frac, rate)
		s, f := ToTime(ticks1, rate)
		ticks2 := ToTicks(s, f, rate)
		require.Equal(t, ticks1, ticks2)
	}
}
