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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgsDefaults(t *testing.T) {
	a := ParseArgs("")
	require.Equal(t, uint(6), a.NPRB)
	require.Equal(t, "default", a.Context)
	require.Equal(t, "internal", a.Clock)
	require.False(t, a.Quiet)
	require.Equal(t, uint(1), a.NRxAntennas)
}

func TestParseArgsOverrides(t *testing.T) {
	a := ParseArgs("n_prb=25,clock=external,quiet=true,n_rx_antennas=2,context=usb:1.2.3")
	require.Equal(t, uint(25), a.NPRB)
	require.Equal(t, "external", a.Clock)
	require.True(t, a.Quiet)
	require.Equal(t, uint(2), a.NRxAntennas)
	require.Equal(t, "usb:1.2.3", a.Context)
}

func TestParseArgsMalformedNumberFallsBackToDefault(t *testing.T) {
	a := ParseArgs("n_prb=not-a-number")
	require.Equal(t, uint(6), a.NPRB)
}

func TestBufferSizeForNPRBTable(t *testing.T) {
	const rate = 7_680_000
	require.Equal(t, MinDataBufferSize, bufferSizeForNPRB(6, rate))
	require.Equal(t, MinDataBufferSize*2, bufferSizeForNPRB(15, rate))
	require.Equal(t, 7680, bufferSizeForNPRB(25, rate))
	require.Equal(t, 3840, bufferSizeForNPRB(26, rate))
}
