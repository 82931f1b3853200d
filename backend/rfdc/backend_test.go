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

package rfdc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srsran/zynq-timestamping/backend"
)

func TestSetRxFreqNCOTranslation(t *testing.T) {
	b := New()
	require.NoError(t, b.SetFreq(backend.RX, 0, 2_400_000_000))
	require.InDelta(t, 1532.16, b.RxFreqMHz(0), 1e-9)
}

func TestSetTxFreqNCOTranslationIsNegated(t *testing.T) {
	b := New()
	require.NoError(t, b.SetFreq(backend.TX, 0, 2_400_000_000))
	require.InDelta(t, -1532.16, b.TxFreqMHz(), 1e-9)
}

func TestSetFreqAboveTwicePLLFolds(t *testing.T) {
	b := New()
	// 2*PLLFreq MHz == 3932.16 MHz; anything at/above that folds around 2*fs.
	require.NoError(t, b.SetFreq(backend.RX, 1, 4_000_000_000))
	require.InDelta(t, 2*PLLFreq-4000.0, b.RxFreqMHz(1), 1e-9)
}

func TestOutOfRangeRxChannelFallsBackToADC0(t *testing.T) {
	b := New()
	require.NoError(t, b.SetFreq(backend.RX, 7, 2_400_000_000))
	require.InDelta(t, 1532.16, b.RxFreqMHz(0), 1e-9)
}

func TestStatusRegistersReflectRegisterFile(t *testing.T) {
	b := New()
	b.Registers().SetLateCounter(3)
	b.Registers().SetOverflow(1)
	b.Registers().SetMMCMLock(true)

	late, err := b.StatusRegister(backend.RegLate)
	require.NoError(t, err)
	require.Equal(t, uint32(3), late)

	overflow, err := b.StatusRegister(backend.RegOverflow)
	require.NoError(t, err)
	require.Equal(t, uint32(1), overflow)

	lock, err := b.StatusRegister(backend.RegMMCMLock)
	require.NoError(t, err)
	require.Equal(t, uint32(1), lock)
}

func TestNoGainControl(t *testing.T) {
	b := New()
	rx, err := b.SetGain(backend.RX, 20)
	require.NoError(t, err)
	require.Equal(t, 50.0, rx)

	tx, err := b.SetGain(backend.TX, 20)
	require.NoError(t, err)
	require.Equal(t, 60.0, tx)
}

func TestNoRSSI(t *testing.T) {
	b := New()
	require.False(t, b.HasRSSI())
	v, ok := b.RSSI()
	require.False(t, ok)
	require.Equal(t, 0.0, v)
}
