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

package rfdcpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRXAcquireBlocksUntilSimulatedAntennaCompletes(t *testing.T) {
	p := New(RX)
	require.NoError(t, p.Allocate(4, 1920, 4))
	var onSubmit func(id int)
	onSubmit = func(id int) {
		// simulated antenna: completes almost instantly
		p.Queue().Complete(id, onSubmit)
	}
	p.SetOnSubmit(onSubmit)
	require.NoError(t, p.Enable())

	id, err := p.AcquireRX()
	require.NoError(t, err)
	require.GreaterOrEqual(t, id, 0)
	require.NoError(t, p.ReleaseRX(id))
}

func TestTXSendReturnsNextFreeID(t *testing.T) {
	p := New(TX)
	require.NoError(t, p.Allocate(2, 1920, 4))
	require.NoError(t, p.Enable())

	id, err := p.AcquireTX()
	require.NoError(t, err)

	next, err := p.SendTX(id, 1920*4)
	require.NoError(t, err)
	require.NotEqual(t, -1, next)
}

func TestDisableCancelsBlockedAcquire(t *testing.T) {
	p := New(RX)
	require.NoError(t, p.Allocate(2, 1920, 4))
	require.NoError(t, p.Enable())

	errCh := make(chan error, 1)
	go func() {
		_, err := p.AcquireRX()
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Disable())

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("disable did not unblock AcquireRX")
	}
}

func TestDataPtrSizedCorrectly(t *testing.T) {
	p := New(RX)
	require.NoError(t, p.Allocate(2, 100, 4))
	buf := p.DataPtr(0)
	require.Len(t, buf, 400)
}

func TestDestroyIsIdempotent(t *testing.T) {
	p := New(TX)
	require.NoError(t, p.Allocate(2, 64, 4))
	require.NoError(t, p.Destroy())
	require.NoError(t, p.Destroy())
}
