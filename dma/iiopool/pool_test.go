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

package iiopool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRXRoundTripThroughAwaitingAndReady(t *testing.T) {
	p := New(RX)
	require.NoError(t, p.Allocate(3, 1920, 4))
	require.NoError(t, p.Enable())

	id := <-p.AwaitingFill()
	copy(p.DataPtr(id), []byte{1, 2, 3, 4})
	p.CompleteRefill(id)

	got, err := p.AcquireRX()
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.NoError(t, p.ReleaseRX(got))
}

func TestTXEveryBufferFreeOnEnable(t *testing.T) {
	p := New(TX)
	require.NoError(t, p.Allocate(2, 1920, 4))
	require.NoError(t, p.Enable())

	id, err := p.AcquireTX()
	require.NoError(t, err)
	next, err := p.SendTX(id, 1920*4)
	require.NoError(t, err)
	require.GreaterOrEqual(t, next, 0)
}

func TestDisableCancelsBlockedAcquire(t *testing.T) {
	p := New(RX)
	require.NoError(t, p.Allocate(1, 1920, 4))
	require.NoError(t, p.Enable())
	<-p.AwaitingFill() // drain the one buffer so ready stays empty

	errCh := make(chan error, 1)
	go func() {
		_, err := p.AcquireRX()
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Disable())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("disable did not unblock AcquireRX")
	}
}

func TestMultipleBuffersInFlightAtOnce(t *testing.T) {
	p := New(RX)
	require.NoError(t, p.Allocate(4, 64, 4))
	require.NoError(t, p.Enable())

	ids := []int{<-p.AwaitingFill(), <-p.AwaitingFill(), <-p.AwaitingFill()}
	require.Len(t, ids, 3) // unlike rfdcpool, several ids may be "in flight" concurrently
	for _, id := range ids {
		p.CompleteRefill(id)
	}
	for range ids {
		_, err := p.AcquireRX()
		require.NoError(t, err)
	}
}
