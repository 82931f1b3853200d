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

package ring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFIFOOrderSingleProducerConsumer(t *testing.T) {
	rb := New(64)
	rb.Start()

	var wg sync.WaitGroup
	wg.Add(2)

	const total = 10000
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			require.NoError(t, rb.Write([]byte{byte(i)}))
		}
	}()

	got := make([]byte, 0, total)
	go func() {
		defer wg.Done()
		buf := make([]byte, 1)
		for i := 0; i < total; i++ {
			n, err := rb.Read(buf, 1)
			require.NoError(t, err)
			require.Equal(t, 1, n)
			got = append(got, buf[0])
		}
	}()

	wg.Wait()
	require.Len(t, got, total)
	for i, b := range got {
		require.Equal(t, byte(i), b)
	}
}

func TestWriteBlocksUntilSpace(t *testing.T) {
	rb := New(4)
	rb.Start()
	require.NoError(t, rb.Write([]byte{1, 2, 3, 4}))

	done := make(chan struct{})
	go func() {
		require.NoError(t, rb.Write([]byte{5}))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("write should have blocked on a full ring")
	case <-time.After(20 * time.Millisecond):
	}

	buf := make([]byte, 1)
	_, err := rb.Read(buf, 1)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write did not unblock after space was freed")
	}
}

func TestStopCancelsBlockedReader(t *testing.T) {
	rb := New(16)
	rb.Start()

	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, 4)
		_, err := rb.Read(buf, 4)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	rb.Stop()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("stop did not unblock reader")
	}
}

func TestReadTimedExpires(t *testing.T) {
	rb := New(16)
	rb.Start()

	buf := make([]byte, 4)
	n, err := rb.ReadTimed(buf, 4, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, 0, n)
}

func TestResetDiscardsBytesWithoutWaking(t *testing.T) {
	rb := New(16)
	rb.Start()
	require.NoError(t, rb.Write([]byte{1, 2, 3}))
	rb.Reset()
	require.Equal(t, 0, rb.Buffered())
}

func TestWriteLargerThanCapacity(t *testing.T) {
	rb := New(4)
	rb.Start()
	err := rb.Write([]byte{1, 2, 3, 4, 5})
	require.ErrorIs(t, err, ErrTooBig)
}

func TestStartReArmsAfterStop(t *testing.T) {
	rb := New(8)
	rb.Start()
	rb.Stop()
	_, err := rb.Read(make([]byte, 1), 1)
	require.ErrorIs(t, err, ErrCancelled)

	rb.Start()
	require.NoError(t, rb.Write([]byte{9}))
	buf := make([]byte, 1)
	n, err := rb.Read(buf, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, byte(9), buf[0])
}
