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

package kdriver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnableSubmitsOneInFlightRestPending(t *testing.T) {
	q := New()
	q.EnableAndSubmitAll([]int{0, 1, 2}, nil)
	pending, inProgress, completed := q.Len()
	require.Equal(t, 2, pending)
	require.Equal(t, 1, inProgress)
	require.Equal(t, 0, completed)
}

func TestCompleteAdvancesPendingQueue(t *testing.T) {
	q := New()
	q.EnableAndSubmitAll([]int{0, 1, 2}, nil)
	q.CompleteSync(0, nil)
	pending, inProgress, completed := q.Len()
	require.Equal(t, 1, pending)
	require.Equal(t, 1, inProgress)
	require.Equal(t, 1, completed)

	id, err := q.Acquire()
	require.NoError(t, err)
	require.Equal(t, 0, id)
}

func TestAcquireBlocksUntilComplete(t *testing.T) {
	q := New()
	q.EnableAndSubmitAll([]int{0}, nil)

	got := make(chan int, 1)
	go func() {
		id, err := q.Acquire()
		require.NoError(t, err)
		got <- id
	}()

	select {
	case <-got:
		t.Fatal("acquire returned before completion")
	case <-time.After(20 * time.Millisecond):
	}

	q.Complete(0, nil)
	select {
	case id := <-got:
		require.Equal(t, 0, id)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after completion")
	}
}

func TestDisableWakesBlockedAcquire(t *testing.T) {
	q := New()
	q.EnableAndSubmitAll([]int{0}, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Acquire()
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Disable()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrDisabled)
	case <-time.After(time.Second):
		t.Fatal("disable did not wake blocked acquire")
	}
}

func TestTXFreeListRepopulatedOnEnable(t *testing.T) {
	q := New()
	q.EnableWithFreeList([]int{0, 1, 2})
	_, _, completed := q.Len()
	require.Equal(t, 3, completed)
}

func TestFIFOOrderOfSubmission(t *testing.T) {
	q := New()
	q.EnableAndSubmitAll([]int{0, 1, 2}, nil)

	var got []int
	for i := 0; i < 3; i++ {
		q.CompleteSync(i, nil) // hardware finishes the i-th in-flight buffer
		id, err := q.Acquire()
		require.NoError(t, err)
		got = append(got, id)
	}
	require.Equal(t, []int{0, 1, 2}, got)
}
