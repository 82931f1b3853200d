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

package errs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLateDebouncesOncePerFive(t *testing.T) {
	var r Reporter
	var fired int
	r.Register(func(ev Event, arg interface{}) {
		fired++
		require.Equal(t, LATE, ev.Kind)
	}, nil)

	for i := 0; i < 50; i++ {
		r.ObserveLate(false)
	}
	require.Equal(t, 10, fired)
}

func TestOverflowFiresEveryTime(t *testing.T) {
	var r Reporter
	var fired int
	r.Register(func(ev Event, arg interface{}) {
		fired++
		require.Equal(t, OVERFLOW, ev.Kind)
	}, nil)
	for i := 0; i < 3; i++ {
		r.ReportOverflow()
	}
	require.Equal(t, 3, fired)
}

func TestRXAndTXLateCountersAreIndependent(t *testing.T) {
	var r Reporter
	var rxOpt, txOpt []int
	r.Register(func(ev Event, arg interface{}) {
		if ev.Opt == 1 {
			rxOpt = append(rxOpt, ev.Opt)
		} else {
			txOpt = append(txOpt, ev.Opt)
		}
	}, nil)

	for i := 0; i < 5; i++ {
		r.ObserveLate(true)
	}
	require.Len(t, rxOpt, 1)
	require.Len(t, txOpt, 0)

	for i := 0; i < 5; i++ {
		r.ObserveLate(false)
	}
	require.Len(t, rxOpt, 1)
	require.Len(t, txOpt, 1)
}
