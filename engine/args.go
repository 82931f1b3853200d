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
	"strconv"
	"strings"
)

// Args is the parsed form of the plugin's key=value, comma-separated
// argument string (spec.md §6).
type Args struct {
	NPRB uint

	// Context is the IIO variant's backend context URI.
	Context string

	// Clock is the RFdc variant's reference clock source.
	Clock string

	// Quiet raises internal/xlog's minimum level, dropping transient
	// DMA-error logs (spec.md §12 item 3).
	Quiet bool

	// NRxAntennas selects how many RX Streamers the engine runs,
	// sharing one backend and timing discipline (spec.md §12 item 4).
	NRxAntennas uint
}

// ParseArgs parses the engine's argument string, applying the defaults
// spec.md §6 documents. Unknown keys are ignored; malformed numeric
// values fall back to their default rather than failing open().
func ParseArgs(s string) Args {
	a := Args{NPRB: 6, Context: "default", Clock: "internal", NRxAntennas: 1}
	if s == "" {
		return a
	}
	for _, kv := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "n_prb":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				a.NPRB = uint(n)
			}
		case "context":
			a.Context = value
		case "clock":
			a.Clock = value
		case "quiet":
			if b, err := strconv.ParseBool(value); err == nil {
				a.Quiet = b
			}
		case "n_rx_antennas":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil && n > 0 {
				a.NRxAntennas = uint(n)
			}
		}
	}
	return a
}
