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

// Package plugin is the ABI boundary spec.md §6 describes: a
// registration entry point that returns a function table of the
// operations in spec.md §4.F, dispatching by device name so a host
// that loads multiple RF backends can pick one per Engine instance.
package plugin

import (
	"errors"
	"log"

	backendiio "github.com/srsran/zynq-timestamping/backend/iio"
	backendrfdc "github.com/srsran/zynq-timestamping/backend/rfdc"
	"github.com/srsran/zynq-timestamping/dma"
	"github.com/srsran/zynq-timestamping/dma/iiopool"
	"github.com/srsran/zynq-timestamping/dma/rfdcpool"
	"github.com/srsran/zynq-timestamping/engine"
	"github.com/srsran/zynq-timestamping/stream"
)

// ErrUnknownDevice is returned by Open for any device name other than
// "iio" or "RFdc".
var ErrUnknownDevice = errors.New("plugin: unknown device")

// Table is the function table a host dispatches through; it is the
// plugin ABI boundary (spec.md §6). Exactly one of "iio"/"RFdc" is
// loaded per Engine instance.
type Table struct {
	Engine *engine.Engine
}

// Open resolves device ("iio" or "RFdc") to a concrete Backend and
// DmaPool pairing and returns the running Engine wrapped in a Table.
// logger is passed straight through to engine.Open (SPEC_FULL.md
// §10.1); nil means log.Default().
func Open(device, args string, logger *log.Logger) (*Table, error) {
	switch device {
	case "iio":
		b := backendiio.New()
		factory := func(dir stream.Direction) dma.Pool {
			if dir == stream.RX {
				return iiopool.New(iiopool.RX)
			}
			return iiopool.New(iiopool.TX)
		}
		e, err := engine.Open(args, b, stream.IIOVariant, factory, logger)
		if err != nil {
			return nil, err
		}
		return &Table{Engine: e}, nil

	case "RFdc":
		b := backendrfdc.New()
		factory := func(dir stream.Direction) dma.Pool {
			if dir == stream.RX {
				return rfdcpool.New(rfdcpool.RX)
			}
			return rfdcpool.New(rfdcpool.TX)
		}
		e, err := engine.Open(args, b, stream.RFdcVariant, factory, logger)
		if err != nil {
			return nil, err
		}
		return &Table{Engine: e}, nil

	default:
		return nil, ErrUnknownDevice
	}
}
