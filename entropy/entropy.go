// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package entropy implements the bit-level decoders: prefix codes read
// from a transmitted table or tree, and gamma-coded integers. Several of
// them feed back-references into the same window as package lz.
package entropy

import (
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

func init() {
	exporter.Register(HuffTree{})
	exporter.Register(Huff8{})
	exporter.Register(APLib{})
	exporter.Register(LH5{})

	exporter.RegisterMagic("aplib", "AP32", 0)
}

// symbols makes a Stepper that emits remain bytes, each from one call to
// next.
func symbols(remain int64, next func() (int, error)) exporter.Stepper {
	var step exporter.Stepper
	step = func() (exporter.Stepper, []byte, error) {
		out := make([]byte, 0, min(remain, lzwindow.Chunk))
		for len(out) < cap(out) {
			sym, err := next()
			if err != nil {
				return nil, out, exporter.Truncated(err)
			}
			out = append(out, byte(sym))
		}
		remain -= int64(len(out))
		if remain == 0 {
			return nil, out, io.EOF
		}
		return step, out, nil
	}
	return step
}
