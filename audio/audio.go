// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package audio implements the ADPCM decoders. Each writes a complete
// WAVE file: the header, 16-bit little-endian samples, and any loop.
package audio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/elliotnunn/exporter"
)

func init() {
	exporter.Register(PSX{})
	exporter.Register(IMA{})

	exporter.RegisterMagic("psx", "VAGp", 0)
}

const chunk = 4096

func clamp16(v int32) int16 {
	return int16(min(max(v, math.MinInt16), math.MaxInt16))
}

// wave makes a Stepper that emits the header, then what decode appends
// on each call until it reports done, then the loop chunk.
func wave(h Header, decode func(out []byte) ([]byte, bool, error)) exporter.Stepper {
	var body exporter.Stepper
	body = func() (exporter.Stepper, []byte, error) {
		out, done, err := decode(make([]byte, 0, chunk+64))
		if err != nil {
			return nil, out, exporter.Truncated(err)
		}
		if done {
			return nil, h.AppendLoop(out), io.EOF
		}
		return body, out, nil
	}
	return func() (exporter.Stepper, []byte, error) {
		return body, h.AppendTo(nil), nil
	}
}

func appendSample(b []byte, s int16) []byte {
	return binary.LittleEndian.AppendUint16(b, uint16(s))
}
