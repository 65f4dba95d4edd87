// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"bytes"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

const (
	ringSize  = 4096
	ringStart = ringSize - 18 // 0xFEE
)

// LZSS is the classic 4 KiB ring-buffer scheme. A flag byte is consumed
// from its low bit up, 1 meaning a literal. A match is two bytes holding
// a 12-bit ring position and a 4-bit length less 3. The ring starts out
// filled with Fill and writing begins at 0xFEE.
type LZSS struct {
	Fill byte
}

func (LZSS) Name() string { return "lzss" }

func (z LZSS) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	w := lzwindow.NewPreset(r.DecompLength, bytes.Repeat([]byte{z.Fill}, ringSize))
	ring := ringStart
	var flags uint

	return lzwindow.Drive(w, func() (bool, error) {
		if c.AtEnd() {
			return true, nil
		}
		flags >>= 1
		if flags&0x100 == 0 {
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			flags = uint(b) | 0xFF00 // high byte counts the eight flags
		}

		if flags&1 == 1 {
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			w.Literal(b)
			ring = (ring + 1) & (ringSize - 1)
			return false, nil
		}

		b1, err := c.ReadByte()
		if err != nil {
			return false, err
		}
		b2, err := c.ReadByte()
		if err != nil {
			return false, err
		}
		pos := int(b1) | int(b2&0xF0)<<4
		n := int(b2&0x0F) + 3
		dist := (ring - pos) & (ringSize - 1)
		if dist == 0 {
			dist = ringSize
		}
		ring = (ring + n) & (ringSize - 1)
		return false, w.Copy(dist, n)
	})
}
