// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// RefPack is the Electronic Arts scheme (also called QFS). The header is
// a flag byte and 0xFB, an optional compressed size, then the decompressed
// size, both 3 bytes or 4 with flag 0x80. Every command carries up to
// three plain bytes before its match, except the long literal runs and the
// stop codes 0xFC-0xFF.
type RefPack struct{}

func (RefPack) Name() string { return "refpack" }

func (RefPack) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	size, err := refpackHeader(c)
	if err != nil {
		return exporter.Fail(err)
	}
	w := lzwindow.New(size)

	return lzwindow.Drive(w, func() (bool, error) {
		var cmd [4]byte
		if _, err := c.ReadFull(cmd[:1]); err != nil {
			return false, err
		}
		b0 := int(cmd[0])

		var plain, n, dist int
		switch {
		case b0 < 0x80:
			if _, err := c.ReadFull(cmd[1:2]); err != nil {
				return false, err
			}
			b1 := int(cmd[1])
			plain = b0 & 3
			n = (b0&0x1C)>>2 + 3
			dist = (b0&0x60)<<3 + b1 + 1
		case b0 < 0xC0:
			if _, err := c.ReadFull(cmd[1:3]); err != nil {
				return false, err
			}
			b1, b2 := int(cmd[1]), int(cmd[2])
			plain = b1 >> 6
			n = b0&0x3F + 4
			dist = (b1&0x3F)<<8 + b2 + 1
		case b0 < 0xE0:
			if _, err := c.ReadFull(cmd[1:4]); err != nil {
				return false, err
			}
			b1, b2, b3 := int(cmd[1]), int(cmd[2]), int(cmd[3])
			plain = b0 & 3
			n = (b0&0x0C)<<6 + b3 + 5
			dist = (b0&0x10)<<12 + b1<<8 + b2 + 1
		case b0 < 0xFC:
			plain = (b0&0x1F)<<2 + 4
		default:
			plain = b0 & 3
		}

		lit, err := c.Next(plain)
		if err != nil {
			return false, err
		}
		w.Literals(lit)
		if b0 >= 0xFC {
			return true, nil
		}
		if n > 0 {
			return false, w.Copy(dist, n)
		}
		return false, nil
	})
}

func refpackHeader(c *cursor.Cursor) (int64, error) {
	flags, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	magic, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	if magic != 0xFB || flags&0x3E != 0x10 {
		return 0, exporter.Corrupt("refpack header %02x%02x", flags, magic)
	}
	width := int64(3)
	if flags&0x80 != 0 {
		width = 4
	}
	if flags&0x01 != 0 { // compressed size, unused
		if err := c.Skip(width); err != nil {
			return 0, err
		}
	}
	var size uint32
	if width == 4 {
		size, err = c.Uint32BE()
	} else {
		size, err = c.Uint24BE()
	}
	return int64(size), err
}

// Pack writes the data as literal runs only, which every RefPack reader
// accepts.
func (RefPack) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	n := len(src)
	var out []byte
	if n > 0xFFFFFF {
		out = []byte{0x90, 0xFB, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	} else {
		out = []byte{0x10, 0xFB, byte(n >> 16), byte(n >> 8), byte(n)}
	}
	for len(src) >= 4 {
		run := min(len(src)&^3, 112)
		out = append(out, byte(0xE0+(run-4)>>2))
		out = append(out, src[:run]...)
		src = src[run:]
	}
	out = append(out, byte(0xFC+len(src)))
	out = append(out, src...)
	_, err := dst.Write(out)
	return err
}
