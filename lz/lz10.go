// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// LZ10 is the Nintendo type 0x10 scheme: a 4-byte header holding 0x10 and
// a 24-bit little-endian size, flag bytes read from the top bit down with
// 1 meaning a match, and two-byte matches of a 4-bit length less 3 and a
// 12-bit distance less 1.
type LZ10 struct{}

func (LZ10) Name() string { return "lz10" }

func (LZ10) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	hdr, err := c.Uint32LE()
	if err != nil {
		return exporter.Fail(err)
	} else if hdr&0xFF != 0x10 {
		return exporter.Fail(exporter.Corrupt("lz10 header %#02x", hdr&0xFF))
	}
	w := lzwindow.New(int64(hdr >> 8))
	fl := flagReader{c: c}

	return lzwindow.Drive(w, func() (bool, error) {
		match, err := fl.next()
		if err != nil {
			return false, err
		}
		b0, err := c.ReadByte()
		if err != nil {
			return false, err
		}
		if !match {
			w.Literal(b0)
			return false, nil
		}
		b1, err := c.ReadByte()
		if err != nil {
			return false, err
		}
		n := int(b0>>4) + 3
		dist := (int(b0&0x0F)<<8 | int(b1)) + 1
		return false, w.Copy(dist, n)
	})
}

// Pack compresses greedily with the longest match in the 4 KiB window.
func (LZ10) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	if len(src) > 0xFFFFFF {
		return fmt.Errorf("lz10: %d bytes too large for a 24-bit header", len(src))
	}
	n := len(src)
	out := []byte{0x10, byte(n), byte(n >> 8), byte(n >> 16)}
	for i := 0; i < len(src); {
		flagAt := len(out)
		out = append(out, 0)
		for bit := 0; bit < 8 && i < len(src); bit++ {
			dist, n := longestMatch(src, i, 0x1000, 18)
			if n >= 3 {
				out[flagAt] |= 0x80 >> bit
				d := dist - 1
				out = append(out, byte((n-3)<<4|d>>8), byte(d))
				i += n
			} else {
				out = append(out, src[i])
				i++
			}
		}
	}
	_, err := dst.Write(out)
	return err
}

// flagReader hands out flag bits from the top of each control byte.
type flagReader struct {
	c     *cursor.Cursor
	flags byte
	left  int
}

func (f *flagReader) next() (bool, error) {
	if f.left == 0 {
		b, err := f.c.ReadByte()
		if err != nil {
			return false, err
		}
		f.flags, f.left = b, 8
	}
	bit := f.flags&0x80 != 0
	f.flags <<= 1
	f.left--
	return bit, nil
}
