// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// LZ11 is the Nintendo type 0x11 scheme. It shares LZ10's flags but
// widens the length with an indicator nibble:
//
//	0  length 8 bits + 0x11, distance 12 bits + 1 (3 bytes)
//	1  length 16 bits + 0x111, distance 12 bits + 1 (4 bytes)
//	n  length n + 1, distance 12 bits + 1 (2 bytes)
//
// A zero size in the header means a 32-bit size follows.
type LZ11 struct{}

func (LZ11) Name() string { return "lz11" }

func (LZ11) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	hdr, err := c.Uint32LE()
	if err != nil {
		return exporter.Fail(err)
	} else if hdr&0xFF != 0x11 {
		return exporter.Fail(exporter.Corrupt("lz11 header %#02x", hdr&0xFF))
	}
	size := int64(hdr >> 8)
	if size == 0 {
		big, err := c.Uint32LE()
		if err != nil {
			return exporter.Fail(err)
		}
		size = int64(big)
	}
	w := lzwindow.New(size)
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

		var rest [3]byte
		var n int
		var tail []byte
		switch b0 >> 4 {
		case 0:
			tail = rest[:2]
		case 1:
			tail = rest[:3]
		default:
			tail = rest[:1]
		}
		if _, err := c.ReadFull(tail); err != nil {
			return false, err
		}
		switch b0 >> 4 {
		case 0:
			n = (int(b0&0xF)<<4 | int(tail[0])>>4) + 0x11
		case 1:
			n = (int(b0&0xF)<<12 | int(tail[0])<<4 | int(tail[1])>>4) + 0x111
		default:
			n = int(b0>>4) + 1
		}
		d := tail[len(tail)-2:]
		if len(tail) == 1 {
			d = []byte{b0, tail[0]}
		}
		dist := (int(d[0]&0xF)<<8 | int(d[1])) + 1
		return false, w.Copy(dist, n)
	})
}
