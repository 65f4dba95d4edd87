// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// PRS is the Sega scheme. Control bits come from the low end of control
// bytes, fetched only when the previous one runs dry, interleaved with
// the data bytes.
//
//	1          literal byte
//	0 0 b b    short match: length bb+2, distance 0x100-byte
//	0 1        long match: 16-bit LE word w, distance 0x2000-(w>>3),
//	           length (w&7)+2, or next byte+1 if w&7 is 0; w == 0 ends
type PRS struct{}

func (PRS) Name() string { return "prs" }

func (PRS) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	w := lzwindow.New(r.DecompLength)
	var ctrl byte
	var left int
	bit := func() (int, error) {
		if left == 0 {
			b, err := c.ReadByte()
			if err != nil {
				return 0, err
			}
			ctrl, left = b, 8
		}
		v := int(ctrl & 1)
		ctrl >>= 1
		left--
		return v, nil
	}

	return lzwindow.Drive(w, func() (bool, error) {
		lit, err := bit()
		if err != nil {
			return false, err
		}
		if lit == 1 {
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			w.Literal(b)
			return false, nil
		}

		long, err := bit()
		if err != nil {
			return false, err
		}
		if long == 0 {
			hi, err := bit()
			if err != nil {
				return false, err
			}
			lo, err := bit()
			if err != nil {
				return false, err
			}
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			return false, w.Copy(0x100-int(b), (hi<<1|lo)+2)
		}

		word, err := c.Uint16LE()
		if err != nil {
			return false, err
		}
		if word == 0 {
			return true, nil
		}
		n := int(word & 7)
		if n == 0 {
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			n = int(b) + 1
		} else {
			n += 2
		}
		return false, w.Copy(0x2000-int(word>>3), n)
	})
}
