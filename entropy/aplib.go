// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package entropy

import (
	"bytes"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// APLib is the aPLib packer's raw stream, optionally behind its "AP32"
// header. Tag bits are taken from the top of tag bytes interleaved with
// the data. After a leading literal byte:
//
//	0        literal byte
//	111 xxxx one byte from 4-bit distance, or a zero byte if 0
//	110 b    byte b: distance b>>1 and length 2 or 3; distance 0 ends
//	10  g g  gamma high distance, low byte, gamma length; reuses the last
//	         distance when the high part is 2 straight after a literal
type APLib struct{}

func (APLib) Name() string { return "aplib" }

func (APLib) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	limit := r.DecompLength
	if hdr, err := c.Next(24); err == nil && bytes.HasPrefix(hdr, []byte("AP32")) {
		h := cursor.FromBytes(hdr[4:])
		hdrSize, _ := h.Uint32LE()
		h.Skip(8) // packed size and crc
		orig, _ := h.Uint32LE()
		if !r.Sized() {
			limit = int64(orig)
		}
		if err := c.Seek(int64(hdrSize)); err != nil {
			return exporter.Fail(err)
		}
	} else {
		c.Seek(0)
	}

	w := lzwindow.New(limit)
	tb := &tagBits{c: c}
	started := false
	afterLiteral := true
	lastDist := 0

	return lzwindow.Drive(w, func() (bool, error) {
		if !started {
			started = true
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			w.Literal(b)
			return false, nil
		}

		bit, err := tb.ReadBit()
		if err != nil {
			return false, err
		}
		if bit == 0 {
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			w.Literal(b)
			afterLiteral = true
			return false, nil
		}

		if bit, err = tb.ReadBit(); err != nil {
			return false, err
		}
		if bit == 0 {
			hi, err := Gamma(tb)
			if err != nil {
				return false, err
			}
			if afterLiteral && hi == 2 {
				n, err := Gamma(tb)
				if err != nil {
					return false, err
				}
				afterLiteral = false
				return false, w.Copy(lastDist, int(n))
			}
			if afterLiteral {
				hi -= 3
			} else {
				hi -= 2
			}
			lo, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			dist := int(hi)<<8 | int(lo)
			n, err := Gamma(tb)
			if err != nil {
				return false, err
			}
			switch {
			case dist >= 32000:
				n += 2
			case dist >= 1280:
				n++
			case dist < 128:
				n += 2
			}
			lastDist = dist
			afterLiteral = false
			return false, w.Copy(dist, int(n))
		}

		if bit, err = tb.ReadBit(); err != nil {
			return false, err
		}
		if bit == 1 {
			var dist int
			for range 4 {
				bit, err := tb.ReadBit()
				if err != nil {
					return false, err
				}
				dist = dist<<1 | int(bit)
			}
			afterLiteral = true
			if dist == 0 {
				w.Literal(0)
				return false, nil
			}
			return false, w.Copy(dist, 1)
		}

		b, err := c.ReadByte()
		if err != nil {
			return false, err
		}
		dist := int(b >> 1)
		if dist == 0 {
			return true, nil
		}
		lastDist = dist
		afterLiteral = false
		return false, w.Copy(dist, 2+int(b&1))
	})
}
