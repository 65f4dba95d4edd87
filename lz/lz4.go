// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// LZ4 is the LZ4 block format: a token whose high nibble counts literals
// and low nibble counts match bytes beyond the minimum of 4. A nibble of 15
// continues in following bytes, summed while they read 0xFF. The last
// sequence has literals only.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	w := lzwindow.New(r.DecompLength)

	return lzwindow.Drive(w, func() (bool, error) {
		if c.AtEnd() {
			return true, nil
		}
		token, err := c.ReadByte()
		if err != nil {
			return false, err
		}

		nlit, err := extLength(c, int(token>>4))
		if err != nil {
			return false, err
		}
		lit, err := c.Next(nlit)
		if err != nil {
			return false, err
		}
		w.Literals(lit)
		if c.AtEnd() {
			return true, nil
		}

		dist, err := c.Uint16LE()
		if err != nil {
			return false, err
		} else if dist == 0 {
			return false, exporter.Corrupt("lz4 offset 0")
		}
		n, err := extLength(c, int(token&0xF))
		if err != nil {
			return false, err
		}
		return false, w.Copy(int(dist), n+4)
	})
}

func extLength(c *cursor.Cursor, n int) (int, error) {
	if n != 15 {
		return n, nil
	}
	for {
		b, err := c.ReadByte()
		if err != nil {
			return 0, err
		}
		n += int(b)
		if b != 0xFF {
			return n, nil
		}
	}
}

// Pack emits a single literal-only sequence.
func (LZ4) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	out := make([]byte, 0, len(src)+len(src)/255+2)
	if len(src) < 15 {
		out = append(out, byte(len(src))<<4)
	} else {
		out = append(out, 0xF0)
		rem := len(src) - 15
		for ; rem >= 255; rem -= 255 {
			out = append(out, 0xFF)
		}
		out = append(out, byte(rem))
	}
	out = append(out, src...)
	_, err := dst.Write(out)
	return err
}
