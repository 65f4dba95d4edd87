// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package cursor reads bytes and bit fields from a bounded encoded range.
package cursor

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
)

const window = 4096

// A Cursor reads sequentially from the first n bytes of a ReaderAt,
// through a small window so that large ranges are never loaded whole.
type Cursor struct {
	r      io.ReaderAt
	n      int64
	pos    int64
	buf    []byte
	bufOff int64
}

func New(r io.ReaderAt, n int64) *Cursor {
	return &Cursor{r: r, n: n}
}

// Open reads the compressed bytes of an encoded range.
func Open(rng exporter.Range) *Cursor {
	return New(rng.Section(), rng.Length)
}

// FromBytes reads p without copying it.
func FromBytes(p []byte) *Cursor {
	return &Cursor{n: int64(len(p)), buf: p}
}

func (c *Cursor) Pos() int64       { return c.pos }
func (c *Cursor) Len() int64       { return c.n }
func (c *Cursor) Remaining() int64 { return c.n - c.pos }
func (c *Cursor) AtEnd() bool      { return c.pos >= c.n }

func (c *Cursor) short(want int64) error {
	return fmt.Errorf("%w: wanted %d bytes at offset %d of %d", exporter.ErrTruncated, want, c.pos, c.n)
}

func (c *Cursor) fill() error {
	if c.r == nil { // FromBytes has everything already
		return c.short(1)
	}
	size := min(window, c.n-c.pos)
	if cap(c.buf) < window {
		c.buf = make([]byte, window)
	}
	c.buf = c.buf[:size]
	got, err := c.r.ReadAt(c.buf, c.pos)
	c.buf, c.bufOff = c.buf[:got], c.pos
	if int64(got) < size {
		if err == nil || err == io.EOF {
			return c.short(size)
		}
		return err
	}
	return nil
}

func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= c.n {
		return 0, c.short(1)
	}
	i := c.pos - c.bufOff
	if i < 0 || i >= int64(len(c.buf)) {
		if err := c.fill(); err != nil {
			return 0, err
		}
		i = 0
	}
	c.pos++
	return c.buf[i], nil
}

// ReadFull fills p, or reads what remains and returns ErrTruncated.
func (c *Cursor) ReadFull(p []byte) (int, error) {
	want := int64(len(p))
	avail := min(want, c.Remaining())
	n := 0
	for int64(n) < avail {
		i := c.pos - c.bufOff
		if i < 0 || i >= int64(len(c.buf)) {
			if c.r != nil && avail-int64(n) >= window {
				// large reads bypass the window
				got, err := c.r.ReadAt(p[n:avail], c.pos)
				n += got
				c.pos += int64(got)
				if int64(n) < avail {
					if err == nil || err == io.EOF {
						return n, c.short(avail - int64(n))
					}
					return n, err
				}
				break
			}
			if err := c.fill(); err != nil {
				return n, err
			}
			i = 0
		}
		got := copy(p[n:avail], c.buf[i:])
		n += got
		c.pos += int64(got)
	}
	if avail < want {
		return n, c.short(want)
	}
	return n, nil
}

// Next returns the next n bytes in a new slice.
func (c *Cursor) Next(n int) ([]byte, error) {
	p := make([]byte, n)
	got, err := c.ReadFull(p)
	return p[:got], err
}

func (c *Cursor) Skip(n int64) error {
	return c.Seek(c.pos + n)
}

// Seek moves to an absolute position within [0, Len].
func (c *Cursor) Seek(off int64) error {
	if off < 0 || off > c.n {
		return exporter.Corrupt("seek to %d outside range of %d bytes", off, c.n)
	}
	c.pos = off
	return nil
}

func (c *Cursor) fixed(n int) ([]byte, error) {
	var b [4]byte
	_, err := c.ReadFull(b[:n])
	return b[:n], err
}

func (c *Cursor) Uint16LE() (uint16, error) {
	b, err := c.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) Uint16BE() (uint16, error) {
	b, err := c.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *Cursor) Uint24LE() (uint32, error) {
	b, err := c.fixed(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func (c *Cursor) Uint24BE() (uint32, error) {
	b, err := c.fixed(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (c *Cursor) Uint32LE() (uint32, error) {
	b, err := c.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) Uint32BE() (uint32, error) {
	b, err := c.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}
