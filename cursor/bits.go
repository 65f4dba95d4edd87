// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package cursor

// A BitSource yields single bits, for code-tree walks.
type BitSource interface {
	ReadBit() (uint, error)
}

// Bits reads bit fields from a Cursor, most or least significant bit first.
// Interleaving byte reads on the Cursor is only meaningful after Align.
type Bits struct {
	c   *Cursor
	acc uint64
	n   uint
	lsb bool
}

// MSB reads each byte from its top bit down.
func (c *Cursor) MSB() *Bits { return &Bits{c: c} }

// LSB reads each byte from its bottom bit up, and fields are assembled
// with the first bit read as the least significant.
func (c *Cursor) LSB() *Bits { return &Bits{c: c, lsb: true} }

func (b *Bits) Cursor() *Cursor { return b.c }

// ReadBits reads an n-bit field, 0 <= n <= 32.
func (b *Bits) ReadBits(n int) (uint, error) {
	if n < 0 || n > 32 {
		panic("cursor: bit field too wide")
	}
	for b.n < uint(n) {
		byt, err := b.c.ReadByte()
		if err != nil {
			return 0, err
		}
		if b.lsb {
			b.acc |= uint64(byt) << b.n
		} else {
			b.acc = b.acc<<8 | uint64(byt)
		}
		b.n += 8
	}

	mask := uint64(1)<<n - 1
	var v uint64
	if b.lsb {
		v = b.acc & mask
		b.acc >>= n
	} else {
		v = b.acc >> (b.n - uint(n)) & mask
	}
	b.n -= uint(n)
	if !b.lsb {
		b.acc &= uint64(1)<<b.n - 1
	}
	return uint(v), nil
}

func (b *Bits) ReadBit() (uint, error) { return b.ReadBits(1) }

func (b *Bits) ReadByte() (byte, error) {
	v, err := b.ReadBits(8)
	return byte(v), err
}

// Align discards the rest of a partly consumed byte.
func (b *Bits) Align() {
	b.acc, b.n = 0, 0
}

// Buffered counts bits already taken from the Cursor but not yet read.
func (b *Bits) Buffered() int { return int(b.n) }
