// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package entropy

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

// Gamma reads an interlaced Elias gamma integer (always >= 2): starting
// from 1, each step shifts in a data bit, then a continuation bit of 0
// ends the number.
func Gamma(b cursor.BitSource) (uint, error) {
	v := uint(1)
	for {
		bit, err := b.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | bit
		if v&(1<<31) != 0 {
			return 0, exporter.Corrupt("gamma code overflow")
		}
		more, err := b.ReadBit()
		if err != nil {
			return 0, err
		}
		if more == 0 {
			return v, nil
		}
	}
}

// tagBits hands out bits from the top of tag bytes that are read from
// the same stream as the data, one whenever the last is used up.
type tagBits struct {
	c    *cursor.Cursor
	tag  byte
	left int
}

func (t *tagBits) ReadBit() (uint, error) {
	if t.left == 0 {
		b, err := t.c.ReadByte()
		if err != nil {
			return 0, err
		}
		t.tag, t.left = b, 8
	}
	bit := uint(t.tag >> 7)
	t.tag <<= 1
	t.left--
	return bit, nil
}
