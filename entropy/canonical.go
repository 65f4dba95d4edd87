// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package entropy

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

// MaxCodeLen is the longest code any table accepts.
const MaxCodeLen = 16

// A Table decodes a canonical prefix code: codes of one length are
// consecutive in symbol order and shorter codes sort before longer ones.
// An incomplete set of lengths is accepted, and a bit sequence that no
// code covers is ErrCorrupt when decoded.
type Table struct {
	count    [MaxCodeLen + 1]uint16
	symbols  []uint16 // by length, then symbol
	max      int
	constant int // every decode yields this without reading, unless -1
}

// NewTable builds a Table from per-symbol code lengths, 0 meaning unused.
func NewTable(lengths []uint8) (*Table, error) {
	t := &Table{constant: -1}
	if err := countLengths(lengths, &t.count); err != nil {
		return nil, err
	}

	var offset [MaxCodeLen + 2]int
	for n := 1; n <= MaxCodeLen; n++ {
		offset[n+1] = offset[n] + int(t.count[n])
		if t.count[n] != 0 {
			t.max = n
		}
	}
	t.symbols = make([]uint16, offset[MaxCodeLen+1])
	for sym, n := range lengths {
		if n != 0 {
			t.symbols[offset[n]] = uint16(sym)
			offset[n]++
		}
	}
	return t, nil
}

// Constant is the degenerate table with one symbol and no code bits.
func Constant(sym int) *Table {
	return &Table{constant: sym}
}

// countLengths fills count and rejects over-subscribed length sets.
func countLengths(lengths []uint8, count *[MaxCodeLen + 1]uint16) error {
	for _, n := range lengths {
		if n > MaxCodeLen {
			return exporter.Corrupt("code length %d", n)
		}
		if n != 0 {
			count[n]++
		}
	}

	left := 1
	for n := 1; n <= MaxCodeLen; n++ {
		left = left<<1 - int(count[n])
		if left < 0 {
			return exporter.Corrupt("over-subscribed code lengths")
		}
	}
	return nil
}

// Decode reads one code from b a bit at a time.
func (t *Table) Decode(b cursor.BitSource) (int, error) {
	if t.constant >= 0 {
		return t.constant, nil
	}
	code, first, index := 0, 0, 0
	for n := 1; n <= t.max; n++ {
		bit, err := b.ReadBit()
		if err != nil {
			return 0, err
		}
		code |= int(bit)
		count := int(t.count[n])
		if code-first < count {
			return int(t.symbols[index+code-first]), nil
		}
		index += count
		first = (first + count) << 1
		code <<= 1
	}
	return 0, exporter.Corrupt("unassigned prefix code")
}

// Codes assigns the canonical code for each length, most significant bit
// first. It is the encoder matching NewTable.
func Codes(lengths []uint8) ([]uint32, error) {
	var count [MaxCodeLen + 1]uint16
	if err := countLengths(lengths, &count); err != nil {
		return nil, err
	}

	var next [MaxCodeLen + 1]uint32
	code := uint32(0)
	for n := 1; n <= MaxCodeLen; n++ {
		code = (code + uint32(count[n-1])) << 1
		next[n] = code
	}

	codes := make([]uint32, len(lengths))
	for sym, n := range lengths {
		if n != 0 {
			codes[sym] = next[n]
			next[n]++
		}
	}
	return codes, nil
}
