// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package entropy

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// LH5 is the LHA -lh5- method: static Huffman blocks over an 8 KiB
// window, most significant bit first. Each block starts with its symbol
// count and three code tables: one for the code lengths of the next, one
// for literals and match lengths, one for distance bit counts.
type LH5 struct{}

func (LH5) Name() string { return "lh5" }

const (
	lhThreshold = 3
	lhNC        = 256 + 256 + 2 - lhThreshold // literals and match lengths
	lhNT        = 16 + 3
	lhNP        = 13 + 1
	lhCBits     = 9
	lhTBits     = 5
	lhPBits     = 4
)

func (LH5) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	b := c.MSB()
	w := lzwindow.New(r.DecompLength)
	var ctab, ptab *Table
	left := 0

	return lzwindow.Drive(w, func() (bool, error) {
		if left == 0 {
			if !r.Sized() && c.Remaining()*8+int64(b.Buffered()) < 16 {
				return true, nil
			}
			n, err := b.ReadBits(16)
			if err != nil {
				return false, err
			}
			left = int(n)
			if left == 0 {
				left = 1 << 16
			}
			ttab, err := lhTable(b, lhNT, lhTBits, 3)
			if err != nil {
				return false, err
			}
			if ctab, err = lhCTable(b, ttab); err != nil {
				return false, err
			}
			if ptab, err = lhTable(b, lhNP, lhPBits, -1); err != nil {
				return false, err
			}
		}
		left--

		sym, err := ctab.Decode(b)
		if err != nil {
			return false, err
		}
		if sym < 256 {
			w.Literal(byte(sym))
			return false, nil
		}
		n := sym - (256 - lhThreshold)

		p, err := ptab.Decode(b)
		if err != nil {
			return false, err
		}
		if p > 1 {
			extra, err := b.ReadBits(p - 1)
			if err != nil {
				return false, err
			}
			p = 1<<(p-1) + int(extra)
		}
		return false, w.Copy(p+1, n)
	})
}

// lhLengths reads the lengths for the small tables. A length of 7 or
// more continues in unary, and after the special'th length a 2-bit count
// of zero lengths follows. A count of 0 instead names the one symbol.
func lhLengths(b *cursor.Bits, nn, nbits, special int) ([]uint8, int, error) {
	n, err := b.ReadBits(nbits)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		sym, err := b.ReadBits(nbits)
		if err != nil {
			return nil, 0, err
		} else if int(sym) >= nn {
			return nil, 0, exporter.Corrupt("lh5 symbol %d of %d", sym, nn)
		}
		return nil, int(sym), nil
	} else if int(n) > nn {
		return nil, 0, exporter.Corrupt("lh5 table of %d lengths, at most %d", n, nn)
	}

	lengths := make([]uint8, nn)
	for i := 0; i < int(n); {
		l, err := b.ReadBits(3)
		if err != nil {
			return nil, 0, err
		}
		if l == 7 {
			for {
				more, err := b.ReadBit()
				if err != nil {
					return nil, 0, err
				}
				if more == 0 {
					break
				}
				if l++; l > MaxCodeLen {
					return nil, 0, exporter.Corrupt("lh5 code length %d", l)
				}
			}
		}
		lengths[i] = uint8(l)
		i++
		if i == special {
			zeros, err := b.ReadBits(2)
			if err != nil {
				return nil, 0, err
			}
			i += int(zeros)
		}
	}
	return lengths, -1, nil
}

func lhTable(b *cursor.Bits, nn, nbits, special int) (*Table, error) {
	lengths, sym, err := lhLengths(b, nn, nbits, special)
	if err != nil {
		return nil, err
	} else if lengths == nil {
		return Constant(sym), nil
	}
	return NewTable(lengths)
}

// lhCTable reads the literal and match length table, its lengths coded
// through t. Symbols 0-2 of t are runs of zero lengths.
func lhCTable(b *cursor.Bits, t *Table) (*Table, error) {
	n, err := b.ReadBits(lhCBits)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		sym, err := b.ReadBits(lhCBits)
		if err != nil {
			return nil, err
		} else if sym >= lhNC {
			return nil, exporter.Corrupt("lh5 symbol %d of %d", sym, lhNC)
		}
		return Constant(int(sym)), nil
	} else if n > lhNC {
		return nil, exporter.Corrupt("lh5 table of %d lengths, at most %d", n, lhNC)
	}

	lengths := make([]uint8, lhNC)
	for i := 0; i < int(n); {
		c, err := t.Decode(b)
		if err != nil {
			return nil, err
		}
		run := 1
		switch c {
		case 0:
		case 1:
			v, err := b.ReadBits(4)
			if err != nil {
				return nil, err
			}
			run = int(v) + 3
		case 2:
			v, err := b.ReadBits(lhCBits)
			if err != nil {
				return nil, err
			}
			run = int(v) + 20
		default:
			lengths[i] = uint8(c - 2)
			i++
			continue
		}
		if i += run; i > lhNC {
			return nil, exporter.Corrupt("lh5 zero run past %d lengths", lhNC)
		}
	}
	return NewTable(lengths)
}
