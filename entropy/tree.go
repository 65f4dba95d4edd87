// StuffIt Huffman

// XAD library system for archive handling
// Copyright (C) 1998 and later by Dirk Stoecker <soft@dstoecker.de>

// ported to Go
// Copyright (C) 2025 Elliot Nunn

// This library is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 2.1 of the License, or (at your option) any later version.

// This library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.

// You should have received a copy of the GNU Lesser General Public
// License along with this library; if not, write to the Free Software
// Foundation, Inc., 59 Temple Place, Suite 330, Boston, MA  02111-1307  USA

package entropy

import (
	"bytes"
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/icza/bitio"
)

// HuffTree is a byte coder whose tree is sent in preorder before the
// codes, most significant bit first: 1 and eight bits for a leaf, 0 for
// a node followed by its 0 and 1 subtrees. Nothing in the stream gives
// the output length, so the Range must declare it.
type HuffTree struct{}

func (HuffTree) Name() string { return "hufftree" }

type treeNode struct {
	zero, one int // -1 at a leaf
	sym       byte
}

const maxTreeNodes = 1024

func (HuffTree) Start(r exporter.Range) exporter.Stepper {
	if !r.Sized() {
		return exporter.Fail(fmt.Errorf("hufftree: output length must be declared: %w", exporter.ErrUnsupported))
	}
	b := cursor.Open(r).MSB()
	var nodes []treeNode
	if _, err := readTree(b, &nodes, 0); err != nil {
		return exporter.Fail(err)
	}

	return symbols(r.DecompLength, func() (int, error) {
		n := 0
		for nodes[n].zero >= 0 {
			bit, err := b.ReadBit()
			if err != nil {
				return 0, err
			}
			if bit == 0 {
				n = nodes[n].zero
			} else {
				n = nodes[n].one
			}
		}
		return int(nodes[n].sym), nil
	})
}

func readTree(b *cursor.Bits, nodes *[]treeNode, depth int) (int, error) {
	if depth > 256 || len(*nodes) >= maxTreeNodes {
		return 0, exporter.Corrupt("huffman tree too large")
	}
	leaf, err := b.ReadBit()
	if err != nil {
		return 0, exporter.Truncated(err)
	}
	i := len(*nodes)
	*nodes = append(*nodes, treeNode{zero: -1, one: -1})
	if leaf == 1 {
		sym, err := b.ReadBits(8)
		if err != nil {
			return 0, exporter.Truncated(err)
		}
		(*nodes)[i].sym = byte(sym)
		return i, nil
	}

	zero, err := readTree(b, nodes, depth+1)
	if err != nil {
		return 0, err
	}
	one, err := readTree(b, nodes, depth+1)
	if err != nil {
		return 0, err
	}
	(*nodes)[i].zero, (*nodes)[i].one = zero, one
	return i, nil
}

// Pack builds a Huffman code for src and writes its tree and codes.
func (HuffTree) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	var freq [256]int
	for _, b := range src {
		freq[b]++
	}
	lengths := codeLengths(freq[:], MaxCodeLen)
	codes, err := Codes(lengths)
	if err != nil {
		return err
	}

	nodes := []treeNode{{zero: -1, one: -1}}
	used := 0
	for sym, n := range lengths {
		if n != 0 {
			used++
			nodes[0].sym = byte(sym)
		}
	}
	if used == 1 {
		// a lone symbol is a leaf at the root, costing no bits per byte
		clear(lengths)
	}
	for sym, n := range lengths {
		if n == 0 {
			continue
		}
		at := 0
		for i := int(n) - 1; i >= 0; i-- {
			one := codes[sym]>>i&1 == 1
			child := nodes[at].zero
			if one {
				child = nodes[at].one
			}
			if child < 0 {
				child = len(nodes)
				nodes = append(nodes, treeNode{zero: -1, one: -1})
				if one {
					nodes[at].one = child
				} else {
					nodes[at].zero = child
				}
			}
			at = child
		}
		nodes[at].sym = byte(sym)
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	var put func(n int)
	put = func(n int) {
		if nodes[n].zero < 0 {
			w.TryWriteBits(1, 1)
			w.TryWriteBits(uint64(nodes[n].sym), 8)
			return
		}
		w.TryWriteBits(0, 1)
		put(nodes[n].zero)
		put(nodes[n].one)
	}
	put(0)
	for _, b := range src {
		if lengths[b] != 0 {
			w.TryWriteBits(uint64(codes[b]), lengths[b])
		}
	}
	if w.TryError != nil {
		return w.TryError
	}
	if err := w.Close(); err != nil {
		return err
	}
	_, err = dst.Write(buf.Bytes())
	return err
}
