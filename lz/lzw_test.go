// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"bytes"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

// lzwEncode is the dictionary side of compress. When the table is full it
// emits the clear code and starts over.
func lzwEncode(src []byte, maxbits int) []int {
	if len(src) == 0 {
		return nil
	}
	dict := make(map[int]int)
	next := 257
	var codes []int
	ent := int(src[0])
	for _, b := range src[1:] {
		k := ent<<8 | int(b)
		if c, ok := dict[k]; ok {
			ent = c
			continue
		}
		codes = append(codes, ent)
		if next < 1<<maxbits {
			dict[k] = next
			next++
		} else {
			codes = append(codes, 256)
			clear(dict)
			next = 257
		}
		ent = int(b)
	}
	return append(codes, ent)
}

// lzwGroup collects up to 8 codes at one width.
type lzwGroup struct {
	out   []byte
	buf   []byte
	n     int
	nbits int
}

func (g *lzwGroup) put(code int) {
	if g.buf == nil {
		g.buf = make([]byte, g.nbits)
	}
	bit := g.n * g.nbits
	for i := range g.nbits {
		if code>>i&1 != 0 {
			g.buf[(bit+i)/8] |= 1 << ((bit + i) % 8)
		}
	}
	g.n++
	if g.n == 8 {
		g.flush(true)
	}
}

// flush pads a partial group to its full size unless it ends the stream.
func (g *lzwGroup) flush(pad bool) {
	if g.n == 0 {
		return
	}
	if pad {
		g.out = append(g.out, g.buf...)
	} else {
		g.out = append(g.out, g.buf[:(g.n*g.nbits+7)/8]...)
	}
	g.buf, g.n = nil, 0
}

// compressCodes lays codes out the way compress writes them, widening and
// resetting the code size at the same points as the decoder.
func compressCodes(maxbits int, codes []int) []byte {
	g := &lzwGroup{nbits: 9}
	maxcode, free := 1<<9-1, 257
	reset, first := false, true
	for _, code := range codes {
		if free > maxcode {
			g.flush(true)
			g.nbits++
			if g.nbits == maxbits {
				maxcode = 1 << maxbits
			} else {
				maxcode = 1<<g.nbits - 1
			}
		}
		if reset {
			g.flush(true)
			g.nbits, maxcode, reset = 9, 1<<9-1, false
		}
		g.put(code)
		switch {
		case code == 256:
			free, reset = 256, true
		case first:
			first = false
		default:
			free = min(free+1, 1<<maxbits)
		}
	}
	g.flush(false)
	return g.out
}

func letters(n int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, 2))
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a' + byte(rng.IntN(16))
	}
	return b
}

func TestLZWRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		data      []byte
		maxbits   int
		wantClear bool
		wantWidth int // some code needs at least this many bits
	}{
		{"Clears", letters(64<<10, 1), 12, true, 12},
		{"Sixteen", letters(512<<10, 2), 16, false, 16},
		{"Runs", bytes.Repeat([]byte("a"), 200000), 12, false, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			codes := lzwEncode(tc.data, tc.maxbits)
			if tc.wantClear && !slices.Contains(codes, 256) {
				t.Fatal("stream never clears the table")
			}
			if slices.Max(codes) < 1<<(tc.wantWidth-1) {
				t.Fatalf("largest code %d never needs %d bits", slices.Max(codes), tc.wantWidth)
			}
			packed := compressCodes(tc.maxbits, codes)

			expectDecodeBytes(t, LZW{MaxBits: tc.maxbits}, unsized(packed), tc.data)

			r := exporter.Bytes(packed)
			r.DecompLength = int64(len(tc.data))
			expectDecodeBytes(t, LZW{MaxBits: tc.maxbits}, r, tc.data)

			z := append([]byte{0x1f, 0x9d, 0x80 | byte(tc.maxbits)}, packed...)
			c, ok := exporter.Detect(z)
			if !ok {
				t.Fatal("compress magic not detected")
			}
			expectDecodeBytes(t, c, unsized(z), tc.data)
		})
	}
}

// A run of one byte makes every code after the first refer to the entry
// being defined, including the ones that cross a width boundary.
func TestLZWSelfReference(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 200000)
	codes := lzwEncode(data, 12)
	for i, code := range codes[1 : len(codes)-1] {
		if code != 257+i {
			t.Fatalf("code %d is %d, want %d", i+1, code, 257+i)
		}
	}
	if len(codes) < 512 {
		t.Fatalf("only %d codes", len(codes))
	}
}

func TestLZWWidestGroup(t *testing.T) {
	src := make([]byte, 64)
	for i := range src {
		src[i] = byte(i * 37)
	}
	s := &lzwState{
		c:       cursor.FromBytes(src),
		maxbits: 16,
		nbits:   16,
		maxcode: 1 << 16,
		freeEnt: 257,
	}
	for i := range 8 {
		code, ok, err := s.getcode()
		if !ok || err != nil {
			t.Fatalf("code %d: %v %v", i, ok, err)
		}
		want := int(src[2*i]) | int(src[2*i+1])<<8
		if code != want {
			t.Errorf("code %d is %#x, want %#x", i, code, want)
		}
	}
}

func expectDecodeBytes(t *testing.T, c exporter.Codec, r exporter.Range, expect []byte) {
	t.Helper()
	got, err := exporter.ReadAll(c, r)
	if err != nil {
		t.Errorf("%s: %v", c.Name(), err)
	}
	if !bytes.Equal(got, expect) {
		n := 0
		for n < min(len(got), len(expect)) && got[n] == expect[n] {
			n++
		}
		t.Errorf("%s: got %d bytes, want %d, first difference at %d", c.Name(), len(got), len(expect), n)
	}
}
