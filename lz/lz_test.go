// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/elliotnunn/exporter"
	"github.com/google/go-cmp/cmp"
)

func unsized(data []byte) exporter.Range {
	r := exporter.Bytes(data)
	r.DecompLength = exporter.SizeUnknown
	return r
}

func expectDecode(t *testing.T, c exporter.Codec, r exporter.Range, expect string) {
	t.Helper()
	got, err := exporter.ReadAll(c, r)
	if err != nil {
		t.Errorf("%s: %v", c.Name(), err)
	}
	if diff := cmp.Diff(expect, string(got)); diff != "" {
		t.Errorf("%s (-want +got)\n%s", c.Name(), diff)
	}
}

func TestHandBuilt(t *testing.T) {
	cases := []struct {
		codec  exporter.Codec
		hex    string
		expect string
	}{
		{LZSS{}, "01" + "61" + "eef1", "aaaaa"},
		{LZSS{Fill: ' '}, "00" + "00f0", "   "},
		{LZ10{}, "10050000" + "40" + "7a" + "1000", "zzzzz"},
		{LZ11{}, "112e0100" + "70" + "78" + "2000" + "003000" + "10005000", strings.Repeat("x", 302)},
		{RefPack{}, "10fb000011" + "0e01" + "6162" + "800007" + "c0000000" + "fc", "abababab" + "abab" + "bbbbb"},
		{RefPack{}, "11fb000099000003" + "ff" + "616263", "abc"},
		{LZ4{}, "10" + "61" + "0100" + "20" + "6263", "aaaaabc"},
		{LZ4{}, "1f" + "61" + "0100" + "01", strings.Repeat("a", 21)},
		{LZ4{}, "00", ""},
		{ADC{}, "80" + "71" + "0800" + "400000", strings.Repeat("q", 10)},
		{PRS{}, "49" + "41" + "ff" + "f9ff" + "05" + "f8ff" + "09" + "0000", strings.Repeat("A", 18)},
		{LZW{}, hex.EncodeToString(lzwCodes(9, 'A', 'B', 257, 259)), "ABABABA"},
		{LZW{Header: true}, "1f9d0e" + hex.EncodeToString(lzwCodes(9, 'h', 'i')), "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.codec.Name()+"/"+tc.hex, func(t *testing.T) {
			data, err := hex.DecodeString(tc.hex)
			if err != nil {
				t.Fatal(err)
			}
			expectDecode(t, tc.codec, unsized(data), tc.expect)
		})
	}
}

// A match of distance 1 repeats the previous byte.
func TestRunExpansion(t *testing.T) {
	for _, n := range []int{3, 4, 18} {
		data := []byte{0x10, byte(n + 1), 0, 0, 0x40, 'r', byte((n - 3) << 4), 0}
		expectDecode(t, LZ10{}, unsized(data), strings.Repeat("r", n+1))
	}
}

func TestDeclaredLength(t *testing.T) {
	// ADC has no size of its own, so the range's length ends it
	data, _ := hex.DecodeString("80" + "71" + "0800" + "400000")
	r := exporter.Bytes(data)
	r.DecompLength = 7
	expectDecode(t, ADC{}, r, "qqqqqqq")
}

func TestBadDistance(t *testing.T) {
	for _, tc := range []struct {
		codec exporter.Codec
		hex   string
	}{
		{LZ10{}, "10050000" + "80" + "1000"},
		{ADC{}, "80" + "71" + "0801"},
		{LZ4{}, "10" + "61" + "0000"},
		{PRS{}, "00" + "ff"},
	} {
		data, _ := hex.DecodeString(tc.hex)
		_, err := exporter.ReadAll(tc.codec, unsized(data))
		if !errors.Is(err, exporter.ErrCorrupt) {
			t.Errorf("%s %s: expected ErrCorrupt, got %v", tc.codec.Name(), tc.hex, err)
		}
	}
}

func TestTruncated(t *testing.T) {
	for _, tc := range []struct {
		codec   exporter.Codec
		hex     string
		partial string
	}{
		{LZ10{}, "10090000" + "40" + "7a" + "1000", "zzzzz"},
		{LZ11{}, "11050000" + "40" + "78" + "20", "x"},
		{RefPack{}, "10fb000008" + "0e01" + "61", ""},
		{PRS{}, "49" + "41" + "ff", "AAAAA"},
		{LZ10{}, "1005", ""},
	} {
		data, _ := hex.DecodeString(tc.hex)
		got, err := exporter.ReadAll(tc.codec, unsized(data))
		if !errors.Is(err, exporter.ErrTruncated) {
			t.Errorf("%s %s: expected ErrTruncated, got %v", tc.codec.Name(), tc.hex, err)
		}
		if string(got) != tc.partial {
			t.Errorf("%s %s: partial output %q, want %q", tc.codec.Name(), tc.hex, got, tc.partial)
		}
	}
}

func TestShortOfDeclaredLength(t *testing.T) {
	// these formats end wherever their input does, so only the declared
	// length shows that output is missing
	for _, tc := range []struct {
		codec   exporter.Codec
		hex     string
		size    int64
		partial string
	}{
		{LZSS{}, "01" + "61", 5, "a"},
		{LZ4{}, "10" + "61", 100, "a"},
		{ADC{}, "80" + "71", 10, "q"},
		{LZW{}, hex.EncodeToString(lzwCodes(9, 'A', 'B')), 3, "AB"},
	} {
		data, _ := hex.DecodeString(tc.hex)
		r := exporter.Bytes(data)
		r.DecompLength = tc.size
		got, err := exporter.ReadAll(tc.codec, r)
		if !errors.Is(err, exporter.ErrTruncated) {
			t.Errorf("%s %s: expected ErrTruncated, got %v", tc.codec.Name(), tc.hex, err)
		}
		if string(got) != tc.partial {
			t.Errorf("%s %s: partial output %q, want %q", tc.codec.Name(), tc.hex, got, tc.partial)
		}
	}
}

func TestBadHeader(t *testing.T) {
	for _, c := range []exporter.Codec{LZ10{}, LZ11{}, RefPack{}} {
		_, err := exporter.ReadAll(c, unsized([]byte{0x42, 0x42, 0x42, 0x42, 0x42}))
		if !errors.Is(err, exporter.ErrCorrupt) {
			t.Errorf("%s: expected ErrCorrupt, got %v", c.Name(), err)
		}
	}
}

func TestPackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte("abc"),
		[]byte("abcd"),
		bytes.Repeat([]byte("the rain in spain "), 300),
		make([]byte, 5000),
	}
	random := make([]byte, 9000)
	for i := range random {
		random[i] = byte(rng.IntN(6))
	}
	inputs = append(inputs, random)

	for _, c := range []exporter.Codec{LZ10{}, RefPack{}, LZ4{}} {
		for _, in := range inputs {
			var packed bytes.Buffer
			if err := exporter.Pack(c, &packed, in, exporter.Range{}); err != nil {
				t.Fatalf("%s: %v", c.Name(), err)
			}
			r := unsized(packed.Bytes())
			if _, ok := c.(LZ4); ok {
				r.DecompLength = int64(len(in))
			}
			got, err := exporter.ReadAll(c, r)
			if err != nil {
				t.Errorf("%s %d bytes: %v", c.Name(), len(in), err)
			}
			if !bytes.Equal(got, in) {
				t.Errorf("%s %d bytes: round trip differs", c.Name(), len(in))
			}
		}
	}
}

func TestPackCompresses(t *testing.T) {
	in := bytes.Repeat([]byte("0123456789"), 100)
	var packed bytes.Buffer
	exporter.Pack(LZ10{}, &packed, in, exporter.Range{})
	if packed.Len() > len(in)/4 {
		t.Errorf("lz10 packed %d bytes into %d", len(in), packed.Len())
	}
}

func TestUnsupportedPack(t *testing.T) {
	for _, c := range []exporter.Codec{LZSS{}, LZ11{}, ADC{}, PRS{}, LZW{}} {
		if err := exporter.Pack(c, &bytes.Buffer{}, []byte("x"), exporter.Range{}); !errors.Is(err, exporter.ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", c.Name(), err)
		}
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"lzss", "lz10", "lz11", "refpack", "lz4", "adc", "prs", "lzw", "compress"} {
		if _, ok := exporter.Lookup(name); !ok {
			t.Errorf("%s not registered", name)
		}
	}
	if c, ok := exporter.Detect([]byte{0x10, 0xfb, 0, 0, 1}); !ok || c.Name() != "refpack" {
		t.Error("refpack magic not detected")
	}

	// a detected .Z file must have its header skipped, not decoded
	data, _ := hex.DecodeString("1f9d8e" + hex.EncodeToString(lzwCodes(9, 'Z', 'Z', 257)))
	c, ok := exporter.DetectRange(exporter.Bytes(data))
	if !ok {
		t.Fatal("compress magic not detected")
	}
	expectDecode(t, c, unsized(data), "ZZZZ")
}

// lzwCodes packs codes least significant bit first at a fixed width.
func lzwCodes(width int, codes ...int) []byte {
	var out []byte
	var acc, n int
	for _, c := range codes {
		acc |= c << n
		n += width
		for n >= 8 {
			out = append(out, byte(acc))
			acc >>= 8
			n -= 8
		}
	}
	if n > 0 {
		out = append(out, byte(acc))
	}
	return out
}
