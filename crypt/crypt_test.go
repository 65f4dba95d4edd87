// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package crypt

import (
	"bytes"
	"encoding/hex"
	"math/rand/v2"
	"testing"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/lz"
	"github.com/google/go-cmp/cmp"
)

func entry(data []byte, name string) exporter.Range {
	r := exporter.Bytes(data)
	r.Name = name
	return r
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	plain := make([]byte, 10007)
	for i := range plain {
		plain[i] = byte(rng.UintN(256))
	}
	key16 := []byte("0123456789abcdef")

	codecs := []exporter.Codec{
		XOR{Key: []byte("secret")},
		LCG{},
		LCG{Seed: 0xDEADBEEF, Mul: 0x41C64E6D, Add: 0x3039},
		RC4{},
		RC4{Key: []byte("constant")},
		MPQ{},
		MPQ{FixKey: true},
		MPQ{Key: 0x12345678},
		RSDK{},
		Block{Cipher: AES, Mode: ECB, Key: key16},
		Block{Cipher: AES, Mode: CBC, Key: key16, IV: key16},
		Block{Cipher: Blowfish, Mode: ECB, Key: []byte("fishy")},
		Block{Cipher: Blowfish, Mode: CBC, Key: []byte("fishy")},
	}
	for _, c := range codecs {
		for _, n := range []int{0, 1, 15, 16, 4096, 4100, len(plain)} {
			in := plain[:n]
			r := entry(nil, "Data/Sprites/Player.bin")
			r.DecompLength = int64(n)

			var packed bytes.Buffer
			if err := exporter.Pack(c, &packed, in, r); err != nil {
				t.Fatalf("%s: %v", c.Name(), err)
			}
			if packed.Len() != n {
				t.Errorf("%s: %d bytes became %d", c.Name(), n, packed.Len())
			}
			if n >= 16 && bytes.Equal(packed.Bytes(), in) {
				t.Errorf("%s: %d bytes unchanged", c.Name(), n)
			}

			enc := entry(packed.Bytes(), r.Name)
			got, err := exporter.ReadAll(c, enc)
			if err != nil {
				t.Errorf("%s %d bytes: %v", c.Name(), n, err)
			}
			if !bytes.Equal(got, in) {
				t.Errorf("%s %d bytes: round trip differs", c.Name(), n)
			}
		}
	}
}

func TestKeystreams(t *testing.T) {
	cases := []struct {
		codec  exporter.Codec
		plain  string
		expect string
	}{
		{XOR{Key: []byte("ab")}, "000000", "616261"},
		{LCG{}, "000000000000000000000000", "00000000" + "03000000" + "18000000"},
		{LCG{}, "0000000000", "00000000" + "03"},
		{RC4{Key: []byte("Key")}, hex.EncodeToString([]byte("Plaintext")), "bbf316e8d940af0ad3"},
		{RC4{}, hex.EncodeToString([]byte("pedia")), "1021bf0420"},
	}
	for _, tc := range cases {
		t.Run(tc.codec.Name(), func(t *testing.T) {
			var got bytes.Buffer
			exporter.Pack(tc.codec, &got, mustHex(t, tc.plain), entry(nil, "Wiki"))
			if diff := cmp.Diff(tc.expect, hex.EncodeToString(got.Bytes())); diff != "" {
				t.Errorf("(-want +got)\n%s", diff)
			}
		})
	}
}

func TestNameKeyed(t *testing.T) {
	data := bytes.Repeat([]byte("same plaintext. "), 8)
	for _, c := range []exporter.Codec{RC4{}, MPQ{}, RSDK{}} {
		var a, b bytes.Buffer
		exporter.Pack(c, &a, data, entry(nil, "one.bin"))
		exporter.Pack(c, &b, data, entry(nil, "two.bin"))
		if bytes.Equal(a.Bytes(), b.Bytes()) {
			t.Errorf("%s: names did not change the key", c.Name())
		}
	}
}

func TestMPQHash(t *testing.T) {
	for name, expect := range map[string]uint32{
		"(hash table)":  0xC3AF3770,
		"(block table)": 0xEC83B3A3,
	} {
		if got := mpqHash(name, mpqHashFileKey); got != expect {
			t.Errorf("%s: got %#08x, want %#08x", name, got, expect)
		}
	}
	if mpqHash("dir/File.txt", 0) != mpqHash(`DIR\FILE.TXT`, 0) {
		t.Error("hash should ignore case and slash direction")
	}

	// only the last path element keys the entry
	a := MPQ{}.key(entry(nil, `war3map\units.slk`))
	b := MPQ{}.key(entry(nil, "units.slk"))
	if a != b {
		t.Errorf("keys differ: %#x %#x", a, b)
	}
}

func TestRSDKKeys(t *testing.T) {
	// MD5("") is d41d8cd98f00b204e9800998ecf8427e
	key := rsdkKey("")
	if diff := cmp.Diff("d98c1dd404b2008f980980e97e42f8ec", hex.EncodeToString(key[:])); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	r := entry(make([]byte, 1000), "data/game/gameconfig.bin")
	c := newRSDK(r)
	if c.keyNo != 1000/4&0x7F || c.posA != 0 || c.posB != 8 || c.swap {
		t.Errorf("initial state %+v", c)
	}
	if c.keyA != rsdkKey("DATA/GAME/GAMECONFIG.BIN") || c.keyB != rsdkKey("1000") {
		t.Error("keys not taken from upper-cased name and decimal size")
	}
}

// The index machine must visit every branch within a few hundred bytes.
func TestRSDKAdvance(t *testing.T) {
	c := &rsdkCipher{posB: 8, keyNo: 5}
	var reposition, toggles int
	for range 1000 {
		swap, keyNo := c.swap, c.keyNo
		c.advance()
		if c.posA > 0x0F+1 || c.posB > 0x0F {
			t.Fatalf("index out of table: %+v", c)
		}
		if c.keyNo != keyNo {
			reposition++
		} else if c.swap != swap {
			toggles++
		}
	}
	if reposition == 0 || toggles == 0 {
		t.Errorf("branches not exercised: %d repositions, %d toggles", reposition, toggles)
	}
}

func TestAESVector(t *testing.T) {
	c := Block{Cipher: AES, Mode: ECB, Key: mustHex(t, "000102030405060708090a0b0c0d0e0f")}
	enc := append(mustHex(t, "69c4e0d86a7b0430d8cdb78070b4c55a"), "xyz"...)
	got, err := exporter.ReadAll(c, entry(enc, ""))
	if err != nil {
		t.Fatal(err)
	}
	want := "00112233445566778899aabbccddeeff" + hex.EncodeToString([]byte("xyz"))
	if diff := cmp.Diff(want, hex.EncodeToString(got)); diff != "" {
		t.Errorf("trailing partial block should pass through (-want +got)\n%s", diff)
	}
}

func TestBlockInner(t *testing.T) {
	in := bytes.Repeat([]byte("layered under a cipher "), 500)
	c := Block{Cipher: AES, Mode: CBC, Key: []byte("0123456789abcdef"), Inner: lz.LZ10{}}
	if c.Name() != "aes-cbc+lz10" {
		t.Errorf("name %q", c.Name())
	}

	var packed bytes.Buffer
	if err := exporter.Pack(c, &packed, in, exporter.Range{}); err != nil {
		t.Fatal(err)
	}
	if packed.Len() >= len(in) {
		t.Errorf("inner codec did not compress: %d bytes", packed.Len())
	}
	r := exporter.Bytes(packed.Bytes())
	r.DecompLength = int64(len(in))
	got, err := exporter.ReadAll(c, r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, in) {
		t.Error("round trip differs")
	}
}

func TestBadKeys(t *testing.T) {
	for _, c := range []exporter.Codec{
		XOR{},
		RC4{Key: []byte{}},
		Block{Cipher: AES, Key: []byte("short")},
		Block{Cipher: AES, Mode: CBC, Key: []byte("0123456789abcdef"), IV: []byte("short")},
	} {
		if _, err := exporter.ReadAll(c, entry([]byte("0123456789abcdef"), "x")); err == nil {
			t.Errorf("%s: bad key accepted", c.Name())
		}
	}
}
