// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package formats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/config"
)

func TestFamiliesRegistered(t *testing.T) {
	for _, name := range []string{"lz10", "refpack", "hufftree", "lh5", "rc4", "rsdk", "psx", "ima", "zstd", "xz", "zlib"} {
		if _, ok := exporter.Lookup(name); !ok {
			t.Errorf("%s not registered", name)
		}
	}
}

func TestRegisterProfiles(t *testing.T) {
	cfg, err := config.Read(strings.NewReader(`
[[profile]]
name = "test-aes"
algorithm = "aes"
mode = "cbc"
key = "000102030405060708090a0b0c0d0e0f"
inner = "lz10"

[[profile]]
name = "test-xor"
algorithm = "xor"
key = "5a"
inner = "lz10"

[[profile]]
name = "test-lcg"
algorithm = "lcg"
seed = 99
`))
	if err != nil {
		t.Fatal(err)
	}
	if err := RegisterProfiles(cfg); err != nil {
		t.Fatal(err)
	}

	data := bytes.Repeat([]byte("profile round trip "), 30)
	for _, name := range []string{"test-aes", "test-xor", "test-lcg"} {
		t.Run(name, func(t *testing.T) {
			c, ok := exporter.Lookup(name)
			if !ok {
				t.Fatal("not registered")
			}
			r := exporter.Range{Name: "a.bin"}
			var packed bytes.Buffer
			if err := exporter.Pack(c, &packed, data, r); err != nil {
				t.Fatal(err)
			}
			r = exporter.Bytes(packed.Bytes())
			r.Name = "a.bin"
			r.DecompLength = int64(len(data))
			got, err := exporter.ReadAll(c, r)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("%s: got %q", c.Name(), got)
			}
		})
	}

	if err := RegisterProfiles(cfg); err == nil {
		t.Error("registered the same profiles twice")
	}
}

func TestBadProfiles(t *testing.T) {
	cases := map[string]config.Profile{
		"Algorithm": {Name: "x", Algorithm: "rot13"},
		"Mode":      {Name: "x", Algorithm: "aes", Mode: "ctr", Key: "00112233445566778899aabbccddeeff"},
		"Hex":       {Name: "x", Algorithm: "xor", Key: "zz"},
		"IV":        {Name: "x", Algorithm: "aes", Key: "00112233445566778899aabbccddeeff", IV: "q"},
		"XORKey":    {Name: "x", Algorithm: "xor"},
		"Inner":     {Name: "x", Algorithm: "rc4", Key: "01", Inner: "nonesuch"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Profile(p); err == nil {
				t.Error("no error")
			}
		})
	}
}
