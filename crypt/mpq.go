// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package crypt

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/elliotnunn/exporter"
)

// MPQ is the Blizzard archive cipher. Each little-endian word is XORed
// with the key plus a rolling seed that feeds back the plaintext. A
// trailing partial word is stored in the clear.
//
// Without a Key, the key is the hash of the entry name's last path
// element. FixKey adjusts it by the entry's offset and size, as archives
// do for entries flagged that way.
type MPQ struct {
	Key    uint32
	FixKey bool
}

func (MPQ) Name() string { return "mpq" }

const (
	mpqHashFileKey = 3
	mpqKeyTable    = 0x400
)

var mpqTable [0x500]uint32

func init() {
	seed := uint32(0x00100001)
	for i := range 0x100 {
		for j := i; j < len(mpqTable); j += 0x100 {
			seed = (seed*125 + 3) % 0x2AAAAB
			hi := (seed & 0xFFFF) << 16
			seed = (seed*125 + 3) % 0x2AAAAB
			mpqTable[j] = hi | seed&0xFFFF
		}
	}
}

// mpqHash hashes a name case-insensitively, treating / as \.
func mpqHash(s string, kind uint32) uint32 {
	seed1, seed2 := uint32(0x7FED7FED), uint32(0xEEEEEEEE)
	for i := range len(s) {
		ch := uint32(s[i])
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		} else if ch == '/' {
			ch = '\\'
		}
		seed1 = mpqTable[kind<<8+ch] ^ (seed1 + seed2)
		seed2 = ch + seed1 + seed2 + seed2<<5 + 3
	}
	return seed1
}

func (m MPQ) key(r exporter.Range) uint32 {
	if m.Key != 0 {
		return m.Key
	}
	name := r.Name
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	key := mpqHash(name, mpqHashFileKey)
	if m.FixKey {
		key = (key + uint32(r.Offset)) ^ uint32(entrySize(r))
	}
	return key
}

// mpqCipher holds the two running values across chunks.
type mpqCipher struct {
	key, seed uint32
}

func (c *mpqCipher) xform(p []byte, decrypt bool) {
	for i := 0; i+4 <= len(p); i += 4 {
		c.seed += mpqTable[mpqKeyTable+c.key&0xFF]
		in := binary.LittleEndian.Uint32(p[i:])
		out := in ^ (c.key + c.seed)
		plain := out
		if !decrypt {
			plain = in
		}
		c.key = (^c.key<<0x15 + 0x11111111) | c.key>>0x0B
		c.seed = plain + c.seed + c.seed<<5 + 3
		binary.LittleEndian.PutUint32(p[i:], out)
	}
}

func (m MPQ) Start(r exporter.Range) exporter.Stepper {
	c := &mpqCipher{key: m.key(r), seed: 0xEEEEEEEE}
	return stream(r, func(p []byte, _ bool) { c.xform(p, true) })
}

func (m MPQ) Pack(dst io.Writer, src []byte, r exporter.Range) error {
	c := &mpqCipher{key: m.key(r), seed: 0xEEEEEEEE}
	return packWith(dst, src, func(p []byte, _ bool) { c.xform(p, false) })
}
