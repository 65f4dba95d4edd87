// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package crypt

import (
	"crypto/md5"
	"io"
	"strconv"
	"strings"

	"github.com/elliotnunn/exporter"
)

// RSDK is the Retro Engine v5 data pack cipher. Two 16-byte tables are
// MD5 digests of the upper-cased entry name and of the entry size in
// decimal, each 4-byte group reversed. Two indices walk the tables, and
// when they run off the end a key number advances and repositions them,
// toggling a nibble swap in between.
type RSDK struct{}

func (RSDK) Name() string { return "rsdk" }

type rsdkCipher struct {
	keyA, keyB [16]byte
	posA, posB int
	keyNo      byte
	swap       bool
}

func rsdkKey(s string) [16]byte {
	sum := md5.Sum([]byte(s))
	var key [16]byte
	for i := 0; i < 16; i += 4 {
		key[i+0], key[i+1], key[i+2], key[i+3] = sum[i+3], sum[i+2], sum[i+1], sum[i+0]
	}
	return key
}

func newRSDK(r exporter.Range) *rsdkCipher {
	size := entrySize(r)
	return &rsdkCipher{
		keyA:  rsdkKey(strings.ToUpper(r.Name)),
		keyB:  rsdkKey(strconv.FormatInt(size, 10)),
		posB:  8,
		keyNo: byte(size/4) & 0x7F,
	}
}

func (c *rsdkCipher) decrypt(p []byte) {
	for i, b := range p {
		b ^= c.keyNo ^ c.keyB[c.posB]
		if c.swap {
			b = b<<4 | b>>4
		}
		p[i] = b ^ c.keyA[c.posA]
		c.advance()
	}
}

func (c *rsdkCipher) encrypt(p []byte) {
	for i, b := range p {
		b ^= c.keyA[c.posA]
		if c.swap {
			b = b<<4 | b>>4
		}
		p[i] = b ^ c.keyNo ^ c.keyB[c.posB]
		c.advance()
	}
}

func (c *rsdkCipher) advance() {
	c.posA++
	c.posB++
	switch {
	case c.posA <= 0x0F:
		if c.posB > 0x0C {
			c.posB = 0
			c.swap = !c.swap
		}
	case c.posB <= 0x08:
		c.posA = 0
		c.swap = !c.swap
	default:
		c.keyNo = (c.keyNo + 2) & 0x7F
		n := int(c.keyNo)
		if c.swap {
			c.swap = false
			c.posA, c.posB = n%7, n%12+2
		} else {
			c.swap = true
			c.posA, c.posB = n%12+3, n%7
		}
	}
}

func (RSDK) Start(r exporter.Range) exporter.Stepper {
	c := newRSDK(r)
	return stream(r, func(p []byte, _ bool) { c.decrypt(p) })
}

func (RSDK) Pack(dst io.Writer, src []byte, r exporter.Range) error {
	c := newRSDK(r)
	return packWith(dst, src, func(p []byte, _ bool) { c.encrypt(p) })
}
