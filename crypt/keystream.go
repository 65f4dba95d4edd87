// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package crypt

import (
	"crypto/rc4"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
)

// XOR repeats Key over the whole entry.
type XOR struct {
	Key []byte
}

func (XOR) Name() string { return "xor" }

func (x XOR) xform() (func(p []byte, final bool), error) {
	if len(x.Key) == 0 {
		return nil, errors.New("xor: empty key")
	}
	i := 0
	return func(p []byte, _ bool) {
		for j := range p {
			p[j] ^= x.Key[i]
			if i++; i == len(x.Key) {
				i = 0
			}
		}
	}, nil
}

func (x XOR) Start(r exporter.Range) exporter.Stepper {
	xform, err := x.xform()
	if err != nil {
		return exporter.Fail(err)
	}
	return stream(r, xform)
}

func (x XOR) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	xform, err := x.xform()
	if err != nil {
		return err
	}
	return packWith(dst, src, xform)
}

// LCG XORs each little-endian 32-bit word with a key that advances as
// key*Mul + Add after every word. A trailing partial word uses the low
// bytes of the key. Mul and Add default to 7 and 3 when both are zero.
type LCG struct {
	Seed, Mul, Add uint32
}

func (LCG) Name() string { return "lcg" }

func (l LCG) xform() func(p []byte, final bool) {
	mul, add := l.Mul, l.Add
	if mul == 0 && add == 0 {
		mul, add = 7, 3
	}
	key := l.Seed
	return func(p []byte, _ bool) {
		var ks [4]byte
		for i := 0; i < len(p); i += 4 {
			binary.LittleEndian.PutUint32(ks[:], key)
			for j := i; j < min(i+4, len(p)); j++ {
				p[j] ^= ks[j-i]
			}
			key = key*mul + add
		}
	}
}

func (l LCG) Start(r exporter.Range) exporter.Stepper {
	return stream(r, l.xform())
}

func (l LCG) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	return packWith(dst, src, l.xform())
}

// RC4 is the permutation keystream. Without a Key the entry name is the
// key.
type RC4 struct {
	Key []byte
}

func (RC4) Name() string { return "rc4" }

func (c RC4) xform(r exporter.Range) (func(p []byte, final bool), error) {
	key := c.Key
	if key == nil {
		key = []byte(r.Name)
	}
	ciph, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("rc4: %w", err)
	}
	return func(p []byte, _ bool) {
		ciph.XORKeyStream(p, p)
	}, nil
}

func (c RC4) Start(r exporter.Range) exporter.Stepper {
	xform, err := c.xform(r)
	if err != nil {
		return exporter.Fail(err)
	}
	return stream(r, xform)
}

func (c RC4) Pack(dst io.Writer, src []byte, r exporter.Range) error {
	xform, err := c.xform(r)
	if err != nil {
		return err
	}
	return packWith(dst, src, xform)
}
