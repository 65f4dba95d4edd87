// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package crypt implements the ciphers that archives apply to entries:
// keystreams from integer recurrences or a permutation, tables seeded
// from a digest of the entry's name and size, and standard block
// ciphers. Output is always the same length as input, and key material
// depends only on the Codec's parameters and the Range.
package crypt

import (
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

func init() {
	exporter.Register(LCG{})
	exporter.Register(RC4{})
	exporter.Register(MPQ{})
	exporter.Register(RSDK{})
}

// chunk is a multiple of every block and word size used here.
const chunk = 4096

// stream runs the input through xform a chunk at a time. Only the final
// chunk may have a length that is not a multiple of chunk.
func stream(r exporter.Range, xform func(p []byte, final bool)) exporter.Stepper {
	c := cursor.Open(r)
	var step exporter.Stepper
	step = func() (exporter.Stepper, []byte, error) {
		p := make([]byte, min(c.Remaining(), chunk))
		if _, err := c.ReadFull(p); err != nil {
			return nil, nil, err
		}
		final := c.AtEnd()
		xform(p, final)
		if final {
			return nil, p, io.EOF
		}
		return step, p, nil
	}
	return step
}

// entrySize is the size that name-and-size keyed ciphers hash, which is
// also the encrypted length.
func entrySize(r exporter.Range) int64 {
	if r.Sized() {
		return r.DecompLength
	}
	return r.Length
}

func packWith(dst io.Writer, src []byte, xform func(p []byte, final bool)) error {
	p := append([]byte(nil), src...)
	xform(p, true)
	_, err := dst.Write(p)
	return err
}
