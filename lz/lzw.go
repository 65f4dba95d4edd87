// UNIX Compress

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

package lz

import (
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

// LZW is the dictionary coder of UNIX compress: least-significant-first
// codes widening from 9 bits to MaxBits, with code 256 clearing the table.
// Codes are fetched in groups of as many bytes as the current width, and
// a width change abandons the rest of a group. Header, if true, expects
// and skips the 3-byte 1F 9D file header, taking MaxBits from it. That
// variant is registered as "compress".
type LZW struct {
	MaxBits int // 14 if zero
	Header  bool
}

func (LZW) Name() string { return "lzw" }

type lzwState struct {
	c       *cursor.Cursor
	maxbits int
	nbits   int
	maxcode int
	freeEnt int
	reset   bool
	prefix  []int
	suffix  []byte
	stack   []byte
	buf     [18]byte // a 16-bit group plus slack for the 3-byte load
	boff    int
	bsize   int
	oldcode int
	finchar byte
	started bool
	remain  int64 // -1 if unknown
}

func (z LZW) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	maxbits := z.MaxBits
	if z.Header {
		hdr, err := c.Next(3)
		if err != nil {
			return exporter.Fail(err)
		} else if hdr[0] != 0x1F || hdr[1] != 0x9D {
			return exporter.Fail(exporter.Corrupt("compress header %x", hdr[:2]))
		}
		maxbits = int(hdr[2] & 0x1F)
	}
	if maxbits == 0 {
		maxbits = 14
	}
	if maxbits < 9 || maxbits > 16 {
		return exporter.Fail(exporter.Corrupt("lzw width %d", maxbits))
	}

	s := &lzwState{
		c:       c,
		maxbits: maxbits,
		nbits:   9,
		maxcode: 1<<9 - 1,
		freeEnt: 257,
		prefix:  make([]int, 1<<maxbits),
		suffix:  make([]byte, 1<<maxbits),
		remain:  r.DecompLength,
	}
	for i := range 256 {
		s.suffix[i] = byte(i)
	}
	return s.step
}

func (s *lzwState) getcode() (int, bool, error) {
	refill := s.boff >= s.bsize
	if s.freeEnt > s.maxcode {
		s.nbits++
		if s.nbits == s.maxbits {
			s.maxcode = 1 << s.maxbits // never widen again
		} else {
			s.maxcode = 1<<s.nbits - 1
		}
		refill = true
	}
	if s.reset {
		s.nbits = 9
		s.maxcode = 1<<s.nbits - 1
		s.reset = false
		refill = true
	}

	if refill {
		want := min(int64(s.nbits), s.c.Remaining())
		if want == 0 {
			return 0, false, nil
		}
		clear(s.buf[:])
		if _, err := s.c.ReadFull(s.buf[:want]); err != nil {
			return 0, false, err
		}
		s.boff = 0
		s.bsize = int(want)*8 - (s.nbits - 1) // no reading past the group
	}

	i, shift := s.boff/8, s.boff%8
	code := ((uint32(s.buf[i]) | uint32(s.buf[i+1])<<8 | uint32(s.buf[i+2])<<16) >> shift) & (1<<s.nbits - 1)
	s.boff += s.nbits
	return int(code), true, nil
}

func (s *lzwState) step() (exporter.Stepper, []byte, error) {
	out := make([]byte, 0, 4096)
	emit := func(b byte) bool {
		if s.remain == 0 {
			return false
		}
		out = append(out, b)
		if s.remain > 0 {
			s.remain--
		}
		return true
	}
	finish := func(err error) (exporter.Stepper, []byte, error) {
		if err == nil {
			err = io.EOF
		}
		return nil, out, exporter.Truncated(err)
	}

	if !s.started {
		s.started = true
		code, ok, err := s.getcode()
		if !ok {
			return finish(err)
		}
		s.oldcode, s.finchar = code, byte(code)
		if !emit(s.finchar) {
			return finish(nil)
		}
	}

	for len(out) < cap(out) {
		code, ok, err := s.getcode()
		if !ok {
			return finish(err)
		}

		if code == 256 {
			clear(s.prefix[:256])
			s.reset = true
			s.freeEnt = 256
			code, ok, err = s.getcode()
			if !ok {
				return finish(err)
			}
		}
		incode := code

		if code >= s.freeEnt {
			if code > s.freeEnt {
				return finish(exporter.Corrupt("lzw code %d beyond table end %d", code, s.freeEnt))
			}
			s.stack = append(s.stack, s.finchar)
			code = s.oldcode
		}

		for code >= 256 {
			s.stack = append(s.stack, s.suffix[code])
			code = s.prefix[code]
		}
		s.finchar = s.suffix[code]
		s.stack = append(s.stack, s.finchar)

		for i := len(s.stack) - 1; i >= 0; i-- {
			if !emit(s.stack[i]) {
				return finish(nil)
			}
		}
		s.stack = s.stack[:0]

		if code := s.freeEnt; code < 1<<s.maxbits {
			s.prefix[code] = s.oldcode
			s.suffix[code] = s.finchar
			s.freeEnt = code + 1
		}
		s.oldcode = incode
	}
	return s.step, out, nil
}
