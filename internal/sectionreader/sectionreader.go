// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package sectionreader bounds reads of a shared backing store to the
// compressed bytes of one encoded range.
package sectionreader

import (
	"io"
	"math"
)

// Section returns a ReaderAt exposing n bytes of r starting at off.
// Nested sections collapse onto the outermost store so that chained
// wrappers do not stack ReadAt calls.
func Section(r io.ReaderAt, off int64, n int64) *ReaderAt {
	for {
		var outer io.ReaderAt
		var outerOff, outerN int64
		switch t := r.(type) {
		case *io.SectionReader:
			outer, outerOff, outerN = t.Outer()
		case *ReaderAt:
			outer, outerOff, outerN = t.Outer()
		default:
			return &ReaderAt{r, off, n}
		}
		if off < 0 || n < 0 || off+n > outerN || off+n < off {
			return &ReaderAt{r, off, n}
		}
		r, off = outer, off+outerOff
	}
}

type ReaderAt struct {
	r      io.ReaderAt
	off, n int64
}

func (s *ReaderAt) Outer() (io.ReaderAt, int64, int64) { return s.r, s.off, s.n }

func (s *ReaderAt) Size() int64 { return s.n }

// Sub narrows the section further.
func (s *ReaderAt) Sub(off, n int64) *ReaderAt {
	return Section(s, off, n)
}

func (s *ReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if s.n < 0 || s.off < 0 || off < 0 || s.off+off < 0 || off >= s.n {
		return 0, io.EOF
	}

	limit := s.off + s.n
	if limit < s.off { // overflow
		limit = math.MaxInt64
	}

	off += s.off
	if room := limit - off; int64(len(p)) > room {
		n, err = s.r.ReadAt(p[:room], off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return s.r.ReadAt(p, off)
}
