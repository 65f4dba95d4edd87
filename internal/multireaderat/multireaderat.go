// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package multireaderat joins discontiguous extents, possibly in different
// stores, into one contiguous ReaderAt.
package multireaderat

import (
	"fmt"
	"io"
	"sort"
)

type Extent struct {
	R      io.ReaderAt
	Off, N int64
}

type ReaderAt struct {
	extents []Extent
	starts  []int64 // logical offset of each extent
	size    int64
}

func New(extents []Extent) *ReaderAt {
	r := &ReaderAt{
		extents: extents,
		starts:  make([]int64, len(extents)),
	}
	for i, e := range extents {
		r.starts[i] = r.size
		r.size += e.N
	}
	return r
}

func (r *ReaderAt) Size() int64 { return r.size }

func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= r.size {
		return 0, io.EOF
	}

	// the last extent starting at or before off
	i := sort.Search(len(r.starts), func(i int) bool {
		return r.starts[i] > off
	}) - 1

	n := 0
	for n < len(p) && i < len(r.extents) {
		e := r.extents[i]
		inner := off + int64(n) - r.starts[i]
		want := min(int64(len(p)-n), e.N-inner)
		got, err := e.R.ReadAt(p[n:n+int(want)], e.Off+inner)
		n += got
		if int64(got) < want {
			if err == nil || err == io.EOF {
				err = fmt.Errorf("extent %d short by %d bytes: %w", i, want-int64(got), io.ErrUnexpectedEOF)
			}
			return n, err
		}
		i++
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
