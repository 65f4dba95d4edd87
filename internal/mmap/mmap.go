// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package mmap opens read-only backing stores.
package mmap

import (
	"io"
	"os"
)

// A File is a read-only backing store. It is safe for concurrent ReadAt.
type File struct {
	name string
	data []byte   // mapped contents, if mapping succeeded
	f    *os.File // fallback
	size int64
}

func (f *File) Name() string { return f.name }
func (f *File) Size() int64  { return f.size }

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.data == nil {
		return f.f.ReadAt(p, off)
	}
	if off < 0 || off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
