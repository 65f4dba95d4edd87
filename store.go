// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"io"

	"github.com/elliotnunn/exporter/internal/mmap"
)

// A Store is an open archive file usable as Range.Store.
type Store interface {
	io.ReaderAt
	io.Closer
	Size() int64
	Name() string
}

// OpenStore opens an archive file read-only, memory-mapped where the
// platform allows.
func OpenStore(path string) (Store, error) {
	return mmap.Open(path)
}

// RangeIn returns a Range inside an open Store keyed by its path,
// so that cached decodes survive reopening the file.
func RangeIn(s Store, off, n, decompLength int64) Range {
	return Range{Store: s, Offset: off, Length: n, DecompLength: decompLength, Key: s.Name()}
}
