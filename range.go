// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/elliotnunn/exporter/internal/sectionreader"
)

// SizeUnknown marks a decompressed length that the archive does not declare.
const SizeUnknown = -1

// A Range locates one encoded entry inside a backing store.
type Range struct {
	Store        io.ReaderAt
	Offset       int64
	Length       int64 // compressed
	DecompLength int64 // SizeUnknown if not declared
	Name         string

	// Key identifies Store for caching. Stores without a Key are
	// identified by their address, which is only stable for one process,
	// and a store held by value without a Key is never cached.
	Key string
}

// Bytes returns a Range covering p, for layering one decoder over the
// output of another.
func Bytes(p []byte) Range {
	return Range{
		Store:        bytes.NewReader(p),
		Length:       int64(len(p)),
		DecompLength: int64(len(p)),
	}
}

// Section bounds reads to the compressed bytes of r.
func (r Range) Section() *sectionreader.ReaderAt {
	return sectionreader.Section(r.Store, r.Offset, r.Length)
}

func (r Range) Validate() error {
	switch {
	case r.Store == nil:
		return fmt.Errorf("%w: range has no backing store", ErrCorrupt)
	case r.Offset < 0, r.Length < 0, r.Offset+r.Length < r.Offset:
		return fmt.Errorf("%w: range %d+%d", ErrCorrupt, r.Offset, r.Length)
	case r.DecompLength < SizeUnknown:
		return fmt.Errorf("%w: decompressed length %d", ErrCorrupt, r.DecompLength)
	}
	return nil
}

// Sized reports whether the decompressed length is declared.
func (r Range) Sized() bool { return r.DecompLength >= 0 }

// Sub returns the range n bytes long starting off bytes into r,
// with an undeclared decompressed length.
func (r Range) Sub(off, n int64) Range {
	r.Offset += off
	r.Length = n
	r.DecompLength = SizeUnknown
	return r
}

// Identity hashes the store identity and the coordinates of r,
// together with any extra strings such as a codec name. The store is
// identified by Key, or failing that by its address. A store held by
// value has no address, so ok is false and the hash must not be used to
// share results.
func (r Range) Identity(extra ...string) (id uint64, ok bool) {
	var h xxhash.Digest
	h.Reset()
	if r.Key != "" {
		h.WriteString(r.Key)
	} else if hasAddress(r.Store) {
		fmt.Fprintf(&h, "%T@%p", r.Store, r.Store)
	} else {
		return 0, false
	}
	fmt.Fprintf(&h, "\x00%d\x00%d\x00%d\x00%s", r.Offset, r.Length, r.DecompLength, r.Name)
	for _, s := range extra {
		h.WriteString("\x00")
		h.WriteString(s)
	}
	return h.Sum64(), true
}

func hasAddress(store io.ReaderAt) bool {
	if store == nil {
		return false
	}
	switch reflect.ValueOf(store).Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}
