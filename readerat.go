// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"github.com/elliotnunn/exporter/internal/stepcache"
)

// A ReaderAt gives random access to decoded output. Decoding runs forward
// on demand; chunks that fall out of its cache are recovered by decoding
// again from the start.
type ReaderAt = stepcache.ReaderAt

// NewReaderAt keeps up to nChunks decoded chunks in memory (0 for a default).
func NewReaderAt(c Codec, r Range, nChunks int) (*ReaderAt, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start := func() Stepper { return guard(c.Start(r)) }
	return stepcache.New(start, r.DecompLength, nChunks), nil
}
