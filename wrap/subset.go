// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package wrap

import (
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/internal/blockcache"
)

// Subset is one file packed together with others into a solid block.
// The block is decoded whole, once, and kept in Cache, so every file in
// the block costs a single decode. Output is the FileLength bytes at
// FileOffset in the decoded block, or everything after FileOffset if
// FileLength is SizeUnknown.
type Subset struct {
	Block      exporter.Range // the zero Range means the one given to Start
	Inner      exporter.Codec
	FileOffset int64
	FileLength int64
	Cache      *blockcache.Cache // nil for the shared default
}

func (s Subset) Name() string { return "subset+" + s.Inner.Name() }

func (s Subset) Start(r exporter.Range) exporter.Stepper {
	block := s.Block
	if block.Store == nil {
		block = r
	}
	cache := s.Cache
	if cache == nil {
		cache = blockcache.Default()
	}
	if s.FileOffset < 0 {
		return exporter.Fail(exporter.Corrupt("subset at %d", s.FileOffset))
	}

	return func() (exporter.Stepper, []byte, error) {
		var blob []byte
		var err error
		if id, ok := block.Identity(s.Inner.Name()); ok {
			blob, err = cache.Load(id, func() ([]byte, error) {
				return exporter.ReadAll(s.Inner, block)
			})
		} else {
			blob, err = exporter.ReadAll(s.Inner, block)
		}
		if err != nil {
			err = fmt.Errorf("solid block: %w", err)
		}

		start := min(s.FileOffset, int64(len(blob)))
		end := int64(len(blob))
		if s.FileLength >= 0 {
			end = min(end, s.FileOffset+s.FileLength)
		}
		out := blob[start:max(start, end):max(start, end)]
		if err == nil && s.FileLength >= 0 && int64(len(out)) < s.FileLength {
			err = exporter.Truncated(fmt.Errorf("file at %d+%d in a %d byte block: %w",
				s.FileOffset, s.FileLength, len(blob), io.ErrUnexpectedEOF))
		}
		if err == nil {
			err = io.EOF
		}
		return nil, out, err
	}
}
