// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package wrap composes codecs over entries that an archive splits into
// blocks, slices, or layers.
package wrap

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/elliotnunn/exporter"
)

// Blocks describes how an entry is divided. Offsets are relative to the
// start of the Range the wrapper is given, except in MultiFile where each
// block has its own store.
type Blocks struct {
	Offsets       []int64
	Lengths       []int64
	DecompLengths []int64 // entries may be SizeUnknown
}

func (b Blocks) Len() int { return len(b.Offsets) }

// Validate checks that the three lists agree, and that the decompressed
// lengths add up to total unless either is unknown.
func (b Blocks) Validate(total int64) error {
	if len(b.Lengths) != len(b.Offsets) || len(b.DecompLengths) != len(b.Offsets) {
		return exporter.Corrupt("block lists of unequal length %d/%d/%d",
			len(b.Offsets), len(b.Lengths), len(b.DecompLengths))
	}
	var sum int64
	known := true
	for i := range b.Offsets {
		if b.Offsets[i] < 0 || b.Lengths[i] < 0 {
			return exporter.Corrupt("block %d at %d+%d", i, b.Offsets[i], b.Lengths[i])
		}
		if b.DecompLengths[i] < 0 {
			known = false
		}
		sum += b.DecompLengths[i]
	}
	if known && total >= 0 && sum != total {
		return exporter.Corrupt("blocks decode to %d bytes, entry declares %d", sum, total)
	}
	return nil
}

// Ranges locates each block inside base.
func (b Blocks) Ranges(base exporter.Range) []exporter.Range {
	ret := make([]exporter.Range, b.Len())
	for i := range ret {
		ret[i] = base
		ret[i].Offset = base.Offset + b.Offsets[i]
		ret[i].Length = b.Lengths[i]
		ret[i].DecompLength = b.DecompLengths[i]
	}
	return ret
}

func (b Blocks) totalLength() int64 {
	var n int64
	for _, l := range b.Lengths {
		n += l
	}
	return n
}

// totalDecompLength is SizeUnknown if any block's is.
func (b Blocks) totalDecompLength() int64 {
	var n int64
	for _, l := range b.DecompLengths {
		if l < 0 {
			return exporter.SizeUnknown
		}
		n += l
	}
	return n
}

// codecFor lets a single codec stand for every block.
func codecFor(codecs []exporter.Codec, i int) (exporter.Codec, error) {
	switch {
	case len(codecs) == 1:
		return codecs[0], nil
	case i < len(codecs):
		return codecs[i], nil
	}
	return nil, fmt.Errorf("%w: no codec for block %d of %d", exporter.ErrCorrupt, i, len(codecs))
}

func codecNames(codecs []exporter.Codec) string {
	s := "["
	for i, c := range codecs {
		if i > 0 {
			s += ","
		}
		s += c.Name()
	}
	return s + "]"
}

// sequence runs one inner Stepper per block, moving to the next block
// only when the current one is exhausted.
func sequence(name string, ranges []exporter.Range, codecs []exporter.Codec) exporter.Stepper {
	i := -1
	var inner exporter.Stepper
	var left int64 // of the current block, if declared

	var step exporter.Stepper
	step = func() (exporter.Stepper, []byte, error) {
		for {
			if inner == nil {
				i++
				if i == len(ranges) {
					return nil, nil, io.EOF
				}
				c, err := codecFor(codecs, i)
				if err != nil {
					return nil, nil, err
				}
				if i > 0 {
					slog.Debug("blockSwitch", "wrapper", name, "block", i, "codec", c.Name())
				}
				left = ranges[i].DecompLength
				inner = c.Start(ranges[i])
				if inner == nil {
					if left > 0 {
						return nil, nil, fmt.Errorf("block %d: %w: no output", i, exporter.ErrTruncated)
					}
					continue
				}
			}

			next, chunk, err := inner()
			if left >= 0 {
				chunk = chunk[:min(int64(len(chunk)), left)]
				left -= int64(len(chunk))
				if left == 0 && err == nil {
					next = nil
				}
			}
			if err == nil && next == nil {
				err = io.EOF
			}
			if err == io.EOF && left > 0 {
				err = fmt.Errorf("%w: block ended %d bytes short", exporter.ErrTruncated, left)
			}
			switch {
			case err == io.EOF:
				inner = nil
			case err != nil:
				return nil, chunk, fmt.Errorf("block %d: %w", i, err)
			default:
				inner = next
			}
			if len(chunk) > 0 {
				return step, chunk, nil
			}
		}
	}
	return step
}

// Sequence decodes each block with its own codec and concatenates the
// output. A single codec applies to every block.
type Sequence struct {
	Blocks Blocks
	Codecs []exporter.Codec
}

func (s Sequence) Name() string { return "sequence" + codecNames(s.Codecs) }

func (s Sequence) Start(r exporter.Range) exporter.Stepper {
	if err := s.Blocks.Validate(r.DecompLength); err != nil {
		return exporter.Fail(err)
	}
	return sequence(s.Name(), s.Blocks.Ranges(r), s.Codecs)
}

// MultiFile is a Sequence whose blocks live in different stores. Block i
// is read from Stores[i], or from the only store if there is one. The
// Range given to Start supplies only the entry name and total length.
type MultiFile struct {
	Stores []io.ReaderAt
	Blocks Blocks
	Codecs []exporter.Codec
}

func (m MultiFile) Name() string { return "multifile" + codecNames(m.Codecs) }

func (m MultiFile) Start(r exporter.Range) exporter.Stepper {
	if err := m.Blocks.Validate(r.DecompLength); err != nil {
		return exporter.Fail(err)
	}
	if len(m.Stores) != 1 && len(m.Stores) != m.Blocks.Len() {
		return exporter.Fail(exporter.Corrupt("%d stores for %d blocks", len(m.Stores), m.Blocks.Len()))
	}
	ranges := make([]exporter.Range, m.Blocks.Len())
	for i := range ranges {
		ranges[i] = exporter.Range{
			Store:        m.Stores[min(i, len(m.Stores)-1)],
			Offset:       m.Blocks.Offsets[i],
			Length:       m.Blocks.Lengths[i],
			DecompLength: m.Blocks.DecompLengths[i],
			Name:         r.Name,
		}
	}
	return sequence(m.Name(), ranges, m.Codecs)
}
