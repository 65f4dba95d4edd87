// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package wrap

import (
	"fmt"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/internal/multireaderat"
)

// Join treats the blocks as pieces of one encoded stream that the archive
// stored out of line, and decodes them with a single Inner pass. The pieces
// are read in place, not copied together first.
type Join struct {
	Blocks Blocks
	Inner  exporter.Codec
}

func (j Join) Name() string { return "join+" + j.Inner.Name() }

func (j Join) Start(r exporter.Range) exporter.Stepper {
	if err := j.Blocks.Validate(r.DecompLength); err != nil {
		return exporter.Fail(err)
	}
	return j.Inner.Start(j.joined(r))
}

func (j Join) joined(r exporter.Range) exporter.Range {
	extents := make([]multireaderat.Extent, j.Blocks.Len())
	for i, b := range j.Blocks.Ranges(r) {
		extents[i] = multireaderat.Extent{R: b.Store, Off: b.Offset, N: b.Length}
	}
	total := r.DecompLength
	if total < 0 {
		total = j.Blocks.totalDecompLength()
	}
	joined := exporter.Range{
		Store:        multireaderat.New(extents),
		Length:       j.Blocks.totalLength(),
		DecompLength: total,
		Name:         r.Name,
	}
	if r.Key != "" {
		joined.Key = fmt.Sprintf("%s/join%v%v", r.Key, j.Blocks.Offsets, j.Blocks.Lengths)
	}
	return joined
}
