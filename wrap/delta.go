// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package wrap

import (
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
)

// Delta is an entry stored as a bsdiff patch against another entry,
// as patch archives ship updated files.
type Delta struct {
	Base      exporter.Range
	BaseCodec exporter.Codec // nil if Base is stored raw
}

func (Delta) Name() string { return "bsdiff" }

func (d Delta) base() ([]byte, error) {
	c := d.BaseCodec
	if c == nil {
		c = exporter.Identity{}
	}
	b, err := exporter.ReadAll(c, d.Base)
	if err != nil {
		return nil, fmt.Errorf("delta base: %w", err)
	}
	return b, nil
}

func (d Delta) Start(r exporter.Range) exporter.Stepper {
	return exporter.Whole(func() ([]byte, error) {
		base, err := d.base()
		if err != nil {
			return nil, err
		}
		patch, err := exporter.ReadAll(exporter.Identity{}, r.Sub(0, r.Length))
		if err != nil {
			return nil, err
		}
		out, err := bspatch.Bytes(base, patch)
		if err != nil {
			return nil, fmt.Errorf("%w: bsdiff patch: %v", exporter.ErrCorrupt, err)
		}
		return out, nil
	})
}

func (d Delta) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	base, err := d.base()
	if err != nil {
		return err
	}
	patch, err := bsdiff.Bytes(base, src)
	if err != nil {
		return err
	}
	_, err = dst.Write(patch)
	return err
}
