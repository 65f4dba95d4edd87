// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package wrap

import (
	"bytes"
	"io"

	"github.com/elliotnunn/exporter"
)

// Chain decodes with Outer and then decodes that output with Inner, for
// entries that are compressed and then encrypted (Outer is the cipher).
// The Range's DecompLength belongs to Inner's output.
type Chain struct {
	Outer, Inner exporter.Codec
}

func (c Chain) Name() string { return c.Outer.Name() + "+" + c.Inner.Name() }

func (c Chain) Start(r exporter.Range) exporter.Stepper {
	return func() (exporter.Stepper, []byte, error) {
		outer := r
		outer.DecompLength = exporter.SizeUnknown
		mid, err := exporter.ReadAll(c.Outer, outer)
		if err != nil {
			return nil, nil, err
		}
		m := exporter.Bytes(mid)
		m.DecompLength = r.DecompLength
		m.Name = r.Name
		inner := c.Inner.Start(m)
		if inner == nil {
			return nil, nil, io.EOF
		}
		return inner()
	}
}

// Pack runs the layers in reverse: Inner first, then Outer.
func (c Chain) Pack(dst io.Writer, src []byte, r exporter.Range) error {
	var mid bytes.Buffer
	if err := exporter.Pack(c.Inner, &mid, src, r); err != nil {
		return err
	}
	outer := r
	outer.DecompLength = int64(mid.Len())
	return exporter.Pack(c.Outer, dst, mid.Bytes(), outer)
}
