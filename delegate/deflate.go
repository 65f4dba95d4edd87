// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package delegate

import (
	"errors"
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/klauspost/compress/flate"
)

// Deflate is a raw RFC 1951 stream with no wrapper, as many archives
// store it. Unlike the other delegates it is decoded incrementally, so it
// has no fallback: a bad stream ends in ErrCorrupt after the good output.
type Deflate struct {
	Level int // for Pack, flate.DefaultCompression if zero
}

func (Deflate) Name() string { return "deflate" }

const deflateChunk = 64 << 10

func (Deflate) Start(r exporter.Range) exporter.Stepper {
	fr := flate.NewReader(io.NewSectionReader(r.Store, r.Offset, r.Length))
	var step exporter.Stepper
	step = func() (exporter.Stepper, []byte, error) {
		buf := make([]byte, deflateChunk)
		n := 0
		var err error
		for n < len(buf) && err == nil {
			var m int
			m, err = fr.Read(buf[n:])
			n += m
		}
		switch err {
		case nil:
			return step, buf[:n], nil
		case io.EOF:
			fr.Close()
			return nil, buf[:n], io.EOF
		}
		fr.Close()
		var ce flate.CorruptInputError
		if errors.As(err, &ce) {
			return nil, buf[:n], exporter.Corrupt("deflate: %v", err)
		}
		return nil, buf[:n], exporter.Truncated(err)
	}
	return step
}

func (d Deflate) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	level := d.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	fw, err := flate.NewWriter(dst, level)
	if err != nil {
		return err
	}
	if _, err := fw.Write(src); err != nil {
		return err
	}
	return fw.Close()
}
