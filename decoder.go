// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"fmt"
	"io"
	"log/slog"
)

// A Decoder pulls bytes out of one Codec over one Range at a time.
// It can be reopened on another Range. It is not safe for concurrent use,
// but any number of Decoders may run in parallel.
//
// Output may be consumed through [Decoder.ReadByte], through
// [Decoder.Read], or with the two-step [Decoder.Available] and
// [Decoder.ReadByte] sequence. All three give the same bytes.
type Decoder struct {
	codec    Codec
	name     string
	step     Stepper
	chunk    []byte
	pos      int
	produced int64
	limit    int64
	err      error // io.EOF after a clean end
}

func New(c Codec) *Decoder {
	return &Decoder{codec: c, name: c.Name(), err: io.EOF}
}

// Open binds the Decoder to r and resets all state. A failure leaves the
// Decoder exhausted with Err reporting the cause.
func (d *Decoder) Open(r Range) error {
	d.Close()
	if err := r.Validate(); err != nil {
		d.err = err
		return err
	}
	d.limit = r.DecompLength
	d.err = nil
	d.step = guard(d.codec.Start(r))
	return nil
}

// Available reports whether another byte is ready, decoding the next
// chunk if needed.
func (d *Decoder) Available() bool {
	for d.pos >= len(d.chunk) {
		if d.err != nil {
			return false
		}
		d.pull()
	}
	return true
}

func (d *Decoder) pull() {
	if d.limit >= 0 && d.produced >= d.limit {
		d.step, d.err = nil, io.EOF
		return
	}

	var next Stepper
	var chunk []byte
	var err error
	if d.step != nil {
		next, chunk, err = d.step()
	}
	if d.limit >= 0 && int64(len(chunk)) > d.limit-d.produced {
		chunk = chunk[:d.limit-d.produced]
	}
	d.chunk, d.pos = chunk, 0
	d.produced += int64(len(chunk))
	d.step = next

	if err == nil && next == nil {
		err = io.EOF
	}
	if err == io.EOF && d.limit >= 0 && d.produced < d.limit {
		err = fmt.Errorf("%w: %d of %d bytes decoded", ErrTruncated, d.produced, d.limit)
	}
	switch {
	case err == io.EOF:
		d.step, d.err = nil, io.EOF
	case err != nil:
		slog.Warn("decodeError", "codec", d.name, "err", err, "offset", d.produced)
		d.step, d.err = nil, err
	}
}

// ReadByte returns the next decoded byte. It returns io.EOF at the end
// of a complete stream, or the error that stopped decoding.
func (d *Decoder) ReadByte() (byte, error) {
	if !d.Available() {
		return 0, d.err
	}
	b := d.chunk[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if !d.Available() {
			if n > 0 {
				return n, nil
			}
			return 0, d.err
		}
		c := copy(p[n:], d.chunk[d.pos:])
		d.pos += c
		n += c
	}
	return n, nil
}

// Err returns the error that ended decoding, or nil after a clean end.
func (d *Decoder) Err() error {
	if d.err == io.EOF {
		return nil
	}
	return d.err
}

// Produced counts the bytes decoded since Open.
func (d *Decoder) Produced() int64 { return d.produced }

// Close releases buffers. It is safe to call at any point, and twice.
func (d *Decoder) Close() error {
	d.step, d.chunk, d.pos, d.produced = nil, nil, 0, 0
	d.err = io.EOF
	return nil
}

// guard turns a panic inside a Stepper into ErrCorrupt.
func guard(s Stepper) Stepper {
	if s == nil {
		return nil
	}
	return func() (next Stepper, chunk []byte, err error) {
		defer func() {
			if r := recover(); r != nil {
				next, chunk, err = nil, nil, fmt.Errorf("%w: internal panic: %v", ErrCorrupt, r)
			}
		}()
		next, chunk, err = s()
		return guard(next), chunk, err
	}
}

// ReadAll decodes r completely.
func ReadAll(c Codec, r Range) ([]byte, error) {
	d := New(c)
	defer d.Close()
	if err := d.Open(r); err != nil {
		return nil, err
	}
	var out []byte
	if r.Sized() {
		out = make([]byte, 0, r.DecompLength)
	}
	for d.Available() {
		out = append(out, d.chunk[d.pos:]...)
		d.pos = len(d.chunk)
	}
	return out, d.Err()
}

// NewReader opens c over r as an io.ReadCloser. An Open failure is
// reported by the first Read.
func NewReader(c Codec, r Range) io.ReadCloser {
	d := New(c)
	d.Open(r)
	return d
}
