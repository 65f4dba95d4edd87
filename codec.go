// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"fmt"
	"io"

	"github.com/elliotnunn/exporter/internal/stepcache"
)

// A Stepper decodes the next chunk of output. The final chunk comes with
// io.EOF or a nil next Stepper; any other error ends the stream after
// its chunk is delivered. A chunk must not be modified after it is returned.
type Stepper = stepcache.Stepper

// A Codec is an algorithm plus its fixed parameters. It holds no decode
// state, so one value can serve any number of concurrent decodes.
type Codec interface {
	Name() string
	Start(r Range) Stepper
}

// A Packer can re-encode decoded bytes into its Codec's wire format.
type Packer interface {
	Pack(dst io.Writer, src []byte, r Range) error
}

// Pack encodes src with c. Codecs that cannot encode return ErrUnsupported.
// r supplies the key material (entry name and sizes) for ciphers.
func Pack(c Codec, dst io.Writer, src []byte, r Range) error {
	p, ok := c.(Packer)
	if !ok {
		return fmt.Errorf("pack %s: %w", c.Name(), ErrUnsupported)
	}
	return p.Pack(dst, src, r)
}

// Fail returns a Stepper that produces no output and then err.
func Fail(err error) Stepper {
	return func() (Stepper, []byte, error) { return nil, nil, err }
}

// Whole adapts a function that decodes everything at once.
func Whole(decode func() ([]byte, error)) Stepper {
	return func() (Stepper, []byte, error) {
		out, err := decode()
		if err == nil {
			err = io.EOF
		}
		return nil, out, err
	}
}

// Identity copies the compressed bytes through unchanged.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Start(r Range) Stepper {
	return copyStep(r.Section(), 0)
}

func (Identity) Pack(dst io.Writer, src []byte, _ Range) error {
	_, err := dst.Write(src)
	return err
}

const chunkSize = 4096

func copyStep(src io.ReaderAt, off int64) Stepper {
	return func() (Stepper, []byte, error) {
		buf := make([]byte, chunkSize)
		n, err := src.ReadAt(buf, off)
		if err != nil && err != io.EOF {
			return nil, buf[:n], err
		}
		if n < len(buf) {
			return nil, buf[:n], io.EOF
		}
		return copyStep(src, off+int64(n)), buf[:n], nil
	}
}
