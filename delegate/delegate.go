// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package delegate hands whole entries to compression libraries. If a
// library rejects its input, the encoded bytes are returned unchanged
// with a logged warning, or with ErrNative if Strict is set.
package delegate

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"log/slog"

	"github.com/DataDog/zstd"
	"github.com/elliotnunn/exporter"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/therootcompany/xz"
)

func init() {
	exporter.Register(Zstd{})
	exporter.Register(XZ{})
	exporter.Register(Zlib{})
	exporter.Register(Gzip{})
	exporter.Register(Bzip2{})
	exporter.Register(Deflate{})

	exporter.RegisterMagic("zstd", "\x28\xb5\x2f\xfd", 0)
	exporter.RegisterMagic("xz", "\xfd7zXZ\x00", 0)
	exporter.RegisterMagic("gzip", "\x1f\x8b", 0)
	exporter.RegisterMagic("bzip2", "BZh", 0)
	for _, sig := range []string{"\x78\x01", "\x78\x5e", "\x78\x9c", "\x78\xda"} {
		exporter.RegisterMagic("zlib", sig, 0)
	}
}

// native reads the whole entry and passes it to decode.
func native(name string, strict bool, r exporter.Range, decode func(src []byte) ([]byte, error)) exporter.Stepper {
	return exporter.Whole(func() ([]byte, error) {
		src := make([]byte, r.Length)
		if _, err := r.Section().ReadAt(src, 0); err != nil && err != io.EOF {
			return nil, exporter.Truncated(err)
		}
		out, err := decode(src)
		if err == nil {
			return out, nil
		}
		if strict {
			return nil, fmt.Errorf("%w: %s: %w", exporter.ErrNative, name, err)
		}
		slog.Warn("nativeFallback", "codec", name, "entry", r.Name, "err", err)
		return src, nil
	})
}

func readAll(r io.Reader, sizeHint int64) ([]byte, error) {
	var buf bytes.Buffer
	if sizeHint > 0 {
		buf.Grow(int(min(sizeHint, 1<<30)))
	}
	_, err := buf.ReadFrom(r)
	return buf.Bytes(), err
}

// Zstd calls the reference zstd library through cgo.
type Zstd struct {
	Strict bool
	Level  int // for Pack, zstd.DefaultCompression if zero
}

func (Zstd) Name() string { return "zstd" }

func (z Zstd) Start(r exporter.Range) exporter.Stepper {
	return native(z.Name(), z.Strict, r, func(src []byte) ([]byte, error) {
		var dst []byte
		if r.Sized() {
			dst = make([]byte, r.DecompLength)
		}
		return zstd.Decompress(dst, src)
	})
}

func (z Zstd) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	level := z.Level
	if level == 0 {
		level = zstd.DefaultCompression
	}
	out, err := zstd.CompressLevel(nil, src, level)
	if err != nil {
		return err
	}
	_, err = dst.Write(out)
	return err
}

// XZ decodes .xz streams.
type XZ struct {
	Strict bool
}

func (XZ) Name() string { return "xz" }

func (x XZ) Start(r exporter.Range) exporter.Stepper {
	return native(x.Name(), x.Strict, r, func(src []byte) ([]byte, error) {
		zr, err := xz.NewReader(bytes.NewReader(src), xz.DefaultDictMax)
		if err != nil {
			return nil, err
		}
		return readAll(zr, r.DecompLength)
	})
}

// Zlib is the RFC 1950 wrapper around deflate.
type Zlib struct {
	Strict bool
	Level  int // for Pack, zlib.DefaultCompression if zero
}

func (Zlib) Name() string { return "zlib" }

func (z Zlib) Start(r exporter.Range) exporter.Stepper {
	return native(z.Name(), z.Strict, r, func(src []byte) ([]byte, error) {
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readAll(zr, r.DecompLength)
	})
}

func (z Zlib) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	zw, err := zlib.NewWriterLevel(dst, level)
	if err != nil {
		return err
	}
	if _, err := zw.Write(src); err != nil {
		return err
	}
	return zw.Close()
}

// Gzip is the RFC 1952 file format.
type Gzip struct {
	Strict bool
}

func (Gzip) Name() string { return "gzip" }

func (g Gzip) Start(r exporter.Range) exporter.Stepper {
	return native(g.Name(), g.Strict, r, func(src []byte) ([]byte, error) {
		zr, err := gzip.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readAll(zr, r.DecompLength)
	})
}

func (g Gzip) Pack(dst io.Writer, src []byte, r exporter.Range) error {
	zw := gzip.NewWriter(dst)
	zw.Name = r.Name
	if _, err := zw.Write(src); err != nil {
		return err
	}
	return zw.Close()
}

// Bzip2 decodes bzip2 streams.
type Bzip2 struct {
	Strict bool
}

func (Bzip2) Name() string { return "bzip2" }

func (b Bzip2) Start(r exporter.Range) exporter.Stepper {
	return native(b.Name(), b.Strict, r, func(src []byte) ([]byte, error) {
		return readAll(bzip2.NewReader(bytes.NewReader(src)), r.DecompLength)
	})
}
