// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package entropy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/icza/bitio"
)

// Huff8 is a canonical byte coder: a 32-bit LE output length, then 256
// code lengths packed as nibbles (even symbol in the high nibble), then
// codes most significant bit first.
type Huff8 struct{}

func (Huff8) Name() string { return "huff8" }

const huff8Header = 4 + 128

func (Huff8) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	size, err := c.Uint32LE()
	if err != nil {
		return exporter.Fail(err)
	}
	packed, err := c.Next(128)
	if err != nil {
		return exporter.Fail(err)
	}
	lengths := make([]uint8, 256)
	for i, b := range packed {
		lengths[2*i], lengths[2*i+1] = b>>4, b&0xF
	}
	t, err := NewTable(lengths)
	if err != nil {
		return exporter.Fail(err)
	}
	b := c.MSB()
	return symbols(int64(size), func() (int, error) {
		return t.Decode(b)
	})
}

// Pack limits codes to 15 bits so that each length fits a nibble.
func (Huff8) Pack(dst io.Writer, src []byte, _ exporter.Range) error {
	if int64(len(src)) > 0xFFFFFFFF {
		return fmt.Errorf("huff8: %d bytes too large for a 32-bit header", len(src))
	}
	var freq [256]int
	for _, b := range src {
		freq[b]++
	}
	lengths := codeLengths(freq[:], 15)
	codes, err := Codes(lengths)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(huff8Header + len(src))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(src))))
	for i := 0; i < 256; i += 2 {
		buf.WriteByte(lengths[i]<<4 | lengths[i+1])
	}
	w := bitio.NewWriter(&buf)
	for _, b := range src {
		w.TryWriteBits(uint64(codes[b]), lengths[b])
	}
	if w.TryError != nil {
		return w.TryError
	}
	if err := w.Close(); err != nil {
		return err
	}
	_, err = dst.Write(buf.Bytes())
	return err
}
