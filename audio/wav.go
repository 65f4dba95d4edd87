// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package audio

import (
	"encoding/binary"
)

const (
	HeaderSize = 44
	LoopSize   = 68 // smpl chunk with one loop

	FormatPCM = 1
)

// A Header describes the RIFF/WAVE file that a decoder writes in front
// of its samples.
type Header struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataLength    uint32 // bytes of samples
	Loop          *Loop  // written as a trailing smpl chunk
}

// A Loop is a range of sample frames, End exclusive.
type Loop struct {
	Start, End uint32
}

func (h *Header) blockAlign() uint16 {
	return h.Channels * h.BitsPerSample / 8
}

// FileSize is the length of the whole file, header to smpl chunk.
func (h *Header) FileSize() int64 {
	n := int64(HeaderSize) + int64(h.DataLength)
	if h.Loop != nil {
		n += LoopSize
	}
	return n
}

// AppendTo appends the 44-byte header that precedes the samples.
func (h *Header) AppendTo(b []byte) []byte {
	le := binary.LittleEndian
	b = append(b, "RIFF"...)
	b = le.AppendUint32(b, uint32(h.FileSize()-8))
	b = append(b, "WAVEfmt "...)
	b = le.AppendUint32(b, 16)
	b = le.AppendUint16(b, h.Format)
	b = le.AppendUint16(b, h.Channels)
	b = le.AppendUint32(b, h.SampleRate)
	b = le.AppendUint32(b, h.SampleRate*uint32(h.blockAlign()))
	b = le.AppendUint16(b, h.blockAlign())
	b = le.AppendUint16(b, h.BitsPerSample)
	b = append(b, "data"...)
	b = le.AppendUint32(b, h.DataLength)
	return b
}

// AppendLoop appends the smpl chunk that follows the samples, if there
// is a loop.
func (h *Header) AppendLoop(b []byte) []byte {
	if h.Loop == nil {
		return b
	}
	le := binary.LittleEndian
	var period uint32
	if h.SampleRate != 0 {
		period = 1_000_000_000 / h.SampleRate
	}
	b = append(b, "smpl"...)
	b = le.AppendUint32(b, LoopSize-8)
	b = le.AppendUint32(b, 0)      // manufacturer
	b = le.AppendUint32(b, 0)      // product
	b = le.AppendUint32(b, period) // nanoseconds
	b = le.AppendUint32(b, 60)     // unity note, middle C
	b = le.AppendUint32(b, 0)      // pitch fraction
	b = le.AppendUint32(b, 0)      // SMPTE format
	b = le.AppendUint32(b, 0)      // SMPTE offset
	b = le.AppendUint32(b, 1)      // loops
	b = le.AppendUint32(b, 0)      // sampler data
	b = le.AppendUint32(b, 0)      // cue point
	b = le.AppendUint32(b, 0)      // forward
	b = le.AppendUint32(b, h.Loop.Start)
	b = le.AppendUint32(b, h.Loop.End-1) // inclusive
	b = le.AppendUint32(b, 0)            // fraction
	b = le.AppendUint32(b, 0)            // play forever
	return b
}
