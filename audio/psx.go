// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package audio

import (
	"bytes"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

// PSX is the PlayStation SPU ADPCM format. Each 16-byte frame holds a
// predictor and shift byte, a flags byte and 28 4-bit samples, low
// nibble first. Stereo data alternates Interleave bytes of each channel.
//
// A "VAGp" header, if present, supplies the data size and sample rate.
// A frame with the loop end flag is the last. If it also has the repeat
// flag, the WAVE file gets a loop from the last frame with the loop
// start flag. A frame of flags 7 ends the data without being decoded.
type PSX struct {
	SampleRate int // 44100 if zero
	Channels   int // 1 if zero
	Interleave int // 16 if zero
}

func (PSX) Name() string { return "psx" }

const (
	psxFrame   = 16
	psxSamples = 28

	psxLoopEnd    = 1
	psxLoopRepeat = 2
	psxLoopStart  = 4
	psxStop       = 7
)

var psxCoef = [5][2]int32{{0, 0}, {60, 0}, {115, -52}, {98, -55}, {122, -60}}

type psxChannel struct {
	hist1, hist2 int32
}

func (ch *psxChannel) frame(f []byte, out *[psxSamples]int16) error {
	pred, shift := f[0]>>4, f[0]&0xF
	if int(pred) >= len(psxCoef) {
		return exporter.Corrupt("psx predictor %d", pred)
	}
	if shift > 12 {
		shift = 9 // as the hardware does
	}
	c0, c1 := psxCoef[pred][0], psxCoef[pred][1]
	for i := range psxSamples {
		nib := f[2+i/2]
		if i%2 == 0 {
			nib <<= 4
		}
		s := int32(int8(nib&0xF0)) << 8 >> shift
		s += (ch.hist1*c0 + ch.hist2*c1 + 32) >> 6
		out[i] = clamp16(s)
		ch.hist2, ch.hist1 = ch.hist1, int32(out[i])
	}
	return nil
}

type psxLayout struct {
	c          *cursor.Cursor
	dataOff    int64
	channels   int
	interleave int
}

// at locates frame f of a channel.
func (l psxLayout) at(ch int, f int64) int64 {
	perBlock := int64(l.interleave / psxFrame)
	group := int64(l.channels * l.interleave)
	return l.dataOff + f/perBlock*group + int64(ch*l.interleave) + f%perBlock*psxFrame
}

// scan reads the flags of the first channel to find the frame count and
// any loop.
func (l psxLayout) scan(total int64) (int64, *Loop, error) {
	loopStart := int64(0)
	for f := range total {
		if err := l.c.Seek(l.at(0, f) + 1); err != nil {
			return 0, nil, err
		}
		flags, err := l.c.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		switch {
		case flags == psxStop:
			return f, nil, nil
		case flags&psxLoopStart != 0:
			loopStart = f
		}
		if flags&psxLoopEnd != 0 {
			if flags&psxLoopRepeat == 0 {
				return f + 1, nil, nil
			}
			return f + 1, &Loop{Start: uint32(loopStart * psxSamples), End: uint32((f + 1) * psxSamples)}, nil
		}
	}
	return total, nil, nil
}

func (p PSX) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	l := psxLayout{c: c, channels: max(p.Channels, 1), interleave: p.Interleave}
	if l.interleave == 0 {
		l.interleave = psxFrame
	} else if l.interleave%psxFrame != 0 {
		return exporter.Fail(exporter.Corrupt("psx interleave %d", l.interleave))
	}
	rate := uint32(p.SampleRate)
	if rate == 0 {
		rate = 44100
	}

	dataLen := c.Len()
	if c.Len() >= 0x30 {
		hdr, err := c.Next(0x30)
		if err != nil {
			return exporter.Fail(err)
		}
		if bytes.HasPrefix(hdr, []byte("VAGp")) {
			h := cursor.FromBytes(hdr)
			h.Seek(0x0C)
			size, _ := h.Uint32BE()
			rate, _ = h.Uint32BE()
			l.dataOff = 0x30
			dataLen = min(int64(size), c.Len()-0x30)
		}
	}

	group := int64(l.channels * l.interleave)
	total := dataLen / group * int64(l.interleave/psxFrame)
	nframes, loop, err := l.scan(total)
	if err != nil {
		return exporter.Fail(err)
	}

	h := Header{
		Format:        FormatPCM,
		Channels:      uint16(l.channels),
		SampleRate:    rate,
		BitsPerSample: 16,
		DataLength:    uint32(nframes * psxSamples * 2 * int64(l.channels)),
		Loop:          loop,
	}
	hist := make([]psxChannel, l.channels)
	pcm := make([][psxSamples]int16, l.channels)
	f := int64(0)

	return wave(h, func(out []byte) ([]byte, bool, error) {
		for ; f < nframes && len(out) < chunk; f++ {
			for ch := range hist {
				if err := c.Seek(l.at(ch, f)); err != nil {
					return out, false, err
				}
				frame, err := c.Next(psxFrame)
				if err != nil {
					return out, false, err
				}
				if err := hist[ch].frame(frame, &pcm[ch]); err != nil {
					return out, false, err
				}
			}
			for i := range psxSamples {
				for ch := range pcm {
					out = appendSample(out, pcm[ch][i])
				}
			}
		}
		return out, f == nframes, nil
	})
}
