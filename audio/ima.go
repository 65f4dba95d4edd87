// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package audio

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
)

// IMA is headerless IMA/DVI ADPCM, low nibble first. In stereo each byte
// carries the left sample in its low nibble and the right in its high.
// Predictors and step indices start at zero.
type IMA struct {
	SampleRate int // 22050 if zero
	Channels   int // 1 if zero, at most 2
}

func (IMA) Name() string { return "ima" }

var imaSteps = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

var imaIndex = [16]int{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

type imaChannel struct {
	pred  int32
	index int
}

func (ch *imaChannel) sample(nib byte) int16 {
	step := imaSteps[ch.index]
	diff := step >> 3
	if nib&1 != 0 {
		diff += step >> 2
	}
	if nib&2 != 0 {
		diff += step >> 1
	}
	if nib&4 != 0 {
		diff += step
	}
	if nib&8 != 0 {
		diff = -diff
	}
	s := clamp16(ch.pred + diff)
	ch.pred = int32(s)
	ch.index = min(max(ch.index+imaIndex[nib], 0), len(imaSteps)-1)
	return s
}

func (m IMA) Start(r exporter.Range) exporter.Stepper {
	channels := max(m.Channels, 1)
	if channels > 2 {
		return exporter.Fail(exporter.Corrupt("ima with %d channels", channels))
	}
	rate := uint32(m.SampleRate)
	if rate == 0 {
		rate = 22050
	}
	c := cursor.Open(r)
	h := Header{
		Format:        FormatPCM,
		Channels:      uint16(channels),
		SampleRate:    rate,
		BitsPerSample: 16,
		DataLength:    uint32(c.Len() * 4),
	}
	var left, right imaChannel
	hi := &left
	if channels == 2 {
		hi = &right
	}

	return wave(h, func(out []byte) ([]byte, bool, error) {
		in, err := c.Next(int(min(c.Remaining(), chunk/4)))
		if err != nil {
			return out, false, err
		}
		for _, b := range in {
			out = appendSample(out, left.sample(b&0xF))
			out = appendSample(out, hi.sample(b>>4))
		}
		return out, c.AtEnd(), nil
	})
}
