// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package lz implements the sliding-window back-reference decoders.
//
// Each decoder reads control bits that choose between a literal byte and
// a match copied from earlier output. The field layouts, biases and end
// conditions differ per format and are reproduced exactly.
package lz

import (
	"github.com/elliotnunn/exporter"
)

func init() {
	exporter.Register(LZSS{})
	exporter.Register(LZ10{})
	exporter.Register(LZ11{})
	exporter.Register(RefPack{})
	exporter.Register(LZ4{})
	exporter.Register(ADC{})
	exporter.Register(PRS{})
	exporter.Register(LZW{})
	if err := exporter.RegisterAs("compress", LZW{Header: true}); err != nil {
		panic(err)
	}

	exporter.RegisterMagic("refpack", "\x10\xfb", 0)
	exporter.RegisterMagic("refpack", "\x11\xfb", 0)
	exporter.RegisterMagic("refpack", "\x90\xfb", 0)
	exporter.RegisterMagic("refpack", "\x91\xfb", 0)
	exporter.RegisterMagic("compress", "\x1f\x9d", 0)
}

// longestMatch finds the longest earlier occurrence of src[pos:],
// searching back at most maxDist bytes. Overlapping matches are allowed.
func longestMatch(src []byte, pos, maxDist, maxLen int) (dist, n int) {
	maxLen = min(maxLen, len(src)-pos)
	for j := pos - 1; j >= max(0, pos-maxDist); j-- {
		k := 0
		for k < maxLen && src[j+k] == src[pos+k] {
			k++
		}
		if k > n {
			dist, n = pos-j, k
			if k == maxLen {
				break
			}
		}
	}
	return dist, n
}
