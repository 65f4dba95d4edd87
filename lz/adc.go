// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lz

import (
	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/cursor"
	"github.com/elliotnunn/exporter/internal/lzwindow"
)

// ADC is Apple Data Compression. A control byte with the top bit set
// starts a literal run of up to 128 bytes; otherwise bit 6 selects a
// three-byte match (length 4-67, 16-bit distance) over a two-byte match
// (length 3-18, 10-bit distance). Distances carry a bias of 1.
type ADC struct{}

func (ADC) Name() string { return "adc" }

func (ADC) Start(r exporter.Range) exporter.Stepper {
	c := cursor.Open(r)
	w := lzwindow.New(r.DecompLength)

	return lzwindow.Drive(w, func() (bool, error) {
		if c.AtEnd() {
			return true, nil
		}
		ctl, err := c.ReadByte()
		if err != nil {
			return false, err
		}
		switch {
		case ctl&0x80 != 0:
			lit, err := c.Next(int(ctl&0x7F) + 1)
			if err != nil {
				return false, err
			}
			w.Literals(lit)
			return false, nil
		case ctl&0x40 != 0:
			d, err := c.Uint16BE()
			if err != nil {
				return false, err
			}
			return false, w.Copy(int(d)+1, int(ctl)-0x3C)
		default:
			b, err := c.ReadByte()
			if err != nil {
				return false, err
			}
			return false, w.Copy((int(ctl&3)<<8|int(b))+1, int(ctl>>2&0xF)+3)
		}
	})
}
