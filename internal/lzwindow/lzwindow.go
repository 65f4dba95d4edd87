// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package lzwindow is the growing output buffer shared by the
// back-reference decoders.
package lzwindow

import (
	"io"

	"github.com/elliotnunn/exporter"
)

// Chunk is how much output a Stepper tries to produce per call.
const Chunk = 4096

// A Window is both the output and the history that matches copy from.
type Window struct {
	out     []byte
	base    int // preset dictionary bytes, never emitted
	limit   int // -1 if unknown
	emitted int
}

// New sizes the window for a declared output length (or SizeUnknown).
func New(limit int64) *Window {
	return NewPreset(limit, nil)
}

// NewPreset starts with dictionary bytes that matches may reach into.
func NewPreset(limit int64, preset []byte) *Window {
	w := &Window{limit: -1, base: len(preset)}
	hint := Chunk
	if limit >= 0 {
		w.limit = int(limit)
		hint = int(min(limit, 1<<26))
	}
	w.out = make([]byte, len(preset), len(preset)+hint)
	copy(w.out, preset)
	w.emitted = len(preset)
	return w
}

// Len counts output bytes, excluding any preset dictionary.
func (w *Window) Len() int { return len(w.out) - w.base }

// Full reports whether the declared length has been reached.
func (w *Window) Full() bool { return w.limit >= 0 && w.Len() >= w.limit }

func (w *Window) Literal(b byte) {
	if !w.Full() {
		w.out = append(w.out, b)
	}
}

// Literals copies raw bytes, stopping at the declared length.
func (w *Window) Literals(p []byte) {
	if w.limit >= 0 {
		p = p[:min(len(p), max(w.limit-w.Len(), 0))]
	}
	w.out = append(w.out, p...)
}

// Copy appends n bytes starting dist bytes back. The copy goes one byte
// at a time so that a short distance repeats a pattern.
func (w *Window) Copy(dist, n int) error {
	if dist <= 0 || dist > len(w.out) {
		return exporter.Corrupt("distance %d with %d bytes of history", dist, len(w.out))
	}
	if w.limit >= 0 {
		n = min(n, max(w.limit-w.Len(), 0))
	}
	from := len(w.out) - dist
	for i := range n {
		w.out = append(w.out, w.out[from+i])
	}
	return nil
}

// At returns an output byte by absolute position, counting the preset.
func (w *Window) At(i int) byte { return w.out[i] }

// Bytes is the output so far, excluding any preset dictionary.
func (w *Window) Bytes() []byte { return w.out[w.base:] }

func (w *Window) take() []byte {
	chunk := w.out[w.emitted:len(w.out):len(w.out)]
	w.emitted = len(w.out)
	return chunk
}

// Drive makes a Stepper that calls op, which decodes one literal or match,
// until a chunk of output is ready. op reports done at an end code or at
// the end of input.
func Drive(w *Window, op func() (done bool, err error)) exporter.Stepper {
	var step exporter.Stepper
	step = func() (exporter.Stepper, []byte, error) {
		for len(w.out)-w.emitted < Chunk && !w.Full() {
			done, err := op()
			if err != nil {
				return nil, w.take(), exporter.Truncated(err)
			}
			if done {
				return nil, w.take(), io.EOF
			}
		}
		chunk := w.take()
		if w.Full() {
			return nil, chunk, io.EOF
		}
		return step, chunk, nil
	}
	return step
}
