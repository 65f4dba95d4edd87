// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lzwindow

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/elliotnunn/exporter"
)

func TestOverlappingCopy(t *testing.T) {
	w := New(exporter.SizeUnknown)
	w.Literal('a')
	if err := w.Copy(1, 5); err != nil {
		t.Fatal(err)
	}
	w.Literals([]byte("bc"))
	if err := w.Copy(3, 7); err != nil {
		t.Fatal(err)
	}
	if got := string(w.Bytes()); got != "aaaaaabcabcabca" {
		t.Errorf("got %q", got)
	}
}

func TestDistanceBeforeStart(t *testing.T) {
	w := New(exporter.SizeUnknown)
	w.Literals([]byte("xy"))
	for _, dist := range []int{0, 3, -1} {
		if err := w.Copy(dist, 1); !errors.Is(err, exporter.ErrCorrupt) {
			t.Errorf("distance %d: expected ErrCorrupt, got %v", dist, err)
		}
	}
}

func TestPreset(t *testing.T) {
	w := NewPreset(4, []byte("    "))
	w.Literal('z')
	w.Copy(3, 10)
	if got := string(w.Bytes()); got != "z  z" {
		t.Errorf("got %q", got)
	}
	if !w.Full() {
		t.Error("should be full at the declared length")
	}
}

func TestDrive(t *testing.T) {
	const total = 3*Chunk + 5
	w := New(total)
	s := Drive(w, func() (bool, error) {
		w.Literal(byte(w.Len()))
		return false, nil
	})
	var got []byte
	for s != nil {
		next, chunk, err := s()
		got = append(got, chunk...)
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		s = next
	}
	if len(got) != total {
		t.Fatalf("got %d bytes, want %d", len(got), total)
	}
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("byte %d is %d", i, b)
		}
	}
}

func TestDriveTruncated(t *testing.T) {
	w := New(exporter.SizeUnknown)
	s := Drive(w, func() (bool, error) {
		if w.Len() == 3 {
			return false, io.ErrUnexpectedEOF
		}
		w.Literal('q')
		return false, nil
	})
	_, chunk, err := s()
	if !bytes.Equal(chunk, []byte("qqq")) || !errors.Is(err, exporter.ErrTruncated) {
		t.Errorf("got %q %v", chunk, err)
	}
}
