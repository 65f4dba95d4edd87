// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	for _, content := range []string{"", "hello, store"} {
		name := filepath.Join(t.TempDir(), "store.bin")
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		f, err := Open(name)
		if err != nil {
			t.Fatal(err)
		}
		if f.Size() != int64(len(content)) {
			t.Errorf("size %d, want %d", f.Size(), len(content))
		}
		buf := make([]byte, 5)
		n, err := f.ReadAt(buf, 7)
		if len(content) == 0 {
			if n != 0 || err != io.EOF {
				t.Errorf("empty store: got %d %v", n, err)
			}
		} else if string(buf[:n]) != "store" {
			t.Errorf("got %q", buf[:n])
		}
		n, err = f.ReadAt(buf, int64(len(content))-2)
		if len(content) > 0 && (n != 2 || err != io.EOF) {
			t.Errorf("short read at end: got %d %v", n, err)
		}
		if err := f.Close(); err != nil {
			t.Error(err)
		}
	}
}
