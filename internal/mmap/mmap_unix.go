// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build unix

package mmap

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	ret := &File{name: name, size: st.Size()}
	if st.Size() == 0 || int64(int(st.Size())) != st.Size() {
		ret.f = f
		return ret, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		slog.Debug("mmapFallback", "path", name, "err", err)
		ret.f = f
		return ret, nil
	}
	f.Close()
	ret.data = data
	return ret, nil
}

func (f *File) Close() error {
	if f.data != nil {
		data := f.data
		f.data = nil
		return unix.Munmap(data)
	}
	return f.f.Close()
}
