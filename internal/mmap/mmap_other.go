// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build !unix

package mmap

import "os"

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
	return &File{name: name, f: f, size: st.Size()}, nil
}

func (f *File) Close() error { return f.f.Close() }
