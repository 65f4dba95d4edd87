// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package stepcache gives random access to the output of a chunked decoder.
//
// The decoder is run forward once, remembering where every chunk starts.
// Chunks are kept in a small cache; a chunk that has been evicted is
// recovered by restarting the decoder and stepping forward to it.
package stepcache

import (
	"hash/maphash"
	"io"
	"sort"
	"sync"

	"github.com/dgryski/go-tinylfu"
)

// A Stepper decodes the next chunk. It returns io.EOF (or a nil Stepper)
// with the final chunk.
type Stepper func() (Stepper, []byte, error)

const defaultChunks = 256

var seed = maphash.MakeSeed()

type ReaderAt struct {
	mu      sync.Mutex
	start   func() Stepper
	size    int64 // negative until the end is found
	offsets []int64
	lens    []int
	front   Stepper // produces chunk len(offsets)
	done    bool
	err     error // terminal error, reported at the end of the data
	blobs   *tinylfu.T[int, []byte]
}

// New wraps a decoder. size may be negative if the output length is unknown.
// nChunks bounds how many decoded chunks stay in memory.
func New(start func() Stepper, size int64, nChunks int) *ReaderAt {
	if nChunks <= 0 {
		nChunks = defaultChunks
	}
	return &ReaderAt{
		start: start,
		size:  size,
		front: start(),
		blobs: tinylfu.New[int, []byte](nChunks, nChunks*10, func(k int) uint64 {
			return maphash.Comparable(seed, k)
		}),
	}
}

// Size is the decoded length, or -1 if the decoder has not yet finished.
func (r *ReaderAt) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < 0 {
		return -1
	}
	return r.size
}

func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.EOF
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if r.size >= 0 && pos >= r.size {
			break
		}
		for !r.done && (len(r.offsets) == 0 || pos >= r.end()) {
			r.advance()
		}
		if len(r.offsets) == 0 || pos >= r.end() {
			break
		}

		// highest chunk starting at or before pos
		i := sort.Search(len(r.offsets), func(i int) bool {
			return r.offsets[i] > pos
		}) - 1

		blob, ok := r.blobs.Get(i)
		if !ok {
			var err error
			blob, err = r.replay(i)
			if err != nil {
				return n, err
			}
		}
		inner := int(pos - r.offsets[i])
		n += copy(p[n:], blob[inner:])
	}

	if n < len(p) {
		if r.err != nil {
			return n, r.err
		}
		return n, io.EOF
	}
	return n, nil
}

func (r *ReaderAt) end() int64 {
	last := len(r.offsets) - 1
	return r.offsets[last] + int64(r.lens[last])
}

func (r *ReaderAt) advance() {
	if r.front == nil {
		r.finish(nil)
		return
	}
	next, blob, err := r.front()
	if len(blob) > 0 {
		var at int64
		if len(r.offsets) > 0 {
			at = r.end()
		}
		if blob = clip(blob, at, r.size); len(blob) > 0 {
			r.offsets = append(r.offsets, at)
			r.lens = append(r.lens, len(blob))
			r.blobs.Add(len(r.offsets)-1, blob)
		}
	}
	r.front = next
	switch {
	case err == io.EOF || (err == nil && next == nil):
		r.finish(nil)
	case err != nil:
		r.finish(err)
	case r.size >= 0 && len(r.offsets) > 0 && r.end() >= r.size:
		r.finish(nil)
	}
}

func (r *ReaderAt) finish(err error) {
	r.done, r.err, r.front = true, err, nil
	if len(r.offsets) > 0 {
		r.size = r.end()
	} else {
		r.size = 0
	}
}

// replay restarts the decoder to recover an evicted chunk.
func (r *ReaderAt) replay(want int) ([]byte, error) {
	s := r.start()
	for i := 0; s != nil; {
		next, blob, err := s()
		if len(blob) > 0 {
			blob = clip(blob, r.offsets[i], r.size)
			r.blobs.Add(i, blob)
			if i == want {
				return blob, nil
			}
			i++
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		s = next
	}
	return nil, io.ErrUnexpectedEOF
}

func clip(blob []byte, at, size int64) []byte {
	if size >= 0 && at+int64(len(blob)) > size {
		return blob[:max(size-at, 0)]
	}
	return blob
}
