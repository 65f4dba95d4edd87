// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"fmt"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

var registry = struct {
	sync.RWMutex
	codecs map[string]Codec
	magics []magic
}{codecs: make(map[string]Codec)}

type magic struct {
	name string
	sig  string
	at   int
}

// Register makes c available under its own name. It panics if the name
// is taken, so that two families cannot silently shadow each other.
func Register(c Codec) {
	if err := RegisterAs(c.Name(), c); err != nil {
		panic(err)
	}
}

// RegisterAs makes c available under name, for parameterised profiles.
func RegisterAs(name string, c Codec) error {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.codecs[name]; dup {
		return fmt.Errorf("exporter: codec %q registered twice", name)
	}
	registry.codecs[name] = c
	return nil
}

func Lookup(name string) (Codec, bool) {
	registry.RLock()
	defer registry.RUnlock()
	c, ok := registry.codecs[name]
	return c, ok
}

// Names lists registered codecs in order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.codecs))
	for n := range registry.codecs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Match lists registered codecs whose names match a glob such as "lz*"
// or "aes-{ecb,cbc}".
func Match(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("exporter: bad pattern %q", pattern)
	}
	var ret []string
	for _, n := range Names() {
		if ok, _ := doublestar.Match(pattern, n); ok {
			ret = append(ret, n)
		}
	}
	return ret, nil
}

// RegisterMagic records that data starting with sig at byte offset at
// belongs to the named codec.
func RegisterMagic(name, sig string, at int) {
	registry.Lock()
	defer registry.Unlock()
	registry.magics = append(registry.magics, magic{name, sig, at})
}

// Detect guesses the codec from the first bytes of encoded data.
// Longer signatures are tried first.
func Detect(head []byte) (Codec, bool) {
	registry.RLock()
	magics := slices.Clone(registry.magics)
	registry.RUnlock()

	slices.SortStableFunc(magics, func(a, b magic) int { return len(b.sig) - len(a.sig) })
	for _, m := range magics {
		if matchAt(head, m.sig, m.at) {
			return Lookup(m.name)
		}
	}
	return nil, false
}

func matchAt(head []byte, sig string, at int) bool {
	return at >= 0 && len(head) >= at+len(sig) && string(head[at:at+len(sig)]) == sig
}

// DetectRange reads the start of r and calls Detect.
func DetectRange(r Range) (Codec, bool) {
	head := make([]byte, min(r.Length, 64))
	n, _ := r.Section().ReadAt(head, 0)
	return Detect(head[:n])
}
