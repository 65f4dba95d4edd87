// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
	"strconv"

	"github.com/elliotnunn/exporter"
	"golang.org/x/crypto/blowfish"
)

type Algorithm int

const (
	AES Algorithm = iota
	Blowfish
)

func (a Algorithm) String() string {
	switch a {
	case AES:
		return "aes"
	case Blowfish:
		return "blowfish"
	}
	return "Algorithm(" + strconv.Itoa(int(a)) + ")"
}

type Mode int

const (
	ECB Mode = iota
	CBC
)

func (m Mode) String() string {
	switch m {
	case ECB:
		return "ecb"
	case CBC:
		return "cbc"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Block is a standard block cipher without padding. A trailing partial
// block is stored in the clear. If Inner is set, the decrypted bytes are
// themselves encoded with Inner and the Range's DecompLength belongs to
// Inner's output.
type Block struct {
	Cipher Algorithm
	Mode   Mode
	Key    []byte
	IV     []byte // CBC only, zero if nil
	Inner  exporter.Codec
}

func (b Block) Name() string {
	name := b.Cipher.String() + "-" + b.Mode.String()
	if b.Inner != nil {
		name += "+" + b.Inner.Name()
	}
	return name
}

func (b Block) blockMode(decrypt bool) (cipher.BlockMode, error) {
	var ciph cipher.Block
	var err error
	switch b.Cipher {
	case AES:
		ciph, err = aes.NewCipher(b.Key)
	case Blowfish:
		ciph, err = blowfish.NewCipher(b.Key)
	default:
		err = fmt.Errorf("unknown cipher %v", b.Cipher)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	switch b.Mode {
	case ECB:
		return ecb{ciph, decrypt}, nil
	case CBC:
		iv := b.IV
		if iv == nil {
			iv = make([]byte, ciph.BlockSize())
		} else if len(iv) != ciph.BlockSize() {
			return nil, fmt.Errorf("%s: IV of %d bytes, want %d", b.Name(), len(iv), ciph.BlockSize())
		}
		if decrypt {
			return cipher.NewCBCDecrypter(ciph, iv), nil
		}
		return cipher.NewCBCEncrypter(ciph, iv), nil
	}
	return nil, fmt.Errorf("%s: unknown mode", b.Name())
}

func aligned(mode cipher.BlockMode) func(p []byte, final bool) {
	return func(p []byte, _ bool) {
		n := len(p) - len(p)%mode.BlockSize()
		mode.CryptBlocks(p[:n], p[:n])
	}
}

func (b Block) Start(r exporter.Range) exporter.Stepper {
	if b.Inner != nil {
		outer := b
		outer.Inner = nil
		plain := r
		plain.DecompLength = r.Length
		ra, err := exporter.NewReaderAt(outer, plain, 0)
		if err != nil {
			return exporter.Fail(err)
		}
		inner := exporter.Range{
			Store:        ra,
			Length:       r.Length,
			DecompLength: r.DecompLength,
			Name:         r.Name,
		}
		if id, ok := r.Identity(outer.Name()); ok {
			inner.Key = strconv.FormatUint(id, 16)
		}
		return b.Inner.Start(inner)
	}

	mode, err := b.blockMode(true)
	if err != nil {
		return exporter.Fail(err)
	}
	return stream(r, aligned(mode))
}

func (b Block) Pack(dst io.Writer, src []byte, r exporter.Range) error {
	if b.Inner != nil {
		var buf bytes.Buffer
		if err := exporter.Pack(b.Inner, &buf, src, r); err != nil {
			return err
		}
		src = buf.Bytes()
	}
	mode, err := b.blockMode(false)
	if err != nil {
		return err
	}
	return packWith(dst, src, aligned(mode))
}

// ecb is the mode that the standard library leaves out.
type ecb struct {
	b       cipher.Block
	decrypt bool
}

func (e ecb) BlockSize() int { return e.b.BlockSize() }

func (e ecb) CryptBlocks(dst, src []byte) {
	bs := e.b.BlockSize()
	for i := 0; i+bs <= len(src); i += bs {
		if e.decrypt {
			e.b.Decrypt(dst[i:i+bs], src[i:i+bs])
		} else {
			e.b.Encrypt(dst[i:i+bs], src[i:i+bs])
		}
	}
}
