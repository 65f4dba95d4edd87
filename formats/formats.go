// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package formats registers every codec family. Import it for its side
// effects, and call RegisterProfiles to add keyed codecs from a config file.
package formats

import (
	"fmt"
	"log/slog"

	"github.com/elliotnunn/exporter"
	"github.com/elliotnunn/exporter/config"
	"github.com/elliotnunn/exporter/crypt"
	"github.com/elliotnunn/exporter/wrap"

	_ "github.com/elliotnunn/exporter/audio"
	_ "github.com/elliotnunn/exporter/delegate"
	_ "github.com/elliotnunn/exporter/entropy"
	_ "github.com/elliotnunn/exporter/lz"
)

// RegisterProfiles registers a codec under each profile's name. It stops
// at the first profile it cannot build.
func RegisterProfiles(cfg config.Config) error {
	for _, p := range cfg.Profiles {
		c, err := Profile(p)
		if err != nil {
			return err
		}
		if err := exporter.RegisterAs(p.Name, c); err != nil {
			return err
		}
		slog.Debug("profileRegistered", "name", p.Name, "codec", c.Name())
	}
	return nil
}

// Profile builds the codec a profile describes without registering it.
func Profile(p config.Profile) (exporter.Codec, error) {
	key, err := p.KeyBytes()
	if err != nil {
		return nil, err
	}
	iv, err := p.IVBytes()
	if err != nil {
		return nil, err
	}

	var inner exporter.Codec
	if p.Inner != "" {
		var ok bool
		inner, ok = exporter.Lookup(p.Inner)
		if !ok {
			return nil, fmt.Errorf("profile %s: no codec named %q", p.Name, p.Inner)
		}
	}

	var c exporter.Codec
	switch p.Algorithm {
	case "aes", "blowfish":
		b := crypt.Block{Cipher: crypt.AES, Key: key, IV: iv, Inner: inner}
		if p.Algorithm == "blowfish" {
			b.Cipher = crypt.Blowfish
		}
		switch p.Mode {
		case "", "ecb":
			b.Mode = crypt.ECB
		case "cbc":
			b.Mode = crypt.CBC
		default:
			return nil, fmt.Errorf("profile %s: unknown mode %q", p.Name, p.Mode)
		}
		return b, nil // Block layers Inner itself
	case "xor":
		if len(key) == 0 {
			return nil, fmt.Errorf("profile %s: xor needs a key", p.Name)
		}
		c = crypt.XOR{Key: key}
	case "rc4":
		c = crypt.RC4{Key: key}
	case "lcg":
		c = crypt.LCG{Seed: p.Seed}
	case "rsdk":
		c = crypt.RSDK{}
	default:
		return nil, fmt.Errorf("profile %s: unknown algorithm %q", p.Name, p.Algorithm)
	}

	if inner != nil {
		c = wrap.Chain{Outer: c, Inner: inner}
	}
	return c, nil
}
