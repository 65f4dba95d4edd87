// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package config reads the engine's settings from a TOML file and the
// environment.
//
//	[cache]
//	max_blocks = 512
//	max_bytes = 67108864
//	spill_dir = "/tmp/exporter-spill"
//
//	[log]
//	level = "debug"
//
//	[[profile]]
//	name = "sf-data"
//	algorithm = "aes"
//	mode = "cbc"
//	key = "000102030405060708090a0b0c0d0e0f"
//	inner = "lz10"
//
// The environment overrides the file: EXPORTER_CACHE_GB is a number of
// gigabytes of decoded blocks to keep in memory, EXPORTER_SPILL_DIR a
// directory for blocks pushed out of memory, EXPORTER_LOG a log level.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/elliotnunn/exporter/internal/blockcache"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Cache    Cache     `toml:"cache"`
	Log      Log       `toml:"log"`
	Profiles []Profile `toml:"profile"`
}

type Cache struct {
	MaxBlocks int    `toml:"max_blocks"`
	MaxBytes  int64  `toml:"max_bytes"` // of one block
	SpillDir  string `toml:"spill_dir"`
}

type Log struct {
	Level string `toml:"level"`
}

// A Profile names a keyed codec so that archives can refer to it.
type Profile struct {
	Name      string `toml:"name"`
	Algorithm string `toml:"algorithm"` // aes, blowfish, xor, rc4, lcg
	Mode      string `toml:"mode"`      // ecb or cbc, block ciphers only
	Key       string `toml:"key"`       // hex
	IV        string `toml:"iv"`        // hex
	Seed      uint32 `toml:"seed"`      // lcg only
	Inner     string `toml:"inner"`     // registered codec applied after decryption
}

// KeyBytes decodes the hex key. An empty key decodes to nil.
func (p Profile) KeyBytes() ([]byte, error) {
	k, err := hex.DecodeString(p.Key)
	if err != nil {
		return nil, fmt.Errorf("profile %s: key: %w", p.Name, err)
	}
	return k, nil
}

func (p Profile) IVBytes() ([]byte, error) {
	if p.IV == "" {
		return nil, nil
	}
	iv, err := hex.DecodeString(p.IV)
	if err != nil {
		return nil, fmt.Errorf("profile %s: iv: %w", p.Name, err)
	}
	return iv, nil
}

// Default has no profiles, a memory-only cache and Info logging.
func Default() Config {
	return Config{
		Cache: Cache{
			MaxBlocks: blockcache.DefaultMaxBlocks,
			MaxBytes:  blockcache.DefaultMaxBlockBytes,
		},
		Log: Log{Level: "info"},
	}
}

// Read parses TOML over the defaults. Unknown keys are an error, to catch
// misspellings.
func Read(r io.Reader) (Config, error) {
	c := Default()
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return c, fmt.Errorf("config line %d column %d: %w", row, col, err)
		}
		return c, fmt.Errorf("config: %w", err)
	}
	return c, c.validate()
}

// Load reads a file if path is not empty, then applies the environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return c, err
		}
		defer f.Close()
		c, err = Read(f)
		if err != nil {
			return c, err
		}
	}
	err := c.ApplyEnv(os.Getenv)
	return c, err
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if e := getenv("EXPORTER_CACHE_GB"); e != "" {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return fmt.Errorf("malformed EXPORTER_CACHE_GB environment variable, should be a number of gigabytes: %s", e)
		}
		c.Cache.MaxBlocks = max(1, int(f*1024*1024*1024/float64(blockSizeGuess)))
	}
	if e := getenv("EXPORTER_SPILL_DIR"); e != "" {
		c.Cache.SpillDir = e
	}
	if e := getenv("EXPORTER_LOG"); e != "" {
		c.Log.Level = e
	}
	return c.validate()
}

// blocks in game archives are mostly a few hundred KiB
const blockSizeGuess = 256 << 10

func (c Config) validate() error {
	if c.Cache.MaxBlocks < 0 || c.Cache.MaxBytes < 0 {
		return fmt.Errorf("config: negative cache size")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, p := range c.Profiles {
		if p.Name == "" {
			return fmt.Errorf("config: profile without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: profile %s defined twice", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return l, fmt.Errorf("config: log level %q: %w", c.Log.Level, err)
	}
	return l, nil
}

// Logger writes text records to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	l, _ := c.Level()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// BlockCache builds the decoded block cache. Close it to release the
// spill directory.
func (c Config) BlockCache() (*blockcache.Cache, error) {
	return blockcache.New(blockcache.Options{
		MaxBlocks:     c.Cache.MaxBlocks,
		MaxBlockBytes: c.Cache.MaxBytes,
		SpillDir:      c.Cache.SpillDir,
	})
}
