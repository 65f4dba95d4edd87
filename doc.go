// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package exporter decodes the compressed and encrypted byte ranges found
// inside game archives.
//
// A [Codec] describes one algorithm and its fixed parameters. Calling
// [Codec.Start] on a [Range] returns a [Stepper] that produces decoded
// output in chunks. A [Decoder] drives a Stepper and hands the output out
// one byte at a time, or through [io.Reader].
//
// The algorithm families live in subpackages (lz, entropy, crypt, audio,
// delegate) and register themselves by name when imported. The wrap
// subpackage composes Codecs over block lists and sub-ranges.
package exporter
