// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package exporter

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrTruncated   = errors.New("encoded data ended early")
	ErrCorrupt     = errors.New("corrupt encoded data")
	ErrUnsupported = fmt.Errorf("operation not supported by this format: %w", errors.ErrUnsupported)
	ErrNative      = errors.New("delegated decoder failed")
)

// Truncated converts end-of-input errors from a reader into ErrTruncated,
// leaving other errors alone.
func Truncated(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTruncated):
		return err
	case err == io.EOF, errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}

// Corrupt formats an ErrCorrupt with detail.
func Corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
