// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrNotFound means that a get or delete call did not find the requested key,
// or that a cursor has been exhausted.
var ErrNotFound = errors.New("blobshim: not found")

// ErrBlobIO marks errors raised while writing, reading or mapping a blob file.
var ErrBlobIO = errors.New("blobshim: blob i/o error")

// ErrCorruption marks errors caused by a blob file that does not match the
// descriptor referencing it.
var ErrCorruption = errors.New("blobshim: corruption")

// MarkBlobIOError marks err as a blob I/O error. A nil error stays nil.
func MarkBlobIOError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrBlobIO)
}

// CorruptionErrorf formats according to a format specifier and returns the
// string as an error value that is marked as both a corruption error and a
// blob I/O error.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Mark(errors.Newf(format, args...), ErrCorruption), ErrBlobIO)
}

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return errors.Is(err, ErrCorruption)
}
