// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import "github.com/cockroachdb/errors"

// ErrMmapUnsupported is returned by Mmap when the file or the platform does
// not support memory mapping. Callers are expected to fall back to reading
// the file into a buffer.
var ErrMmapUnsupported = errors.New("vfs: memory mapping not supported")

// MappedRegion is a read-only view of a file mapped into memory.
type MappedRegion interface {
	// Bytes returns the mapped memory. The slice must not be used after Unmap.
	Bytes() []byte
	// Unmap releases the mapping.
	Unmap() error
}

// Mmap maps the first length bytes of f read-only into memory. The returned
// region remains valid after f is closed. Files without an OS descriptor
// (see File.Fd) return ErrMmapUnsupported.
func Mmap(f File, length int) (MappedRegion, error) {
	if length <= 0 {
		return nil, errors.Newf("vfs: invalid mmap length %d", length)
	}
	fd := f.Fd()
	if fd == InvalidFd {
		return nil, ErrMmapUnsupported
	}
	return mmapFd(fd, length)
}
