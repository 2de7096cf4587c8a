// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package blobfile derives blob directory and file paths and moves values in
// and out of blob files.
package blobfile

import (
	"io"
	"os"

	"github.com/cockroachdb/blobshim/internal/base"
	"github.com/cockroachdb/blobshim/internal/blobrec"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
)

var errInvalidDescriptor = errors.New("blobshim: invalid blob descriptor")

// Write stores value in the blob file named by the descriptor rec, creating
// dir with DirMode(mode) if it does not exist. The parent of dir must already
// exist. The file is created, or
// truncated, with mode. On failure any partially written file is removed and
// the first error encountered is returned, marked as base.ErrBlobIO.
func Write(fs vfs.FS, dir string, mode os.FileMode, rec []byte, value []byte) error {
	path, ok := PathFor(fs, dir, rec)
	if !ok {
		return base.MarkBlobIOError(errInvalidDescriptor)
	}
	if _, err := fs.Stat(dir); err != nil {
		if !oserror.IsNotExist(err) {
			return base.MarkBlobIOError(errors.Wrapf(err, "blobshim: stat %s", dir))
		}
		if err := mkdir(fs, dir, DirMode(mode)); err != nil {
			return base.MarkBlobIOError(errors.Wrapf(err, "blobshim: creating blob directory %s", dir))
		}
	}

	f, err := fs.Create(path, mode)
	if err != nil {
		_ = fs.Remove(path)
		return base.MarkBlobIOError(errors.Wrapf(err, "blobshim: creating blob %s", path))
	}
	n, err := f.Write(value)
	if err == nil && n < len(value) {
		err = io.ErrShortWrite
	}
	if err == nil {
		err = f.Sync()
	}
	// A close error only matters if nothing failed before it.
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = fs.Remove(path)
		return base.MarkBlobIOError(errors.Wrapf(err, "blobshim: writing blob %s", path))
	}
	return nil
}

// mkdir creates dir but not its parents.
func mkdir(fs vfs.FS, dir string, perm os.FileMode) error {
	if parent := fs.PathDir(dir); parent != dir && parent != "." {
		fi, err := fs.Stat(parent)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return errors.Newf("%s is not a directory", errors.Safe(parent))
		}
	}
	return fs.MkdirAll(dir, perm)
}

// Read returns the contents of the blob file named by the descriptor rec. The
// first blobrec.Length(rec) bytes of the file are memory mapped; when the file
// cannot be mapped they are read into a buffer instead. A file shorter than
// the recorded length is reported as corruption. The caller owns the returned
// Mapping and must release it.
func Read(fs vfs.FS, dir string, rec []byte) (*Mapping, error) {
	path, ok := PathFor(fs, dir, rec)
	if !ok {
		return nil, base.MarkBlobIOError(errInvalidDescriptor)
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, base.MarkBlobIOError(errors.Wrapf(err, "blobshim: opening blob %s", path))
	}
	// The mapping, if any, outlives the descriptor.
	defer f.Close()

	length := int(blobrec.Length(rec))
	fi, err := f.Stat()
	if err != nil {
		return nil, base.MarkBlobIOError(errors.Wrapf(err, "blobshim: stat blob %s", path))
	}
	if fi.Size() < int64(length) {
		return nil, base.CorruptionErrorf("blobshim: blob %s is %d bytes, descriptor records %d",
			errors.Safe(path), fi.Size(), length)
	}
	if length == 0 {
		return &Mapping{}, nil
	}

	region, err := vfs.Mmap(f, length)
	if err == nil {
		return &Mapping{region: region, data: region.Bytes()}, nil
	}
	if !errors.Is(err, vfs.ErrMmapUnsupported) {
		return nil, base.MarkBlobIOError(errors.Wrapf(err, "blobshim: mapping blob %s", path))
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, base.CorruptionErrorf("blobshim: short read of blob %s", errors.Safe(path))
		}
		return nil, base.MarkBlobIOError(errors.Wrapf(err, "blobshim: reading blob %s", path))
	}
	return &Mapping{data: buf}, nil
}

// Remove deletes the blob file named by the descriptor rec. It does nothing
// if rec does not resolve to a path. The error is returned for logging only;
// callers proceed regardless.
func Remove(fs vfs.FS, dir string, rec []byte) error {
	path, ok := PathFor(fs, dir, rec)
	if !ok {
		return nil
	}
	return fs.Remove(path)
}
