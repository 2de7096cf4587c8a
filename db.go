// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package blobshim provides an overflow layer in front of a key/value engine
// that cannot hold large values. Values longer than Options.MaxEntrySize are
// written to one file per key in a blob directory next to the store, and the
// engine keeps a fixed-size blob descriptor in their place. Reads of such
// records transparently return the file's contents.
//
// A DB is not safe for concurrent use.
package blobshim // import "github.com/cockroachdb/blobshim"

import (
	"math"
	"os"

	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/internal/base"
	"github.com/cockroachdb/blobshim/internal/blobfile"
	"github.com/cockroachdb/blobshim/internal/blobrec"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/crlib/crtime"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrNotFound is returned when a get or delete operation does not find
	// the requested key, and by Next when iteration is exhausted. It is
	// produced by the engine and passed through unchanged.
	ErrNotFound = base.ErrNotFound
	// ErrClosed is returned when an operation is performed on a closed DB.
	ErrClosed = engine.ErrClosed
	// ErrReadOnly is returned by engines when a write is attempted on a DB
	// opened read-only.
	ErrReadOnly = engine.ErrReadOnly
	// ErrBlobIO marks errors encountered while writing or reading a blob
	// file. The underlying OS error remains in the chain.
	ErrBlobIO = base.ErrBlobIO
	// ErrCorruption marks blob files that disagree with their descriptor.
	ErrCorruption = base.ErrCorruption
)

// SeqOp positions the iteration cursor in Next.
type SeqOp = engine.SeqOp

// Cursor operations accepted by Next.
const (
	SeqFirst = engine.SeqFirst
	SeqNext  = engine.SeqNext
)

// DB wraps an engine, relocating oversized values to blob files.
type DB struct {
	eng          engine.Engine
	fs           vfs.FS
	blobDir      string
	mode         os.FileMode
	readOnly     bool
	maxEntrySize int
	logger       Logger
	latency      LatencyMetrics

	// mapped holds the blob returned by the most recent Get or Next. The next
	// operation detaches it and releases it once the operation's arguments
	// are consumed.
	mapped *blobfile.Mapping

	metrics metrics
	closed  bool
}

// begin is called at the top of every operation other than Fd. It detaches
// the blob handed out by the previous operation and returns it. Arguments to
// the operation may point into that blob, so the caller passes it to release
// once they are no longer read, and before reading another blob.
func (d *DB) begin() (*blobfile.Mapping, error) {
	if d.closed {
		return nil, ErrClosed
	}
	prev := d.mapped
	d.mapped = nil
	return prev, nil
}

func (d *DB) release(m *blobfile.Mapping) {
	if m == nil {
		return
	}
	if err := m.Release(); err != nil {
		d.logger.Errorf("blobshim: releasing blob mapping: %v", err)
	}
	if d.mapped == nil {
		d.metrics.mappedBlobs.Store(0)
	}
}

// Get returns the value stored under key. Blob descriptors are replaced by
// the contents of their blob file. The returned slice must not be modified. It
// remains valid until the next operation on d is done with its arguments, so
// it may be passed to that operation.
func (d *DB) Get(key []byte) ([]byte, error) {
	prev, err := d.begin()
	if err != nil {
		return nil, err
	}
	value, err := d.eng.Get(key)
	d.release(prev)
	if err != nil {
		return nil, err
	}
	if !blobrec.IsBlob(value) {
		return value, nil
	}
	m, err := d.readBlob(value)
	if err != nil {
		d.metrics.blobReadErrors.Add(1)
		return nil, err
	}
	return m.Bytes(), nil
}

// Set stores value under key. A value longer than MaxEntrySize is written to
// its blob file first and the engine receives the blob descriptor; if that
// write fails the engine is left untouched. Any blob file referenced by the
// previous value is removed. On a read-only DB the call goes straight to the
// engine.
func (d *DB) Set(key, value []byte) error {
	prev, err := d.begin()
	if err != nil {
		return err
	}
	defer d.release(prev)
	if d.readOnly {
		return d.eng.Set(key, value)
	}

	if old, err := d.eng.Get(key); err == nil && blobrec.IsBlob(old) {
		d.removeBlob(old)
	}

	if len(value) > d.maxEntrySize {
		if uint64(len(value)) > math.MaxUint32 {
			d.metrics.blobWriteErrors.Add(1)
			return base.MarkBlobIOError(errors.Newf("blobshim: %d byte value exceeds the blob size limit", len(value)))
		}
		rec := blobrec.Encode(key, uint32(len(value)))
		start := crtime.NowMono()
		err := blobfile.Write(d.fs, d.blobDir, d.mode, rec, value)
		observe(d.latency.WriteLatency, start)
		if err != nil {
			d.metrics.blobWriteErrors.Add(1)
			return err
		}
		d.metrics.blobWrites.Add(1)
		d.metrics.blobBytesWritten.Add(uint64(len(value)))
		value = rec
	}
	return d.eng.Set(key, value)
}

// Delete removes key from the engine after removing its blob file, if any.
// Blob files are left alone on a read-only DB.
func (d *DB) Delete(key []byte) error {
	prev, err := d.begin()
	if err != nil {
		return err
	}
	defer d.release(prev)
	if !d.readOnly {
		if old, err := d.eng.Get(key); err == nil && blobrec.IsBlob(old) {
			d.removeBlob(old)
		}
	}
	return d.eng.Delete(key)
}

// Next moves the iteration cursor and returns the record it lands on, with
// blob descriptors replaced by their file contents. If a blob file cannot be
// read the raw descriptor is returned in its place so that iteration can
// continue. ErrNotFound signals the end of iteration. The returned slices have
// the same lifetime as those returned by Get.
func (d *DB) Next(op SeqOp) (key, value []byte, err error) {
	prev, err := d.begin()
	if err != nil {
		return nil, nil, err
	}
	d.release(prev)
	key, value, err = d.eng.Seq(op)
	if err != nil || !blobrec.IsBlob(value) {
		return key, value, err
	}
	m, err := d.readBlob(value)
	if err != nil {
		d.metrics.iterBlobErrors.Add(1)
		d.logger.Errorf("blobshim: iteration: reading blob %s: %v", blobrec.Filename(value), err)
		return key, value, nil
	}
	return key, m.Bytes(), nil
}

// Scan calls fn for every record in engine order. The slices passed to fn are
// only valid for the duration of the call. Scan stops at the first error
// returned by fn.
func (d *DB) Scan(fn func(key, value []byte) error) error {
	op := SeqFirst
	for {
		key, value, err := d.Next(op)
		if errors.Is(err, ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
		op = SeqNext
	}
}

// Sync flushes the engine.
func (d *DB) Sync() error {
	prev, err := d.begin()
	if err != nil {
		return err
	}
	d.release(prev)
	return d.eng.Sync()
}

// Close releases the current blob and closes the engine. The DB is marked
// closed only once the engine has closed successfully; otherwise the engine's
// error is returned and Close may be called again.
func (d *DB) Close() error {
	prev, err := d.begin()
	if err != nil {
		return err
	}
	d.release(prev)
	if err := d.eng.Close(); err != nil {
		return err
	}
	d.closed = true
	return nil
}

// Fd returns the engine's file descriptor, or vfs.InvalidFd. It does not
// release the current blob.
func (d *DB) Fd() uintptr {
	if d.closed {
		return vfs.InvalidFd
	}
	return d.eng.Fd()
}

// BlobDir returns the directory holding the DB's blob files.
func (d *DB) BlobDir() string {
	return d.blobDir
}

func (d *DB) readBlob(rec []byte) (*blobfile.Mapping, error) {
	start := crtime.NowMono()
	m, err := blobfile.Read(d.fs, d.blobDir, rec)
	observe(d.latency.ReadLatency, start)
	if err != nil {
		return nil, err
	}
	d.mapped = m
	d.metrics.mappedBlobs.Store(1)
	d.metrics.blobReads.Add(1)
	d.metrics.blobBytesRead.Add(uint64(m.Len()))
	if m.Mapped() {
		d.metrics.mmapReads.Add(1)
	} else {
		d.metrics.fallbackReads.Add(1)
	}
	return m, nil
}

// removeBlob removes the file referenced by rec. Failures are logged and
// otherwise ignored.
func (d *DB) removeBlob(rec []byte) {
	start := crtime.NowMono()
	err := blobfile.Remove(d.fs, d.blobDir, rec)
	observe(d.latency.RemoveLatency, start)
	if err != nil {
		d.metrics.blobRemoveErrors.Add(1)
		d.logger.Errorf("blobshim: removing blob %s: %v", blobrec.Filename(rec), err)
		return
	}
	d.metrics.blobRemoves.Add(1)
}

func observe(h prometheus.Histogram, start crtime.Mono) {
	if h != nil {
		h.Observe(float64(start.Elapsed()))
	}
}
