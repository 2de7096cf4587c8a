// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package hashengine implements engine.Engine as a hash table of records with
// a hard cap on record size, in the manner of the fixed-page hash stores the
// blob shim was built to extend. Records live in memory; a named engine loads
// its records from a snapshot file at open and rewrites the snapshot on Sync
// and Close.
package hashengine

import (
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
)

const (
	// DefaultMaxRecordSize is the default limit on len(key)+len(value).
	DefaultMaxRecordSize = 128 << 10
	defaultBuckets       = 64
	// maxLoadFactor is the average bucket length that triggers a resize.
	maxLoadFactor = 4
)

// ErrRecordTooLarge is returned by Set when a record exceeds the engine's
// MaxRecordSize.
var ErrRecordTooLarge = errors.New("hashengine: record too large")

// Options tune a hash engine. They are passed to Open through
// engine.OpenOptions.UserData as a *Options.
type Options struct {
	// MaxRecordSize is the largest len(key)+len(value) accepted by Set.
	// Defaults to DefaultMaxRecordSize.
	MaxRecordSize int
	// InitialBuckets is rounded up to a power of two. Defaults to 64.
	InitialBuckets int
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.MaxRecordSize <= 0 {
		o.MaxRecordSize = DefaultMaxRecordSize
	}
	if o.InitialBuckets <= 0 {
		o.InitialBuckets = defaultBuckets
	}
	n := 1
	for n < o.InitialBuckets {
		n <<= 1
	}
	o.InitialBuckets = n
	return o
}

type entry struct {
	key   []byte
	value []byte
}

// DB is a hash engine. It implements engine.Engine.
type DB struct {
	fs       vfs.FS
	name     string
	mode     os.FileMode
	readOnly bool
	opts     Options

	buckets [][]entry
	count   int
	dirty   bool

	// cursor addresses the record most recently returned by Seq.
	cursor struct {
		valid  bool
		bucket int
		index  int
	}

	// file is held open for Fd. It is nil for in-memory engines.
	file   vfs.File
	closed bool
}

var _ engine.Engine = (*DB)(nil)

// Open opens the hash engine stored in the snapshot file name. An empty name
// opens a purely in-memory engine. The snapshot is created if it does not
// exist and opts.Flags contains os.O_CREATE; it is ignored if opts.Flags
// contains os.O_TRUNC.
func Open(name string, opts engine.OpenOptions) (engine.Engine, error) {
	var o *Options
	if opts.UserData != nil {
		var ok bool
		if o, ok = opts.UserData.(*Options); !ok {
			return nil, errors.Newf("hashengine: unexpected user data %T", opts.UserData)
		}
		copied := *o
		o = &copied
	}
	o = o.EnsureDefaults()
	fs := opts.FS
	if fs == nil {
		fs = vfs.Default
	}
	mode := opts.Mode
	if mode == 0 {
		mode = 0600
	}

	d := &DB{
		fs:       fs,
		name:     name,
		mode:     mode,
		readOnly: opts.ReadOnly(),
		opts:     *o,
		buckets:  make([][]entry, o.InitialBuckets),
	}
	if name == "" {
		return d, nil
	}

	_, err := fs.Stat(name)
	switch {
	case err == nil && opts.Flags&os.O_TRUNC != 0 && !d.readOnly:
		d.dirty = true
	case err == nil:
		if err := d.load(); err != nil {
			return nil, err
		}
	case oserror.IsNotExist(err) && opts.Flags&os.O_CREATE != 0 && !d.readOnly:
		d.dirty = true
	default:
		return nil, errors.Wrapf(err, "hashengine: opening %s", name)
	}
	if d.dirty {
		if err := d.writeSnapshot(); err != nil {
			return nil, err
		}
	} else if err := d.reopenFile(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) bucketFor(key []byte) int {
	return int(xxhash.Sum64(key) & uint64(len(d.buckets)-1))
}

func (d *DB) find(key []byte) (bucket, index int) {
	bucket = d.bucketFor(key)
	for i := range d.buckets[bucket] {
		if string(d.buckets[bucket][i].key) == string(key) {
			return bucket, i
		}
	}
	return bucket, -1
}

// Get implements engine.Engine.
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.closed {
		return nil, engine.ErrClosed
	}
	b, i := d.find(key)
	if i < 0 {
		return nil, engine.ErrNotFound
	}
	return d.buckets[b][i].value, nil
}

// Set implements engine.Engine.
func (d *DB) Set(key, value []byte) error {
	if d.closed {
		return engine.ErrClosed
	}
	if d.readOnly {
		return engine.ErrReadOnly
	}
	if len(key)+len(value) > d.opts.MaxRecordSize {
		return errors.Wrapf(ErrRecordTooLarge, "hashengine: %d byte record exceeds %d",
			len(key)+len(value), d.opts.MaxRecordSize)
	}
	d.dirty = true
	v := append([]byte(nil), value...)
	b, i := d.find(key)
	if i >= 0 {
		d.buckets[b][i].value = v
		return nil
	}
	d.buckets[b] = append(d.buckets[b], entry{key: append([]byte(nil), key...), value: v})
	d.count++
	if d.count > maxLoadFactor*len(d.buckets) {
		d.grow()
	}
	return nil
}

// grow doubles the bucket count. An active cursor is invalidated: the next
// SeqNext restarts from the first record.
func (d *DB) grow() {
	old := d.buckets
	d.buckets = make([][]entry, 2*len(old))
	for _, bucket := range old {
		for _, e := range bucket {
			b := d.bucketFor(e.key)
			d.buckets[b] = append(d.buckets[b], e)
		}
	}
	d.cursor.valid = false
}

// Delete implements engine.Engine.
func (d *DB) Delete(key []byte) error {
	if d.closed {
		return engine.ErrClosed
	}
	if d.readOnly {
		return engine.ErrReadOnly
	}
	b, i := d.find(key)
	if i < 0 {
		return engine.ErrNotFound
	}
	d.buckets[b] = append(d.buckets[b][:i], d.buckets[b][i+1:]...)
	d.count--
	d.dirty = true
	// Keep the cursor on the same logical position so that deleting the
	// current record while scanning does not skip its successor.
	if d.cursor.valid && d.cursor.bucket == b && d.cursor.index >= i {
		d.cursor.index--
	}
	return nil
}

// Seq implements engine.Engine. Records are visited in bucket order.
func (d *DB) Seq(op engine.SeqOp) (key, value []byte, err error) {
	if d.closed {
		return nil, nil, engine.ErrClosed
	}
	b, i := 0, 0
	switch op {
	case engine.SeqFirst:
	case engine.SeqNext:
		if d.cursor.valid {
			b, i = d.cursor.bucket, d.cursor.index+1
		}
	default:
		return nil, nil, errors.Newf("hashengine: unsupported cursor op %s", op)
	}
	for ; b < len(d.buckets); b, i = b+1, 0 {
		if i < len(d.buckets[b]) {
			d.cursor.valid, d.cursor.bucket, d.cursor.index = true, b, i
			e := d.buckets[b][i]
			return e.key, e.value, nil
		}
	}
	d.cursor.valid = false
	return nil, nil, engine.ErrNotFound
}

// Sync implements engine.Engine. It rewrites the snapshot file if any record
// changed since it was last written.
func (d *DB) Sync() error {
	if d.closed {
		return engine.ErrClosed
	}
	if d.name == "" || !d.dirty || d.readOnly {
		return nil
	}
	return d.writeSnapshot()
}

// Close implements engine.Engine.
func (d *DB) Close() error {
	if d.closed {
		return engine.ErrClosed
	}
	err := d.Sync()
	d.closed = true
	if d.file != nil {
		err = errors.CombineErrors(err, d.file.Close())
		d.file = nil
	}
	d.buckets = nil
	return err
}

// Fd implements engine.Engine.
func (d *DB) Fd() uintptr {
	if d.file == nil {
		return vfs.InvalidFd
	}
	return d.file.Fd()
}

// Len returns the number of records.
func (d *DB) Len() int {
	return d.count
}
