// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package pebbleengine implements engine.Engine on top of a Pebble LSM. The
// engine name is the Pebble data directory. A *pebble.Options passed as
// UserData is used as the base configuration. engine.OpenOptions.Mode is
// ignored.
package pebbleengine

import (
	"os"

	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	pebblevfs "github.com/cockroachdb/pebble/vfs"
)

// DB is a Pebble-backed engine. It implements engine.Engine.
type DB struct {
	db       *pebble.DB
	readOnly bool
	iter     *pebble.Iterator
	closed   bool
}

var _ engine.Engine = (*DB)(nil)

// Open opens the Pebble store in directory name. The store lives on the FS of
// the *pebble.Options passed as opts.UserData, or else on opts.FS.
func Open(name string, opts engine.OpenOptions) (engine.Engine, error) {
	if name == "" {
		return nil, errors.New("pebbleengine: a directory name is required")
	}
	o := &pebble.Options{}
	if opts.UserData != nil {
		po, ok := opts.UserData.(*pebble.Options)
		if !ok {
			return nil, errors.Newf("pebbleengine: unexpected user data %T", opts.UserData)
		}
		o = po.Clone()
	}
	if o.FS == nil {
		o.FS = pebblevfs.Default
		if opts.FS != nil {
			o.FS = opts.FS.Unwrap()
		}
	}
	readOnly := opts.ReadOnly()
	o.ReadOnly = readOnly
	if opts.Flags&os.O_CREATE == 0 || readOnly {
		o.ErrorIfNotExists = true
	}
	if opts.Flags&os.O_TRUNC != 0 && !readOnly {
		if err := o.FS.RemoveAll(name); err != nil {
			return nil, errors.Wrapf(err, "pebbleengine: truncating %s", name)
		}
		o.ErrorIfNotExists = false
	}
	db, err := pebble.Open(name, o)
	if err != nil {
		return nil, errors.Wrapf(err, "pebbleengine: opening %s", name)
	}
	return &DB{db: db, readOnly: readOnly}, nil
}

// Get implements engine.Engine.
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.closed {
		return nil, engine.ErrClosed
	}
	v, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, engine.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

// Set implements engine.Engine.
func (d *DB) Set(key, value []byte) error {
	if d.closed {
		return engine.ErrClosed
	}
	if d.readOnly {
		return engine.ErrReadOnly
	}
	return d.db.Set(key, value, pebble.Sync)
}

// Delete implements engine.Engine. Deleting an absent key is not an error.
func (d *DB) Delete(key []byte) error {
	if d.closed {
		return engine.ErrClosed
	}
	if d.readOnly {
		return engine.ErrReadOnly
	}
	return d.db.Delete(key, pebble.Sync)
}

// Seq implements engine.Engine. SeqFirst opens a new iterator over the
// current state of the store; writes made after that are not guaranteed to be
// visible to SeqNext.
func (d *DB) Seq(op engine.SeqOp) (key, value []byte, err error) {
	if d.closed {
		return nil, nil, engine.ErrClosed
	}
	var valid bool
	switch {
	case op == engine.SeqFirst || (op == engine.SeqNext && d.iter == nil):
		if err := d.closeIter(); err != nil {
			return nil, nil, err
		}
		it, err := d.db.NewIter(nil)
		if err != nil {
			return nil, nil, err
		}
		d.iter = it
		valid = d.iter.First()
	case op == engine.SeqNext:
		valid = d.iter.Next()
	default:
		return nil, nil, errors.Newf("pebbleengine: unsupported cursor op %s", op)
	}
	if !valid {
		err := d.closeIter()
		if err == nil {
			err = engine.ErrNotFound
		}
		return nil, nil, err
	}
	return d.iter.Key(), d.iter.Value(), nil
}

func (d *DB) closeIter() error {
	if d.iter == nil {
		return nil
	}
	err := d.iter.Close()
	d.iter = nil
	return err
}

// Sync implements engine.Engine by flushing the memtable.
func (d *DB) Sync() error {
	if d.closed {
		return engine.ErrClosed
	}
	if d.readOnly {
		return nil
	}
	return d.db.Flush()
}

// Close implements engine.Engine.
func (d *DB) Close() error {
	if d.closed {
		return engine.ErrClosed
	}
	d.closed = true
	return errors.CombineErrors(d.closeIter(), d.db.Close())
}

// Fd implements engine.Engine. A Pebble store spans many files, so there is
// no single descriptor to report.
func (*DB) Fd() uintptr {
	return vfs.InvalidFd
}
