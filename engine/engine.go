// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package engine defines the capability interface of a key/value engine that
// the blob shim wraps. An engine stores short records and knows nothing about
// blobs; the shim is a decorator that implements the same operations on top
// of one engine.
package engine

import (
	"os"

	"github.com/cockroachdb/blobshim/internal/base"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is returned by Get and Delete when the key is absent, and by
	// Seq when the cursor is exhausted.
	ErrNotFound = base.ErrNotFound
	// ErrReadOnly is returned when a write operation is performed on an
	// engine opened read-only.
	ErrReadOnly = errors.New("blobshim: read-only")
	// ErrClosed is returned when an operation is performed on a closed engine.
	ErrClosed = errors.New("blobshim: closed")
)

// SeqOp positions an engine cursor.
type SeqOp int

const (
	// SeqFirst moves the cursor to the first record.
	SeqFirst SeqOp = iota
	// SeqNext moves the cursor to the record after the current one. Without a
	// current record it behaves like SeqFirst.
	SeqNext
)

func (op SeqOp) String() string {
	switch op {
	case SeqFirst:
		return "first"
	case SeqNext:
		return "next"
	default:
		return "unknown"
	}
}

// Engine is a key/value store holding opaque records.
//
// Slices returned by Get and Seq may alias engine memory and are only valid
// until the next call on the engine. Slices passed to Set may be modified by
// the caller once Set returns.
//
// Engines are not safe for concurrent use.
type Engine interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Set stores value under key, replacing any existing record.
	Set(key, value []byte) error
	// Delete removes the record stored under key. Engines that cannot tell
	// whether a key existed without a lookup may return nil for absent keys;
	// otherwise they return ErrNotFound.
	Delete(key []byte) error
	// Seq moves the engine's single cursor and returns the record it lands
	// on, or ErrNotFound once all records have been visited.
	Seq(op SeqOp) (key, value []byte, err error)
	// Sync flushes buffered writes to stable storage.
	Sync() error
	// Close releases the engine. No other method may be called afterwards.
	Close() error
	// Fd returns the OS descriptor of the engine's primary file, or
	// vfs.InvalidFd when there is none.
	Fd() uintptr
}

// OpenOptions are handed to an Opener.
type OpenOptions struct {
	// Flags are os.OpenFile style flags (os.O_RDONLY, os.O_RDWR|os.O_CREATE,
	// ...).
	Flags int
	// Mode holds the permission bits for files the engine creates.
	Mode os.FileMode
	// FS is the filesystem the engine should store its files in. Engines
	// that manage their own storage may ignore it.
	FS vfs.FS
	// UserData is passed through uninterpreted; its meaning is defined by
	// each engine.
	UserData interface{}
}

// ReadOnly returns true if Flags request read-only access, i.e. neither
// os.O_WRONLY nor os.O_RDWR is set.
func (o OpenOptions) ReadOnly() bool {
	return o.Flags&(os.O_WRONLY|os.O_RDWR) == 0
}

// Opener opens the engine stored under name. It plays the role of a database
// type: choosing an Opener chooses the engine implementation.
type Opener func(name string, opts OpenOptions) (Engine, error)
