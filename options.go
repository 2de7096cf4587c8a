// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobshim

import (
	"os"

	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/engine/hashengine"
	"github.com/cockroachdb/blobshim/internal/base"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxEntrySize is the default threshold above which values are
// relocated to blob files.
const DefaultMaxEntrySize = 64 << 10

// Logger defines an interface for writing log messages.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
var DefaultLogger = base.DefaultLogger

// LatencyMetrics holds optional histograms observing the duration, in
// nanoseconds, of blob file operations. Nil histograms are skipped.
type LatencyMetrics struct {
	WriteLatency  prometheus.Histogram
	ReadLatency   prometheus.Histogram
	RemoveLatency prometheus.Histogram
}

// Options holds the optional parameters for opening a DB.
type Options struct {
	// Flags are os.OpenFile style flags handed to the engine. A DB is
	// read-only iff Flags is exactly os.O_RDONLY; the shim then never creates
	// or removes blob files and passes writes straight to the engine.
	Flags int

	// Mode holds the permission bits of files the engine and the shim create.
	// Blob directories get Mode with an execute bit added for every read bit.
	//
	// The default value is 0600.
	Mode os.FileMode

	// FS provides the interface for persistent file storage of blob files. It
	// is also handed to the engine.
	//
	// The default value uses the underlying operating system's file system.
	FS vfs.FS

	// Engine opens the wrapped key/value engine.
	//
	// The default value is hashengine.Open.
	Engine engine.Opener

	// MaxEntrySize is the largest value stored inline in the engine. Longer
	// values are written to blob files.
	//
	// The default value is DefaultMaxEntrySize.
	MaxEntrySize int

	// Logger used to report swallowed blob errors.
	//
	// The default value is DefaultLogger.
	Logger Logger

	// LatencyMetrics are observed on every blob file operation.
	LatencyMetrics LatencyMetrics

	// UserData is passed to the engine uninterpreted.
	UserData interface{}
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Mode == 0 {
		o.Mode = 0600
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Engine == nil {
		o.Engine = hashengine.Open
	}
	if o.MaxEntrySize <= 0 {
		o.MaxEntrySize = DefaultMaxEntrySize
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
	return o
}

// Clone creates a shallow-copy of the supplied options.
func (o *Options) Clone() *Options {
	n := &Options{}
	if o != nil {
		*n = *o
	}
	return n
}

// ReadOnly returns true if the options open the DB read-only.
func (o *Options) ReadOnly() bool {
	return o.Flags == os.O_RDONLY
}

func (o *Options) engineOptions() engine.OpenOptions {
	return engine.OpenOptions{
		Flags:    o.Flags,
		Mode:     o.Mode,
		FS:       o.FS,
		UserData: o.UserData,
	}
}
