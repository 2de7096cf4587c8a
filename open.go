// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobshim

import (
	"github.com/cockroachdb/blobshim/internal/blobfile"
	"github.com/cockroachdb/errors"
)

// Open opens the store name through opts.Engine and wraps it in a DB whose
// blob files live in the directory derived from name by BlobDirFor. The blob
// directory is created lazily by the first write of an oversized value.
func Open(name string, opts *Options) (*DB, error) {
	opts = opts.Clone().EnsureDefaults()
	d := &DB{
		fs:           opts.FS,
		blobDir:      blobfile.DirFor(name),
		mode:         opts.Mode,
		readOnly:     opts.ReadOnly(),
		maxEntrySize: opts.MaxEntrySize,
		logger:       opts.Logger,
		latency:      opts.LatencyMetrics,
	}
	eng, err := opts.Engine(name, opts.engineOptions())
	if err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, errors.AssertionFailedf("blobshim: engine opener returned neither an engine nor an error")
	}
	d.eng = eng
	return d, nil
}

// BlobDirFor returns the blob directory used for the store name: the name
// with its extension replaced by ".dir", or with ".dir" appended when it has
// no extension or its extension is already ".dir".
func BlobDirFor(name string) string {
	return blobfile.DirFor(name)
}
