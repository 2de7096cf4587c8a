// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobshim

import (
	"sort"

	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/internal/blobfile"
	"github.com/cockroachdb/blobshim/internal/blobrec"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/redact"
)

// CheckReport describes the consistency of the engine's blob descriptors with
// the blob directory.
type CheckReport struct {
	// Records is the number of engine records visited.
	Records int
	// Blobs is the number of blob descriptors among them.
	Blobs int
	// Orphans are blob files that no descriptor references, sorted by name.
	Orphans []string
	// Removed is the number of orphans removed by a repairing check.
	Removed int
	// Missing are the keys whose blob file does not exist.
	Missing [][]byte
	// Short are the keys whose blob file is shorter than the length recorded
	// in their descriptor.
	Short [][]byte
}

// OK returns true if no inconsistency was found.
func (r *CheckReport) OK() bool {
	return len(r.Orphans) == 0 && len(r.Missing) == 0 && len(r.Short) == 0
}

// String implements fmt.Stringer.
func (r *CheckReport) String() string {
	return redact.StringWithoutMarkers(r)
}

// SafeFormat implements redact.SafeFormatter. Keys are user data and are
// redacted.
func (r *CheckReport) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%d records, %d blobs\n", redact.Safe(r.Records), redact.Safe(r.Blobs))
	for _, name := range r.Orphans {
		w.Printf("orphan: %s\n", redact.Safe(name))
	}
	if r.Removed > 0 {
		w.Printf("removed %d orphans\n", redact.Safe(r.Removed))
	}
	for _, key := range r.Missing {
		w.Printf("missing: %q\n", key)
	}
	for _, key := range r.Short {
		w.Printf("short: %q\n", key)
	}
}

// Check walks every engine record and compares the blob descriptors found
// with the contents of the blob directory. With repair set, orphaned blob
// files are removed; records with missing or short blobs are only reported.
// A read-only DB never removes anything.
//
// Check uses the engine's cursor, so any iteration in progress must be
// restarted with SeqFirst afterwards.
func (d *DB) Check(repair bool) (*CheckReport, error) {
	prev, err := d.begin()
	if err != nil {
		return nil, err
	}
	d.release(prev)
	r := &CheckReport{}
	referenced := make(map[string]struct{})
	for op := engine.SeqFirst; ; op = engine.SeqNext {
		key, value, err := d.eng.Seq(op)
		if errors.Is(err, ErrNotFound) {
			break
		} else if err != nil {
			return nil, err
		}
		r.Records++
		path, ok := blobfile.PathFor(d.fs, d.blobDir, value)
		if !ok {
			continue
		}
		r.Blobs++
		referenced[blobrec.Filename(value)] = struct{}{}
		fi, err := d.fs.Stat(path)
		switch {
		case oserror.IsNotExist(err):
			r.Missing = append(r.Missing, append([]byte(nil), key...))
		case err != nil:
			return nil, errors.Wrapf(err, "blobshim: stat blob %s", path)
		case fi.Size() < int64(blobrec.Length(value)):
			r.Short = append(r.Short, append([]byte(nil), key...))
		}
	}

	names, err := d.fs.List(d.blobDir)
	if err != nil && !oserror.IsNotExist(err) {
		return nil, errors.Wrapf(err, "blobshim: listing %s", d.blobDir)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := referenced[name]; ok {
			continue
		}
		r.Orphans = append(r.Orphans, name)
		if !repair || d.readOnly {
			continue
		}
		if err := d.fs.Remove(d.fs.PathJoin(d.blobDir, name)); err != nil {
			d.logger.Errorf("blobshim: removing orphaned blob %s: %v", name, err)
			continue
		}
		d.logger.Infof("blobshim: removed orphaned blob %s", name)
		r.Removed++
	}
	return r, nil
}
