// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobshim

import (
	"sync/atomic"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/redact"
)

// metrics holds the live counters of a DB. The counters are atomic so that a
// collector may read them while the DB is in use.
type metrics struct {
	blobWrites       atomic.Uint64
	blobBytesWritten atomic.Uint64
	blobWriteErrors  atomic.Uint64
	blobReads        atomic.Uint64
	blobBytesRead    atomic.Uint64
	mmapReads        atomic.Uint64
	fallbackReads    atomic.Uint64
	blobReadErrors   atomic.Uint64
	blobRemoves      atomic.Uint64
	blobRemoveErrors atomic.Uint64
	iterBlobErrors   atomic.Uint64
	mappedBlobs      atomic.Int64
}

// Metrics holds metrics for the blob operations performed by a DB.
type Metrics struct {
	// BlobWrites is the number of blob files written.
	BlobWrites uint64
	// BlobBytesWritten is the total length of the values written to blob
	// files.
	BlobBytesWritten uint64
	// BlobWriteErrors is the number of oversized values that could not be
	// written. The engine was not modified for any of them.
	BlobWriteErrors uint64

	// BlobReads is the number of blob files read by Get and Next.
	BlobReads uint64
	// BlobBytesRead is the total length of the blobs read.
	BlobBytesRead uint64
	// MmapReads and FallbackReads split BlobReads into reads served by a
	// memory mapping and reads served by a heap buffer.
	MmapReads     uint64
	FallbackReads uint64
	// BlobReadErrors is the number of failed blob reads returned to callers
	// of Get.
	BlobReadErrors uint64

	// BlobRemoves is the number of blob files removed.
	BlobRemoves uint64
	// BlobRemoveErrors is the number of blob removals that failed and were
	// ignored.
	BlobRemoveErrors uint64

	// IterBlobErrors is the number of blob reads that failed during iteration
	// and were replaced by the raw descriptor.
	IterBlobErrors uint64

	// MappedBlobs is the number of blobs currently held by the DB: 0 or 1.
	MappedBlobs int64
}

// Metrics returns metrics about the blob files managed by the DB. It may be
// called concurrently with other operations.
func (d *DB) Metrics() *Metrics {
	m := &d.metrics
	return &Metrics{
		BlobWrites:       m.blobWrites.Load(),
		BlobBytesWritten: m.blobBytesWritten.Load(),
		BlobWriteErrors:  m.blobWriteErrors.Load(),
		BlobReads:        m.blobReads.Load(),
		BlobBytesRead:    m.blobBytesRead.Load(),
		MmapReads:        m.mmapReads.Load(),
		FallbackReads:    m.fallbackReads.Load(),
		BlobReadErrors:   m.blobReadErrors.Load(),
		BlobRemoves:      m.blobRemoves.Load(),
		BlobRemoveErrors: m.blobRemoveErrors.Load(),
		IterBlobErrors:   m.iterBlobErrors.Load(),
		MappedBlobs:      m.mappedBlobs.Load(),
	}
}

// String pretty-prints the metrics as below:
//
//	writes: 12 (1.5MB), 0 errors
//	reads: 40 (5MB), 38 mmap, 2 buffered, 0 errors
//	removes: 3, 0 errors
//	iteration: 0 unreadable blobs
//	mapped: 1
func (m *Metrics) String() string {
	return redact.StringWithoutMarkers(m)
}

var _ redact.SafeFormatter = &Metrics{}

// SafeFormat implements redact.SafeFormatter.
func (m *Metrics) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("writes: %s (%s), %s errors\n",
		crhumanize.Count(m.BlobWrites, crhumanize.Compact),
		crhumanize.Bytes(m.BlobBytesWritten, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Count(m.BlobWriteErrors, crhumanize.Compact))
	w.Printf("reads: %s (%s), %s mmap, %s buffered, %s errors\n",
		crhumanize.Count(m.BlobReads, crhumanize.Compact),
		crhumanize.Bytes(m.BlobBytesRead, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Count(m.MmapReads, crhumanize.Compact),
		crhumanize.Count(m.FallbackReads, crhumanize.Compact),
		crhumanize.Count(m.BlobReadErrors, crhumanize.Compact))
	w.Printf("removes: %s, %s errors\n",
		crhumanize.Count(m.BlobRemoves, crhumanize.Compact),
		crhumanize.Count(m.BlobRemoveErrors, crhumanize.Compact))
	w.Printf("iteration: %s unreadable blobs\n",
		crhumanize.Count(m.IterBlobErrors, crhumanize.Compact))
	w.Printf("mapped: %d\n", redact.Safe(m.MappedBlobs))
}
