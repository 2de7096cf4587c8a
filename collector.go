// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobshim

import "github.com/prometheus/client_golang/prometheus"

type metricDesc struct {
	desc  *prometheus.Desc
	vtype prometheus.ValueType
	value func(*Metrics) float64
}

func newDesc(name, help string, vtype prometheus.ValueType, value func(*Metrics) float64) metricDesc {
	return metricDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName("blobshim", "", name), help, nil, nil),
		vtype: vtype,
		value: value,
	}
}

var metricDescs = []metricDesc{
	newDesc("blob_writes_total", "Blob files written.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobWrites) }),
	newDesc("blob_written_bytes_total", "Bytes written to blob files.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobBytesWritten) }),
	newDesc("blob_write_errors_total", "Failed blob file writes.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobWriteErrors) }),
	newDesc("blob_reads_total", "Blob files read.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobReads) }),
	newDesc("blob_read_bytes_total", "Bytes read from blob files.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobBytesRead) }),
	newDesc("blob_mmap_reads_total", "Blob reads served by a memory mapping.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.MmapReads) }),
	newDesc("blob_buffered_reads_total", "Blob reads served by a heap buffer.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.FallbackReads) }),
	newDesc("blob_read_errors_total", "Failed blob reads returned to callers.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobReadErrors) }),
	newDesc("blob_removes_total", "Blob files removed.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobRemoves) }),
	newDesc("blob_remove_errors_total", "Failed blob file removals.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.BlobRemoveErrors) }),
	newDesc("iter_blob_errors_total", "Unreadable blobs skipped during iteration.", prometheus.CounterValue,
		func(m *Metrics) float64 { return float64(m.IterBlobErrors) }),
	newDesc("mapped_blobs", "Blobs currently held by the DB.", prometheus.GaugeValue,
		func(m *Metrics) float64 { return float64(m.MappedBlobs) }),
}

type collector struct {
	db *DB
}

// NewCollector returns a prometheus.Collector exporting db.Metrics().
func NewCollector(db *DB) prometheus.Collector {
	return &collector{db: db}
}

// Describe implements prometheus.Collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for i := range metricDescs {
		ch <- metricDescs[i].desc
	}
}

// Collect implements prometheus.Collector.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	m := c.db.Metrics()
	for i := range metricDescs {
		d := &metricDescs[i]
		ch <- prometheus.MustNewConstMetric(d.desc, d.vtype, d.value(m))
	}
}
