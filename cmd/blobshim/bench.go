// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/blobshim"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	minLatency = 1 * time.Microsecond
	maxLatency = 10 * time.Second
)

var benchConfig = struct {
	count     int
	valueSize int
	sync      bool
}{
	count:     1000,
	valueSize: 128 << 10,
}

var benchCmd = &cobra.Command{
	Use:   "bench <store>",
	Short: "measure set, get and delete latencies",
	Long: `
Writes --count keys with --value-size byte values, reads them back, verifies
them, and deletes them, reporting latency percentiles for each operation.
Values larger than the entry size limit exercise the blob path.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], true, func(s *session) error {
			return runBench(s.db, s.out, benchConfig.count, benchConfig.valueSize, benchConfig.sync)
		})
	},
}

func clampLatency(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 1)
}

type benchOp struct {
	name string
	hist *hdrhistogram.Histogram
}

func (o *benchOp) record(start time.Time) {
	elapsed := clampLatency(time.Since(start), minLatency, maxLatency)
	if err := o.hist.RecordValue(elapsed.Nanoseconds()); err != nil {
		panic(err)
	}
}

func runBench(db *blobshim.DB, out io.Writer, count, valueSize int, sync bool) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	value := make([]byte, valueSize)
	rng.Read(value)
	key := func(i int) []byte {
		return []byte(fmt.Sprintf("bench-%08d", i))
	}

	ops := []*benchOp{
		{name: "set", hist: newHistogram()},
		{name: "get", hist: newHistogram()},
		{name: "del", hist: newHistogram()},
	}
	set, get, del := ops[0], ops[1], ops[2]

	begin := time.Now()
	for i := 0; i < count; i++ {
		start := time.Now()
		if err := db.Set(key(i), value); err != nil {
			return err
		}
		set.record(start)
	}
	if sync {
		if err := db.Sync(); err != nil {
			return err
		}
	}
	for i := 0; i < count; i++ {
		start := time.Now()
		v, err := db.Get(key(i))
		if err != nil {
			return err
		}
		get.record(start)
		if len(v) != len(value) {
			return errors.Newf("bench: key %d: read %d bytes, wrote %d", i, len(v), len(value))
		}
	}
	for i := 0; i < count; i++ {
		start := time.Now()
		if err := db.Delete(key(i)); err != nil {
			return err
		}
		del.record(start)
	}
	elapsed := time.Since(begin)

	tbl := tablewriter.NewWriter(out)
	tbl.SetHeader([]string{"Op", "Count", "p50", "p95", "p99", "pMax"})
	for _, op := range ops {
		h := op.hist
		tbl.Append([]string{
			op.name,
			fmt.Sprint(h.TotalCount()),
			time.Duration(h.ValueAtQuantile(50)).String(),
			time.Duration(h.ValueAtQuantile(95)).String(),
			time.Duration(h.ValueAtQuantile(99)).String(),
			time.Duration(h.Max()).String(),
		})
	}
	tbl.Render()
	_, err := fmt.Fprintf(out, "%d ops in %s\n%s", 3*count, elapsed.Round(time.Millisecond), db.Metrics())
	return err
}
