// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobshim

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/internal/blobrec"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/stretchr/testify/require"
)

// testLogger records log lines so tests can assert on swallowed errors.
type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *testLogger) Errorf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

func (l *testLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *testLogger) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := l.lines
	l.lines = nil
	return lines
}

// makeValue returns a deterministic value of length n for key.
func makeValue(key string, n int) []byte {
	v := make([]byte, n)
	var seed byte
	if len(key) > 0 {
		seed = key[0]
	}
	for i := range v {
		v[i] = seed + byte(i%251)
	}
	return v
}

func describeValue(key string, v []byte) string {
	switch {
	case blobrec.IsBlob(v):
		return fmt.Sprintf("descriptor len=%d name=%s", blobrec.Length(v), blobrec.Filename(v))
	case len(v) > 32 && bytes.Equal(v, makeValue(key, len(v))):
		return fmt.Sprintf("generated len=%d", len(v))
	case len(v) > 32:
		return fmt.Sprintf("unexpected len=%d", len(v))
	default:
		return fmt.Sprintf("%q", v)
	}
}

func TestShim(t *testing.T) {
	var fs vfs.FS
	var d *DB
	var logger testLogger
	const name = "db/cert9.db"

	datadriven.RunTest(t, "testdata/shim", func(t *testing.T, td *datadriven.TestData) string {
		var key string
		if td.HasArg("key") {
			td.ScanArgs(t, "key", &key)
		}
		withLogs := func(s string) string {
			for _, line := range logger.take() {
				s += "log: " + line + "\n"
			}
			return s
		}
		errOrOK := func(err error) string {
			if err != nil {
				return withLogs(fmt.Sprintf("error: %v\n", err))
			}
			return withLogs("ok\n")
		}

		switch td.Cmd {
		case "open":
			if d != nil {
				require.NoError(t, d.Close())
			}
			if fs == nil || td.HasArg("fresh") {
				fs = vfs.NewMem()
				require.NoError(t, fs.MkdirAll("db", 0755))
			}
			opts := &Options{
				Flags:  os.O_RDWR | os.O_CREATE,
				FS:     fs,
				Logger: &logger,
			}
			if td.HasArg("read-only") {
				opts.Flags = os.O_RDONLY
			}
			td.MaybeScanArgs(t, "max-entry-size", &opts.MaxEntrySize)
			var err error
			d, err = Open(name, opts)
			if err != nil {
				return errOrOK(err)
			}
			return fmt.Sprintf("blob dir: %s\n", d.BlobDir())

		case "set":
			var n int
			td.MaybeScanArgs(t, "len", &n)
			value := []byte(strings.TrimSpace(td.Input))
			if n > 0 {
				value = makeValue(key, n)
			}
			return errOrOK(d.Set([]byte(key), value))

		case "get":
			v, err := d.Get([]byte(key))
			if err != nil {
				return errOrOK(err)
			}
			return withLogs(describeValue(key, v) + "\n")

		case "engine-get":
			v, err := d.eng.Get([]byte(key))
			if err != nil {
				return errOrOK(err)
			}
			return describeValue(key, v) + "\n"

		case "del":
			return errOrOK(d.Delete([]byte(key)))

		case "scan":
			var lines []string
			err := d.Scan(func(k, v []byte) error {
				lines = append(lines, fmt.Sprintf("%s: %s\n", k, describeValue(string(k), v)))
				return nil
			})
			if err != nil {
				return errOrOK(err)
			}
			// Engine order depends on hashing.
			sort.Strings(lines)
			return withLogs(strings.Join(lines, ""))

		case "ls":
			names, err := fs.List(d.BlobDir())
			if oserror.IsNotExist(err) {
				return "no blob directory\n"
			} else if err != nil {
				return errOrOK(err)
			}
			sort.Strings(names)
			var buf strings.Builder
			for _, n := range names {
				fi, err := fs.Stat(fs.PathJoin(d.BlobDir(), n))
				require.NoError(t, err)
				fmt.Fprintf(&buf, "%s %d\n", n, fi.Size())
			}
			return buf.String()

		case "truncate-blob":
			var n int
			td.ScanArgs(t, "len", &n)
			path := fs.PathJoin(d.BlobDir(), blobrec.FilenameForKey([]byte(key)))
			f, err := fs.Create(path, 0600)
			require.NoError(t, err)
			_, err = f.Write(makeValue(key, n))
			require.NoError(t, err)
			require.NoError(t, f.Close())
			return ""

		case "remove-blob":
			require.NoError(t, fs.Remove(fs.PathJoin(d.BlobDir(), blobrec.FilenameForKey([]byte(key)))))
			return ""

		case "write-file":
			var n string
			td.ScanArgs(t, "name", &n)
			f, err := fs.Create(fs.PathJoin(d.BlobDir(), n), 0600)
			require.NoError(t, err)
			_, err = f.Write([]byte(td.Input))
			require.NoError(t, err)
			require.NoError(t, f.Close())
			return ""

		case "check":
			r, err := d.Check(td.HasArg("repair"))
			if err != nil {
				return errOrOK(err)
			}
			var buf strings.Builder
			fmt.Fprintf(&buf, "records=%d blobs=%d ok=%t\n", r.Records, r.Blobs, r.OK())
			for _, o := range r.Orphans {
				fmt.Fprintf(&buf, "orphan: %s\n", o)
			}
			if r.Removed > 0 {
				fmt.Fprintf(&buf, "removed: %d\n", r.Removed)
			}
			for _, k := range r.Missing {
				fmt.Fprintf(&buf, "missing: %s\n", k)
			}
			for _, k := range r.Short {
				fmt.Fprintf(&buf, "short: %s\n", k)
			}
			return withLogs(buf.String())

		case "metrics":
			m := d.Metrics()
			return fmt.Sprintf("writes=%d bytes=%d write-errors=%d\n"+
				"reads=%d bytes=%d mmap=%d buffered=%d read-errors=%d\n"+
				"removes=%d remove-errors=%d iter-errors=%d mapped=%d\n",
				m.BlobWrites, m.BlobBytesWritten, m.BlobWriteErrors,
				m.BlobReads, m.BlobBytesRead, m.MmapReads, m.FallbackReads, m.BlobReadErrors,
				m.BlobRemoves, m.BlobRemoveErrors, m.IterBlobErrors, m.MappedBlobs)

		case "close":
			err := d.Close()
			d = nil
			return errOrOK(err)

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
	if d != nil {
		require.NoError(t, d.Close())
	}
}

func TestOpenReadOnlyDetection(t *testing.T) {
	for _, tc := range []struct {
		flags    int
		readOnly bool
	}{
		{os.O_RDONLY, true},
		{os.O_RDWR, false},
		{os.O_RDWR | os.O_CREATE, false},
		{os.O_WRONLY, false},
		// Only the exact flag value selects read-only behavior.
		{os.O_RDONLY | os.O_CREATE, false},
	} {
		o := &Options{Flags: tc.flags}
		require.Equal(t, tc.readOnly, o.ReadOnly(), "flags %#x", tc.flags)
	}
}

func TestOpenEngineError(t *testing.T) {
	injected := errors.New("engine unavailable")
	_, err := Open("x.db", &Options{
		Engine: func(string, engine.OpenOptions) (engine.Engine, error) {
			return nil, injected
		},
	})
	require.True(t, errors.Is(err, injected))

	_, err = Open("missing.db", &Options{Flags: os.O_RDWR, FS: vfs.NewMem()})
	require.Error(t, err)
}

func TestEnsureDefaults(t *testing.T) {
	var o *Options
	o = o.EnsureDefaults()
	require.Equal(t, os.FileMode(0600), o.Mode)
	require.Equal(t, vfs.Default, o.FS)
	require.NotNil(t, o.Engine)
	require.Equal(t, DefaultMaxEntrySize, o.MaxEntrySize)
	require.NotNil(t, o.Logger)

	orig := &Options{MaxEntrySize: 10}
	c := orig.Clone().EnsureDefaults()
	require.Equal(t, 10, c.MaxEntrySize)
	require.Nil(t, orig.FS)
}
