// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/blobshim"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	setValueFile string
	scanPreview  = 32
	checkRepair  bool
)

var getCmd = &cobra.Command{
	Use:   "get <store> <key>",
	Short: "print the value stored under a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], false, func(s *session) error {
			return s.get(args[1])
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <store> <key> [value]",
	Short: "store a value under a key",
	Long: `
Stores a value under a key. The value is taken from the command line, from the
file named by --file, or from stdin.
`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value []byte
		var err error
		switch {
		case len(args) == 3:
			value = []byte(args[2])
		case setValueFile != "":
			value, err = os.ReadFile(setValueFile)
		default:
			value, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return errors.WithStack(err)
		}
		return withSession(cmd, args[0], true, func(s *session) error {
			return s.set(args[1], value)
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del <store> <key>",
	Short: "delete a key and its blob file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], true, func(s *session) error {
			return s.del(args[1])
		})
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <store>",
	Short: "print every record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], false, func(s *session) error {
			return s.scan(scanPreview)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <store>",
	Short: "print record and blob statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], false, func(s *session) error {
			return s.stats()
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <store>",
	Short: "compare blob descriptors with the blob directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], checkRepair, func(s *session) error {
			return s.check(checkRepair)
		})
	},
}

func withSession(cmd *cobra.Command, name string, write bool, fn func(s *session) error) error {
	db, err := openDB(cmd, name, write)
	if err != nil {
		return err
	}
	err = fn(&session{db: db, out: cmd.OutOrStdout()})
	return errors.CombineErrors(err, db.Close())
}

// session runs commands against an open DB.
type session struct {
	db  *blobshim.DB
	out io.Writer
}

func (s *session) get(key string) error {
	v, err := s.db.Get([]byte(key))
	if err != nil {
		return err
	}
	if _, err := s.out.Write(v); err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out)
	return err
}

func (s *session) set(key string, value []byte) error {
	return s.db.Set([]byte(key), value)
}

func (s *session) del(key string) error {
	return s.db.Delete([]byte(key))
}

func preview(v []byte, n int) string {
	if len(v) <= n {
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("%q... (%d bytes)", v[:n], len(v))
}

func (s *session) scan(n int) error {
	return s.db.Scan(func(key, value []byte) error {
		_, err := fmt.Fprintf(s.out, "%q: %s\n", key, preview(value, n))
		return err
	})
}

func (s *session) stats() error {
	before := s.db.Metrics()
	var records, bytes int64
	err := s.db.Scan(func(key, value []byte) error {
		records++
		bytes += int64(len(value))
		return nil
	})
	if err != nil {
		return err
	}
	after := s.db.Metrics()
	blobs := int64(after.BlobReads - before.BlobReads)
	blobBytes := int64(after.BlobBytesRead - before.BlobBytesRead)
	unreadable := int64(after.IterBlobErrors - before.IterBlobErrors)

	tbl := tablewriter.NewWriter(s.out)
	tbl.SetHeader([]string{"Kind", "Records", "Bytes"})
	tbl.Append([]string{"inline", fmt.Sprint(records - blobs - unreadable), fmt.Sprint(bytes - blobBytes)})
	tbl.Append([]string{"blob", fmt.Sprint(blobs), fmt.Sprint(blobBytes)})
	tbl.Append([]string{"unreadable blob", fmt.Sprint(unreadable), "-"})
	tbl.Append([]string{"total", fmt.Sprint(records), fmt.Sprint(bytes)})
	tbl.Render()
	_, err = fmt.Fprintf(s.out, "blob directory: %s\n", s.db.BlobDir())
	return err
}

func (s *session) check(repair bool) error {
	r, err := s.db.Check(repair)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d records, %d blobs\n", r.Records, r.Blobs)
	if r.OK() {
		_, err := fmt.Fprintln(s.out, "ok")
		return err
	}
	tbl := tablewriter.NewWriter(s.out)
	tbl.SetHeader([]string{"Problem", "Subject"})
	for _, name := range r.Orphans {
		tbl.Append([]string{"orphan", name})
	}
	for _, key := range r.Missing {
		tbl.Append([]string{"missing", fmt.Sprintf("%q", key)})
	}
	for _, key := range r.Short {
		tbl.Append([]string{"short", fmt.Sprintf("%q", key)})
	}
	tbl.Render()
	if r.Removed > 0 {
		fmt.Fprintf(s.out, "removed %d orphaned blob files\n", r.Removed)
	}
	if len(r.Missing) > 0 || len(r.Short) > 0 || r.Removed < len(r.Orphans) {
		return errors.New("inconsistencies found")
	}
	return nil
}
