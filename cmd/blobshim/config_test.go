// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/blobshim/engine/hashengine"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	c, err := parseConfig(strings.NewReader(`
engine: hash
max_entry_size: 1024
mode: "0640"
read_only: true
max_record_size: 4096
`))
	require.NoError(t, err)
	require.Equal(t, config{
		Engine:        "hash",
		MaxEntrySize:  1024,
		Mode:          "0640",
		ReadOnly:      true,
		MaxRecordSize: 4096,
	}, c)

	opts, err := c.options(true, nil)
	require.NoError(t, err)
	require.Equal(t, os.O_RDONLY, opts.Flags)
	require.Equal(t, os.FileMode(0640), opts.Mode)
	require.Equal(t, 1024, opts.MaxEntrySize)
	require.Equal(t, &hashengine.Options{MaxRecordSize: 4096}, opts.UserData)

	c, err = parseConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, config{}, c)
	opts, err = c.options(true, nil)
	require.NoError(t, err)
	require.Equal(t, os.O_RDWR|os.O_CREATE, opts.Flags)
	require.Nil(t, opts.UserData)

	_, err = parseConfig(strings.NewReader("bogus: 1\n"))
	require.Error(t, err)
}

func TestConfigOptionsErrors(t *testing.T) {
	_, err := config{Mode: "999"}.options(true, nil)
	require.Error(t, err)
	_, err = config{Mode: "10000"}.options(true, nil)
	require.Error(t, err)
	_, err = config{Engine: "bolt"}.options(true, nil)
	require.Error(t, err)
	opts, err := config{Engine: "pebble"}.options(false, nil)
	require.NoError(t, err)
	require.Equal(t, os.O_RDONLY, opts.Flags)
}

func TestResolveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: pebble\nmax_entry_size: 10\n"), 0600))

	cmd := &cobra.Command{Use: "test"}
	registerConfigFlags(cmd)
	defer func() {
		configPath = ""
		flagConfig = config{}
	}()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--max-entry-size", "20"}))

	c, err := resolveConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "pebble", c.Engine)
	require.Equal(t, 20, c.MaxEntrySize)
}
