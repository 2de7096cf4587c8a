// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/blobshim"
	"github.com/cockroachdb/blobshim/engine/hashengine"
	"github.com/cockroachdb/blobshim/engine/pebbleengine"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// config holds the options file contents. Zero values leave the library
// defaults in place.
type config struct {
	Engine        string `yaml:"engine"`
	MaxEntrySize  int    `yaml:"max_entry_size"`
	Mode          string `yaml:"mode"`
	ReadOnly      bool   `yaml:"read_only"`
	MaxRecordSize int    `yaml:"max_record_size"`
	Verbose       bool   `yaml:"verbose"`
}

var (
	configPath string
	flagConfig config
)

func registerConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "path to a YAML options file")
	f.StringVar(&flagConfig.Engine, "engine", "", "engine type: hash or pebble (default hash)")
	f.IntVar(&flagConfig.MaxEntrySize, "max-entry-size", 0, "largest value stored inline (default 64KiB)")
	f.StringVar(&flagConfig.Mode, "mode", "", "octal permission bits for created files (default 0600)")
	f.BoolVar(&flagConfig.ReadOnly, "read-only", false, "open the store read-only")
	f.IntVar(&flagConfig.MaxRecordSize, "max-record-size", 0, "hash engine record size limit")
	f.BoolVarP(&flagConfig.Verbose, "verbose", "v", false, "enable debug logging")
}

func parseConfig(r io.Reader) (config, error) {
	var c config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return config{}, errors.Wrap(err, "parsing options file")
	}
	return c, nil
}

func loadConfig(path string) (config, error) {
	if path == "" {
		return config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, errors.WithStack(err)
	}
	c, err := parseConfig(bytes.NewReader(data))
	return c, errors.Wrapf(err, "%s", path)
}

// resolveConfig merges the options file with the flags set on cmd.
func resolveConfig(cmd *cobra.Command) (config, error) {
	c, err := loadConfig(configPath)
	if err != nil {
		return config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("engine") {
		c.Engine = flagConfig.Engine
	}
	if flags.Changed("max-entry-size") {
		c.MaxEntrySize = flagConfig.MaxEntrySize
	}
	if flags.Changed("mode") {
		c.Mode = flagConfig.Mode
	}
	if flags.Changed("read-only") {
		c.ReadOnly = flagConfig.ReadOnly
	}
	if flags.Changed("max-record-size") {
		c.MaxRecordSize = flagConfig.MaxRecordSize
	}
	if flags.Changed("verbose") {
		c.Verbose = flagConfig.Verbose
	}
	return c, nil
}

// options converts c into blobshim options. Stores are opened read-only when
// c.ReadOnly is set or write is false.
func (c config) options(write bool, logger blobshim.Logger) (*blobshim.Options, error) {
	opts := &blobshim.Options{
		Flags:        os.O_RDWR | os.O_CREATE,
		MaxEntrySize: c.MaxEntrySize,
		Logger:       logger,
	}
	if c.ReadOnly || !write {
		opts.Flags = os.O_RDONLY
	}
	if c.Mode != "" {
		mode, err := strconv.ParseUint(c.Mode, 8, 32)
		if err != nil || mode&^0777 != 0 {
			return nil, errors.Newf("invalid mode %q: expected octal permission bits", c.Mode)
		}
		opts.Mode = os.FileMode(mode)
	}
	switch c.Engine {
	case "", "hash":
		opts.Engine = hashengine.Open
		if c.MaxRecordSize > 0 {
			opts.UserData = &hashengine.Options{MaxRecordSize: c.MaxRecordSize}
		}
	case "pebble":
		opts.Engine = pebbleengine.Open
	default:
		return nil, errors.Newf("unknown engine %q", c.Engine)
	}
	return opts, nil
}

func openDB(cmd *cobra.Command, name string, write bool) (*blobshim.DB, error) {
	c, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := c.options(write, newLogger(cmd.ErrOrStderr(), c.Verbose))
	if err != nil {
		return nil, err
	}
	return blobshim.Open(name, opts)
}
