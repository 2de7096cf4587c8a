// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// blobshim inspects and modifies blob overflow stores.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blobshim [command] (flags)",
	Short: "blob overflow store introspection tool",
	Long: `
Commands operate on a store file; blob files live in the directory derived
from the store name (cert9.db uses cert9.dir). Options may be read from a YAML
file given by --config; flags override the file.
`,
	SilenceUsage: true,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		getCmd,
		setCmd,
		delCmd,
		scanCmd,
		statsCmd,
		checkCmd,
		shellCmd,
		benchCmd,
	)
	registerConfigFlags(rootCmd)

	setCmd.Flags().StringVarP(
		&setValueFile, "file", "f", "", "read the value from this file instead of the command line")
	scanCmd.Flags().IntVar(
		&scanPreview, "preview", scanPreview, "number of value bytes to print for each record")
	checkCmd.Flags().BoolVar(
		&checkRepair, "repair", false, "remove orphaned blob files")
	benchCmd.Flags().IntVarP(
		&benchConfig.count, "count", "n", benchConfig.count, "number of keys to write and read back")
	benchCmd.Flags().IntVar(
		&benchConfig.valueSize, "value-size", benchConfig.valueSize, "size of each value in bytes")
	benchCmd.Flags().BoolVar(
		&benchConfig.sync, "sync", false, "sync the store after writing")

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
