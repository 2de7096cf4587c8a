// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

const shellHelp = `
Reads commands from stdin, one per line, with shell-style quoting:

  get <key>
  set <key> <value>
  set <key> @<file>
  del <key>
  scan [preview]
  stats
  check [repair]
  metrics
  help
  quit
`

var shellCmd = &cobra.Command{
	Use:   "shell <store>",
	Short: "run commands against a store interactively",
	Long:  shellHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], true, func(s *session) error {
			return s.runShell(cmd.InOrStdin(), cmd.ErrOrStderr())
		})
	},
}

var errQuit = errors.New("quit")

// runShell executes commands read from in until EOF or quit. Command errors
// are printed to errOut and do not stop the shell.
func (s *session) runShell(in io.Reader, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		if err := s.exec(args); errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}
	return errors.WithStack(scanner.Err())
}

func (s *session) exec(args []string) error {
	need := func(n int) error {
		if len(args)-1 != n {
			return errors.Newf("%s: expected %d arguments, got %d", args[0], n, len(args)-1)
		}
		return nil
	}
	switch args[0] {
	case "get":
		if err := need(1); err != nil {
			return err
		}
		return s.get(args[1])
	case "set":
		if err := need(2); err != nil {
			return err
		}
		value := []byte(args[2])
		if strings.HasPrefix(args[2], "@") {
			var err error
			if value, err = os.ReadFile(args[2][1:]); err != nil {
				return errors.WithStack(err)
			}
		}
		return s.set(args[1], value)
	case "del":
		if err := need(1); err != nil {
			return err
		}
		return s.del(args[1])
	case "scan":
		n := scanPreview
		if len(args) > 1 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return errors.Wrap(err, "scan")
			}
		}
		return s.scan(n)
	case "stats":
		return s.stats()
	case "check":
		return s.check(len(args) > 1 && args[1] == "repair")
	case "metrics":
		_, err := fmt.Fprint(s.out, s.db.Metrics())
		return err
	case "help":
		_, err := fmt.Fprint(s.out, strings.TrimPrefix(shellHelp, "\n"))
		return err
	case "quit", "exit":
		return errQuit
	default:
		return errors.Newf("unknown command %q", args[0])
	}
}
