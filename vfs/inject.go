// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs/errorfs"
)

// WithErrors returns fs with errors injected into its operations by inj.
// Permission changes made by Create are not subject to injection.
func WithErrors(fs FS, inj errorfs.Injector) FS {
	return Wrap(errorfs.Wrap(fs.Unwrap(), inj))
}

// InjectOp returns an Injector that fails every operation of kind op while
// enabled is set.
func InjectOp(op errorfs.Op, enabled *atomic.Bool) errorfs.Injector {
	return errorfs.InjectorFunc(func(o errorfs.Op, _ string) error {
		if o == op && enabled.Load() {
			return errors.WithStack(errorfs.ErrInjected)
		}
		return nil
	})
}
