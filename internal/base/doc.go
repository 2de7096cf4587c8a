// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines the error values and logging interface shared by the
// shim, its engines and its blob file helpers.
//
// # Errors
//
// Errors produced by a wrapped engine are passed through the shim unchanged.
// Errors synthesized by the shim itself while writing or reading a blob file
// carry the [ErrBlobIO] mark, and additionally [ErrCorruption] when the blob
// file on disk disagrees with the descriptor stored in the engine. Marks are
// applied with errors.Mark so the underlying OS error stays reachable through
// errors.Is and the oserror predicates.
package base
