// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package vfs

func mmapFd(fd uintptr, length int) (MappedRegion, error) {
	return nil, ErrMmapUnsupported
}
