// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package vfs

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

type unixRegion struct {
	data []byte
}

func (r *unixRegion) Bytes() []byte { return r.data }

func (r *unixRegion) Unmap() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	return errors.WithStack(unix.Munmap(data))
}

func mmapFd(fd uintptr, length int) (MappedRegion, error) {
	data, err := unix.Mmap(int(fd), 0, length, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		if errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENOSYS) {
			return nil, ErrMmapUnsupported
		}
		return nil, errors.WithStack(err)
	}
	return &unixRegion{data: data}, nil
}
