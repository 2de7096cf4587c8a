// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobfile

import (
	"os"

	"github.com/cockroachdb/blobshim/internal/blobrec"
	"github.com/cockroachdb/blobshim/vfs"
)

// DirSuffix is appended to a store's name to form its blob directory.
const DirSuffix = ".dir"

// DirFor returns the blob directory for the store named storeName. The
// extension of the last path element is replaced by DirSuffix; a name with no
// extension, or whose extension already is DirSuffix, has DirSuffix appended
// so that the directory never collides with the store itself:
//
//	cert9.db   -> cert9.dir
//	store      -> store.dir
//	data.dir   -> data.dir.dir
//	a.b/store  -> a.b/store.dir
func DirFor(storeName string) string {
	end := len(storeName)
	for i := len(storeName) - 1; i >= 0; i-- {
		c := storeName[i]
		if c == '.' {
			if storeName[i:] != DirSuffix {
				end = i
			}
			break
		}
		if c == '/' || os.IsPathSeparator(c) {
			break
		}
	}
	return storeName[:end] + DirSuffix
}

// DirMode returns the permission bits for a blob directory holding files
// created with mode. Every read bit is mirrored into the matching execute bit
// so the directory can be traversed by whoever may read its files.
func DirMode(mode os.FileMode) os.FileMode {
	return mode | ((mode >> 2) & 0111)
}

// PathFor returns the path of the blob file that the descriptor rec refers
// to. It returns false if dir is empty, if rec is not a blob descriptor or if
// the descriptor carries no filename.
func PathFor(fs vfs.FS, dir string, rec []byte) (string, bool) {
	if dir == "" || !blobrec.IsBlob(rec) {
		return "", false
	}
	name := blobrec.Filename(rec)
	if name == "" {
		return "", false
	}
	return fs.PathJoin(dir, name), true
}
