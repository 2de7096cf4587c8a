// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"os"

	"github.com/cockroachdb/errors"
	pebblevfs "github.com/cockroachdb/pebble/vfs"
)

// InvalidFd is a special value returned by File.Fd() when the file is not
// backed by an OS descriptor (e.g. when using a MemFS).
const InvalidFd = pebblevfs.InvalidFd

// File is a readable, writable sequence of bytes.
type File = pebblevfs.File

// FS is a namespace for blob files and engine snapshots. It is the part of a
// Pebble vfs.FS this module needs, except that Create takes the permission
// bits of the new file.
type FS interface {
	// Create creates the named file for writing with permission bits perm,
	// replacing it if it already exists. File systems without permissions
	// ignore perm.
	Create(name string, perm os.FileMode) (File, error)

	// Open opens the named file for reading.
	Open(name string) (File, error)

	// Remove removes the named file or empty directory.
	Remove(name string) error

	// Rename renames a file, overwriting the file at newname if one exists.
	Rename(oldname, newname string) error

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(dir string, perm os.FileMode) error

	// List returns the names in dir, relative to dir.
	List(dir string) ([]string, error)

	// Stat returns an os.FileInfo describing the named file.
	Stat(name string) (os.FileInfo, error)

	// PathBase returns the last element of path.
	PathBase(path string) string

	// PathJoin joins any number of path elements into a single path.
	PathJoin(elem ...string) string

	// PathDir returns all but the last element of path.
	PathDir(path string) string

	// Unwrap returns the Pebble file system underneath, for engines that
	// store their files through Pebble.
	Unwrap() pebblevfs.FS
}

// Default is a FS backed by the operating system's file system.
var Default = Wrap(pebblevfs.Default)

// NewMem returns a new memory-backed FS. Its files have no OS descriptor and
// no permission bits.
func NewMem() FS {
	return Wrap(pebblevfs.NewMem())
}

// Wrap adapts a Pebble file system.
func Wrap(fs pebblevfs.FS) FS {
	return &pebbleFS{fs: fs}
}

type pebbleFS struct {
	fs pebblevfs.FS
}

func (p *pebbleFS) Create(name string, perm os.FileMode) (File, error) {
	f, err := p.fs.Create(name)
	if err != nil {
		return nil, err
	}
	if f.Fd() != InvalidFd {
		if err := os.Chmod(name, perm); err != nil {
			_ = f.Close()
			return nil, errors.WithStack(err)
		}
	}
	return f, nil
}

func (p *pebbleFS) Open(name string) (File, error) {
	return p.fs.Open(name)
}

func (p *pebbleFS) Remove(name string) error {
	return p.fs.Remove(name)
}

func (p *pebbleFS) Rename(oldname, newname string) error {
	return p.fs.Rename(oldname, newname)
}

func (p *pebbleFS) MkdirAll(dir string, perm os.FileMode) error {
	return p.fs.MkdirAll(dir, perm)
}

func (p *pebbleFS) List(dir string) ([]string, error) {
	return p.fs.List(dir)
}

func (p *pebbleFS) Stat(name string) (os.FileInfo, error) {
	return p.fs.Stat(name)
}

func (p *pebbleFS) PathBase(path string) string {
	return p.fs.PathBase(path)
}

func (p *pebbleFS) PathJoin(elem ...string) string {
	return p.fs.PathJoin(elem...)
}

func (p *pebbleFS) PathDir(path string) string {
	return p.fs.PathDir(path)
}

func (p *pebbleFS) Unwrap() pebblevfs.FS {
	return p.fs
}
