// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blobfile

import "github.com/cockroachdb/blobshim/vfs"

// Mapping holds the contents of one blob file, either memory mapped or read
// into a heap buffer. Mappings are handed around by pointer and must be
// released exactly once by their owner; Release is idempotent so an owner may
// release defensively.
type Mapping struct {
	_      noCopy
	region vfs.MappedRegion
	data   []byte
}

// Bytes returns the blob's contents. The slice is invalid after Release.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the number of bytes held.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Mapped returns true if the contents are memory mapped rather than
// buffered.
func (m *Mapping) Mapped() bool {
	return m.region != nil
}

// Release unmaps or drops the contents.
func (m *Mapping) Release() error {
	m.data = nil
	if m.region == nil {
		return nil
	}
	r := m.region
	m.region = nil
	return r.Unmap()
}

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527 for details;
// go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
