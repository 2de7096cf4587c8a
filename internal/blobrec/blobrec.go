// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package blobrec encodes and decodes blob descriptors: the fixed-size records
// stored in a wrapped engine in place of values that were relocated to a blob
// file.
//
// A descriptor has the following layout:
//
//	+---------+------+-------+----------+----------------+------------------+
//	| version | type | flags | reserved | length (LE u32)| filename (30 B)  |
//	+---------+------+-------+----------+----------------+------------------+
//	0         1      2       3          4                8                  38
//
// The filename is 'b' followed by the standard base64 encoding of the SHA-1
// digest of the key, with '/' replaced by '-', and NUL padded. The name is a
// function of the key alone, so rewriting a key always targets the same file.
package blobrec

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
)

const (
	// FormatVersion is written to the first byte of every descriptor.
	FormatVersion = 8
	// TypeBlob is the record type marking a blob descriptor. It is checked
	// against the second byte of a record.
	TypeBlob = 9

	headerLen    = 4
	lengthOffset = headerLen
	lengthLen    = 4
	nameOffset   = lengthOffset + lengthLen
	// NameLen is the width of the filename field: the lead character, the
	// base64 encoding of a SHA-1 digest rounded up, and two bytes of slack
	// that always hold NULs.
	NameLen = 1 + (sha1.Size*4+2)/3 + 2

	// Size is the size of an encoded descriptor.
	Size = nameOffset + NameLen

	namePrefix = 'b'
)

// IsBlob returns true if rec is a blob descriptor. Both the length and the
// type byte are checked so that a short ordinary record is never mistaken for
// a descriptor.
func IsBlob(rec []byte) bool {
	return len(rec) >= Size && rec[1] == TypeBlob
}

// Encode returns a descriptor for a value of length valueLen stored under
// key.
func Encode(key []byte, valueLen uint32) []byte {
	b := make([]byte, Size)
	b[0] = FormatVersion
	b[1] = TypeBlob
	b[2] = 0 // flags
	b[3] = 0 // reserved
	binary.LittleEndian.PutUint32(b[lengthOffset:], valueLen)

	sum := sha1.Sum(key)
	name := b[nameOffset : nameOffset+NameLen]
	name[0] = namePrefix
	base64.StdEncoding.Encode(name[1:], sum[:])
	for i := 1; i < len(name); i++ {
		if name[i] == '/' {
			name[i] = '-'
		}
	}
	return b
}

// Length returns the length of the value the descriptor refers to. The caller
// must have checked IsBlob.
func Length(rec []byte) uint32 {
	return binary.LittleEndian.Uint32(rec[lengthOffset:])
}

// Filename returns the name of the blob file the descriptor refers to, or ""
// if the name field is empty. The caller must have checked IsBlob.
func Filename(rec []byte) string {
	name := rec[nameOffset : nameOffset+NameLen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// FilenameForKey returns the blob filename Encode would use for key.
func FilenameForKey(key []byte) string {
	return Filename(Encode(key, 0))
}
