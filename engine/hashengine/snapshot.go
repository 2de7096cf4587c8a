// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hashengine

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/blobshim/internal/base"
	"github.com/cockroachdb/errors"
)

// A snapshot file has the following layout:
//
//	+-------+---------+---------+-----------+---------+-----------------+
//	| magic | version | padding | count u32 | records | xxhash64 of all |
//	|  4 B  |   1 B   |   3 B   |           |         | preceding bytes |
//	+-------+---------+---------+-----------+---------+-----------------+
//
// and each record is uvarint(len(key)) uvarint(len(value)) key value. All
// fixed-width integers are little-endian.
const (
	snapshotMagic      = "BSHE"
	snapshotVersion    = 1
	snapshotHeaderLen  = 12
	snapshotTrailerLen = 8
)

func corruptionf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), base.ErrCorruption)
}

func (d *DB) load() error {
	f, err := d.fs.Open(d.name)
	if err != nil {
		return errors.Wrapf(err, "hashengine: opening %s", d.name)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrapf(err, "hashengine: reading %s", d.name)
	}

	if len(data) < snapshotHeaderLen+snapshotTrailerLen {
		return corruptionf("hashengine: %s: snapshot truncated at %d bytes", errors.Safe(d.name), len(data))
	}
	body, trailer := data[:len(data)-snapshotTrailerLen], data[len(data)-snapshotTrailerLen:]
	if got, want := xxhash.Sum64(body), binary.LittleEndian.Uint64(trailer); got != want {
		return corruptionf("hashengine: %s: checksum mismatch %016x != %016x", errors.Safe(d.name), got, want)
	}
	if string(body[:4]) != snapshotMagic || body[4] != snapshotVersion {
		return corruptionf("hashengine: %s: bad snapshot header", errors.Safe(d.name))
	}
	count := binary.LittleEndian.Uint32(body[8:12])
	body = body[snapshotHeaderLen:]
	for i := uint32(0); i < count; i++ {
		keyLen, n := binary.Uvarint(body)
		if n <= 0 {
			return corruptionf("hashengine: %s: bad key length in record %d", errors.Safe(d.name), i)
		}
		body = body[n:]
		valueLen, n := binary.Uvarint(body)
		if n <= 0 {
			return corruptionf("hashengine: %s: bad value length in record %d", errors.Safe(d.name), i)
		}
		body = body[n:]
		if uint64(len(body)) < keyLen+valueLen {
			return corruptionf("hashengine: %s: record %d overruns snapshot", errors.Safe(d.name), i)
		}
		key, value := body[:keyLen], body[keyLen:keyLen+valueLen]
		body = body[keyLen+valueLen:]
		b := d.bucketFor(key)
		d.buckets[b] = append(d.buckets[b], entry{key: key, value: value})
		d.count++
		if d.count > maxLoadFactor*len(d.buckets) {
			d.grow()
		}
	}
	if len(body) != 0 {
		return corruptionf("hashengine: %s: %d trailing bytes", errors.Safe(d.name), len(body))
	}
	return nil
}

func (d *DB) encodeSnapshot() []byte {
	buf := make([]byte, snapshotHeaderLen, 1024)
	copy(buf, snapshotMagic)
	buf[4] = snapshotVersion
	binary.LittleEndian.PutUint32(buf[8:], uint32(d.count))
	for _, bucket := range d.buckets {
		for _, e := range bucket {
			buf = binary.AppendUvarint(buf, uint64(len(e.key)))
			buf = binary.AppendUvarint(buf, uint64(len(e.value)))
			buf = append(buf, e.key...)
			buf = append(buf, e.value...)
		}
	}
	return binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf))
}

// writeSnapshot writes all records to a temporary file and renames it over
// the snapshot, then reopens the snapshot for Fd.
func (d *DB) writeSnapshot() error {
	tmp := d.name + ".tmp"
	f, err := d.fs.Create(tmp, d.mode)
	if err != nil {
		return errors.Wrapf(err, "hashengine: creating %s", tmp)
	}
	_, err = f.Write(d.encodeSnapshot())
	if err == nil {
		err = f.Sync()
	}
	err = errors.CombineErrors(err, f.Close())
	if err == nil {
		err = d.fs.Rename(tmp, d.name)
	}
	if err != nil {
		_ = d.fs.Remove(tmp)
		return errors.Wrapf(err, "hashengine: writing %s", d.name)
	}
	d.dirty = false
	return d.reopenFile()
}

func (d *DB) reopenFile() error {
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	f, err := d.fs.Open(d.name)
	if err != nil {
		return errors.Wrapf(err, "hashengine: opening %s", d.name)
	}
	d.file = f
	return nil
}
