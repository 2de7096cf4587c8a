// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebbleengine

import (
	"fmt"
	"os"
	"testing"

	"github.com/cockroachdb/blobshim/engine"
	"github.com/cockroachdb/blobshim/vfs"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	pebblevfs "github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, fs pebblevfs.FS, flags int) engine.Engine {
	t.Helper()
	e, err := Open("db", engine.OpenOptions{
		Flags:    flags,
		UserData: &pebble.Options{FS: fs},
	})
	require.NoError(t, err)
	return e
}

func TestPebbleEngine(t *testing.T) {
	fs := pebblevfs.NewMem()
	e := open(t, fs, os.O_RDWR|os.O_CREATE)

	_, err := e.Get([]byte("a"))
	require.True(t, errors.Is(err, engine.ErrNotFound))

	for i := 0; i < 10; i++ {
		k := []byte(fmt.Sprintf("k%d", i))
		require.NoError(t, e.Set(k, k))
	}
	v, err := e.Get([]byte("k3"))
	require.NoError(t, err)
	require.Equal(t, "k3", string(v))
	require.NoError(t, e.Delete([]byte("k3")))
	require.NoError(t, e.Delete([]byte("absent")))

	var keys []string
	op := engine.SeqFirst
	for {
		k, v, err := e.Seq(op)
		if errors.Is(err, engine.ErrNotFound) {
			break
		}
		require.NoError(t, err)
		require.Equal(t, string(k), string(v))
		keys = append(keys, string(k))
		op = engine.SeqNext
	}
	require.Equal(t, []string{"k0", "k1", "k2", "k4", "k5", "k6", "k7", "k8", "k9"}, keys)
	require.NoError(t, e.Sync())
	require.Equal(t, vfs.InvalidFd, e.Fd())
	require.NoError(t, e.Close())
	require.True(t, errors.Is(e.Close(), engine.ErrClosed))

	e = open(t, fs, os.O_RDONLY)
	v, err = e.Get([]byte("k9"))
	require.NoError(t, err)
	require.Equal(t, "k9", string(v))
	require.True(t, errors.Is(e.Set([]byte("x"), nil), engine.ErrReadOnly))
	require.True(t, errors.Is(e.Delete([]byte("x")), engine.ErrReadOnly))
	require.NoError(t, e.Close())

	e = open(t, fs, os.O_RDWR|os.O_TRUNC)
	_, err = e.Get([]byte("k9"))
	require.True(t, errors.Is(err, engine.ErrNotFound))
	require.NoError(t, e.Close())
}

func TestPebbleEngineMissing(t *testing.T) {
	_, err := Open("db", engine.OpenOptions{
		Flags:    os.O_RDWR,
		UserData: &pebble.Options{FS: pebblevfs.NewMem()},
	})
	require.Error(t, err)
	_, err = Open("", engine.OpenOptions{})
	require.Error(t, err)
	_, err = Open("db", engine.OpenOptions{UserData: 1})
	require.Error(t, err)
}

func TestPebbleEngineSeq(t *testing.T) {
	fs := vfs.NewMem()
	// Without a *pebble.Options the store lives on the engine FS.
	e, err := Open("db", engine.OpenOptions{Flags: os.O_RDWR | os.O_CREATE, FS: fs})
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()
	_, err = fs.Stat("db")
	require.NoError(t, err)

	_, _, err = e.Seq(engine.SeqFirst)
	require.True(t, errors.Is(err, engine.ErrNotFound))

	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, e.Set([]byte(k), []byte("v"+k)))
	}
	scan := func(op engine.SeqOp) []string {
		var got []string
		for {
			k, v, err := e.Seq(op)
			if errors.Is(err, engine.ErrNotFound) {
				return got
			}
			require.NoError(t, err)
			got = append(got, string(k)+"="+string(v))
			op = engine.SeqNext
		}
	}
	require.Equal(t, []string{"a=va", "b=vb", "c=vc"}, scan(engine.SeqFirst))
	// After exhaustion SeqNext starts over.
	require.Equal(t, []string{"a=va", "b=vb", "c=vc"}, scan(engine.SeqNext))

	k, _, err := e.Seq(engine.SeqFirst)
	require.NoError(t, err)
	require.Equal(t, "a", string(k))
	// SeqFirst restarts an active cursor.
	k, _, err = e.Seq(engine.SeqFirst)
	require.NoError(t, err)
	require.Equal(t, "a", string(k))

	_, _, err = e.Seq(engine.SeqOp(99))
	require.Error(t, err)
}
