// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package trie

import (
	"bytes"
	crand "crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexCompact(t *testing.T) {
	tests := []struct{ hex, compact []byte }{
		// empty keys, with and without terminator.
		{hex: []byte{}, compact: []byte{0x00}},
		{hex: []byte{16}, compact: []byte{0x20}},
		// odd length, no terminator
		{hex: []byte{1, 2, 3, 4, 5}, compact: []byte{0x11, 0x23, 0x45}},
		// even length, no terminator
		{hex: []byte{0, 1, 2, 3, 4, 5}, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// odd length, terminator
		{hex: []byte{15, 1, 12, 11, 8, 16}, compact: []byte{0x3f, 0x1c, 0xb8}},
		// even length, terminator
		{hex: []byte{0, 15, 1, 12, 11, 8, 16}, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, test := range tests {
		if c := hexToCompact(test.hex); !bytes.Equal(c, test.compact) {
			t.Errorf("hexToCompact(%x) -> %x, want %x", test.hex, c, test.compact)
		}
		if h := compactToHex(test.compact); !bytes.Equal(h, test.hex) {
			t.Errorf("compactToHex(%x) -> %x, want %x", test.compact, h, test.hex)
		}
	}
}

func TestNibbles(t *testing.T) {
	assert.Equal(t, []byte{}, ToNibbles(nil))
	assert.Equal(t, []byte{0xa, 0xb, 0x1, 0x2}, ToNibbles([]byte{0xab, 0x12}))
	assert.Equal(t, []byte{0, 0, 0xf, 0xf}, ToNibbles([]byte{0x00, 0xff}))

	key, err := FromNibbles([]byte{0xa, 0xb, 0x1, 0x2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0x12}, key)

	key, err = FromNibbles(nil)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestNibblesRoundtrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := make([]byte, i)
		crand.Read(key)

		nibbles := ToNibbles(key)
		require.Len(t, nibbles, 2*len(key))
		for _, n := range nibbles {
			require.Less(t, n, byte(16))
		}
		back, err := FromNibbles(nibbles)
		require.NoError(t, err)
		require.Equal(t, key, back)
	}
}

func TestFromNibblesInvalid(t *testing.T) {
	_, err := FromNibbles([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = FromNibbles([]byte{1, 16})
	assert.ErrorIs(t, err, ErrInvalidNibble)
}

func TestPrefixLen(t *testing.T) {
	tests := []struct {
		a, b []byte
		want int
	}{
		{nil, nil, 0},
		{[]byte{1}, nil, 0},
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, 3},
		{[]byte{1, 2, 3}, []byte{1, 2}, 2},
		{[]byte{1, 2, 3}, []byte{1, 4, 3}, 1},
		{[]byte{0}, []byte{1}, 0},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, PrefixLen(test.a, test.b), "PrefixLen(%x, %x)", test.a, test.b)
		assert.Equal(t, test.want, PrefixLen(test.b, test.a), "PrefixLen(%x, %x)", test.b, test.a)
	}
}

func TestAppendNibblesNoAlias(t *testing.T) {
	path := make([]byte, 2, 16)
	path[0], path[1] = 1, 2

	a := appendNibbles(path, 3)
	b := appendNibbles(path, 4)
	assert.Equal(t, []byte{1, 2, 3}, a)
	assert.Equal(t, []byte{1, 2, 4}, b)
	assert.Equal(t, []byte{1, 2, 3, 16}, leafKey(a))
	assert.Nil(t, copyNibbles(nil))
}
