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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFullNode(t *testing.T) {
	hash := crypto.Keccak256([]byte("child"))

	n := &fullNode{}
	n.Children[0] = hashNode(hash)

	want := append([]byte{0xf1, 0xa0}, hash...)
	want = append(want, bytes.Repeat([]byte{0x80}, 16)...)

	enc := n.Encode()
	assert.Equal(t, want, enc)
	assert.Len(t, enc, 50)
	assert.Equal(t, crypto.Keccak256Hash(want), n.Hash())
	assert.False(t, n.Embeddable())
	assert.Equal(t, BranchKind, n.Kind())
}

func TestEncodeShortNode(t *testing.T) {
	leaf := &shortNode{Key: []byte{0xa, 0xb, 0x1, 0x2, terminator}, Val: valueNode{0x01}}
	assert.Equal(t, []byte{0xc5, 0x83, 0x20, 0xab, 0x12, 0x01}, leaf.Encode())
	assert.True(t, leaf.Embeddable())
	assert.Equal(t, LeafKind, leaf.Kind())

	ext := &shortNode{Key: []byte{0x1}, Val: hashNode(make([]byte, 32))}
	enc := ext.Encode()
	assert.Equal(t, []byte{0xe2, 0x11, 0xa0}, enc[:3])
	assert.Len(t, enc, 35)
	assert.Equal(t, ExtensionKind, ext.Kind())
}

func TestEncodeNodeCopies(t *testing.T) {
	// Encodings come out of a pooled buffer and must not alias it.
	n := &shortNode{Key: []byte{0x1, 0x2, terminator}, Val: valueNode{0x01}}
	first := encodeNode(n)
	want := common.CopyBytes(first)
	first[0] = 0xff

	second := encodeNode(&fullNode{})
	assert.Equal(t, append([]byte{0xd1}, bytes.Repeat([]byte{0x80}, 17)...), second)
	assert.Equal(t, want, n.Encode())
	assert.Equal(t, []byte{0xc4, 0x82, 0x20, 0x12, 0x01}, want)
}

func TestHashNodeView(t *testing.T) {
	h := common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	n := hashNode(h.Bytes())
	assert.Equal(t, HashKind, n.Kind())
	assert.Equal(t, h, n.Hash())
	assert.False(t, n.Embeddable())
	assert.Equal(t, append([]byte{0xa0}, h.Bytes()...), n.Encode())
}

func TestCollapse(t *testing.T) {
	h := newHasher()
	defer returnHasherToPool(h)

	small := &shortNode{Key: []byte{0xa, 0xb, 0x1, 0x2, terminator}, Val: valueNode{0x01}}
	ref, blob := h.collapse(small)
	assert.Equal(t, small, ref)
	assert.Len(t, blob, 6)

	big := &fullNode{}
	big.Children[3] = hashNode(crypto.Keccak256([]byte{1}))
	ref, blob = h.collapse(big)
	require.IsType(t, hashNode{}, ref)
	assert.Equal(t, crypto.Keccak256(blob), []byte(ref.(hashNode)))
	assert.Equal(t, big.Encode(), blob)
}

func TestDecodeNodeRoundtrip(t *testing.T) {
	leaf := &shortNode{Key: []byte{0xa, 0xb, 0x1, 0x2, terminator}, Val: valueNode{0x01}}

	full := &fullNode{}
	full.Children[1] = leaf
	full.Children[7] = hashNode(crypto.Keccak256([]byte("x")))

	for _, n := range []Node{leaf, full, &shortNode{Key: []byte{1, 2, 3}, Val: hashNode(crypto.Keccak256(nil))}} {
		enc := n.Encode()
		dec, err := DecodeNode(crypto.Keccak256Hash(enc), enc)
		require.NoError(t, err)
		assert.Equal(t, n.Kind(), dec.Kind())
		assert.Equal(t, enc, dec.Encode())
	}
}

func TestDecodeNodeOversizedEmbedded(t *testing.T) {
	// A branch embedding a 32 byte child is not a valid encoding.
	child := &shortNode{Key: leafKey([]byte{1, 2}), Val: valueNode(bytes.Repeat([]byte{0xff}, 27))}
	require.Len(t, child.Encode(), 32)

	full := &fullNode{}
	full.Children[0] = child
	enc := full.Encode()

	_, err := DecodeNode(crypto.Keccak256Hash(enc), enc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oversized embedded node")
}

func TestDecodeNodeInvalid(t *testing.T) {
	_, err := DecodeNode(common.Hash{}, nil)
	assert.Error(t, err)

	_, err = DecodeNode(common.Hash{}, []byte{0xc3, 0x01, 0x02, 0x03})
	assert.Error(t, err)
}
