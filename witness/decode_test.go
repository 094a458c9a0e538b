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

package witness

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"

func branch(children ...interface{}) []interface{} {
	b := []interface{}{TagBranch}
	for i := 0; i < 16; i++ {
		if i < len(children) {
			b = append(b, children[i])
		} else {
			b = append(b, "")
		}
	}
	return b
}

func TestDecodeVariants(t *testing.T) {
	n, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, EmptyKind, n.Kind())

	n, err = Decode([]interface{}{"hash", testHash})
	require.NoError(t, err)
	require.Equal(t, HashKind, n.Kind())
	assert.Equal(t, common.HexToHash(testHash), n.(*HashNode).Hash)

	// The 0x prefix of hashes is optional.
	n, err = Decode([]interface{}{"hash", strings.TrimPrefix(testHash, "0x")})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(testHash), n.(*HashNode).Hash)

	n, err = Decode(branch("", []interface{}{"hash", testHash}))
	require.NoError(t, err)
	require.Equal(t, BranchKind, n.Kind())
	b := n.(*BranchNode)
	assert.Equal(t, Empty, b.Children[0])
	assert.Equal(t, HashKind, b.Children[1].Kind())
	for i := 2; i < 16; i++ {
		assert.Equal(t, EmptyKind, b.Children[i].Kind())
	}

	n, err = Decode([]interface{}{"leaf", "0x01", "0x02"})
	require.NoError(t, err)
	require.Equal(t, LeafKind, n.Kind())
	assert.Equal(t, "0x01", n.(*LeafNode).Key)
	assert.Equal(t, 2, n.(*LeafNode).Arity())

	n, err = Decode([]interface{}{"leaf_for_exclusion_proof", "0xab12", 1, 2})
	require.NoError(t, err)
	require.Equal(t, ExclusionLeafKind, n.Kind())
	assert.Equal(t, []byte{0xa, 0xb, 0x1, 0x2}, n.(*ExclusionLeafNode).Nibbles)
	assert.Equal(t, 3, n.(*ExclusionLeafNode).Arity())
}

func TestDecodeContractStorage(t *testing.T) {
	addr := "0x" + strings.Repeat("11", 20)

	n, err := Decode([]interface{}{"leaf", addr, 1, 2, "0x", branch([]interface{}{"hash", testHash})})
	require.NoError(t, err)
	leaf := n.(*LeafNode)
	require.Equal(t, 5, leaf.Arity())
	require.IsType(t, &BranchNode{}, leaf.Fields[3])
	assert.Equal(t, HashKind, leaf.Fields[3].(*BranchNode).Children[0].Kind())

	n, err = Decode([]interface{}{"leaf", addr, 1, 2, "0x", ""})
	require.NoError(t, err)
	assert.Equal(t, Empty, n.(*LeafNode).Fields[3])

	// A broken storage witness fails the whole document.
	_, err = Decode(branch([]interface{}{"leaf", addr, 1, 2, "0x", []interface{}{"hash", "0x00"}}))
	require.ErrorIs(t, err, ErrMalformedWitness)
	assert.Contains(t, err.Error(), "storage<-leaf<-branch[0]")
}

func TestDecodeExtension(t *testing.T) {
	child := []interface{}{"hash", testHash}
	tests := []struct {
		path interface{}
		want []byte
	}{
		{[]interface{}{2, "0x12"}, []byte{1, 2}},
		{[]interface{}{3, "0x123"}, []byte{1, 2, 3}},
		{[]interface{}{3, "0x1230"}, []byte{1, 2, 3}}, // padded to full bytes
		{[]interface{}{1, "f"}, []byte{0xf}},
		{[]interface{}{"0x2", "0xab"}, []byte{0xa, 0xb}},
	}
	for _, test := range tests {
		n, err := Decode([]interface{}{"extension", test.path, child})
		require.NoError(t, err, "path %v", test.path)
		ext := n.(*ExtensionNode)
		assert.Equal(t, test.want, ext.Nibbles, "path %v", test.path)
		assert.Equal(t, HashKind, ext.Child.Kind())
	}
}

func TestDecodeMapping(t *testing.T) {
	// Single key mappings, as produced by YAML fixtures.
	v := map[string]interface{}{
		"branch": []interface{}{
			map[string]interface{}{"hash": testHash}, "", "", "", "", "", "", "", "", "", "", "", "", "", "", "",
		},
	}
	n, err := Decode(v)
	require.NoError(t, err)
	require.Equal(t, BranchKind, n.Kind())
	assert.Equal(t, common.HexToHash(testHash), n.(*BranchNode).Children[0].(*HashNode).Hash)

	// Legacy yaml decoders produce interface keyed maps.
	n, err = Decode(map[interface{}]interface{}{"hash": testHash})
	require.NoError(t, err)
	assert.Equal(t, HashKind, n.Kind())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
	}{
		{"nil", nil},
		{"non-empty string", "abc"},
		{"number", 12},
		{"empty list", []interface{}{}},
		{"unknown tag", []interface{}{"account", "0x01"}},
		{"non-string tag", []interface{}{1, 2}},
		{"short branch", []interface{}{"branch", "", ""}},
		{"branch child", branch("x")},
		{"short hash", []interface{}{"hash", "0x1234"}},
		{"hash not string", []interface{}{"hash", 12}},
		{"hash without value", []interface{}{"hash"}},
		{"bad hex", []interface{}{"hash", "0x" + strings.Repeat("zz", 32)}},
		{"extension arity", []interface{}{"extension", []interface{}{1, "0x1"}}},
		{"extension path", []interface{}{"extension", "0x1", ""}},
		{"extension count", []interface{}{"extension", []interface{}{2, "0x1"}, ""}},
		{"extension empty", []interface{}{"extension", []interface{}{0, ""}, ""}},
		{"extension bad pad", []interface{}{"extension", []interface{}{1, "0x12"}, ""}},
		{"extension nibble", []interface{}{"extension", []interface{}{1, "0xg"}, ""}},
		{"leaf key", []interface{}{"leaf", 12, "0x01"}},
		{"leaf without key", []interface{}{"leaf"}},
		{"odd exclusion key", []interface{}{"leaf_for_exclusion_proof", "0xab1", "0x01"}},
		{"mapping keys", map[string]interface{}{"hash": testHash, "branch": []interface{}{}}},
	}
	for _, test := range tests {
		_, err := Decode(test.v)
		assert.ErrorIs(t, err, ErrMalformedWitness, test.name)
	}
}

func TestDecodeErrorPath(t *testing.T) {
	inner := branch("", "", "", []interface{}{"hash", "0x00"})
	_, err := Decode(branch("", "", inner))
	require.ErrorIs(t, err, ErrMalformedWitness)
	assert.Contains(t, err.Error(), "branch[3]<-branch[2]")
}
