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
	"github.com/ethereum/go-ethereum/common"
)

type (
	// NodeHook is called for every node rebuilt from the witness, after the
	// embed-or-store decision. hash is the zero hash for embedded nodes and
	// stored reports whether the node was written to the store.
	// NodeHook 在每个节点完成嵌入或存储决策后调用。
	NodeHook = func(path []byte, kind NodeKind, hash common.Hash, size int, stored bool)

	// LeafHook is called for every leaf with its full nibble path (the path of
	// the node plus the leaf key remainder) and its encoded value.
	LeafHook = func(domain Domain, path []byte, value []byte)

	// StorageRootHook is called once the storage trie of an account leaf has
	// been rebuilt.
	// StorageRootHook 在账户叶子的存储 trie 重建完成后调用。
	StorageRootHook = func(address common.Address, root common.Hash)
)

// Tracer is a set of optional hooks observing a reconstruction. Any hook may
// be left nil. The slices handed to hooks must not be retained, they are
// reused once the hook returns.
//
// Tracer 是一组观察重建过程的可选钩子，任何钩子都可以为 nil。
type Tracer struct {
	OnNode        NodeHook
	OnLeaf        LeafHook
	OnStorageRoot StorageRootHook
}

func (t *Tracer) node(path []byte, kind NodeKind, hash common.Hash, size int, stored bool) {
	if t != nil && t.OnNode != nil {
		t.OnNode(path, kind, hash, size, stored)
	}
}

func (t *Tracer) leaf(domain Domain, path []byte, value []byte) {
	if t != nil && t.OnLeaf != nil {
		t.OnLeaf(domain, path, value)
	}
}

func (t *Tracer) storageRoot(address common.Address, root common.Hash) {
	if t != nil && t.OnStorageRoot != nil {
		t.OnStorageRoot(address, root)
	}
}
