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

// Package witness models block witnesses: tagged trees holding the state trie
// nodes needed to derive a root hash, with pruned subtrees given as hashes.
//
// A witness is a nested list whose first element is a tag:
//
//	""                                              empty branch slot
//	["hash", "0x<32 bytes>"]                        pruned subtree
//	["branch", c0, ..., c15]                        branch node
//	["extension", [nibbleCount, "0x<nibbles>"], c]  extension node
//	["leaf", key, field...]                         leaf
//	["leaf_for_exclusion_proof", key, field...]     neighbour leaf of an absent key
//
// Single key mappings such as {"branch": [c0, ..., c15]} are accepted as an
// alternative spelling of the same lists.
//
// 包 witness 描述区块见证：包含推导根哈希所需的状态 trie 节点的带标签树，被裁剪的子树以哈希给出。
package witness

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Tags of the witness node variants.
const (
	TagHash          = "hash"
	TagBranch        = "branch"
	TagExtension     = "extension"
	TagLeaf          = "leaf"
	TagExclusionLeaf = "leaf_for_exclusion_proof"
)

// Kind enumerates the witness node variants.
type Kind uint8

const (
	EmptyKind Kind = iota
	HashKind
	BranchKind
	ExtensionKind
	LeafKind
	ExclusionLeafKind
)

func (k Kind) String() string {
	switch k {
	case EmptyKind:
		return "empty"
	case HashKind:
		return TagHash
	case BranchKind:
		return TagBranch
	case ExtensionKind:
		return TagExtension
	case LeafKind:
		return TagLeaf
	case ExclusionLeafKind:
		return TagExclusionLeaf
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Node is a decoded witness node. The set of implementations is closed: it is
// one of *EmptyNode, *HashNode, *BranchNode, *ExtensionNode, *LeafNode and
// *ExclusionLeafNode.
//
// Node 是解码后的见证节点，实现集合是封闭的。
type Node interface {
	Kind() Kind
	witnessNode()
}

type (
	// EmptyNode is an absent branch slot.
	// EmptyNode 表示空的分支槽位。
	EmptyNode struct{}

	// HashNode references a subtree that is not rebuilt.
	// HashNode 引用一个不被重建的子树。
	HashNode struct {
		Hash common.Hash
	}

	// BranchNode holds the 16 children of a branch. The value slot is never
	// present in witnesses.
	BranchNode struct {
		Children [16]Node
	}

	// ExtensionNode holds the shared nibbles of an extension and its child.
	// ExtensionNode 包含扩展节点的共享半字节路径及其子节点。
	ExtensionNode struct {
		Nibbles []byte
		Child   Node
	}

	// LeafNode is a leaf whose path is derived from Key: hashed for accounts,
	// literal for storage slots. Fields holds the value fields that follow
	// the key; their meaning depends on the domain the leaf is rebuilt in.
	// Scalars are kept undecoded. In a leaf with four fields the last one is
	// the storage witness of a contract and is already decoded into a Node.
	//
	// LeafNode 的路径由 Key 推导：账户键需哈希，存储键直接使用。Fields 为键之后的值字段，
	// 标量保持未解码；含四个字段的叶子中最后一个是合约的存储见证，已解码为 Node。
	LeafNode struct {
		Key    string
		Fields []interface{}
	}

	// ExclusionLeafNode is the actual neighbour leaf presented to prove that
	// a key is absent. Its path is the literal nibble sequence of Key and
	// the account fields carry the final account state. Key must hold an even
	// number of nibbles, so such a leaf can only sit at an even depth.
	//
	// ExclusionLeafNode 是用于证明某个键不存在的相邻叶子，其路径为 Key 的字面半字节序列。
	ExclusionLeafNode struct {
		Key     string
		Nibbles []byte
		Fields  []interface{}
	}
)

// Empty is the shared empty witness node.
var Empty Node = &EmptyNode{}

func (*EmptyNode) Kind() Kind         { return EmptyKind }
func (*HashNode) Kind() Kind          { return HashKind }
func (*BranchNode) Kind() Kind        { return BranchKind }
func (*ExtensionNode) Kind() Kind     { return ExtensionKind }
func (*LeafNode) Kind() Kind          { return LeafKind }
func (*ExclusionLeafNode) Kind() Kind { return ExclusionLeafKind }

func (*EmptyNode) witnessNode()         {}
func (*HashNode) witnessNode()          {}
func (*BranchNode) witnessNode()        {}
func (*ExtensionNode) witnessNode()     {}
func (*LeafNode) witnessNode()          {}
func (*ExclusionLeafNode) witnessNode() {}

// Arity returns the number of leaf fields including the key.
// Arity 返回叶子字段数量（包含键）。
func (n *LeafNode) Arity() int { return len(n.Fields) + 1 }

// Arity returns the number of leaf fields including the key.
func (n *ExclusionLeafNode) Arity() int { return len(n.Fields) + 1 }
