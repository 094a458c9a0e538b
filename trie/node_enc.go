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
	"github.com/ethereum/go-ethereum/rlp"
)

// 节点的规范 RLP 编码。分支为 17 项列表，扩展和叶子为 [compact(key), 子节点或值]，
// 嵌入的子节点内联为嵌套列表，哈希引用和值写为字节串，空槽写为空字符串。

// encodeNode returns a fresh copy of the canonical encoding of n. The encoder
// buffer is borrowed from the hasher pool.
func encodeNode(n node) []byte {
	h := newHasher()
	defer returnHasherToPool(h)

	n.encode(h.encbuf)
	return common.CopyBytes(h.encodedBytes())
}

// writeChild writes the reference held in a branch slot or short node value.
func writeChild(w rlp.EncoderBuffer, child node) {
	if child == nil {
		w.Write(rlp.EmptyString)
		return
	}
	child.encode(w)
}

func (n *fullNode) encode(w rlp.EncoderBuffer) {
	list := w.List()
	for _, child := range n.Children {
		writeChild(w, child)
	}
	w.ListEnd(list)
}

func (n *shortNode) encode(w rlp.EncoderBuffer) {
	list := w.List()
	w.WriteBytes(hexToCompact(n.Key))
	writeChild(w, n.Val)
	w.ListEnd(list)
}

func (n hashNode) encode(w rlp.EncoderBuffer)  { w.WriteBytes(n) }
func (n valueNode) encode(w rlp.EncoderBuffer) { w.WriteBytes(n) }
