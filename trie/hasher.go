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
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// 以太坊 MPT 规定，RLP 编码小于 32 字节的节点直接嵌入父节点，不单独计算哈希和存储。

// hasher encodes and hashes rebuilt nodes. A hasher has some internal
// preallocated temp space.
// hasher 用于编码并哈希重建后的节点，内部带有预分配的临时空间。
type hasher struct {
	sha    crypto.KeccakState // Keccak 哈希状态
	tmp    []byte             // 临时字节切片，存放最后一次编码结果
	encbuf rlp.EncoderBuffer  // RLP 编码缓冲区
}

// hasherPool holds pureHashers
var hasherPool = sync.Pool{
	New: func() interface{} {
		return &hasher{
			tmp:    make([]byte, 0, 550), // cap is as large as a full fullNode.
			sha:    crypto.NewKeccakState(),
			encbuf: rlp.NewEncoderBuffer(nil),
		}
	},
}

func newHasher() *hasher {
	return hasherPool.Get().(*hasher)
}

func returnHasherToPool(h *hasher) {
	hasherPool.Put(h)
}

// collapse encodes n and decides how it is referenced from its parent. The
// returned blob is always a fresh copy of the encoding. Nodes whose encoding
// is shorter than 32 bytes are returned as is; otherwise the reference is the
// hash of the encoding and the caller must persist the blob under that hash.
//
// collapse 对节点编码并决定父节点如何引用它：编码小于 32 字节的节点原样返回，
// 否则返回编码的哈希，调用方必须以该哈希为键持久化 blob。
func (h *hasher) collapse(n node) (ref node, blob []byte) {
	n.encode(h.encbuf)
	enc := h.encodedBytes()

	blob = make([]byte, len(enc))
	copy(blob, enc)
	if len(enc) < 32 {
		return n, blob // Nodes smaller than 32 bytes are stored inside their parent
	}
	return h.hashData(enc), blob
}

// encodedBytes returns the result of the last encoding operation on h.encbuf.
// This also resets the encoder buffer.
//
// All node encoding must be done like this:
//
//	node.encode(h.encbuf)
//	enc := h.encodedBytes()
//
// This convention exists because node.encode can only be inlined/escape-analyzed when
// called on a concrete receiver type.
func (h *hasher) encodedBytes() []byte {
	h.tmp = h.encbuf.AppendToBytes(h.tmp[:0])
	h.encbuf.Reset(nil)
	return h.tmp
}

// hashData hashes the provided data
func (h *hasher) hashData(data []byte) hashNode {
	n := make(hashNode, 32)
	h.sha.Reset()
	h.sha.Write(data)
	h.sha.Read(n)
	return n
}
