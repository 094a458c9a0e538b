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
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}

// node is the in-memory form of a rebuilt trie node.
// node 是重建后 trie 节点的内存形式。
type node interface {
	encode(w rlp.EncoderBuffer) // 将节点编码到 RLP 缓冲区
	fstring(string) string      // 格式化字符串表示
}

type (
	// fullNode is a branch: 16 children plus a value slot which is never set
	// by witness reconstruction.
	// fullNode 为分支节点：16 个子节点加一个值槽，见证重建时值槽始终为空。
	fullNode struct {
		Children [17]node
	}
	// shortNode is an extension (Key without terminator, Val a child reference)
	// or a leaf (Key with terminator, Val a valueNode). Key is in HEX form.
	// shortNode 为扩展节点（键不带终止符）或叶子节点（键带终止符），键为 HEX 编码。
	shortNode struct {
		Key []byte
		Val node
	}
	hashNode  []byte // 哈希引用，指向已存储或被裁剪的子树
	valueNode []byte // 叶子节点保存的值
)

// NodeKind tells apart the node variants handed out to callers.
type NodeKind uint8

const (
	HashKind NodeKind = iota
	BranchKind
	ExtensionKind
	LeafKind
)

func (k NodeKind) String() string {
	switch k {
	case HashKind:
		return "hash"
	case BranchKind:
		return "branch"
	case ExtensionKind:
		return "extension"
	case LeafKind:
		return "leaf"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// Node is a rebuilt trie node: a branch, extension, leaf or a hash reference
// standing in for a node that was persisted or pruned.
//
// Node 是重建后的 trie 节点：分支、扩展、叶子，或代替已存储/已裁剪节点的哈希引用。
type Node interface {
	// Kind returns the node variant.
	Kind() NodeKind

	// Encode returns the canonical RLP encoding of the node. For a hash
	// reference that is the RLP string of the 32 byte hash.
	Encode() []byte

	// Hash returns the keccak256 hash of the encoding, or the referenced hash
	// for a hash reference.
	Hash() common.Hash

	// Embeddable reports whether the node is inlined into its parent rather
	// than referenced by hash, i.e. whether its encoding is shorter than 32
	// bytes.
	Embeddable() bool

	String() string
}

func (n *fullNode) Kind() NodeKind { return BranchKind }
func (n hashNode) Kind() NodeKind  { return HashKind }
func (n *shortNode) Kind() NodeKind {
	if hasTerm(n.Key) {
		return LeafKind
	}
	return ExtensionKind
}

func (n *fullNode) Encode() []byte  { return encodeNode(n) }
func (n *shortNode) Encode() []byte { return encodeNode(n) }
func (n hashNode) Encode() []byte   { return encodeNode(n) }

func (n *fullNode) Hash() common.Hash  { return crypto.Keccak256Hash(encodeNode(n)) }
func (n *shortNode) Hash() common.Hash { return crypto.Keccak256Hash(encodeNode(n)) }
func (n hashNode) Hash() common.Hash   { return common.BytesToHash(n) }

func (n *fullNode) Embeddable() bool  { return len(encodeNode(n)) < 32 }
func (n *shortNode) Embeddable() bool { return len(encodeNode(n)) < 32 }
func (n hashNode) Embeddable() bool   { return false }

// Pretty printing.
func (n *fullNode) String() string  { return n.fstring("") }
func (n *shortNode) String() string { return n.fstring("") }
func (n hashNode) String() string   { return n.fstring("") }
func (n valueNode) String() string  { return n.fstring("") }

func (n *fullNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, node := range &n.Children {
		if node == nil {
			resp += fmt.Sprintf("%s: <nil> ", indices[i])
		} else {
			resp += fmt.Sprintf("%s: %v", indices[i], node.fstring(ind+"  "))
		}
	}
	return resp + fmt.Sprintf("\n%s] ", ind)
}
func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}
func (n hashNode) fstring(ind string) string {
	return fmt.Sprintf("<%x> ", []byte(n))
}
func (n valueNode) fstring(ind string) string {
	return fmt.Sprintf("%x ", []byte(n))
}

// EncodeRLP encodes a full node into the consensus RLP format.
func (n *fullNode) EncodeRLP(w io.Writer) error {
	eb := rlp.NewEncoderBuffer(w)
	n.encode(eb)
	return eb.Flush()
}

// DecodeNode parses the RLP encoding of a stored trie node. The hash is only
// used for error reporting. The blob is copied, so callers may reuse it.
//
// DecodeNode 解析已存储 trie 节点的 RLP 编码。hash 仅用于错误信息。
func DecodeNode(hash common.Hash, buf []byte) (Node, error) {
	n, err := decodeNode(common.CopyBytes(buf))
	if err != nil {
		return nil, fmt.Errorf("node %x: %w", hash, err)
	}
	return n.(Node), nil
}

func decodeNode(buf []byte) (node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("decode error: %v", err)
	}
	switch c, _ := rlp.CountValues(elems); c {
	case 2:
		n, err := decodeShort(elems)
		return n, wrapError(err, "short")
	case 17:
		n, err := decodeFull(elems)
		return n, wrapError(err, "full")
	default:
		return nil, fmt.Errorf("invalid number of list elements: %v", c)
	}
}

func decodeShort(elems []byte) (node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, err
	}
	key := compactToHex(kbuf)
	if hasTerm(key) {
		// value node
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid value node: %v", err)
		}
		return &shortNode{key, valueNode(val)}, nil
	}
	r, _, err := decodeRef(rest)
	if err != nil {
		return nil, wrapError(err, "val")
	}
	return &shortNode{key, r}, nil
}

func decodeFull(elems []byte) (*fullNode, error) {
	n := &fullNode{}
	for i := 0; i < 16; i++ {
		cld, rest, err := decodeRef(elems)
		if err != nil {
			return n, wrapError(err, fmt.Sprintf("[%d]", i))
		}
		n.Children[i], elems = cld, rest
	}
	val, _, err := rlp.SplitString(elems)
	if err != nil {
		return n, err
	}
	if len(val) > 0 {
		n.Children[16] = valueNode(val)
	}
	return n, nil
}

const hashLen = len(common.Hash{})

// decodeRef decodes a child reference: an embedded node, an empty slot or a
// 32 byte hash.
// decodeRef 解码子节点引用：嵌入节点、空槽或 32 字节哈希。
func decodeRef(buf []byte) (node, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return nil, buf, err
	}
	switch {
	case kind == rlp.List:
		// 'embedded' node reference. The encoding must be smaller
		// than a hash in order to be valid.
		if size := len(buf) - len(rest); size >= hashLen {
			err := fmt.Errorf("oversized embedded node (size is %d bytes, want size < %d)", size, hashLen)
			return nil, buf, err
		}
		n, err := decodeNode(buf[:len(buf)-len(rest)])
		return n, rest, err
	case kind == rlp.String && len(val) == 0:
		// empty node
		return nil, rest, nil
	case kind == rlp.String && len(val) == 32:
		return hashNode(val), rest, nil
	default:
		return nil, nil, fmt.Errorf("invalid RLP string size %d (want 0 or 32)", len(val))
	}
}

// decodeError wraps a decoding error with the path to the invalid child node.
type decodeError struct {
	what  error
	stack []string
}

func wrapError(err error, ctx string) error {
	if err == nil {
		return nil
	}
	if decErr, ok := err.(*decodeError); ok {
		decErr.stack = append(decErr.stack, ctx)
		return decErr
	}
	return &decodeError{err, []string{ctx}}
}

func (err *decodeError) Error() string {
	return fmt.Sprintf("%v (decode path: %s)", err.what, strings.Join(err.stack, "<-"))
}

func (err *decodeError) Unwrap() error {
	return err.what
}
