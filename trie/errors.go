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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/s1na/eth-witness/witness"
)

// 重建过程中的任何错误都是致命的：祖先节点的哈希依赖于所有后代节点的字节，
// 因此不存在部分成功的结果。调用方通过 errors.Is 判断具体的错误类别。

var (
	// ErrMalformedWitness is returned when the witness holds an unknown tag or
	// a shape that cannot be turned into a trie node.
	// ErrMalformedWitness 当见证包含未知标签或无法转换为 trie 节点的结构时返回。
	ErrMalformedWitness = witness.ErrMalformedWitness

	// ErrInvalidLeafArity is returned when a leaf carries the wrong number of
	// fields for the domain it is rebuilt in.
	// ErrInvalidLeafArity 当叶子节点的字段数量与所在域不匹配时返回。
	ErrInvalidLeafArity = errors.New("invalid leaf arity")

	// ErrUnsupportedNesting is returned when the child of an extension node
	// does not collapse into a hash reference. Embedded branches, extensions
	// or leaves directly below an extension are not rebuilt by this engine.
	// ErrUnsupportedNesting 当扩展节点的子节点没有折叠为哈希引用时返回。
	ErrUnsupportedNesting = errors.New("unsupported nesting below extension node")

	// ErrExpectedHashRoot is returned when a sub-trie that must collapse into a
	// single hash (a contract's storage trie) did not.
	ErrExpectedHashRoot = errors.New("expected hash root")

	// ErrInvalidChild is returned when a branch slot would hold a node that
	// cannot legally appear there.
	// ErrInvalidChild 当分支槽位中出现不合法的节点类型时返回。
	ErrInvalidChild = errors.New("invalid branch child")

	// ErrIO is returned when the node store fails to persist a node.
	// ErrIO 当节点存储写入失败时返回。
	ErrIO = errors.New("node store write failed")

	// ErrInvalidLength is returned when a nibble sequence of odd length is
	// converted back into bytes.
	// ErrInvalidLength 当奇数长度的半字节序列被转换回字节时返回。
	ErrInvalidLength = errors.New("invalid nibble sequence length")

	// ErrInvalidNibble is returned when a nibble sequence holds a value above 15.
	ErrInvalidNibble = errors.New("invalid nibble")

	// ErrRootMismatch is returned by Reconstruct when the rebuilt root differs
	// from the expected one.
	// ErrRootMismatch 当重建的根哈希与期望值不一致时由 Reconstruct 返回。
	ErrRootMismatch = errors.New("root hash mismatch")
)

// BuildError is returned by the Builder when reconstruction aborts. It holds
// the nibble path of the witness node at which the first error was detected.
// Errors inside the storage trie of an account also carry the path within that
// storage trie, Path then points at the account leaf.
//
// BuildError 在重建中止时由 Builder 返回，包含首次检测到错误的见证节点的半字节路径。
// 若错误发生在账户的存储 trie 中，StoragePath 为存储 trie 内的路径，Path 指向账户叶子。
type BuildError struct {
	Path        []byte // nibble path of the failing witness node 出错见证节点的半字节路径
	StoragePath []byte // nibble path inside the account's storage trie, nil if none
	err         error  // concrete error 具体错误
}

// Unwrap returns the concrete error, so the error kinds above can be matched
// with errors.Is.
func (err *BuildError) Unwrap() error {
	return err.err
}

func (err *BuildError) Error() string {
	if err.StoragePath != nil {
		return fmt.Sprintf("witness node at path %x, storage path %x: %v", err.Path, err.StoragePath, err.err)
	}
	return fmt.Sprintf("witness node at path %x: %v", err.Path, err.err)
}

// wrapBuildError attaches the path to err, unless a deeper call already did.
func wrapBuildError(err error, path []byte) error {
	if err == nil {
		return nil
	}
	var be *BuildError
	if errors.As(err, &be) {
		return err
	}
	return &BuildError{Path: copyNibbles(path), err: err}
}

// storageError rebases an error from the storage trie of address onto the
// account leaf at path, keeping the position inside the storage trie.
func storageError(err error, address common.Address, path []byte) error {
	var (
		inner       = err
		storagePath = []byte{}
		be          *BuildError
	)
	if errors.As(err, &be) {
		inner = be.err
		storagePath = append(storagePath, be.Path...)
	}
	return &BuildError{
		Path:        copyNibbles(path),
		StoragePath: storagePath,
		err:         fmt.Errorf("storage of account %x: %w", address, inner),
	}
}
