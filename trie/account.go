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
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// 账户叶子的值是 RLP 编码的四元组 [nonce, balance, storageRoot, codeHash]，
// 与共识层使用的 types.StateAccount 编码完全一致。

// NewAccount returns an account without code and storage: its storage root is
// the empty trie root and its code hash the hash of empty code.
//
// NewAccount 返回不含代码和存储的账户：存储根为空 trie 根，代码哈希为空代码哈希。
func NewAccount(nonce uint64, balance *uint256.Int) *types.StateAccount {
	if balance == nil {
		balance = new(uint256.Int)
	}
	return &types.StateAccount{
		Nonce:    nonce,
		Balance:  balance,
		Root:     types.EmptyRootHash,
		CodeHash: types.EmptyCodeHash.Bytes(),
	}
}

// EncodeAccount returns the canonical RLP encoding of an account record, the
// value stored in an account leaf.
//
// EncodeAccount 返回账户记录的规范 RLP 编码，即账户叶子中保存的值。
func EncodeAccount(nonce uint64, balance *uint256.Int, root, codeHash common.Hash) ([]byte, error) {
	acc := NewAccount(nonce, balance)
	acc.Root = root
	acc.CodeHash = codeHash.Bytes()
	return rlp.EncodeToBytes(acc)
}
