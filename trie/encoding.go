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

import "fmt"

// Keys of rebuilt nodes are handled in three encodings:
//
// KEYBYTES is the raw key: an account address hash or a storage slot key.
//
// HEX holds one byte per nibble, high nibble first, with an optional trailing
// terminator (16) marking that the key belongs to a leaf. Rebuilt nodes keep
// their keys in this form.
//
// COMPACT is the hex-prefix encoding of the Yellow Paper. The high nibble of
// the first byte carries the flags (bit 0 odd length, bit 1 leaf), the low
// nibble carries the first nibble of odd length keys. It is the form that is
// RLP encoded into node blobs and hence hashed.
//
// Trie 键有三种编码：KEYBYTES 为原始键；HEX 每个半字节占一个字节，叶子键带终止符 16；
// COMPACT 即黄皮书中的十六进制前缀编码，首字节高半字节为标志位（bit0 奇数长度，bit1 叶子），
// 是写入节点 RLP 编码并参与哈希计算的形式。

// terminator marks a HEX key as belonging to a value (leaf) node.
const terminator = 16

// ToNibbles expands a byte key into its nibble sequence, high nibble first.
// The result holds no terminator.
//
// ToNibbles 将字节键展开为半字节序列，高半字节在前，不带终止符。
func ToNibbles(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	return nibbles
}

// FromNibbles packs a nibble sequence back into bytes. The sequence must have
// an even length and hold values below 16 only.
//
// FromNibbles 将半字节序列重新打包为字节，序列长度必须为偶数且每个值小于 16。
func FromNibbles(nibbles []byte) ([]byte, error) {
	if len(nibbles)&1 != 0 {
		return nil, fmt.Errorf("%w: odd nibble count %d", ErrInvalidLength, len(nibbles))
	}
	for i, n := range nibbles {
		if n > 0x0f {
			return nil, fmt.Errorf("%w: %#x at position %d", ErrInvalidNibble, n, i)
		}
	}
	key := make([]byte, len(nibbles)/2)
	decodeNibbles(nibbles, key)
	return key, nil
}

// PrefixLen returns the length of the common prefix of a and b.
// PrefixLen 返回 a 和 b 的公共前缀长度。
func PrefixLen(a, b []byte) int {
	var i, length = 0, len(a)
	if len(b) < length {
		length = len(b)
	}
	for ; i < length; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// hexToCompact converts a HEX key (with or without terminator) into its
// hex-prefix form.
//
// 标志字节：终止符左移 5 位，奇数长度再置第 4 位，并把第一个半字节放入低半字节。
func hexToCompact(hex []byte) []byte {
	term := byte(0)
	if hasTerm(hex) {
		term = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = term << 5 // the flag byte
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4 // odd flag
		buf[0] |= hex[0] // first nibble is contained in the first byte
		hex = hex[1:]
	}
	decodeNibbles(hex, buf[1:])
	return buf
}

// compactToHex is the inverse of hexToCompact; leaf keys come back with the
// terminator appended.
func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	// delete terminator flag
	if base[0] < 2 {
		base = base[:len(base)-1]
	}
	// apply odd flag
	chop := 2 - base[0]&1
	return base[chop:]
}

// keybytesToHex expands a byte key into HEX form with the terminator appended.
func keybytesToHex(str []byte) []byte {
	l := len(str)*2 + 1
	var nibbles = make([]byte, l)
	for i, b := range str {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	nibbles[l-1] = terminator
	return nibbles
}

// decodeNibbles packs pairs of nibbles into bytes. len(bytes) must be at least
// len(nibbles)/2.
func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// hasTerm returns whether a hex key has the terminator flag.
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminator
}

// leafKey returns a fresh HEX key for a leaf: the given nibbles followed by
// the terminator.
func leafKey(nibbles []byte) []byte {
	key := make([]byte, len(nibbles)+1)
	copy(key, nibbles)
	key[len(nibbles)] = terminator
	return key
}

// copyNibbles returns an independent copy of a nibble path, nil for an empty one.
func copyNibbles(path []byte) []byte {
	if len(path) == 0 {
		return nil
	}
	cpy := make([]byte, len(path))
	copy(cpy, path)
	return cpy
}

// appendNibbles returns path extended with the given nibbles, never aliasing
// the backing array of path.
func appendNibbles(path []byte, nibbles ...byte) []byte {
	out := make([]byte, 0, len(path)+len(nibbles))
	out = append(out, path...)
	return append(out, nibbles...)
}
