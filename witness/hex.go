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
	"encoding/json"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Witness producers are known to drop the 0x prefix of hashes and storage
// values now and then. All hex input goes through NormalizeHex first, so the
// rest of the package only ever sees prefixed strings.
//
// 见证生成方有时会省略哈希和存储值的 0x 前缀。所有十六进制输入都先经过 NormalizeHex，
// 因此包内其余部分只会看到带前缀的字符串。

// NormalizeHex returns s with a lower case 0x prefix, adding one if missing.
// NormalizeHex 返回带小写 0x 前缀的 s，缺失时补上。
func NormalizeHex(s string) string {
	if has0xPrefix(s) {
		return "0x" + s[2:]
	}
	return "0x" + s
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ParseBytes decodes a hex string (prefix optional, odd length left padded
// with a zero nibble) into bytes. Byte fields must be strings: a number has
// lost the leading zeros and the base of the digits it was written with.
//
// ParseBytes 将十六进制字符串（前缀可选，奇数长度左侧补零）解码为字节。
// 字节字段必须是字符串：数字已经丢失了前导零和书写时的进制。
func ParseBytes(v interface{}) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: hex value must be a string, have %T", ErrMalformedWitness, v)
	}
	s = NormalizeHex(s)
	if len(s)%2 == 1 {
		s = "0x0" + s[2:]
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex %q: %v", ErrMalformedWitness, v, err)
	}
	return b, nil
}

// ParseHash decodes a 32 byte hash given as hex string, prefix optional.
func ParseHash(v interface{}) (common.Hash, error) {
	s, ok := v.(string)
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: hash must be a string, have %T", ErrMalformedWitness, v)
	}
	b, err := ParseBytes(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: hash %q has %d bytes, want %d", ErrMalformedWitness, s, len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

// ParseNibbles turns every hex digit of s into one nibble. No byte packing
// happens, so an odd number of digits yields an odd number of nibbles.
//
// ParseNibbles 将 s 的每个十六进制字符转换为一个半字节，不做字节打包。
func ParseNibbles(s string) ([]byte, error) {
	if has0xPrefix(s) {
		s = s[2:]
	}
	nibbles := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9':
			nibbles[i] = c - '0'
		case 'a' <= c && c <= 'f':
			nibbles[i] = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			nibbles[i] = c - 'A' + 10
		default:
			return nil, fmt.Errorf("%w: invalid hex digit %q in %q", ErrMalformedWitness, c, s)
		}
	}
	return nibbles, nil
}

// ParseUint64 decodes an integer field (nonce, nibble count) that must fit
// into 64 bits.
func ParseUint64(v interface{}) (uint64, error) {
	n, err := parseInteger(v)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: integer %v overflows uint64", ErrMalformedWitness, v)
	}
	return n.Uint64(), nil
}

// ParseUint256 decodes an integer field (balance) of up to 256 bits.
func ParseUint256(v interface{}) (*uint256.Int, error) {
	return parseInteger(v)
}

// parseInteger accepts the integer spellings found in JSON and YAML witness
// files: JSON numbers, YAML integers, 0x prefixed hex and decimal strings.
//
// parseInteger 接受 JSON 与 YAML 见证文件中出现的整数写法。
func parseInteger(v interface{}) (*uint256.Int, error) {
	switch v := v.(type) {
	case json.Number:
		n, err := uint256.FromDecimal(string(v))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer %q: %v", ErrMalformedWitness, v, err)
		}
		return n, nil
	case int:
		if v < 0 {
			return nil, fmt.Errorf("%w: negative integer %d", ErrMalformedWitness, v)
		}
		return uint256.NewInt(uint64(v)), nil
	case int64:
		if v < 0 {
			return nil, fmt.Errorf("%w: negative integer %d", ErrMalformedWitness, v)
		}
		return uint256.NewInt(uint64(v)), nil
	case uint64:
		return uint256.NewInt(v), nil
	case uint:
		return uint256.NewInt(uint64(v)), nil
	case float64:
		// Plain encoding/json without UseNumber. Only exact integers are safe.
		if v < 0 || v != math.Trunc(v) || v > 1<<53 {
			return nil, fmt.Errorf("%w: non integral or imprecise number %v", ErrMalformedWitness, v)
		}
		return uint256.NewInt(uint64(v)), nil
	case string:
		if has0xPrefix(v) {
			b, err := ParseBytes(v)
			if err != nil {
				return nil, err
			}
			if len(b) > 32 {
				return nil, fmt.Errorf("%w: integer %q exceeds 256 bits", ErrMalformedWitness, v)
			}
			return new(uint256.Int).SetBytes(b), nil
		}
		n, err := uint256.FromDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer %q: %v", ErrMalformedWitness, v, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: expected integer, have %T", ErrMalformedWitness, v)
	}
}
