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
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedWitness is returned for any witness value that is not one of the
// known tagged shapes.
// ErrMalformedWitness 当见证值不属于已知的带标签结构时返回。
var ErrMalformedWitness = errors.New("malformed witness")

// Decode turns the generic value produced by a JSON or YAML decoder into a
// witness node tree. The whole tree is validated; the first problem found in
// depth-first order is reported together with its position.
//
// Decode 将 JSON 或 YAML 解码得到的通用值转换为见证节点树，整棵树都会被校验，
// 深度优先顺序中遇到的第一个问题连同其位置一起返回。
func Decode(v interface{}) (Node, error) {
	n, err := decode(v)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func decode(v interface{}) (Node, error) {
	switch v := v.(type) {
	case string:
		// Empty children in branches are sent as an empty string
		if len(v) > 0 {
			return nil, fmt.Errorf("%w: unexpected string %q", ErrMalformedWitness, v)
		}
		return Empty, nil
	case []interface{}:
		return decodeTagged(v)
	case map[string]interface{}:
		if len(v) != 1 {
			return nil, fmt.Errorf("%w: tagged mapping with %d keys", ErrMalformedWitness, len(v))
		}
		for tag, payload := range v {
			return decodeTagged(untag(tag, payload))
		}
	case map[interface{}]interface{}:
		if len(v) != 1 {
			return nil, fmt.Errorf("%w: tagged mapping with %d keys", ErrMalformedWitness, len(v))
		}
		for tag, payload := range v {
			s, ok := tag.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string tag %v", ErrMalformedWitness, tag)
			}
			return decodeTagged(untag(s, payload))
		}
	}
	return nil, fmt.Errorf("%w: unexpected value of type %T", ErrMalformedWitness, v)
}

// untag rewrites the mapping spelling {tag: payload} into [tag, payload...].
func untag(tag string, payload interface{}) []interface{} {
	if list, ok := payload.([]interface{}); ok {
		return append([]interface{}{tag}, list...)
	}
	return []interface{}{tag, payload}
}

func decodeTagged(list []interface{}) (Node, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrMalformedWitness)
	}
	tag, ok := list[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: non-string tag %v", ErrMalformedWitness, list[0])
	}
	switch tag {
	case TagHash:
		if len(list) != 2 {
			return nil, fmt.Errorf("%w: hash with %d items", ErrMalformedWitness, len(list)-1)
		}
		hash, err := ParseHash(list[1])
		if err != nil {
			return nil, err
		}
		return &HashNode{Hash: hash}, nil

	case TagBranch:
		if len(list) != 17 {
			return nil, fmt.Errorf("%w: branch with %d children, want 16", ErrMalformedWitness, len(list)-1)
		}
		n := new(BranchNode)
		for i := 0; i < 16; i++ {
			child, err := decode(list[i+1])
			if err != nil {
				return nil, wrapError(err, fmt.Sprintf("branch[%x]", i))
			}
			n.Children[i] = child
		}
		return n, nil

	case TagExtension:
		if len(list) != 3 {
			return nil, fmt.Errorf("%w: extension with %d items, want 2", ErrMalformedWitness, len(list)-1)
		}
		nibbles, err := decodeExtensionPath(list[1])
		if err != nil {
			return nil, wrapError(err, "extension")
		}
		child, err := decode(list[2])
		if err != nil {
			return nil, wrapError(err, "extension")
		}
		return &ExtensionNode{Nibbles: nibbles, Child: child}, nil

	case TagLeaf:
		key, fields, err := decodeLeaf(list)
		if err != nil {
			return nil, wrapError(err, "leaf")
		}
		// Contract leaves carry the storage witness as their last field.
		if len(fields) == 4 {
			storage, err := decode(fields[3])
			if err != nil {
				return nil, wrapError(wrapError(err, "storage"), "leaf")
			}
			fields = append(fields[:3:3], storage)
		}
		return &LeafNode{Key: key, Fields: fields}, nil

	case TagExclusionLeaf:
		key, fields, err := decodeLeaf(list)
		if err != nil {
			return nil, wrapError(err, "exclusion")
		}
		nibbles, err := ParseNibbles(key)
		if err != nil {
			return nil, wrapError(err, "exclusion")
		}
		// A producer packing an odd path into bytes loses the last nibble, so
		// odd keys are rejected. Exclusion leaves at odd depth are therefore
		// not supported.
		if len(nibbles)%2 != 0 {
			return nil, fmt.Errorf("%w: exclusion leaf key %q has odd length", ErrMalformedWitness, key)
		}
		return &ExclusionLeafNode{Key: key, Nibbles: nibbles, Fields: fields}, nil
	}
	return nil, fmt.Errorf("%w: unknown tag %q", ErrMalformedWitness, tag)
}

// decodeExtensionPath decodes [nibbleCount, nibbleHex]. The hex string holds
// one nibble per digit; when the count is odd it may carry a single trailing
// zero digit as padding.
//
// decodeExtensionPath 解码 [半字节数量, 半字节十六进制串]。
func decodeExtensionPath(v interface{}) ([]byte, error) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("%w: extension path must be [count, nibbles]", ErrMalformedWitness)
	}
	count, err := ParseUint64(pair[0])
	if err != nil {
		return nil, err
	}
	hex, ok := pair[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: extension nibbles must be a string, have %T", ErrMalformedWitness, pair[1])
	}
	nibbles, err := ParseNibbles(hex)
	if err != nil {
		return nil, err
	}
	switch {
	case count == 0:
		return nil, fmt.Errorf("%w: extension with empty path", ErrMalformedWitness)
	case uint64(len(nibbles)) == count:
	case count%2 == 1 && uint64(len(nibbles)) == count+1 && nibbles[count] == 0:
		nibbles = nibbles[:count]
	default:
		return nil, fmt.Errorf("%w: extension path %q does not hold %d nibbles", ErrMalformedWitness, hex, count)
	}
	return nibbles, nil
}

func decodeLeaf(list []interface{}) (string, []interface{}, error) {
	if len(list) < 2 {
		return "", nil, fmt.Errorf("%w: leaf without key", ErrMalformedWitness)
	}
	key, ok := list[1].(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: leaf key must be a string, have %T", ErrMalformedWitness, list[1])
	}
	return key, list[2:], nil
}

// decodeError wraps a decoding error with the position of the offending node.
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
	return fmt.Sprintf("%v (witness path: %s)", err.what, strings.Join(err.stack, "<-"))
}

func (err *decodeError) Unwrap() error {
	return err.what
}
