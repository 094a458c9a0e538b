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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the file encoding of a witness document.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format by file extension. Anything that is not
// .yaml or .yml is treated as JSON.
// FormatFromPath 根据文件扩展名选择格式，非 .yaml/.yml 均视为 JSON。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Unmarshal decodes data into the generic value tree accepted by Decode.
// JSON numbers are kept as json.Number so that balances above 2^53 survive.
// YAML scalars are kept as their literal text: an unquoted 0x00ab stays the
// string "0x00ab" instead of becoming the integer 171.
//
// Unmarshal 将 data 解码为 Decode 接受的通用值树。JSON 数字保留为 json.Number，
// 以免超过 2^53 的余额丢失精度；YAML 标量保留其字面文本，未加引号的 0x00ab
// 仍是字符串 "0x00ab"，而不会变成整数 171。
func Unmarshal(data []byte, format Format) (interface{}, error) {
	switch format {
	case JSON:
		var v interface{}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case YAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return yamlValue(&doc)
	default:
		return nil, fmt.Errorf("unknown witness format %v", format)
	}
}

// yamlValue converts a YAML node into lists, string keyed maps and strings.
// Only null and boolean scalars are resolved, everything else keeps its
// source text.
func yamlValue(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case 0:
		return nil, nil // empty document
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.SequenceNode:
		list := make([]interface{}, len(n.Content))
		for i, item := range n.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", key.Line)
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key.Value] = v
		}
		return m, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		default:
			return n.Value, nil // !!str, !!int, !!float and custom tags
		}
	default:
		return nil, fmt.Errorf("line %d: unexpected yaml node kind %v", n.Line, n.Kind)
	}
}

// Load reads a single witness document from r and decodes it.
// Load 从 r 读取单个见证文档并解码。
func Load(r io.Reader, format Format) (Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedWitness, format, err)
	}
	return Decode(raw)
}

// LoadFile reads and decodes the witness document stored at path.
func LoadFile(path string) (Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := Load(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
