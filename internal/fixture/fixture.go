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

// Package fixture loads witness test fixtures and rebuilds the tries they
// describe.
//
// A fixture document holds a list of witness trees and, optionally, the
// expected root hash of each:
//
//	trees:
//	  - branch: [...]
//	roots:
//	  - "0xd7f8974f..."
//
// A document without a trees key is read as a single witness tree.
//
// 包 fixture 加载见证测试夹具并重建其中描述的 trie。
package fixture

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"github.com/s1na/eth-witness/trie"
	"github.com/s1na/eth-witness/witness"
	"golang.org/x/sync/errgroup"
)

// Fixture is a set of witness trees with their expected roots.
// Fixture 是一组见证树及其期望的根哈希。
type Fixture struct {
	Trees []witness.Node
	Roots []common.Hash // Expected roots by tree index, zero or missing means unchecked
}

// Root returns the expected root of tree i, the zero hash if there is none.
func (fx *Fixture) Root(i int) common.Hash {
	if i < len(fx.Roots) {
		return fx.Roots[i]
	}
	return common.Hash{}
}

// LoadFile reads the fixture stored at path, picking JSON or YAML by its
// extension.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fx, err := Parse(data, witness.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// Parse decodes a fixture document.
// Parse 解码夹具文档。
func Parse(data []byte, format witness.Format) (*Fixture, error) {
	raw, err := witness.Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", witness.ErrMalformedWitness, format, err)
	}
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return single(raw)
	}
	trees, ok := doc["trees"]
	if !ok {
		return single(raw)
	}
	list, ok := trees.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: trees must be a list, have %T", witness.ErrMalformedWitness, trees)
	}
	fx := &Fixture{Trees: make([]witness.Node, len(list))}
	for i, tree := range list {
		n, err := witness.Decode(tree)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		fx.Trees[i] = n
	}
	if roots, ok := doc["roots"]; ok {
		items, ok := roots.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: roots must be a list, have %T", witness.ErrMalformedWitness, roots)
		}
		for i, item := range items {
			h, err := witness.ParseHash(item)
			if err != nil {
				return nil, fmt.Errorf("root %d: %w", i, err)
			}
			fx.Roots = append(fx.Roots, h)
		}
	}
	if root, ok := doc["root"]; ok && len(fx.Roots) == 0 {
		h, err := witness.ParseHash(root)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		fx.Roots = []common.Hash{h}
	}
	if len(fx.Roots) > len(fx.Trees) {
		return nil, fmt.Errorf("%w: %d roots for %d trees", witness.ErrMalformedWitness, len(fx.Roots), len(fx.Trees))
	}
	return fx, nil
}

func single(raw interface{}) (*Fixture, error) {
	n, err := witness.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Fixture{Trees: []witness.Node{n}}, nil
}

// Run rebuilds every tree of the fixture into db, in parallel, and checks the
// roots that are known. The results are returned in tree order. Tracer hooks
// in config are called from several goroutines.
//
// Run 将夹具中的每棵树并行重建到 db 中，并校验已知的根哈希，结果按树的顺序返回。
func Run(ctx context.Context, db trie.NodeWriter, fx *Fixture, config *trie.Config) ([]*trie.Result, error) {
	results := make([]*trie.Result, len(fx.Trees))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, tree := range fx.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := trie.NewBuilder(db, config).Build(tree)
			if err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			if want := fx.Root(i); want != (common.Hash{}) {
				if have := res.Hash(); have != want {
					return fmt.Errorf("tree %d: %w: have %x, want %x", i, trie.ErrRootMismatch, have, want)
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
