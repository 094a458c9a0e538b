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

// Package witnessdb implements the content addressed store that receives the
// trie nodes rebuilt from a witness. Nodes are keyed by the keccak256 hash of
// their encoding, using the legacy hash-based trie node scheme.
//
// 包 witnessdb 实现接收见证重建节点的内容寻址存储，节点以其编码的 keccak256 哈希为键
// （即基于哈希的旧版 trie 节点存储方案）。
package witnessdb

import (
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/gofrs/flock"
)

var (
	cleanHitMeter  = metrics.NewRegisteredMeter("witnessdb/clean/hit", nil)
	cleanMissMeter = metrics.NewRegisteredMeter("witnessdb/clean/miss", nil)

	writeNodesMeter = metrics.NewRegisteredMeter("witnessdb/write/nodes", nil)
	writeBytesMeter = metrics.NewRegisteredMeter("witnessdb/write/bytes", nil)
	writeDupMeter   = metrics.NewRegisteredMeter("witnessdb/write/dup", nil)
)

var (
	// ErrHashMismatch is returned by a verifying store when a blob does not
	// hash to the key it is written or read under.
	// ErrHashMismatch 当 blob 的哈希与其键不一致时由校验模式的存储返回。
	ErrHashMismatch = errors.New("node hash mismatch")

	// ErrMissingNode is returned when a requested node is not in the store.
	ErrMissingNode = errors.New("missing trie node")
)

// Database is a write-once node store over a key-value backend. Writes are
// idempotent: since keys are content hashes, a key that is already present
// necessarily holds the same blob and is not written again.
//
// It is safe for concurrent use, several reconstructions may share one
// Database.
//
// Database 是基于键值后端的一次写入节点存储。写入是幂等的：键为内容哈希，
// 已存在的键必然对应相同的 blob，不会被重复写入。可以被多个重建过程并发共享。
type Database struct {
	diskdb ethdb.KeyValueStore // Persistent storage of the rebuilt nodes 重建节点的持久化存储
	cleans *fastcache.Cache    // Cache of nodes known to be on disk 已落盘节点的缓存
	verify bool                // Whether blobs are checked against their hash 是否校验 blob 的哈希
	logger log.Logger

	dirLock *flock.Flock // Lock of the data directory, nil for in-memory stores 数据目录锁
}

// New wraps diskdb into a node store. A nil config means Defaults.
// New 将 diskdb 封装为节点存储。config 为 nil 时使用 Defaults。
func New(diskdb ethdb.KeyValueStore, config *Config) *Database {
	if config == nil {
		config = Defaults
	}
	var cleans *fastcache.Cache
	if config.CleanCacheSize > 0 {
		cleans = fastcache.New(config.CleanCacheSize)
	}
	return &Database{
		diskdb: diskdb,
		cleans: cleans,
		verify: config.Verify,
		logger: log.New("module", "witnessdb"),
	}
}

// Put stores blob under hash unless it is already present.
// Put 在 hash 尚不存在时以其为键存储 blob。
func (db *Database) Put(hash common.Hash, blob []byte) error {
	if db.verify {
		if have := crypto.Keccak256Hash(blob); have != hash {
			return fmt.Errorf("%w: key %x, blob hash %x", ErrHashMismatch, hash, have)
		}
	}
	if db.cleans != nil && db.cleans.Has(hash[:]) {
		cleanHitMeter.Mark(1)
		writeDupMeter.Mark(1)
		return nil
	}
	if rawdb.HasLegacyTrieNode(db.diskdb, hash) {
		writeDupMeter.Mark(1)
		db.remember(hash, blob)
		return nil
	}
	if err := db.diskdb.Put(hash.Bytes(), blob); err != nil {
		return err
	}
	db.remember(hash, blob)

	writeNodesMeter.Mark(1)
	writeBytesMeter.Mark(int64(len(blob)))
	db.logger.Trace("Stored trie node", "hash", hash, "size", len(blob))
	return nil
}

func (db *Database) remember(hash common.Hash, blob []byte) {
	if db.cleans != nil {
		db.cleans.Set(hash[:], blob)
	}
}

// Node retrieves the blob stored under hash.
// Node 检索以 hash 为键存储的 blob。
func (db *Database) Node(hash common.Hash) ([]byte, error) {
	if db.cleans != nil {
		if enc := db.cleans.Get(nil, hash[:]); enc != nil {
			cleanHitMeter.Mark(1)
			return enc, nil
		}
		cleanMissMeter.Mark(1)
	}
	enc := rawdb.ReadLegacyTrieNode(db.diskdb, hash)
	if len(enc) == 0 {
		return nil, fmt.Errorf("%w: %x", ErrMissingNode, hash)
	}
	if db.verify {
		if have := crypto.Keccak256Hash(enc); have != hash {
			return nil, fmt.Errorf("%w: key %x, blob hash %x", ErrHashMismatch, hash, have)
		}
	}
	db.remember(hash, enc)
	return enc, nil
}

// Has reports whether a node is stored under hash.
func (db *Database) Has(hash common.Hash) bool {
	if db.cleans != nil && db.cleans.Has(hash[:]) {
		return true
	}
	return rawdb.HasLegacyTrieNode(db.diskdb, hash)
}

// Disk returns the underlying key-value store.
// Disk 返回底层的键值存储。
func (db *Database) Disk() ethdb.KeyValueStore {
	return db.diskdb
}

// Len returns the number of stored entries for backends that can count them
// cheaply (the in-memory one), -1 otherwise.
func (db *Database) Len() int {
	if counter, ok := db.diskdb.(interface{ Len() int }); ok {
		return counter.Len()
	}
	return -1
}

// Close releases the clean cache, closes the backend and unlocks the data
// directory.
//
// Close 释放干净缓存，关闭后端并解锁数据目录。
func (db *Database) Close() error {
	if db.cleans != nil {
		db.cleans.Reset()
	}
	err := db.diskdb.Close()
	if db.dirLock != nil {
		if uerr := db.dirLock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}
