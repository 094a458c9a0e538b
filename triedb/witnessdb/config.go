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

package witnessdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/ethdb/pebble"
	"github.com/gofrs/flock"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Supported storage backends. The disk engines use the same names as the
// geth database flag.
const (
	BackendMemory  = "memory"
	BackendLevelDB = rawdb.DBLeveldb
	BackendPebble  = rawdb.DBPebble
)

// ErrDatadirUsed is returned if the data directory is locked by another
// process.
var ErrDatadirUsed = errors.New("datadir already used by another process")

const (
	minCache   = 16 // Minimum cache allowance in megabytes 最小缓存（MB）
	minHandles = 16 // Minimum number of open file handles 最小文件句柄数
)

// Config contains the settings of the node store.
// Config 包含节点存储的设置。
type Config struct {
	Backend        string // One of memory, leveldb or pebble 存储后端
	Directory      string // Data directory of the disk backends 磁盘后端的数据目录
	Cache          int    // Disk backend cache allowance in megabytes 磁盘后端缓存（MB）
	Handles        int    // Disk backend open file handles 磁盘后端文件句柄数
	CleanCacheSize int    // Memory allowance (in bytes) for caching written nodes 已写入节点缓存的内存上限（字节）
	Verify         bool   // Check keccak256(blob) == hash on every write and read 每次读写时校验哈希
	ReadOnly       bool   // Open the disk backend read only 以只读方式打开磁盘后端
	Namespace      string // Metrics namespace of the disk backend 磁盘后端的指标命名空间
}

// Defaults is the default setting for the node store: an in-memory backend
// without clean cache.
//
// Defaults 是节点存储的默认设置：内存后端，不使用干净缓存。
var Defaults = &Config{
	Backend:        BackendMemory,
	Cache:          minCache,
	Handles:        minHandles,
	CleanCacheSize: 0,
	Namespace:      "witnessdb/disk/",
}

// sanitize returns a copy of the config with missing values filled in.
func (c *Config) sanitize() *Config {
	conf := *c
	if conf.Backend == "" {
		conf.Backend = BackendMemory
	}
	if conf.Cache < minCache {
		conf.Cache = minCache
	}
	if conf.Handles < minHandles {
		conf.Handles = minHandles
	}
	return &conf
}

// Open creates the backend selected by the config and wraps it into a node
// store. A nil config means Defaults.
//
// Open 根据配置创建存储后端，并将其封装为节点存储。
func Open(config *Config) (*Database, error) {
	if config == nil {
		config = Defaults
	}
	config = config.sanitize()

	if config.Backend == BackendMemory {
		return New(memorydb.New(), config), nil
	}
	if config.Directory == "" {
		return nil, fmt.Errorf("%s backend requires a data directory", config.Backend)
	}
	if config.Backend != BackendLevelDB && config.Backend != BackendPebble {
		return nil, fmt.Errorf("unknown database engine %q", config.Backend)
	}
	lock, err := lockDirectory(config.Directory, config.ReadOnly)
	if err != nil {
		return nil, err
	}
	// The engine keeps its files in a subdirectory, next to the directory lock.
	// 数据库引擎的文件位于子目录中，与目录锁并列。
	dir := filepath.Join(config.Directory, "nodes")

	var diskdb ethdb.KeyValueStore
	switch config.Backend {
	case BackendLevelDB:
		diskdb, err = leveldb.NewCustom(dir, config.Namespace, func(options *opt.Options) {
			options.OpenFilesCacheCapacity = config.Handles
			options.BlockCacheCapacity = config.Cache / 2 * opt.MiB
			options.WriteBuffer = config.Cache / 4 * opt.MiB // Two of these are used internally
			options.ReadOnly = config.ReadOnly
		})
	case BackendPebble:
		diskdb, err = pebble.New(dir, config.Cache, config.Handles, config.Namespace, config.ReadOnly)
	}
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open %s database at %s: %w", config.Backend, dir, err)
	}
	db := New(diskdb, config)
	db.dirLock = lock
	return db, nil
}

// lockDirectory takes the lock of a data directory, creating the directory
// if needed. Read only users share the lock.
//
// lockDirectory 获取数据目录的锁（必要时创建目录），只读用户共享该锁。
func lockDirectory(dir string, shared bool) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(dir, "LOCK"))

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = lock.TryRLock()
	} else {
		locked, err = lock.TryLock()
	}
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDatadirUsed, dir)
	}
	return lock, nil
}
