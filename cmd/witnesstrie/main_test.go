// Copyright 2025 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/s1na/eth-witness/trie"
	"github.com/s1na/eth-witness/triedb/witnessdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashA = "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"
	hashB = "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
)

func runApp(args ...string) error {
	return app.Run(append([]string{"witnesstrie", "--verbosity", "0"}, args...))
}

func writeWitness(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildCommand(t *testing.T) {
	path := writeWitness(t, "block.json", `{"trees": [["hash", "`+hashA+`"], ""], "roots": ["`+hashA+`"]}`)
	assert.NoError(t, runApp("build", path))
	assert.Error(t, runApp("build"))
	assert.Error(t, runApp("build", filepath.Join(t.TempDir(), "missing.json")))
}

func TestVerifyCommand(t *testing.T) {
	path := writeWitness(t, "block.yaml", `[hash, "`+hashA+`"]`)

	assert.NoError(t, runApp("verify", "--root", hashA, path))

	err := runApp("verify", "--root", hashB, path)
	assert.ErrorIs(t, err, trie.ErrRootMismatch)

	// Without an expected root there is nothing to verify against.
	assert.Error(t, runApp("verify", path))
	assert.Error(t, runApp("verify", "--root", "0x1234", path))
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, runApp("inspect", hashA))

	// Store a branch node through the build command, then read it back.
	doc := `[branch, [[leaf, "0x1000000000000000000000000000000000000001", 1, 1000], "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""]]`
	path := writeWitness(t, "block.yaml", doc)
	require.NoError(t, runApp("--datadir", dir, "build", path))

	db, err := witnessdb.Open(&witnessdb.Config{Backend: witnessdb.BackendPebble, Directory: dir, ReadOnly: true})
	require.NoError(t, err)
	var stored []common.Hash
	it := db.Disk().NewIterator(nil, nil)
	for it.Next() {
		require.Equal(t, crypto.Keccak256(it.Value()), it.Key())
		stored = append(stored, common.BytesToHash(it.Key()))
	}
	it.Release()
	require.NoError(t, db.Close())
	require.Len(t, stored, 2)

	for _, hash := range stored {
		assert.NoError(t, runApp("--datadir", dir, "inspect", hash.Hex()))
	}
	err = runApp("--datadir", dir, "inspect", hashB)
	assert.ErrorIs(t, err, witnessdb.ErrMissingNode)
}

func TestLogFile(t *testing.T) {
	witnessPath := writeWitness(t, "block.json", `["hash", "`+hashA+`"]`)
	logPath := filepath.Join(t.TempDir(), "logs", "witnesstrie.log")

	require.NoError(t, runApp("--verbosity", "3", "--log.file", logPath, "--log.format", "logfmt", "build", witnessPath))
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Rebuilt witness tries")

	assert.Error(t, runApp("--log.format", "xml", "build", witnessPath))
}

func TestDumpConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, runApp("--verify-writes", "dumpconfig", out))

	var cfg witnesstrieConfig
	require.NoError(t, loadConfig(out, &cfg))
	assert.True(t, cfg.Database.Verify)
	assert.Equal(t, witnessdb.BackendMemory, cfg.Database.Backend)
}
