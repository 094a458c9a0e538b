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
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/s1na/eth-witness/triedb/witnessdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testConfig = `
[Database]
Backend = "leveldb"
Directory = "/tmp/witness"
Verify = true

[Builder]
StoreCode = true
`

// newContext returns a cli context with the global flags parsed from args.
func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	var cfg witnesstrieConfig
	require.NoError(t, loadConfig(writeConfig(t, testConfig), &cfg))
	assert.Equal(t, witnessdb.BackendLevelDB, cfg.Database.Backend)
	assert.Equal(t, "/tmp/witness", cfg.Database.Directory)
	assert.True(t, cfg.Database.Verify)
	assert.True(t, cfg.Builder.StoreCode)

	// Unknown keys are rejected, with the file name attached.
	path := writeConfig(t, "[Database]\nEngine = \"pebble\"\n")
	err := loadConfig(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "Engine")
}

func TestLoadBaseConfig(t *testing.T) {
	cfg, err := loadBaseConfig(newContext(t))
	require.NoError(t, err)
	assert.Equal(t, *witnessdb.Defaults, cfg.Database)
	assert.False(t, cfg.Builder.StoreCode)

	// Flags take precedence over the file.
	path := writeConfig(t, testConfig)
	cfg, err = loadBaseConfig(newContext(t, "--config", path, "--datadir", "/data", "--cache.clean", "4", "--store-code=false"))
	require.NoError(t, err)
	assert.Equal(t, witnessdb.BackendLevelDB, cfg.Database.Backend)
	assert.Equal(t, "/data", cfg.Database.Directory)
	assert.Equal(t, 4*1024*1024, cfg.Database.CleanCacheSize)
	assert.True(t, cfg.Database.Verify)
	assert.False(t, cfg.Builder.StoreCode)
}

func TestDataDirSelectsDisk(t *testing.T) {
	cfg, err := loadBaseConfig(newContext(t, "--datadir", "/data"))
	require.NoError(t, err)
	assert.Equal(t, witnessdb.BackendPebble, cfg.Database.Backend)

	cfg, err = loadBaseConfig(newContext(t, "--datadir", "/data", "--db.engine", "memory"))
	require.NoError(t, err)
	assert.Equal(t, witnessdb.BackendMemory, cfg.Database.Backend)
}

func TestConfigRoundTrip(t *testing.T) {
	var cfg witnesstrieConfig
	require.NoError(t, loadConfig(writeConfig(t, testConfig), &cfg))

	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)

	var again witnesstrieConfig
	require.NoError(t, loadConfig(writeConfig(t, string(out)), &again))
	assert.Equal(t, cfg, again)
}
