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
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/s1na/eth-witness/trie"
	"github.com/s1na/eth-witness/triedb/witnessdb"
	"github.com/urfave/cli/v2"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// builderConfig is the TOML view of trie.Config; hooks and loggers cannot be
// configured from a file.
type builderConfig struct {
	StoreCode bool
}

type witnesstrieConfig struct {
	Database witnessdb.Config
	Builder  builderConfig
}

func loadConfig(file string, cfg *witnesstrieConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadBaseConfig loads the configuration based on the given command line
// parameters and config file. Flags take precedence over the file.
func loadBaseConfig(ctx *cli.Context) (*witnesstrieConfig, error) {
	// Load defaults
	cfg := &witnesstrieConfig{
		Database: *witnessdb.Defaults,
		Builder:  builderConfig{StoreCode: trie.Defaults.StoreCode},
	}
	// Load config file.
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, cfg); err != nil {
			return nil, err
		}
	}
	// Apply flags.
	if ctx.IsSet(dbEngineFlag.Name) {
		cfg.Database.Backend = ctx.String(dbEngineFlag.Name)
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.Database.Directory = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(cacheFlag.Name) {
		cfg.Database.Cache = ctx.Int(cacheFlag.Name)
	}
	if ctx.IsSet(cleanCacheFlag.Name) {
		cfg.Database.CleanCacheSize = ctx.Int(cleanCacheFlag.Name) * 1024 * 1024
	}
	if ctx.IsSet(verifyWritesFlag.Name) {
		cfg.Database.Verify = ctx.Bool(verifyWritesFlag.Name)
	}
	if ctx.IsSet(storeCodeFlag.Name) {
		cfg.Builder.StoreCode = ctx.Bool(storeCodeFlag.Name)
	}
	// A data directory without an explicit engine means a disk database.
	if cfg.Database.Directory != "" && cfg.Database.Backend == witnessdb.BackendMemory && !ctx.IsSet(dbEngineFlag.Name) {
		cfg.Database.Backend = witnessdb.BackendPebble
	}
	return cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.WriteString("# Note: this config doesn't contain the tracer and logger settings.\n\n")
	dump.Write(out)
	return nil
}
