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

// witnesstrie rebuilds state tries from block witnesses.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/s1na/eth-witness/internal/fixture"
	"github.com/s1na/eth-witness/trie"
	"github.com/s1na/eth-witness/triedb/witnessdb"
	"github.com/s1na/eth-witness/witness"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	dbEngineFlag = &cli.StringFlag{
		Name:  "db.engine",
		Usage: "Backing database implementation to use ('memory', 'leveldb' or 'pebble')",
		Value: witnessdb.BackendMemory,
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory of the node database",
	}
	cacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to the disk database",
		Value: witnessdb.Defaults.Cache,
	}
	cleanCacheFlag = &cli.IntFlag{
		Name:  "cache.clean",
		Usage: "Megabytes of memory allocated to caching written trie nodes",
	}
	verifyWritesFlag = &cli.BoolFlag{
		Name:  "verify-writes",
		Usage: "Check that every stored node hashes to its key",
	}
	storeCodeFlag = &cli.BoolFlag{
		Name:  "store-code",
		Usage: "Also store contract code found in account leaves",
	}
	rootFlag = &cli.StringFlag{
		Name:  "root",
		Usage: "Expected state root of the witness",
	}
)

var app = &cli.App{
	Name:                 "witnesstrie",
	Usage:                "rebuild Ethereum state tries from block witnesses",
	Copyright:            "Copyright 2025 The go-ethereum Authors",
	EnableBashCompletion: true,
	Flags: []cli.Flag{
		configFileFlag,
		dbEngineFlag,
		dataDirFlag,
		cacheFlag,
		cleanCacheFlag,
		verifyWritesFlag,
		storeCodeFlag,
	},
	Before: func(ctx *cli.Context) error {
		return setupLogging(ctx)
	},
	After: func(ctx *cli.Context) error {
		return closeLogging()
	},
	Commands: []*cli.Command{
		{
			Name:      "build",
			Usage:     "Rebuild the tries of a witness file and print their roots",
			ArgsUsage: "<witness file>",
			Action:    buildCmd,
		},
		{
			Name:      "verify",
			Usage:     "Rebuild the tries of a witness file and check them against the expected roots",
			ArgsUsage: "<witness file>",
			Flags:     []cli.Flag{rootFlag},
			Action:    verifyCmd,
		},
		{
			Name:      "inspect",
			Usage:     "Decode and print a stored trie node",
			ArgsUsage: "<hash>",
			Action:    inspectCmd,
		},
		{
			Name:      "dumpconfig",
			Usage:     "Export configuration values in a TOML format",
			ArgsUsage: "<dumpfile (optional)>",
			Action:    dumpConfig,
		},
	},
}

func init() {
	app.Flags = append(app.Flags, logFlags...)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase opens the node store described by the configuration.
func openDatabase(cfg *witnesstrieConfig) (*witnessdb.Database, error) {
	db, err := witnessdb.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Debug("Opened node database", "engine", cfg.Database.Backend, "datadir", cfg.Database.Directory)
	return db, nil
}

// rebuild loads the fixture named by the first argument and rebuilds all of
// its trees. Roots found in the file are checked.
func rebuild(ctx *cli.Context, override common.Hash) (*fixture.Fixture, []*trie.Result, error) {
	if ctx.NArg() != 1 {
		return nil, nil, errors.New("need exactly one witness file argument")
	}
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	fx, err := fixture.LoadFile(ctx.Args().First())
	if err != nil {
		return nil, nil, err
	}
	if override != (common.Hash{}) {
		if len(fx.Trees) != 1 {
			return nil, nil, fmt.Errorf("--%s needs a single tree, file has %d", rootFlag.Name, len(fx.Trees))
		}
		fx.Roots = []common.Hash{override}
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	start := time.Now()
	results, err := fixture.Run(ctx.Context, db, fx, &trie.Config{StoreCode: cfg.Builder.StoreCode})
	if err != nil {
		return nil, nil, err
	}
	log.Info("Rebuilt witness tries", "trees", len(results), "elapsed", common.PrettyDuration(time.Since(start)))
	return fx, results, nil
}

func printResults(results []*trie.Result) {
	for i, res := range results {
		stats := res.Stats()
		fmt.Printf("tree %d: root %x embedded=%v nodes=%d bytes=%d leaves=%d hashrefs=%d\n",
			i, res.Hash(), res.Embedded(), stats.Nodes, stats.Bytes, stats.Leaves, stats.HashRefs)
	}
}

func buildCmd(ctx *cli.Context) error {
	_, results, err := rebuild(ctx, common.Hash{})
	if err != nil {
		return err
	}
	printResults(results)
	return nil
}

func verifyCmd(ctx *cli.Context) error {
	var override common.Hash
	if s := ctx.String(rootFlag.Name); s != "" {
		h, err := witness.ParseHash(s)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", rootFlag.Name, err)
		}
		override = h
	}
	fx, results, err := rebuild(ctx, override)
	if err != nil {
		return err
	}
	for i := range results {
		if fx.Root(i) == (common.Hash{}) {
			return fmt.Errorf("tree %d has no expected root, pass --%s", i, rootFlag.Name)
		}
	}
	printResults(results)
	fmt.Println("all roots match")
	return nil
}

func inspectCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one hash argument")
	}
	hash, err := witness.ParseHash(ctx.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Database.Backend == witnessdb.BackendMemory {
		return fmt.Errorf("inspect needs a disk database, set --%s", dataDirFlag.Name)
	}
	cfg.Database.ReadOnly = true
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	blob, err := db.Node(hash)
	if err != nil {
		return err
	}
	n, err := trie.DecodeNode(hash, blob)
	if err != nil {
		return err
	}
	fmt.Printf("hash: %x\nkind: %s\nsize: %d\n%s\n", hash, n.Kind(), len(blob), n)
	return nil
}
