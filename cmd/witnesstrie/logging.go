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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log.format",
		Usage: "Log format to use (json|logfmt|terminal)",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a file",
	}
	logRotateFlag = &cli.BoolFlag{
		Name:  "log.rotate",
		Usage: "Enables log file rotation",
	}
	logMaxSizeMBsFlag = &cli.IntFlag{
		Name:  "log.maxsize",
		Usage: "Maximum size in MBs of a single log file",
		Value: 100,
	}
	logMaxBackupsFlag = &cli.IntFlag{
		Name:  "log.maxbackups",
		Usage: "Maximum number of log files to retain",
		Value: 10,
	}
	logCompressFlag = &cli.BoolFlag{
		Name:  "log.compress",
		Usage: "Compress the log files",
	}
)

// logFlags are the flags of setupLogging.
var logFlags = []cli.Flag{
	verbosityFlag,
	logFormatFlag,
	logFileFlag,
	logRotateFlag,
	logMaxSizeMBsFlag,
	logMaxBackupsFlag,
	logCompressFlag,
}

// logOutputFile is the log file opened by setupLogging, if any.
var logOutputFile io.WriteCloser

// setupLogging installs the root log handler according to the flags. Logs
// go to stderr, and also to a file when --log.file or --log.rotate is set.
//
// setupLogging 根据标志安装根日志处理器。日志写入 stderr，设置 --log.file 或
// --log.rotate 时同时写入文件。
func setupLogging(ctx *cli.Context) error {
	var (
		terminalOutput = io.Writer(os.Stderr)
		output         io.Writer
		handler        slog.Handler
		level          = log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
		logFile        = ctx.String(logFileFlag.Name)
		rotation       = ctx.Bool(logRotateFlag.Name)
	)
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
			return fmt.Errorf("failed to initialize file logger: %v", err)
		}
	}
	switch {
	case rotation:
		// Lumberjack uses <processname>-lumberjack.log in os.TempDir() if empty.
		// 文件名为空时，Lumberjack 使用 os.TempDir() 中的 <进程名>-lumberjack.log。
		logOutputFile = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    ctx.Int(logMaxSizeMBsFlag.Name),
			MaxBackups: ctx.Int(logMaxBackupsFlag.Name),
			Compress:   ctx.Bool(logCompressFlag.Name),
		}
		output = io.MultiWriter(terminalOutput, logOutputFile)
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		logOutputFile = f
		output = io.MultiWriter(terminalOutput, logOutputFile)
	default:
		output = terminalOutput
	}

	switch format := ctx.String(logFormatFlag.Name); format {
	case "json":
		handler = log.JSONHandlerWithLevel(output, level)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(output, level)
	case "", "terminal":
		// Color only when nothing but the terminal is written to.
		// 仅在只输出到终端时使用颜色。
		useColor := logOutputFile == nil && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		if useColor {
			output = colorable.NewColorableStderr()
		}
		handler = log.NewTerminalHandlerWithLevel(output, level, useColor)
	default:
		return fmt.Errorf("unknown log format: %v", format)
	}
	log.SetDefault(log.NewLogger(handler))
	return nil
}

// closeLogging flushes and closes the log file, if there is one.
func closeLogging() error {
	if logOutputFile == nil {
		return nil
	}
	err := logOutputFile.Close()
	logOutputFile = nil
	return err
}
