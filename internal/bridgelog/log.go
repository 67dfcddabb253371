// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridgelog wires up the bridge's subsystem loggers using the
// Decred ecosystem's usual slog.Backend + logrotate pair.
package bridgelog

import (
	"io"
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// subsystemTags name each subsystem logger, one per bridge component, the
// way dcrd's log.go keys a logger per package rather than using one
// global logger for everything.
const (
	tagDriver   = "DRVR"
	tagZcash    = "ZCSH"
	tagEth      = "ETHR"
	tagTxBuild  = "TXBD"
	tagWallet   = "WLLT"
	tagSubmit   = "SUBM"
)

var (
	backend = slog.NewBackend(os.Stdout)

	// Driver is the reconciliation loop's logger.
	Driver = backend.Logger(tagDriver)
	// Zcash is the Chain-Z RPC/watcher logger.
	Zcash = backend.Logger(tagZcash)
	// Eth is the Chain-E RPC/watcher logger.
	Eth = backend.Logger(tagEth)
	// TxBuild is the Chain-Z transaction builder's logger.
	TxBuild = backend.Logger(tagTxBuild)
	// Wallet is the key-derivation logger.
	Wallet = backend.Logger(tagWallet)
	// Submit is the Chain-E submitter's logger.
	Submit = backend.Logger(tagSubmit)
)

// subsystemLoggers lists every logger InitLogRotator and SetLogLevels walk,
// mirroring dcrd's subsystemLoggers map.
var subsystemLoggers = map[string]slog.Logger{
	tagDriver:  Driver,
	tagZcash:   Zcash,
	tagEth:     Eth,
	tagTxBuild: TxBuild,
	tagWallet:  Wallet,
	tagSubmit:  Submit,
}

// InitLogRotator creates a rotating log file at logFile and writes all
// subsystem output to both stdout and that file, mirroring dcrd's
// initLogRotator. It must be called before the loggers are used from more
// than one goroutine if logFile rotation is desired; callers that only
// want stdout logging can skip it entirely, since the package-level
// loggers default to stdout-only.
func InitLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	backend = slog.NewBackend(io.MultiWriter(os.Stdout, r))
	for tag, logger := range subsystemLoggers {
		level := logger.Level()
		newLogger := backend.Logger(tag)
		newLogger.SetLevel(level)
		subsystemLoggers[tag] = newLogger
	}
	Driver = subsystemLoggers[tagDriver]
	Zcash = subsystemLoggers[tagZcash]
	Eth = subsystemLoggers[tagEth]
	TxBuild = subsystemLoggers[tagTxBuild]
	Wallet = subsystemLoggers[tagWallet]
	Submit = subsystemLoggers[tagSubmit]
	return nil
}

// SetLogLevels sets every subsystem logger to levelStr (e.g. "debug",
// "info", "warn"), mirroring dcrd's setLogLevels used by the --debuglevel
// flag.
func SetLogLevels(levelStr string) error {
	level, ok := slog.LevelFromString(levelStr)
	if !ok {
		return errInvalidLogLevel(levelStr)
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
	return nil
}

type errInvalidLogLevel string

func (e errInvalidLogLevel) Error() string {
	return "invalid log level: " + string(e)
}
