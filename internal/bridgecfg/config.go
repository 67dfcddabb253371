// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridgecfg parses the bridge daemon's configuration from a
// config file and command-line flags, layered the way dcrd's loadConfig
// does it with go-flags.
package bridgecfg

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "bridged.conf"
	defaultLogFilename    = "bridged.log"
	defaultStfIdentifier  = "0000000000000000000000000000000000000000000000000000000000000001"
)

// Config holds the daemon's required inputs: two RPC endpoints, two
// contract addresses, the operator's Chain-E key, the operator's Chain-Z
// mnemonic, the deployment's stf identifier, and the lock-in dust floor.
type Config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems" default:"info"`

	ChainZRPCURL string `long:"zcashrpc" description:"Chain-Z JSON-RPC endpoint" required:"true"`
	ChainERPCURL string `long:"ethrpc" description:"Chain-E JSON-RPC endpoint" required:"true"`

	BridgeAddress string `long:"bridgeaddress" description:"Chain-E bridge contract address (hex)" required:"true"`
	WZecAddress   string `long:"wzecaddress" description:"Chain-E wrapped-token contract address (hex)" required:"true"`

	ChainEPrivateKey string `long:"ethkey" description:"Chain-E operator private key (hex, no 0x)" required:"true"`
	ChainZMnemonic   string `long:"zcashmnemonic" description:"Chain-Z operator BIP-39 mnemonic"`

	StfIdentifier string `long:"stfidentifier" description:"32-byte deployment identifier (hex)" default:"0000000000000000000000000000000000000000000000000000000000000001"`
	LockInValue   uint64 `long:"lockinvalue" description:"Dust-avoidance floor locked into the STF anchor" default:"100000"`

	ChainEChainID uint64 `long:"ethchainid" description:"Chain-E EIP-155 chain id"`
}

// defaultConfig returns the Config that Load starts from: the defaults the
// struct tags declare, plus a LogDir under the user's home directory,
// which has no struct-tag default.
func defaultConfig() Config {
	return Config{
		LogDir:        defaultAppDataDir("logs"),
		DebugLevel:    "info",
		StfIdentifier: defaultStfIdentifier,
		LockInValue:   100_000,
	}
}

// Load parses args (the arguments after the subcommand, os.Args[2:] in
// cmd/bridged) into a Config. A config file
// is honored first if ConfigFile or the default path exists, then
// overridden by any flags present in args, using go-flags' IniParser +
// flags.Parse layering.
func Load(args []string) (*Config, error) {
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	_, _ = preParser.ParseArgs(args)

	configFile := preCfg.ConfigFile
	if configFile == "" {
		configFile = defaultConfigPath()
	}
	if _, statErr := os.Stat(configFile); statErr == nil {
		iniParser := flags.NewIniParser(parser)
		if err := iniParser.ParseFile(configFile); err != nil {
			return nil, fmt.Errorf("bridgecfg: parse config file %s: %w", configFile, err)
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, fmt.Errorf("bridgecfg: parse args: %w", err)
	}

	return &cfg, nil
}

func defaultAppDataDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".bridged", sub)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".bridged", defaultConfigFilename)
}
