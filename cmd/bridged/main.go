// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command bridged is the bridge operator daemon: it wires a Chain-Z
// JSON-RPC client, a Chain-E client, and the operator's keys into
// internal/driver's reconciliation loop. Three subcommands cover the
// daemon's lifecycle:
//
//	bridged deploy   bootstraps a fresh STF anchor on Chain-Z
//	bridged run      runs the reconciliation loop until killed
//	bridged demo     runs the scripted round trip over in-memory doubles
package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgecfg"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgelog"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgeutil"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzwallet"
	"github.com/matter-labs/zcash-eth-bridge/internal/driver"
	"github.com/matter-labs/zcash-eth-bridge/internal/e2e"
	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: bridged <deploy|run|demo> [flags]")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "deploy":
		err = runDeploy(os.Args[2:])
	case "run":
		err = runDaemon(os.Args[2:])
	case "demo":
		err = runDemo(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "bridged: unknown subcommand %q\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridged: %v\n", err)
		os.Exit(1)
	}
}

func loadAndInit(args []string) (*bridgecfg.Config, error) {
	cfg, err := bridgecfg.Load(args)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.LogDir != "" {
		if err := bridgelog.InitLogRotator(cfg.LogDir + string(os.PathSeparator) + "bridged.log"); err != nil {
			return nil, fmt.Errorf("init log rotator: %w", err)
		}
	}
	if err := bridgelog.SetLogLevels(cfg.DebugLevel); err != nil {
		return nil, fmt.Errorf("set log level: %w", err)
	}
	return cfg, nil
}

// parseStfIdentifier decodes cfg.StfIdentifier into its fixed-size form.
func parseStfIdentifier(hexStr string) ([32]byte, error) {
	var id [32]byte
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return id, fmt.Errorf("decode stf identifier: %w", err)
	}
	if len(raw) != 32 {
		return id, fmt.Errorf("stf identifier must be 32 bytes, got %d", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func dialChainE(ctx context.Context, cfg *bridgecfg.Config) (*chainerpc.Client, *ecdsa.PrivateKey, error) {
	key, err := ethcrypto.HexToECDSA(cfg.ChainEPrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("parse chain-e private key: %w", err)
	}
	client, err := chainerpc.Dial(ctx, cfg.ChainERPCURL,
		common.HexToAddress(cfg.BridgeAddress), common.HexToAddress(cfg.WZecAddress),
		key, new(big.Int).SetUint64(cfg.ChainEChainID))
	if err != nil {
		return nil, nil, fmt.Errorf("dial chain-e: %w", err)
	}
	return client, key, nil
}

// runDeploy bootstraps a fresh STF anchor: CREATE then STF-init.
func runDeploy(args []string) error {
	cfg, err := loadAndInit(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chainZ := chainzrpc.NewJSONRPCClient(cfg.ChainZRPCURL)
	wallet, err := chainzwallet.FromMnemonic(cfg.ChainZMnemonic)
	if err != nil {
		return fmt.Errorf("chain-z wallet: %w", err)
	}
	stfID, err := parseStfIdentifier(cfg.StfIdentifier)
	if err != nil {
		return err
	}
	var rootHash [32]byte
	rootHash[0] = 0xcd

	height, err := chainZ.GetBlockCount(ctx)
	if err != nil {
		return fmt.Errorf("get chain-z height: %w", err)
	}
	feeTxID, err := chainztx.SpendableCoinbaseTxID(ctx, chainzrpc.BlockSource(chainZ), height)
	if err != nil {
		return fmt.Errorf("find spendable fee coin: %w", err)
	}

	lockInValue := bridgetypes.Zatoshis(cfg.LockInValue)
	stfState, stfTxID, err := txbuilder.Deploy(ctx, chainZ, wallet, feeTxID, stfID, rootHash, lockInValue, bridgeutil.WaitForTx)
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	bridgelog.Driver.Infof("deployed stf anchor %s:%d (tx %s)", stfState.Outpoint.Hash, stfState.Outpoint.Index, stfTxID)
	return nil
}

// runDaemon runs the reconciliation loop until interrupted, recovering
// its state from both chains on startup.
func runDaemon(args []string) error {
	cfg, err := loadAndInit(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chainZ := chainzrpc.NewJSONRPCClient(cfg.ChainZRPCURL)
	chainE, _, err := dialChainE(ctx, cfg)
	if err != nil {
		return err
	}
	wallet, err := chainzwallet.FromMnemonic(cfg.ChainZMnemonic)
	if err != nil {
		return fmt.Errorf("chain-z wallet: %w", err)
	}
	stfID, err := parseStfIdentifier(cfg.StfIdentifier)
	if err != nil {
		return err
	}
	var rootHash [32]byte
	rootHash[0] = 0xcd

	d := driver.New(chainZ, chainE, wallet, stfID, rootHash)

	state, err := d.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover state: %w", err)
	}
	bridgelog.Driver.Infof("recovered state: zec=%d eth=%d deposited=%d",
		state.LastChainZScanned, state.LastChainEScanned, state.Deposited)

	return d.Run(ctx, state)
}

// runDemo runs the scripted deposit/withdrawal round trip over in-memory
// doubles, the CLI entry point for internal/e2e.
func runDemo(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	demo, err := e2e.New(ctx)
	if err != nil {
		return fmt.Errorf("set up demo: %w", err)
	}

	var ethRecipient [20]byte
	copy(ethRecipient[:], common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8").Bytes())

	bridgelog.Driver.Info("submitting zcash->ethereum deposit")
	depositHeight, err := demo.DepositZec(ctx, ethRecipient, e2e.DepositAmount)
	if err != nil {
		return fmt.Errorf("deposit zec: %w", err)
	}
	bridgelog.Driver.Infof("deposit mined at height %d, waiting for the bridge to process it", depositHeight)
	if err := demo.WaitForBridgeZec(ctx, depositHeight); err != nil {
		return fmt.Errorf("wait for bridge (zec): %w", err)
	}
	bridgelog.Driver.Info("deposit processed on the bridge")

	receiverKey, err := demo.ZcashReceiverKey()
	if err != nil {
		return fmt.Errorf("derive zcash receiver key: %w", err)
	}
	bridgelog.Driver.Info("submitting ethereum->zcash withdrawal")
	withdrawBlock := demo.WithdrawZec(receiverKey.PubKeyHash(), e2e.DepositAmount)
	bridgelog.Driver.Infof("withdrawal requested in block %d, waiting for the bridge to process it", withdrawBlock)
	if err := demo.WaitForBridgeEth(ctx, withdrawBlock); err != nil {
		return fmt.Errorf("wait for bridge (eth): %w", err)
	}

	bridgelog.Driver.Infof("withdrawal processed on the bridge; %d state update(s) submitted", len(demo.Submitted()))
	return nil
}
