// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package e2e scripts the full deposit-then-withdrawal round trip over
// in-memory doubles for both chains. It is wired into cmd/bridged's
// "demo" subcommand and exercised directly by this package's own tests,
// so the flow runs the same way whether it is driven by `go test` or by
// an operator kicking the tires on a fresh checkout.
package e2e

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzwallet"
	"github.com/matter-labs/zcash-eth-bridge/internal/driver"
	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
)

// DepositAmount is the zatoshi amount the demo deposits and later
// withdraws.
const DepositAmount bridgetypes.Zatoshis = 90_000

// ZcashReceiverAccount is the HD account index the demo derives its Zcash
// withdrawal address from. A distinct account index gives the receiver a
// separate identity from the miner/operator key at account 0.
const ZcashReceiverAccount = 1

// demoStfIdentifier and demoRootHash are the demo deployment's fixed
// anchor constants; the root hash is never verified by the bridge
// contract.
var (
	demoStfIdentifier = [32]byte{0x01}
	demoRootHash      = [32]byte{0xcd}
)

// Demo bundles a deployed bridge (Chain-Z fee coin funded, STF anchor
// initialized) on in-memory doubles for both chains, along with a Driver
// ready to reconcile batches between them.
type Demo struct {
	ChainZ *chainzrpc.MemClient
	ChainE *memChainE
	Wallet *chainzwallet.Wallet

	Driver *driver.Driver
	State  *driver.State
}

// waitForTxMining advances the in-memory chain by mining the named
// transaction and reports the resulting height, standing in for the real
// network wait a production WaitForTx performs.
func waitForTxMining(mem *chainzrpc.MemClient) func(context.Context, chainzrpc.Client, chainhash.Hash) (uint64, error) {
	return func(ctx context.Context, _ chainzrpc.Client, txid chainhash.Hash) (uint64, error) {
		tx, err := mem.GetRawTransaction(ctx, txid)
		if err != nil {
			return 0, fmt.Errorf("e2e: wait for tx: %w", err)
		}
		mem.MineBlock(tx)
		return mem.GetBlockCount(ctx)
	}
}

// New builds a Demo with a freshly deployed bridge: a fee coin mined into
// existence and the CREATE-then-STF-init sequence run to completion, all
// against in-memory doubles rather than live nodes.
func New(ctx context.Context) (*Demo, error) {
	mem := chainzrpc.NewMemClient()
	wallet, err := chainzwallet.DefaultRegtestWallet()
	if err != nil {
		return nil, fmt.Errorf("e2e: default wallet: %w", err)
	}

	minerKey, err := wallet.DeriveKey(0, 0)
	if err != nil {
		return nil, fmt.Errorf("e2e: derive miner key: %w", err)
	}
	coinbase := &chainztx.Transaction{
		Version: 1,
		TxOut:   []chainztx.TxOut{{Value: 10_000_000, PkScript: chainztx.PayToPubKeyHashScript(minerKey.PubKeyHash())}},
	}
	mem.MineBlock(coinbase)
	feeTxID := coinbase.TxID()

	stfState, stfTxID, err := txbuilder.Deploy(ctx, mem, wallet, feeTxID, demoStfIdentifier, demoRootHash, txbuilder.LockInValue, waitForTxMining(mem))
	if err != nil {
		return nil, fmt.Errorf("e2e: deploy: %w", err)
	}

	height, err := mem.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("e2e: block count: %w", err)
	}

	chainE := newMemChainE()
	d := driver.New(mem, chainE, wallet, demoStfIdentifier, demoRootHash)
	d.WaitForTx = waitForTxMining(mem)

	state := &driver.State{
		LastChainZScanned: height,
		LastChainEScanned: 0,
		CurrentStf:        stfState,
		FeeTxID:           stfTxID,
		Deposited:         txbuilder.LockInValue,
	}

	return &Demo{ChainZ: mem, ChainE: chainE, Wallet: wallet, Driver: d, State: state}, nil
}

// DepositZec sends a Chain-Z deposit crediting ethRecipient for amount
// and returns the Chain-Z height it was mined at. The deposit spends an
// independently funded fee coin so it never collides with the driver's
// own rotating fee coin.
func (d *Demo) DepositZec(ctx context.Context, ethRecipient [20]byte, amount bridgetypes.Zatoshis) (uint64, error) {
	minerKey, err := d.Wallet.DeriveKey(0, 0)
	if err != nil {
		return 0, fmt.Errorf("e2e: derive miner key: %w", err)
	}
	fundingTx := &chainztx.Transaction{
		Version: 1,
		TxOut:   []chainztx.TxOut{{Value: amount + txbuilder.DefaultFee, PkScript: chainztx.PayToPubKeyHashScript(minerKey.PubKeyHash())}},
	}
	d.ChainZ.MineBlock(fundingTx)
	feeTxID := fundingTx.TxID()

	_, depositTxID, err := txbuilder.SendTzeDeposit(ctx, d.ChainZ, d.Wallet, feeTxID, demoStfIdentifier, ethRecipient, amount)
	if err != nil {
		return 0, fmt.Errorf("e2e: send tze deposit: %w", err)
	}
	return waitForTxMining(d.ChainZ)(ctx, d.ChainZ, depositTxID)
}

// WithdrawZec submits a Chain-E withdrawal request crediting pkHash for
// amount and returns the Chain-E block number the request landed in.
func (d *Demo) WithdrawZec(pkHash [20]byte, amount bridgetypes.Zatoshis) uint64 {
	blockNumber := d.ChainE.blockNumber + 1
	d.ChainE.blockNumber = blockNumber
	d.ChainE.logs = append(d.ChainE.logs, makeWithdrawalLog(pkHash, uint64(amount), blockNumber))
	return blockNumber
}

// WaitForBridgeZec drives the Driver until its reconciliation loop has
// caught the Chain-Z batch containing height.
func (d *Demo) WaitForBridgeZec(ctx context.Context, height uint64) error {
	for d.State.LastChainZScanned < height {
		if _, err := d.Driver.RunOnce(ctx, d.State); err != nil {
			return fmt.Errorf("e2e: run once: %w", err)
		}
	}
	return nil
}

// WaitForBridgeEth drives the Driver until its reconciliation loop has
// caught the Chain-E batch containing blockNumber.
func (d *Demo) WaitForBridgeEth(ctx context.Context, blockNumber uint64) error {
	for d.State.LastChainEScanned < blockNumber {
		if _, err := d.Driver.RunOnce(ctx, d.State); err != nil {
			return fmt.Errorf("e2e: run once: %w", err)
		}
	}
	return nil
}

// Submitted returns every StateUpdate the demo's Chain-E double has
// recorded so far, in submission order.
func (d *Demo) Submitted() []chainerpc.SubmitStateUpdateInput {
	return d.ChainE.submitted
}

// ZcashReceiverKey derives the key the demo's withdrawal credits.
func (d *Demo) ZcashReceiverKey() (*chainzwallet.Key, error) {
	return d.Wallet.DeriveKey(ZcashReceiverAccount, 0)
}
