// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package driver implements the reconciliation loop: the control flow
// that polls both chains, derives a batch, and keeps the Chain-Z STF
// anchor and the Chain-E wrapped supply in lockstep. It owns all the
// mutable bookkeeping (current STF anchor, fee coin, deposited total);
// the watcher and builder packages stay stateless.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgelog"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgeutil"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzwallet"
	"github.com/matter-labs/zcash-eth-bridge/internal/ethsubmitter"
	"github.com/matter-labs/zcash-eth-bridge/internal/ethwatcher"
	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
	"github.com/matter-labs/zcash-eth-bridge/internal/zcashwatcher"
)

// IdlePollInterval is how long Run sleeps after an iteration that found no
// new deposits or withdrawals, before checking both chains again.
const IdlePollInterval = 250 * time.Millisecond

// State is every piece of process-memory bookkeeping the driver needs
// across iterations. It is entirely reconstructible from the two chains
// (see Recover); nothing here is the source of truth.
type State struct {
	LastChainZScanned uint64
	LastChainEScanned uint64

	CurrentStf txbuilder.TzeState
	FeeTxID    chainhash.Hash
	Deposited  bridgetypes.Zatoshis

	// LastChainZHash is the hash observed at LastChainZScanned, kept so
	// the next iteration can notice a reorg under the watermark. The
	// driver only warns; it never rewinds.
	LastChainZHash chainhash.Hash

	// EthRoot/ZecRoot are the opaque commitments carried through every
	// StateUpdate. The contract does not verify them, so the driver
	// always uses the deployment's fixed sentinel instead of computing a
	// real commitment.
	EthRoot [32]byte
	ZecRoot [32]byte
}

// Driver runs the reconciliation loop. Its two chain clients are narrow
// capability sets (chainzrpc.Client, chainerpc.API) so tests can
// substitute in-memory doubles.
type Driver struct {
	ChainZ chainzrpc.Client
	ChainE chainerpc.API
	Wallet *chainzwallet.Wallet

	StfIdentifier [32]byte
	RootHash      [32]byte

	// WaitForTx blocks until a submitted Chain-Z transaction is confirmed,
	// returning its height. Defaults to bridgeutil.WaitForTx; overridable
	// so tests don't have to wait on real wall-clock polling.
	WaitForTx func(ctx context.Context, client chainzrpc.Client, txid chainhash.Hash) (uint64, error)
}

// New builds a Driver with production poll helpers wired in.
func New(chainZ chainzrpc.Client, chainE chainerpc.API, wallet *chainzwallet.Wallet, stfIdentifier, rootHash [32]byte) *Driver {
	return &Driver{
		ChainZ:        chainZ,
		ChainE:        chainE,
		Wallet:        wallet,
		StfIdentifier: stfIdentifier,
		RootHash:      rootHash,
		WaitForTx:     bridgeutil.WaitForTx,
	}
}

// Run drives the reconciliation loop until ctx is canceled, sleeping
// IdlePollInterval between iterations that found no new work. A fatal
// error from RunOnce (chain rejection, contract revert, invariant
// violation) is returned immediately so the hosting process can exit
// non-zero; the operator is expected to restart the process, which
// triggers Recover.
func (d *Driver) Run(ctx context.Context, state *State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		worked, err := d.RunOnce(ctx, state)
		if err != nil {
			return fmt.Errorf("driver: %w", err)
		}
		if !worked {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(IdlePollInterval):
			}
		}
	}
}

// RunOnce executes one iteration of the control loop: snapshot both
// chain heights, scan the deltas, and if there is any new deposit or
// withdrawal, build and submit one batch. It reports whether a batch was
// submitted (false on an idle iteration, which still advances the
// watermarks to the snapshotted heights).
func (d *Driver) RunOnce(ctx context.Context, state *State) (bool, error) {
	var hZ uint64
	err := bridgeutil.Retry(ctx, chainzrpc.IsTransportError, func() error {
		var err error
		hZ, err = d.ChainZ.GetBlockCount(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("get chain-z height: %w", err)
	}

	// Chain-E height reads have no error taxonomy to inspect; any failure
	// from a plain eth_blockNumber is transport-shaped, so retry them all.
	var hE uint64
	err = bridgeutil.Retry(ctx, func(error) bool { return true }, func() error {
		var err error
		hE, err = d.ChainE.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("get chain-e height: %w", err)
	}

	if state.LastChainZScanned > 0 && state.LastChainZHash != (chainhash.Hash{}) {
		current, err := d.ChainZ.GetBlockHash(ctx, state.LastChainZScanned)
		if err == nil && current != state.LastChainZHash {
			bridgelog.Driver.Warnf("chain-z block %d hash changed from %s to %s; "+
				"a reorg crossed the scan watermark and already-processed deposits may have moved",
				state.LastChainZScanned, state.LastChainZHash, current)
		}
	}

	blocks, err := fetchChainZBlocks(ctx, d.ChainZ, state.LastChainZScanned+1, hZ)
	if err != nil {
		return false, fmt.Errorf("fetch chain-z blocks: %w", err)
	}
	deposits, depositOutputs, err := zcashwatcher.ExtractZecToEthTransfers(blocks)
	if err != nil {
		return false, fmt.Errorf("extract deposits: %w", err)
	}

	var withdrawals []bridgetypes.WithdrawalRequested
	if hE > state.LastChainEScanned {
		withdrawals, err = ethwatcher.ExtractEthToZecTransfers(ctx, d.ChainE, d.ChainE.BridgeAddress(),
			ethwatcher.BlockRange{First: state.LastChainEScanned + 1, Last: hE})
		if err != nil {
			return false, fmt.Errorf("extract withdrawals: %w", err)
		}
	}

	if len(deposits) == 0 && len(withdrawals) == 0 {
		if hZ > state.LastChainZScanned {
			if hash, err := d.ChainZ.GetBlockHash(ctx, hZ); err == nil {
				state.LastChainZHash = hash
			}
		}
		state.LastChainZScanned = hZ
		state.LastChainEScanned = hE
		return false, nil
	}

	bridgelog.Driver.Infof("batch: %d deposit(s), %d withdrawal(s)", len(deposits), len(withdrawals))

	processedDeposits := make([]bridgetypes.ProcessedDeposit, len(deposits))
	zecToEth := make([]bridgetypes.ZecToEthTransfer, len(deposits))
	for i, dep := range deposits {
		processedDeposits[i] = bridgetypes.ProcessedDeposit{To: dep.EthRecipient, Amount: dep.Amount}
		zecToEth[i] = bridgetypes.ZecToEthTransfer{To: dep.EthRecipient, Amount: dep.Amount}
	}
	processedWithdrawals := make([]bridgetypes.ProcessedWithdrawal, len(withdrawals))
	ethToZec := make([]bridgetypes.EthToZecTransfer, len(withdrawals))
	for i, w := range withdrawals {
		processedWithdrawals[i] = bridgetypes.ProcessedWithdrawal{PubKeyHash: w.ZcashPubKeyHash, Amount: w.Amount}
		ethToZec[i] = bridgetypes.EthToZecTransfer{PubKeyHash: w.ZcashPubKeyHash, Amount: w.Amount}
	}

	newStf, txid, newDeposited, err := txbuilder.ProgressTzeStf(
		ctx, d.ChainZ, d.Wallet, state.FeeTxID, state.CurrentStf, depositOutputs,
		d.StfIdentifier, d.RootHash, processedDeposits, processedWithdrawals, state.Deposited,
	)
	if err != nil {
		return false, fmt.Errorf("build progress tze stf: %w", err)
	}

	hZNew, err := d.WaitForTx(ctx, d.ChainZ, txid)
	if err != nil {
		return false, fmt.Errorf("wait for chain-z confirmation: %w", err)
	}

	update := bridgetypes.StateUpdate{
		OldEthRoot:        state.EthRoot,
		OldEthBlockNumber: state.LastChainEScanned,
		NewEthRoot:        d.RootHash,
		NewEthBlockNumber: hE,
		OldZecRoot:        state.ZecRoot,
		OldZecBlockNumber: state.LastChainZScanned,
		NewZecRoot:        d.RootHash,
		NewZecBlockNumber: hZNew,
		ZecToEthTransfers: zecToEth,
		EthToZecTransfers: ethToZec,
	}

	// Chain-Z first: a Chain-E update must never be submitted without
	// the prior Chain-Z transition already backing it, or wrapped tokens
	// could be credited without a native lock.
	inclusionBlock, err := ethsubmitter.SubmitStateUpdate(ctx, d.ChainE, update)
	if err != nil {
		return false, fmt.Errorf("submit state update: %w", err)
	}
	bridgelog.Driver.Debugf("state update included in chain-e block %d", inclusionBlock)

	if hash, err := d.ChainZ.GetBlockHash(ctx, hZNew); err == nil {
		state.LastChainZHash = hash
	}
	state.LastChainZScanned = hZNew
	state.LastChainEScanned = hE
	state.CurrentStf = newStf
	state.FeeTxID = txid
	state.Deposited = newDeposited
	state.EthRoot = d.RootHash
	state.ZecRoot = d.RootHash

	return true, nil
}

// fetchChainZBlocks retrieves and decodes every Chain-Z block in
// [from, to], returning nil if the range is empty (from > to).
func fetchChainZBlocks(ctx context.Context, client chainzrpc.Client, from, to uint64) ([]zcashwatcher.Block, error) {
	if from > to {
		return nil, nil
	}
	blocks := make([]zcashwatcher.Block, 0, to-from+1)
	for h := from; h <= to; h++ {
		hash, err := client.GetBlockHash(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("block hash at %d: %w", h, err)
		}
		raw, err := client.GetBlock(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", hash, err)
		}
		block, err := zcashwatcher.DecodeBlock(h, raw.Bytes)
		if err != nil {
			return nil, fmt.Errorf("decode block %d: %w", h, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
