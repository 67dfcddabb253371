// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridgeutil holds small polling/backoff helpers shared across the
// bridge's Chain-Z and Chain-E sides.
package bridgeutil

import (
	"context"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
)

// TxPollInterval is how often WaitForTx re-checks confirmation.
const TxPollInterval = 200 * time.Millisecond

// BridgePollInterval is how often WaitForBridge re-checks latestState.
const BridgePollInterval = 250 * time.Millisecond

// WaitForTx polls GetTransaction until txid is confirmed in a block
// (height > 0), returning that height straight from the RPC response
// rather than inferring it from the current chain tip: the tip can have
// advanced past txid's actual inclusion height by the time a poll tick
// observes it, which would make the caller skip scanning the blocks in
// between. RPC errors are swallowed and retried rather than surfaced: a
// transaction that hasn't propagated yet commonly 404s. There is no
// attempt cap; the caller's context governs how long to wait.
func WaitForTx(ctx context.Context, client chainzrpc.Client, txid chainhash.Hash) (uint64, error) {
	ticker := time.NewTicker(TxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
			tx, err := chainzrpc.GetTransaction(ctx, client, txid)
			if err != nil || tx.Height <= 0 {
				continue
			}
			return uint64(tx.Height), nil
		}
	}
}

// WaitForBridge polls the bridge contract's latestState until its
// watermark for the given chain reaches atLeast.
func WaitForBridge(ctx context.Context, client *chainerpc.Client, chain Chain, atLeast uint64) error {
	ticker := time.NewTicker(BridgePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state, err := client.LatestState(&bind.CallOpts{Context: ctx})
			if err != nil {
				continue
			}
			var reached bool
			switch chain {
			case ChainEth:
				reached = state.EthBlockNumber >= atLeast
			case ChainZec:
				reached = state.ZecBlockNumber >= atLeast
			}
			if reached {
				return nil
			}
		}
	}
}

// Chain names one side of the bridge, used by WaitForBridge to pick which
// watermark to compare.
type Chain int

const (
	ChainZec Chain = iota
	ChainEth
)
