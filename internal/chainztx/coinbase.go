// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainztx

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// MinTransparentCoinbaseMaturity is the number of confirmations a
// transparent coinbase output needs before it is spendable, mirroring
// zebra_chain::transparent::MIN_TRANSPARENT_COINBASE_MATURITY.
const MinTransparentCoinbaseMaturity = 100

// BlockSource is the minimal capability SpendableCoinbaseTxID needs: it is
// satisfied by chainzrpc.Client without importing that package here, which
// would otherwise create an import cycle (chainzrpc already imports
// chainztx for Transaction).
type BlockSource interface {
	GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error)
	GetBlockBytes(ctx context.Context, hash chainhash.Hash) ([]byte, error)
}

// SpendableCoinbaseTxID finds the first mature coinbase transaction as of
// targetHeight, walking back MinTransparentCoinbaseMaturity blocks.
// cmd/bridged's deploy subcommand uses it to bootstrap the fee-input chain
// before the first send.
func SpendableCoinbaseTxID(ctx context.Context, src BlockSource, targetHeight uint64) (chainhash.Hash, error) {
	if targetHeight < MinTransparentCoinbaseMaturity {
		return chainhash.Hash{}, fmt.Errorf(
			"chainztx: at height %d there are no spendable coinbase transactions, minimum maturity is %d; wait for more blocks",
			targetHeight, MinTransparentCoinbaseMaturity)
	}

	hash, err := src.GetBlockHash(ctx, targetHeight-MinTransparentCoinbaseMaturity)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("chainztx: get block hash: %w", err)
	}

	raw, err := src.GetBlockBytes(ctx, hash)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("chainztx: get block: %w", err)
	}

	txs, err := DeserializeBlockTransactions(raw)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("chainztx: parse block: %w", err)
	}
	if len(txs) == 0 {
		return chainhash.Hash{}, fmt.Errorf("chainztx: block %s has no transactions", hash)
	}
	return txs[0].TxID(), nil
}
