// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainztx

import (
	"context"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

type fakeBlockSource struct {
	hashes map[uint64]chainhash.Hash
	blocks map[chainhash.Hash][]byte
}

func (f *fakeBlockSource) GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	return f.hashes[height], nil
}

func (f *fakeBlockSource) GetBlockBytes(ctx context.Context, hash chainhash.Hash) ([]byte, error) {
	return f.blocks[hash], nil
}

func TestSpendableCoinbaseTxIDRejectsImmatureHeight(t *testing.T) {
	src := &fakeBlockSource{}
	_, err := SpendableCoinbaseTxID(context.Background(), src, MinTransparentCoinbaseMaturity-1)
	require.Error(t, err)
}

func TestSpendableCoinbaseTxIDWalksBackMaturity(t *testing.T) {
	coinbase := &Transaction{Version: 1, TxOut: []TxOut{{Value: 625000000}}}
	var matureHash chainhash.Hash
	matureHash[0] = 0xAB

	src := &fakeBlockSource{
		hashes: map[uint64]chainhash.Hash{200 - MinTransparentCoinbaseMaturity: matureHash},
		blocks: map[chainhash.Hash][]byte{
			matureHash: SerializeBlockTransactions([]*Transaction{coinbase}),
		},
	}

	txid, err := SpendableCoinbaseTxID(context.Background(), src, 200)
	require.NoError(t, err)
	require.Equal(t, coinbase.TxID(), txid)
}
