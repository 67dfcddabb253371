// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainzrpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// TestGetAddressUTXOsWithMempool seeds two confirmed UTXOs, then stages a
// mempool transaction spending one of them and paying a fresh output back
// to the same address. The composed view must drop the spent UTXO, keep
// the untouched one, and append the mempool output with height 0.
func TestGetAddressUTXOsWithMempool(t *testing.T) {
	mem := NewMemClient()
	script := chainztx.PayToPubKeyHashScript([20]byte{0xAA})
	mem.RegisterAddress("op-addr", script)

	fund1 := &chainztx.Transaction{Version: 1, TxOut: []chainztx.TxOut{{Value: 1_000, PkScript: script}}}
	fund2 := &chainztx.Transaction{Version: 1, TxOut: []chainztx.TxOut{{Value: 2_000, PkScript: script}}}
	mem.MineBlock(fund1)
	mem.MineBlock(fund2)

	spender := &chainztx.Transaction{
		Version: 1,
		TxIn:    []chainztx.TxIn{{PreviousOutPoint: chainztx.OutPoint{Hash: fund1.TxID(), Index: 0}}},
		TxOut:   []chainztx.TxOut{{Value: 900, PkScript: script}},
	}
	mem.AddToMempool(spender)

	utxos, err := GetAddressUTXOsWithMempool(context.Background(), mem, "op-addr", script, nil)
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	require.Equal(t, fund2.TxID(), utxos[0].TxID)
	require.EqualValues(t, 2_000, utxos[0].Value)

	require.Equal(t, spender.TxID(), utxos[1].TxID)
	require.EqualValues(t, 900, utxos[1].Value)
	require.EqualValues(t, 0, utxos[1].Height)
}

func TestGetAddressUTXOsWithMempoolNoMempoolActivity(t *testing.T) {
	mem := NewMemClient()
	script := chainztx.PayToPubKeyHashScript([20]byte{0xBB})
	mem.RegisterAddress("quiet-addr", script)

	fund := &chainztx.Transaction{Version: 1, TxOut: []chainztx.TxOut{{Value: 5_000, PkScript: script}}}
	mem.MineBlock(fund)

	utxos, err := GetAddressUTXOsWithMempool(context.Background(), mem, "quiet-addr", script, nil)
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	require.Equal(t, fund.TxID(), utxos[0].TxID)
}

func TestGetTransactionReportsInclusionHeight(t *testing.T) {
	mem := NewMemClient()
	mem.MineBlock() // genesis

	tx := &chainztx.Transaction{Version: 1}
	txid := mem.AddToMempool(tx)

	parsed, err := GetTransaction(context.Background(), mem, txid)
	require.NoError(t, err)
	require.EqualValues(t, 0, parsed.Height)

	mem.MineBlock(tx)
	parsed, err = GetTransaction(context.Background(), mem, txid)
	require.NoError(t, err)
	require.EqualValues(t, 1, parsed.Height)
}
