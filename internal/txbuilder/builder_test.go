// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzwallet"
)

func seedFeeCoin(t *testing.T, mem *chainzrpc.MemClient, wallet *chainzwallet.Wallet, value bridgetypes.Zatoshis) chainztx.OutPoint {
	t.Helper()
	key, err := wallet.DeriveKey(0, 0)
	require.NoError(t, err)
	coinbase := &chainztx.Transaction{
		Version: 1,
		TxOut: []chainztx.TxOut{{
			Value:    value,
			PkScript: chainztx.PayToPubKeyHashScript(key.PubKeyHash()),
		}},
	}
	mem.MineBlock(coinbase)
	return chainztx.OutPoint{Hash: coinbase.TxID(), Index: 0}
}

func TestSendTzeCreateThenInitializeStf(t *testing.T) {
	mem := chainzrpc.NewMemClient()
	wallet, err := chainzwallet.DefaultRegtestWallet()
	require.NoError(t, err)

	seed := seedFeeCoin(t, mem, wallet, 10_000_000)

	var stfID, rootHash [32]byte
	stfID[0] = 1
	rootHash[0] = 2

	createState, createTxID, err := SendTzeCreate(context.Background(), mem, wallet, seed.Hash, stfID, rootHash, LockInValue)
	require.NoError(t, err)
	require.EqualValues(t, 1, createState.Outpoint.Index)

	createTx, err := mem.GetRawTransaction(context.Background(), createTxID)
	require.NoError(t, err)
	mem.MineBlock(createTx)

	stfState, stfTxID, err := InitializeTzeStf(context.Background(), mem, wallet, createTxID, createState, stfID, rootHash, LockInValue)
	require.NoError(t, err)
	require.EqualValues(t, 1, stfState.Outpoint.Index)
	require.EqualValues(t, LockInValue, stfState.TzeOut.Value)

	stfTx, err := mem.GetRawTransaction(context.Background(), stfTxID)
	require.NoError(t, err)
	require.Len(t, stfTx.TzeIn, 1)
	require.Equal(t, createState.Outpoint, stfTx.TzeIn[0].PreviousOutPoint)
}

func TestSendTzeDepositSpendsFeeCoin(t *testing.T) {
	mem := chainzrpc.NewMemClient()
	wallet, err := chainzwallet.DefaultRegtestWallet()
	require.NoError(t, err)

	seed := seedFeeCoin(t, mem, wallet, 5_000_000)

	var stfID [32]byte
	stfID[0] = 9
	var ethAddr [20]byte
	ethAddr[0] = 0xEE

	depositState, depositTxID, err := SendTzeDeposit(context.Background(), mem, wallet, seed.Hash, stfID, ethAddr, 90_000)
	require.NoError(t, err)
	require.EqualValues(t, 90_000, depositState.TzeOut.Value)

	depositTx, err := mem.GetRawTransaction(context.Background(), depositTxID)
	require.NoError(t, err)
	require.Len(t, depositTx.TxIn, 1)
	require.Equal(t, seed, depositTx.TxIn[0].PreviousOutPoint)

	payload, err := bridgetypes.DecodeDepositPayload(depositState.TzeOut.Precondition.Payload)
	require.NoError(t, err)
	require.Equal(t, ethAddr, payload.To)
	require.Equal(t, stfID, payload.StfIdentifier)
}
