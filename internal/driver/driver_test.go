// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzwallet"
	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
)

var withdrawalRequestedSignature = crypto.Keccak256Hash([]byte("WithdrawalRequested(bytes20,uint256)"))

// fakeChainE is a chainerpc.API test double that records every submitted
// StateUpdate instead of talking to a real ethclient, mirroring the
// narrow-interface test-double pattern internal/ethwatcher/watcher_test.go already uses for
// the log-filtering half of the Chain-E surface.
type fakeChainE struct {
	blockNumber uint64
	bridgeAddr  common.Address
	logs        []types.Log
	latest      chainerpc.LatestState
	submitted   []chainerpc.SubmitStateUpdateInput
}

func (f *fakeChainE) BlockNumber(ctx context.Context) (uint64, error) { return f.blockNumber, nil }

func (f *fakeChainE) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return f.logs, nil
}

func (f *fakeChainE) LatestState(opts *bind.CallOpts) (chainerpc.LatestState, error) {
	return f.latest, nil
}

func (f *fakeChainE) SubmitStateUpdate(ctx context.Context, in chainerpc.SubmitStateUpdateInput) (*types.Receipt, error) {
	f.submitted = append(f.submitted, in)
	f.latest.EthBlockNumber = in.NewEthBlockNumber
	f.latest.ZecBlockNumber = in.NewZecBlockNumber
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeChainE) BridgeAddress() common.Address { return f.bridgeAddr }

var _ chainerpc.API = (*fakeChainE)(nil)

func makeWithdrawalLog(pkh [20]byte, amount uint64, blockNumber uint64) types.Log {
	// bytes20 is right-padded into its indexed topic word.
	var topic1 common.Hash
	copy(topic1[:20], pkh[:])
	data := make([]byte, 32)
	new(big.Int).SetUint64(amount).FillBytes(data)
	return types.Log{
		Topics:      []common.Hash{withdrawalRequestedSignature, topic1},
		Data:        data,
		BlockNumber: blockNumber,
	}
}

// testRig bundles a deployed bridge (fee coin funded, STF anchor
// initialized) on an in-memory Chain-Z client, ready for RunOnce calls.
type testRig struct {
	mem    *chainzrpc.MemClient
	wallet *chainzwallet.Wallet
	chainE *fakeChainE
	d      *Driver
	state  *State
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	mem := chainzrpc.NewMemClient()
	wallet, err := chainzwallet.DefaultRegtestWallet()
	require.NoError(t, err)

	key, err := wallet.DeriveKey(0, 0)
	require.NoError(t, err)
	coinbase := &chainztx.Transaction{
		Version: 1,
		TxOut:   []chainztx.TxOut{{Value: 10_000_000, PkScript: chainztx.PayToPubKeyHashScript(key.PubKeyHash())}},
	}
	mem.MineBlock(coinbase)
	feeTxID := coinbase.TxID()

	var stfID, rootHash [32]byte
	stfID[0] = 0x42

	createState, createTxID, err := txbuilder.SendTzeCreate(context.Background(), mem, wallet, feeTxID, stfID, rootHash, txbuilder.LockInValue)
	require.NoError(t, err)
	createTx, err := mem.GetRawTransaction(context.Background(), createTxID)
	require.NoError(t, err)
	mem.MineBlock(createTx)

	stfState, stfTxID, err := txbuilder.InitializeTzeStf(context.Background(), mem, wallet, createTxID, createState, stfID, rootHash, txbuilder.LockInValue)
	require.NoError(t, err)
	stfTx, err := mem.GetRawTransaction(context.Background(), stfTxID)
	require.NoError(t, err)
	mem.MineBlock(stfTx)

	height, err := mem.GetBlockCount(context.Background())
	require.NoError(t, err)

	chainE := &fakeChainE{bridgeAddr: common.Address{0x01}}

	d := New(mem, chainE, wallet, stfID, rootHash)
	d.WaitForTx = func(ctx context.Context, _ chainzrpc.Client, txid chainhash.Hash) (uint64, error) {
		tx, err := mem.GetRawTransaction(ctx, txid)
		if err != nil {
			return 0, err
		}
		mem.MineBlock(tx)
		return mem.GetBlockCount(ctx)
	}

	state := &State{
		LastChainZScanned: height,
		LastChainEScanned: 0,
		CurrentStf:        stfState,
		FeeTxID:           stfTxID,
		Deposited:         txbuilder.LockInValue,
	}

	return &testRig{mem: mem, wallet: wallet, chainE: chainE, d: d, state: state}
}

// mintFeeCoin mines a fresh coinbase-style output a simulated depositor can
// spend as their transaction's fee input, kept independent of the driver's
// own rotating fee_txid so a user deposit never collides with the
// progress transaction the driver builds in the same test.
func (r *testRig) mintFeeCoin(t *testing.T, value bridgetypes.Zatoshis) chainhash.Hash {
	t.Helper()
	key, err := r.wallet.DeriveKey(0, 0)
	require.NoError(t, err)
	tx := &chainztx.Transaction{
		Version: 1,
		TxOut:   []chainztx.TxOut{{Value: value, PkScript: chainztx.PayToPubKeyHashScript(key.PubKeyHash())}},
	}
	r.mem.MineBlock(tx)
	return tx.TxID()
}

func TestRunOnceIdleWhenNoNewWork(t *testing.T) {
	rig := newTestRig(t)
	worked, err := rig.d.RunOnce(context.Background(), rig.state)
	require.NoError(t, err)
	require.False(t, worked)
	require.Empty(t, rig.chainE.submitted)
}

func TestRunOnceProcessesDepositOnlyBatch(t *testing.T) {
	rig := newTestRig(t)

	depositFeeTxID := rig.mintFeeCoin(t, 1_000_000)
	var ethRecipient [20]byte
	ethRecipient[0] = 0x70
	depositState, depositTxID, err := txbuilder.SendTzeDeposit(context.Background(), rig.mem, rig.wallet, depositFeeTxID, [32]byte{0x42}, ethRecipient, 90_000)
	require.NoError(t, err)
	depositTx, err := rig.mem.GetRawTransaction(context.Background(), depositTxID)
	require.NoError(t, err)
	rig.mem.MineBlock(depositTx)
	_ = depositState

	worked, err := rig.d.RunOnce(context.Background(), rig.state)
	require.NoError(t, err)
	require.True(t, worked)
	require.Len(t, rig.chainE.submitted, 1)

	submitted := rig.chainE.submitted[0]
	require.Len(t, submitted.ZecToEthTransfers, 1)
	require.Equal(t, common.Address(ethRecipient), submitted.ZecToEthTransfers[0].To)
	require.EqualValues(t, 90_000, submitted.ZecToEthTransfers[0].Amount)
	require.Empty(t, submitted.EthToZecTransfers)

	require.EqualValues(t, txbuilder.LockInValue+90_000, rig.state.Deposited)
	require.EqualValues(t, txbuilder.LockInValue+90_000, rig.state.CurrentStf.TzeOut.Value)
}

func TestRunOnceProcessesMixedBatch(t *testing.T) {
	rig := newTestRig(t)

	depositFeeTxID := rig.mintFeeCoin(t, 1_000_000)
	var ethRecipient [20]byte
	ethRecipient[0] = 0x70
	_, depositTxID, err := txbuilder.SendTzeDeposit(context.Background(), rig.mem, rig.wallet, depositFeeTxID, [32]byte{0x42}, ethRecipient, 90_000)
	require.NoError(t, err)
	depositTx, err := rig.mem.GetRawTransaction(context.Background(), depositTxID)
	require.NoError(t, err)
	rig.mem.MineBlock(depositTx)

	var pkh [20]byte
	pkh[0] = 0x42
	rig.chainE.blockNumber = 5
	rig.chainE.logs = []types.Log{makeWithdrawalLog(pkh, 30_000, 5)}

	worked, err := rig.d.RunOnce(context.Background(), rig.state)
	require.NoError(t, err)
	require.True(t, worked)

	submitted := rig.chainE.submitted[0]
	require.Len(t, submitted.ZecToEthTransfers, 1)
	require.Len(t, submitted.EthToZecTransfers, 1)
	require.Equal(t, pkh, submitted.EthToZecTransfers[0].PubkeyHash)
	require.EqualValues(t, 30_000, submitted.EthToZecTransfers[0].Amount)

	require.EqualValues(t, txbuilder.LockInValue+90_000-30_000, rig.state.Deposited)
	require.EqualValues(t, 5, rig.state.LastChainEScanned)
}

func TestRunOnceFailsFatallyWhenWithdrawalExceedsLockedValue(t *testing.T) {
	rig := newTestRig(t)

	var pkh [20]byte
	pkh[0] = 0x99
	rig.chainE.blockNumber = 1
	rig.chainE.logs = []types.Log{makeWithdrawalLog(pkh, uint64(txbuilder.LockInValue)+1, 1)}

	_, err := rig.d.RunOnce(context.Background(), rig.state)
	require.Error(t, err)
	require.Empty(t, rig.chainE.submitted)
}
