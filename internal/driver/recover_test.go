// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
	"github.com/matter-labs/zcash-eth-bridge/internal/zcashwatcher"
)

func TestRecoverInSyncSeedsStateFromLatestAndUnspentAnchor(t *testing.T) {
	rig := newTestRig(t)

	height, err := rig.mem.GetBlockCount(context.Background())
	require.NoError(t, err)
	rig.chainE.latest = chainerpc.LatestState{EthBlockNumber: 0, ZecBlockNumber: height}

	recovered, err := rig.d.Recover(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, height, recovered.LastChainZScanned)
	require.EqualValues(t, 0, recovered.LastChainEScanned)
	require.Equal(t, rig.state.CurrentStf.Outpoint, recovered.CurrentStf.Outpoint)
	require.EqualValues(t, txbuilder.LockInValue, recovered.Deposited)
	require.Empty(t, rig.chainE.submitted)
}

// TestRecoverResubmitsPendingUpdateAfterCrash mines a progress transition by
// hand (standing in for "the driver submitted it, then the process died
// before submitting the paired StateUpdate") and asserts Recover notices
// Chain-E is behind the Chain-Z anchor and resubmits the StateUpdate the
// anchor's own payload describes.
func TestRecoverResubmitsPendingUpdateAfterCrash(t *testing.T) {
	rig := newTestRig(t)

	depositFeeTxID := rig.mintFeeCoin(t, 1_000_000)
	var ethRecipient [20]byte
	ethRecipient[0] = 0x70
	_, depositTxID, err := txbuilder.SendTzeDeposit(context.Background(), rig.mem, rig.wallet, depositFeeTxID, [32]byte{0x42}, ethRecipient, 90_000)
	require.NoError(t, err)
	depositTx, err := rig.mem.GetRawTransaction(context.Background(), depositTxID)
	require.NoError(t, err)
	rig.mem.MineBlock(depositTx)

	preHeight, err := rig.mem.GetBlockCount(context.Background())
	require.NoError(t, err)
	blocks, err := fetchChainZBlocks(context.Background(), rig.mem, rig.state.LastChainZScanned+1, preHeight)
	require.NoError(t, err)
	deposits, depositOutputs, err := zcashwatcher.ExtractZecToEthTransfers(blocks)
	require.NoError(t, err)
	require.Len(t, deposits, 1)

	processedDeposits := []bridgetypes.ProcessedDeposit{{To: deposits[0].EthRecipient, Amount: deposits[0].Amount}}

	_, txid, _, err := txbuilder.ProgressTzeStf(
		context.Background(), rig.mem, rig.wallet, rig.state.FeeTxID, rig.state.CurrentStf, depositOutputs,
		[32]byte{0x42}, [32]byte{}, processedDeposits, nil, rig.state.Deposited,
	)
	require.NoError(t, err)
	progressTx, err := rig.mem.GetRawTransaction(context.Background(), txid)
	require.NoError(t, err)
	rig.mem.MineBlock(progressTx)

	height, err := rig.mem.GetBlockCount(context.Background())
	require.NoError(t, err)

	// Chain-E never learned about this transition: its latestState still
	// reports the pre-crash watermark.
	rig.chainE.latest = chainerpc.LatestState{EthBlockNumber: 0, ZecBlockNumber: height - 1}
	rig.chainE.blockNumber = 3

	recovered, err := rig.d.Recover(context.Background())
	require.NoError(t, err)
	require.Len(t, rig.chainE.submitted, 1)
	require.Len(t, rig.chainE.submitted[0].ZecToEthTransfers, 1)
	require.EqualValues(t, 90_000, rig.chainE.submitted[0].ZecToEthTransfers[0].Amount)
	require.EqualValues(t, height, recovered.LastChainZScanned)
	require.EqualValues(t, 3, recovered.LastChainEScanned)
}
