// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridgeutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// TestWaitForTxReturnsActualInclusionHeightNotChainTip guards against
// WaitForTx reporting the chain tip instead of txid's real inclusion
// height: if two or more blocks are mined between txid's confirmation and
// the next poll tick, a tip-based height would make the driver skip
// scanning the blocks in between for deposits.
func TestWaitForTxReturnsActualInclusionHeightNotChainTip(t *testing.T) {
	mem := chainzrpc.NewMemClient()
	mem.MineBlock() // height 0

	tx := &chainztx.Transaction{Version: 1}
	txid := mem.AddToMempool(tx)

	resultCh := make(chan uint64, 1)
	errCh := make(chan error, 1)
	go func() {
		height, err := WaitForTx(context.Background(), mem, txid)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- height
	}()

	mem.MineBlock(tx) // tx confirms at height 1
	inclusionHeight, err := mem.GetBlockCount(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, inclusionHeight)

	// Advance the tip well past the inclusion height before WaitForTx's
	// next poll tick has a chance to observe the confirmation.
	mem.MineBlock()
	mem.MineBlock()
	tip, err := mem.GetBlockCount(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, tip)

	select {
	case height := <-resultCh:
		require.EqualValues(t, inclusionHeight, height)
	case err := <-errCh:
		t.Fatalf("WaitForTx failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForTx did not return in time")
	}
}
