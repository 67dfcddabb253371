// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package e2e

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
)

// TestDemoRoundTrip runs the full round trip: a Zcash deposit credited to
// a fixed Ethereum address, followed by an Ethereum withdrawal request
// crediting a Zcash regtest address, asserting the driver reconciles both
// sides.
func TestDemoRoundTrip(t *testing.T) {
	ctx := context.Background()
	demo, err := New(ctx)
	require.NoError(t, err)

	var ethRecipient [20]byte
	ethRecipient[0] = 0x70

	depositHeight, err := demo.DepositZec(ctx, ethRecipient, DepositAmount)
	require.NoError(t, err)

	require.NoError(t, demo.WaitForBridgeZec(ctx, depositHeight))
	require.Len(t, demo.Submitted(), 1)
	require.Len(t, demo.Submitted()[0].ZecToEthTransfers, 1)
	require.Equal(t, ethRecipient, [20]byte(demo.Submitted()[0].ZecToEthTransfers[0].To))
	require.EqualValues(t, DepositAmount, demo.Submitted()[0].ZecToEthTransfers[0].Amount)

	receiverKey, err := demo.ZcashReceiverKey()
	require.NoError(t, err)
	zcashPkHash := receiverKey.PubKeyHash()

	withdrawBlock := demo.WithdrawZec(zcashPkHash, DepositAmount)
	require.NoError(t, demo.WaitForBridgeEth(ctx, withdrawBlock))

	require.Len(t, demo.Submitted(), 2)
	update := demo.Submitted()[1]
	require.Len(t, update.EthToZecTransfers, 1)
	require.Equal(t, zcashPkHash, update.EthToZecTransfers[0].PubkeyHash)
	require.EqualValues(t, DepositAmount, update.EthToZecTransfers[0].Amount)

	require.EqualValues(t, txbuilder.LockInValue, demo.State.Deposited)
}

func TestDemoIdleWithNoActivity(t *testing.T) {
	ctx := context.Background()
	demo, err := New(ctx)
	require.NoError(t, err)

	worked, err := demo.Driver.RunOnce(ctx, demo.State)
	require.NoError(t, err)
	require.False(t, worked)
	require.Empty(t, demo.Submitted())
}
