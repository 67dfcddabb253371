// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ethsubmitter turns a bridgetypes.StateUpdate into a signed
// submitStateUpdate call and awaits its inclusion.
package ethsubmitter

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
)

// SubmitStateUpdate converts update into the ABI-tuple shape
// chainerpc.Client.SubmitStateUpdate expects, waits for the transaction to
// be mined, and returns the inclusion block number. A revert surfaces as
// an error carrying the tx hash. client only needs chainerpc.API's
// SubmitStateUpdate method, so a driver test double can stand in for a
// real Chain-E connection.
func SubmitStateUpdate(ctx context.Context, client chainerpc.API, update bridgetypes.StateUpdate) (uint64, error) {
	in := chainerpc.SubmitStateUpdateInput{
		PreviousEthRoot:        update.OldEthRoot,
		PreviousEthBlockNumber: update.OldEthBlockNumber,
		NewEthRoot:             update.NewEthRoot,
		NewEthBlockNumber:      update.NewEthBlockNumber,
		PreviousZecRoot:        update.OldZecRoot,
		PreviousZecBlockNumber: update.OldZecBlockNumber,
		NewZecRoot:             update.NewZecRoot,
		NewZecBlockNumber:      update.NewZecBlockNumber,
	}
	for _, t := range update.ZecToEthTransfers {
		in.ZecToEthTransfers = append(in.ZecToEthTransfers, chainerpc.ZecToEthTransfer{
			To:     common.Address(t.To),
			Amount: uint64(t.Amount),
		})
	}
	for _, t := range update.EthToZecTransfers {
		in.EthToZecTransfers = append(in.EthToZecTransfers, chainerpc.EthToZecTransfer{
			PubkeyHash: t.PubKeyHash,
			Amount:     uint64(t.Amount),
		})
	}

	receipt, err := client.SubmitStateUpdate(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("ethsubmitter: submit state update: %w", err)
	}
	if receipt == nil || receipt.BlockNumber == nil {
		return 0, nil
	}
	return receipt.BlockNumber.Uint64(), nil
}
