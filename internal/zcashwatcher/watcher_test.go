// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zcashwatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

func TestExtractZecToEthTransfersFindsDeposits(t *testing.T) {
	var stfID [32]byte
	stfID[0] = 1
	var recipient [20]byte
	recipient[0] = 0xCC

	deposit := bridgetypes.DepositPayload{To: recipient, StfIdentifier: stfID}
	tx := &chainztx.Transaction{
		Version: 1,
		TzeOut: []chainztx.TzeOut{{
			Value: 5000,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: bridgetypes.ExtensionID,
				Mode:        byte(bridgetypes.ModeDeposit),
				Payload:     deposit.Encode(),
			},
		}},
	}

	blocks := []Block{{Height: 42, Transactions: []*chainztx.Transaction{tx}}}
	transfers, outputs, err := ExtractZecToEthTransfers(blocks)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.Equal(t, recipient, transfers[0].EthRecipient)
	require.EqualValues(t, 5000, transfers[0].Amount)
	require.EqualValues(t, 42, transfers[0].ChainZBlock)
	require.Len(t, outputs, 1)
	require.Equal(t, tx.TxID(), outputs[0].Outpoint.Hash)
}

func TestExtractZecToEthTransfersSkipsNonDepositTze(t *testing.T) {
	tx := &chainztx.Transaction{
		Version: 1,
		TzeOut: []chainztx.TzeOut{{
			Value: 1000,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: bridgetypes.ExtensionID,
				Mode:        byte(bridgetypes.ModeStf),
				Payload:     []byte{},
			},
		}},
	}
	blocks := []Block{{Height: 1, Transactions: []*chainztx.Transaction{tx}}}
	transfers, outputs, err := ExtractZecToEthTransfers(blocks)
	require.NoError(t, err)
	require.Empty(t, transfers)
	require.Empty(t, outputs)
}

// TestExtractZecToEthTransfersSkipsMalformedBetweenValidDeposits plants an
// undecodable deposit payload between two well-formed ones and asserts the
// valid pair still comes out, in order, with the bad one absent.
func TestExtractZecToEthTransfersSkipsMalformedBetweenValidDeposits(t *testing.T) {
	var stfID [32]byte
	stfID[0] = 1
	var r1, r2 [20]byte
	r1[0] = 0xAA
	r2[0] = 0xBB

	depositOut := func(recipient [20]byte, value bridgetypes.Zatoshis) chainztx.TzeOut {
		payload := bridgetypes.DepositPayload{To: recipient, StfIdentifier: stfID}
		return chainztx.TzeOut{
			Value: value,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: bridgetypes.ExtensionID,
				Mode:        byte(bridgetypes.ModeDeposit),
				Payload:     payload.Encode(),
			},
		}
	}
	malformed := chainztx.TzeOut{
		Value: 777,
		Precondition: chainztx.TzePrecondition{
			ExtensionID: bridgetypes.ExtensionID,
			Mode:        byte(bridgetypes.ModeDeposit),
			Payload:     []byte{0x01, 0x02, 0x03},
		},
	}

	tx := &chainztx.Transaction{
		Version: 1,
		TzeOut:  []chainztx.TzeOut{depositOut(r1, 1000), malformed, depositOut(r2, 2500)},
	}

	blocks := []Block{{Height: 7, Transactions: []*chainztx.Transaction{tx}}}
	transfers, outputs, err := ExtractZecToEthTransfers(blocks)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	require.Equal(t, r1, transfers[0].EthRecipient)
	require.Equal(t, r2, transfers[1].EthRecipient)
	require.EqualValues(t, 0, transfers[0].Outpoint.Index)
	require.EqualValues(t, 2, transfers[1].Outpoint.Index)
	require.Len(t, outputs, 2)
}

func TestExtractZecToEthTransfersIgnoresOtherExtensions(t *testing.T) {
	tx := &chainztx.Transaction{
		Version: 1,
		TzeOut: []chainztx.TzeOut{{
			Value: 1000,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: 0xdeadbeef,
				Mode:        byte(bridgetypes.ModeDeposit),
				Payload:     []byte{},
			},
		}},
	}
	blocks := []Block{{Height: 1, Transactions: []*chainztx.Transaction{tx}}}
	transfers, _, err := ExtractZecToEthTransfers(blocks)
	require.NoError(t, err)
	require.Empty(t, transfers)
}
