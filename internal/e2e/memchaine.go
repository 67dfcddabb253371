// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package e2e

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
)

// withdrawalRequestedSignature is the same event topic
// internal/ethwatcher's production code computes; kept in-package so the
// demo can synthesize logs without importing ethwatcher's unexported
// constant.
var withdrawalRequestedSignature = crypto.Keccak256Hash([]byte("WithdrawalRequested(bytes20,uint256)"))

// memChainE is a chainerpc.API implementation backed by plain fields
// instead of a dialed ethclient, letting the demo run end to end with no
// external services. It plays the same role for Chain-E that
// chainzrpc.MemClient plays for Chain-Z.
type memChainE struct {
	blockNumber uint64
	bridgeAddr  common.Address
	logs        []types.Log
	latest      chainerpc.LatestState
	submitted   []chainerpc.SubmitStateUpdateInput
}

func newMemChainE() *memChainE {
	return &memChainE{bridgeAddr: common.Address{0x01}}
}

func (m *memChainE) BlockNumber(ctx context.Context) (uint64, error) { return m.blockNumber, nil }

func (m *memChainE) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var out []types.Log
	for _, log := range m.logs {
		if q.FromBlock != nil && log.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && log.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (m *memChainE) LatestState(opts *bind.CallOpts) (chainerpc.LatestState, error) {
	return m.latest, nil
}

func (m *memChainE) SubmitStateUpdate(ctx context.Context, in chainerpc.SubmitStateUpdateInput) (*types.Receipt, error) {
	m.submitted = append(m.submitted, in)
	m.latest.EthBlockNumber = in.NewEthBlockNumber
	m.latest.ZecBlockNumber = in.NewZecBlockNumber
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (m *memChainE) BridgeAddress() common.Address { return m.bridgeAddr }

var _ chainerpc.API = (*memChainE)(nil)

// makeWithdrawalLog synthesizes the WithdrawalRequested log
// internal/ethwatcher decodes, matching the event's bytes20/uint256 ABI
// encoding (pubkey hash right-padded into the indexed topic word, amount
// as a big-endian uint256 in the data word).
func makeWithdrawalLog(pkHash [20]byte, amount uint64, blockNumber uint64) types.Log {
	var topic1 common.Hash
	copy(topic1[:20], pkHash[:])
	data := make([]byte, 32)
	new(big.Int).SetUint64(amount).FillBytes(data)
	return types.Log{
		Topics:      []common.Hash{withdrawalRequestedSignature, topic1},
		Data:        data,
		BlockNumber: blockNumber,
	}
}
