// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ethwatcher extracts bridge withdrawal events from a Chain-E
// block range.
package ethwatcher

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
)

// withdrawalRequestedSignature is the Keccak-256 topic-0 hash of
// WithdrawalRequested(bytes20,uint256).
var withdrawalRequestedSignature = crypto.Keccak256Hash([]byte("WithdrawalRequested(bytes20,uint256)"))

// LogFilterer is the capability ExtractEthToZecTransfers needs from a
// Chain-E client; chainerpc.Client satisfies it.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// BlockRange bounds a log query by block number, both ends inclusive.
type BlockRange struct {
	First uint64
	Last  uint64
}

// ExtractEthToZecTransfers filters WithdrawalRequested logs emitted by
// bridgeAddress within blocks, decoding each into a WithdrawalRequested
// record in log order. amount must fit in 64 bits; overflow is reported as
// an error rather than silently truncated.
func ExtractEthToZecTransfers(ctx context.Context, lf LogFilterer, bridgeAddress common.Address, blocks BlockRange) ([]bridgetypes.WithdrawalRequested, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{bridgeAddress},
		FromBlock: new(big.Int).SetUint64(blocks.First),
		ToBlock:   new(big.Int).SetUint64(blocks.Last),
		Topics:    [][]common.Hash{{withdrawalRequestedSignature}},
	}

	logs, err := lf.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ethwatcher: filter logs: %w", err)
	}

	transfers := make([]bridgetypes.WithdrawalRequested, 0, len(logs))
	for _, log := range logs {
		transfer, err := decodeWithdrawalRequested(log)
		if err != nil {
			return nil, fmt.Errorf("ethwatcher: decode log at tx %s: %w", log.TxHash, err)
		}
		transfers = append(transfers, transfer)
	}
	return transfers, nil
}

// decodeWithdrawalRequested unpacks one WithdrawalRequested log. The
// pubkey hash is indexed (topics[1]); fixed-size bytes types are
// right-padded to the full 32-byte word, so the value sits in the first
// 20 bytes. The amount is the sole non-indexed field in log.Data.
func decodeWithdrawalRequested(log types.Log) (bridgetypes.WithdrawalRequested, error) {
	if len(log.Topics) != 2 {
		return bridgetypes.WithdrawalRequested{}, fmt.Errorf("expected 2 topics, got %d", len(log.Topics))
	}
	var pkh [20]byte
	copy(pkh[:], log.Topics[1][:20])

	if len(log.Data) != 32 {
		return bridgetypes.WithdrawalRequested{}, fmt.Errorf("expected 32-byte amount, got %d bytes", len(log.Data))
	}
	amountBig := new(big.Int).SetBytes(log.Data)
	if !amountBig.IsUint64() {
		return bridgetypes.WithdrawalRequested{}, fmt.Errorf("amount %s exceeds u64", amountBig.String())
	}

	return bridgetypes.WithdrawalRequested{
		ZcashPubKeyHash: pkh,
		Amount:          bridgetypes.Zatoshis(amountBig.Uint64()),
		ChainEBlock:     log.BlockNumber,
	}, nil
}
