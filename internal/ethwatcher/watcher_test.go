// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ethwatcher

import (
	"context"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type fakeLogFilterer struct {
	logs []types.Log
}

func (f *fakeLogFilterer) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return f.logs, nil
}

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

func TestExtractEthToZecTransfersDecodesInOrder(t *testing.T) {
	var pkh1, pkh2 [20]byte
	pkh1[0] = 0xAA
	pkh2[0] = 0xBB

	lf := &fakeLogFilterer{logs: []types.Log{
		makeWithdrawalLog(pkh1, 1000, 10),
		makeWithdrawalLog(pkh2, 2000, 11),
	}}

	transfers, err := ExtractEthToZecTransfers(context.Background(), lf, common.Address{}, BlockRange{First: 10, Last: 11})
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	require.Equal(t, pkh1, transfers[0].ZcashPubKeyHash)
	require.EqualValues(t, 1000, transfers[0].Amount)
	require.Equal(t, pkh2, transfers[1].ZcashPubKeyHash)
	require.EqualValues(t, 2000, transfers[1].Amount)
}

func TestExtractEthToZecTransfersRejectsOverflowAmount(t *testing.T) {
	var pkh [20]byte
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0xff
	}
	var topic1 common.Hash
	copy(topic1[:20], pkh[:])
	lf := &fakeLogFilterer{logs: []types.Log{{
		Topics: []common.Hash{withdrawalRequestedSignature, topic1},
		Data:   data,
	}}}

	_, err := ExtractEthToZecTransfers(context.Background(), lf, common.Address{}, BlockRange{First: 1, Last: 1})
	require.Error(t, err)
}
