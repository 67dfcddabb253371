// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zcashwatcher scans Chain-Z blocks for deposit TZE outputs. It is
// pure: no state, lists in, lists out.
package zcashwatcher

import (
	"fmt"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// DepositTzeOutput pairs a deposit's outpoint with its TzeOut, the wire
// bookkeeping internal/txbuilder needs later to spend it into the STF
// anchor's input set.
type DepositTzeOutput struct {
	Outpoint chainztx.OutPoint
	TzeOut   chainztx.TzeOut
}

// ExtractZecToEthTransfers scans blocks for TZE outputs carrying the
// eth-bridge extension ID in deposit mode, decoding each into a
// DepositObserved plus its outpoint/TzeOut pair, preserving block and
// in-block transaction order. A TZE output with the right extension ID but
// an undecodable deposit payload is not a well-formed deposit and is
// skipped.
func ExtractZecToEthTransfers(blocks []Block) ([]bridgetypes.DepositObserved, []DepositTzeOutput, error) {
	var transfers []bridgetypes.DepositObserved
	var outputs []DepositTzeOutput

	for _, block := range blocks {
		for _, tx := range block.Transactions {
			txid := tx.TxID()
			// TZE outputs sit after all transparent outputs, so their
			// vout indexes start at len(TxOut).
			voutBase := uint32(len(tx.TxOut))
			for n, out := range tx.TzeOut {
				if out.Precondition.ExtensionID != bridgetypes.ExtensionID {
					continue
				}
				if out.Precondition.Mode != byte(bridgetypes.ModeDeposit) {
					continue
				}
				deposit, err := bridgetypes.DecodeDepositPayload(out.Precondition.Payload)
				if err != nil {
					continue
				}

				transfers = append(transfers, bridgetypes.DepositObserved{
					Outpoint:     bridgetypes.OutPoint{Hash: txid, Index: voutBase + uint32(n)},
					EthRecipient: deposit.To,
					Amount:       out.Value,
					ChainZBlock:  block.Height,
				})
				outputs = append(outputs, DepositTzeOutput{
					Outpoint: chainztx.OutPoint{Hash: txid, Index: voutBase + uint32(n)},
					TzeOut:   out,
				})
			}
		}
	}

	return transfers, outputs, nil
}

// Block is the decoded form of a chainzrpc.RawBlock, decoupled from
// that package to avoid a dependency edge this watcher doesn't otherwise
// need; DecodeBlock below builds one from raw bytes and a height.
type Block struct {
	Height       uint64
	Transactions []*chainztx.Transaction
}

// DecodeBlock parses raw (as returned by a chainzrpc.Client's GetBlock)
// into the form ExtractZecToEthTransfers scans.
func DecodeBlock(height uint64, raw []byte) (Block, error) {
	txs, err := chainztx.DeserializeBlockTransactions(raw)
	if err != nil {
		return Block{}, fmt.Errorf("zcashwatcher: decode block: %w", err)
	}
	return Block{Height: height, Transactions: txs}, nil
}
