// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainzrpc

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// blockSourceAdapter adapts a Client to chainztx.BlockSource, which deals
// in raw block bytes rather than the RawBlock struct, so chainztx doesn't
// need to import this package back.
type blockSourceAdapter struct{ c Client }

// BlockSource adapts c for use with chainztx.SpendableCoinbaseTxID.
func BlockSource(c Client) blockSourceAdapter {
	return blockSourceAdapter{c: c}
}

func (a blockSourceAdapter) GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	return a.c.GetBlockHash(ctx, height)
}

func (a blockSourceAdapter) GetBlockBytes(ctx context.Context, hash chainhash.Hash) ([]byte, error) {
	block, err := a.c.GetBlock(ctx, hash)
	if err != nil {
		return nil, err
	}
	return block.Bytes, nil
}

// ParsedTransaction is the result of GetTransaction: the decoded
// transaction plus the height it was mined at (0 if still only in the
// mempool).
type ParsedTransaction struct {
	Tx     *chainztx.Transaction
	Height int64
}

// GetTransaction fetches a parsed transaction and its confirmation height,
// derived from the one verbose Client primitive, GetRawTransactionVerbose.
// Decoding is left to that call (chainztx.Deserialize, which takes no
// consensus branch id), so this is a thin rename-and-repackage over the
// verbose call rather than a second decode path.
func GetTransaction(ctx context.Context, c Client, txid chainhash.Hash) (*ParsedTransaction, error) {
	info, err := c.GetRawTransactionVerbose(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("chainzrpc: get transaction: %w", err)
	}
	return &ParsedTransaction{Tx: info.Tx, Height: info.Height}, nil
}

// outpointKey is a comparable stand-in for chainztx.OutPoint so it can key
// a map; chainztx.OutPoint embeds an array and is already comparable, but
// this documents the intent at call sites below.
type outpointKey = chainztx.OutPoint

// GetAddressUTXOsWithMempool composes a current view of address's spendable
// outputs from the confirmed UTXO set plus the mempool:
//  1. fetch confirmed UTXOs
//  2. fetch the mempool transaction-id list
//  3. for each mempool tx, record confirmed UTXOs it spends and synthesize
//     new UTXOs (height 0) for any output it pays to address
//  4. remove spent confirmed UTXOs, append synthesized ones
//
// A mempool transaction that fails to parse is reported through warn and
// skipped; this function returns what it could reconstruct.
func GetAddressUTXOsWithMempool(ctx context.Context, c Client, address string, addressScript []byte, warn func(format string, args ...any)) ([]Utxo, error) {
	confirmed, err := c.GetAddressUTXOs(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("chainzrpc: get address utxos: %w", err)
	}

	mempoolTxIDs, err := c.GetRawMempool(ctx)
	if err != nil {
		return nil, fmt.Errorf("chainzrpc: get raw mempool: %w", err)
	}

	spent := make(map[outpointKey]bool)
	var synthesized []Utxo

	for _, txid := range mempoolTxIDs {
		tx, err := c.GetRawTransaction(ctx, txid)
		if err != nil {
			if warn != nil {
				warn("skipping unparseable mempool tx %s: %v", txid, err)
			}
			continue
		}

		for _, in := range tx.TxIn {
			key := outpointKey{Hash: in.PreviousOutPoint.Hash, Index: in.PreviousOutPoint.Index}
			spent[key] = true
		}

		for idx, out := range tx.TxOut {
			if string(out.PkScript) != string(addressScript) {
				continue
			}
			synthesized = append(synthesized, Utxo{
				TxID:     txid,
				OutIndex: uint32(idx),
				Script:   out.PkScript,
				Value:    int64(out.Value),
				Height:   0,
			})
		}
	}

	result := make([]Utxo, 0, len(confirmed)+len(synthesized))
	for _, u := range confirmed {
		key := outpointKey{Hash: u.TxID, Index: u.OutIndex}
		if spent[key] {
			continue
		}
		result = append(result, u)
	}
	result = append(result, synthesized...)
	return result, nil
}
