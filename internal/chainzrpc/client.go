// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainzrpc is the Chain-Z RPC façade: a typed, minimal surface
// over the JSON-RPC 1.0 methods this bridge needs. The Client interface
// below is the narrow primitive capability set; GetAddressUTXOsWithMempool
// is provided as a free function derived from it so both the production
// client and the in-memory test double only need to implement the narrow
// surface. GetTransaction is likewise derived, layered on top of the one
// verbose primitive, GetRawTransactionVerbose, that reports a
// transaction's confirmation height.
package chainzrpc

import (
	"context"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// Utxo is one unspent transparent output as reported by getaddressutxos,
// extended with Height==0 to mark a synthesized mempool output.
type Utxo struct {
	TxID          chainhash.Hash
	OutIndex      uint32
	Script        []byte
	Value         int64
	Height        int64
	Confirmations int64
}

// RawBlock is an undecoded Chain-Z block as returned by getblock with
// verbosity 0.
type RawBlock struct {
	Hash   chainhash.Hash
	Height uint64
	Bytes  []byte
}

// RawTransactionInfo is the result of the verbose (verbosity=1)
// getrawtransaction call: the decoded transaction plus the height it is
// mined at, or 0 if it is only in the mempool.
type RawTransactionInfo struct {
	Tx     *chainztx.Transaction
	Height int64
}

// Client is the minimal capability set the driver needs: chain reads plus
// raw-tx submission. It deliberately excludes
// GetAddressUTXOsWithMempool and GetTransaction, which are derived (see
// derived.go). GetRawTransactionVerbose is the one verbose primitive that
// derivation needs, since GetRawTransaction's verbosity-0 response carries
// no confirmation height.
type Client interface {
	GetBlockCount(ctx context.Context) (uint64, error)
	GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error)
	GetBlock(ctx context.Context, hash chainhash.Hash) (RawBlock, error)
	GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*chainztx.Transaction, error)
	GetRawTransactionVerbose(ctx context.Context, txid chainhash.Hash) (*RawTransactionInfo, error)
	SendRawTransaction(ctx context.Context, tx *chainztx.Transaction) (chainhash.Hash, error)
	GetAddressUTXOs(ctx context.Context, address string) ([]Utxo, error)
	GetRawMempool(ctx context.Context) ([]chainhash.Hash, error)
}
