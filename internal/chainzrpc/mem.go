// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainzrpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// memBlock is one mined block tracked by MemClient.
type memBlock struct {
	hash   chainhash.Hash
	height uint64
	txs    []*chainztx.Transaction
}

// MemClient is an in-memory Chain-Z RPC double with
// UTXO-map-keyed-by-outpoint bookkeeping, shaped like the production
// client so it can back driver integration tests without a test harness
// around it.
type MemClient struct {
	mu sync.Mutex

	blocks  []memBlock
	mempool []*chainztx.Transaction

	// utxosByScript indexes confirmed transparent outputs by the exact
	// lock script bytes paying them, mirroring GetAddressUTXOs's
	// address-scoped view without needing real address decoding.
	utxosByScript map[string][]Utxo
	txByID        map[chainhash.Hash]*chainztx.Transaction

	// txHeight records the height each confirmed transaction was mined
	// at, keyed by txid; a txid absent here (zero value) is still only in
	// the mempool, matching RawTransactionInfo.Height's convention.
	txHeight map[chainhash.Hash]int64

	// addressScripts maps a caller-chosen address string to the lock
	// script it resolves to, since this double has no base58/bech32
	// codec of its own. RegisterAddress populates it.
	addressScripts map[string][]byte
}

// NewMemClient returns an empty MemClient with no blocks; the first
// MineBlock call creates the block at height 0.
func NewMemClient() *MemClient {
	return &MemClient{
		utxosByScript:  make(map[string][]Utxo),
		txByID:         make(map[chainhash.Hash]*chainztx.Transaction),
		txHeight:       make(map[chainhash.Hash]int64),
		addressScripts: make(map[string][]byte),
	}
}

// RegisterAddress binds address to the lock script its outputs use, so
// later GetAddressUTXOs(ctx, address) calls can resolve it. Chain-Z address
// encoding itself is out of scope for this double (see internal/chainzwallet
// for the real P2PKH derivation); callers pass whatever string they like.
func (m *MemClient) RegisterAddress(address string, script []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addressScripts[address] = script
}

// MineBlock appends a new block containing txs, updating the confirmed UTXO
// index: each tx's inputs remove matching confirmed UTXOs, each output adds
// one. Coinbase-style seeding is done by calling this with a single
// zero-input transaction.
func (m *MemClient) MineBlock(txs ...*chainztx.Transaction) memBlock {
	m.mu.Lock()
	defer m.mu.Unlock()

	height := uint64(len(m.blocks))
	var hashSeed [32]byte
	hashSeed[0] = byte(height)
	hashSeed[1] = byte(height >> 8)
	block := memBlock{hash: chainhash.Hash(hashSeed), height: height, txs: txs}

	for _, tx := range txs {
		txid := tx.TxID()
		m.txByID[txid] = tx
		m.txHeight[txid] = int64(height)
		for _, in := range tx.TxIn {
			m.removeConfirmedUTXO(in.PreviousOutPoint)
		}
		for idx, out := range tx.TxOut {
			key := string(out.PkScript)
			m.utxosByScript[key] = append(m.utxosByScript[key], Utxo{
				TxID:     txid,
				OutIndex: uint32(idx),
				Script:   out.PkScript,
				Value:    int64(out.Value),
				Height:   int64(height),
			})
		}
	}

	m.blocks = append(m.blocks, block)
	m.removeFromMempool(txs)
	return block
}

// AddToMempool stages tx as an unconfirmed mempool transaction, as if it
// had just been accepted by sendrawtransaction.
func (m *MemClient) AddToMempool(tx *chainztx.Transaction) chainhash.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()
	txid := tx.TxID()
	m.txByID[txid] = tx
	m.mempool = append(m.mempool, tx)
	return txid
}

func (m *MemClient) removeFromMempool(confirmed []*chainztx.Transaction) {
	confirmedIDs := make(map[chainhash.Hash]bool, len(confirmed))
	for _, tx := range confirmed {
		confirmedIDs[tx.TxID()] = true
	}
	remaining := m.mempool[:0]
	for _, tx := range m.mempool {
		if !confirmedIDs[tx.TxID()] {
			remaining = append(remaining, tx)
		}
	}
	m.mempool = remaining
}

func (m *MemClient) removeConfirmedUTXO(op chainztx.OutPoint) {
	for script, utxos := range m.utxosByScript {
		for i, u := range utxos {
			if u.TxID == op.Hash && u.OutIndex == op.Index {
				m.utxosByScript[script] = append(utxos[:i], utxos[i+1:]...)
				return
			}
		}
	}
}

func (m *MemClient) GetBlockCount(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blocks) == 0 {
		return 0, nil
	}
	return m.blocks[len(m.blocks)-1].height, nil
}

func (m *MemClient) GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if height >= uint64(len(m.blocks)) {
		return chainhash.Hash{}, fmt.Errorf("chainzrpc: block %d not found", height)
	}
	return m.blocks[height].hash, nil
}

func (m *MemClient) GetBlock(ctx context.Context, hash chainhash.Hash) (RawBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blocks {
		if b.hash == hash {
			return RawBlock{Hash: hash, Height: b.height, Bytes: chainztx.SerializeBlockTransactions(b.txs)}, nil
		}
	}
	return RawBlock{}, fmt.Errorf("chainzrpc: block %s not found", hash)
}

// TransactionsAt returns the transactions mined in the block at height,
// used by tests and by internal/zcashwatcher's block-scanning callers that
// operate on this double directly instead of through GetBlock's
// concatenated-bytes shape.
func (m *MemClient) TransactionsAt(height uint64) []*chainztx.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if height >= uint64(len(m.blocks)) {
		return nil
	}
	return m.blocks[height].txs
}

func (m *MemClient) GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*chainztx.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txByID[txid]
	if !ok {
		return nil, fmt.Errorf("chainzrpc: transaction %s not found", txid)
	}
	return tx, nil
}

// GetRawTransactionVerbose reports tx's confirmation height from
// m.txHeight, which MineBlock populates; a tx only in the mempool has no
// entry there, so the zero value correctly reports height 0.
func (m *MemClient) GetRawTransactionVerbose(ctx context.Context, txid chainhash.Hash) (*RawTransactionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txByID[txid]
	if !ok {
		return nil, fmt.Errorf("chainzrpc: transaction %s not found", txid)
	}
	return &RawTransactionInfo{Tx: tx, Height: m.txHeight[txid]}, nil
}

func (m *MemClient) SendRawTransaction(ctx context.Context, tx *chainztx.Transaction) (chainhash.Hash, error) {
	return m.AddToMempool(tx), nil
}

func (m *MemClient) GetAddressUTXOs(ctx context.Context, address string) ([]Utxo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	script, ok := m.addressScripts[address]
	if !ok {
		return nil, nil
	}
	utxos := m.utxosByScript[string(script)]
	out := make([]Utxo, len(utxos))
	copy(out, utxos)
	return out, nil
}

func (m *MemClient) GetRawMempool(ctx context.Context) ([]chainhash.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txids := make([]chainhash.Hash, 0, len(m.mempool))
	for _, tx := range m.mempool {
		txids = append(txids, tx.TxID())
	}
	return txids, nil
}

var _ Client = (*MemClient)(nil)
