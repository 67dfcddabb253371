// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainztx

import (
	"bytes"
	"fmt"
)

// SerializeBlockTransactions encodes txs as a varint-count-prefixed
// sequence, the bridge's stand-in for getblock verbosity-0 raw bytes. The
// coinbase convention (transactions[0] is the reward transaction with no
// inputs) is preserved positionally; SpendableCoinbaseTxID relies on it.
func SerializeBlockTransactions(txs []*Transaction) []byte {
	var buf bytes.Buffer
	writeVarInt(&buf, uint64(len(txs)))
	for _, tx := range txs {
		buf.Write(tx.Serialize())
	}
	return buf.Bytes()
}

// DeserializeBlockTransactions parses the format SerializeBlockTransactions
// produces.
func DeserializeBlockTransactions(b []byte) ([]*Transaction, error) {
	r := bytes.NewReader(b)
	count, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("chainztx: block tx count: %w", err)
	}
	txs := make([]*Transaction, count)
	for i := range txs {
		tx, err := deserializeFrom(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: block tx[%d]: %w", i, err)
		}
		txs[i] = tx
	}
	return txs, nil
}
