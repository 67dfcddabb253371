// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainzrpc

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// TxIDFromRPCString converts a transaction hash as returned over RPC
// (big-endian display order) into chainhash.Hash's internal byte order.
func TxIDFromRPCString(s string) (chainhash.Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("chainzrpc: decode txid hex: %w", err)
	}
	if len(raw) != chainhash.HashSize {
		return chainhash.Hash{}, fmt.Errorf("chainzrpc: txid hex has %d bytes, want %d", len(raw), chainhash.HashSize)
	}
	var h chainhash.Hash
	for i, b := range raw {
		h[len(raw)-1-i] = b
	}
	return h, nil
}

// RPCString renders a hash in RPC display order (reverse of the internal
// byte order), the inverse of TxIDFromRPCString.
func RPCString(h chainhash.Hash) string {
	rev := make([]byte, len(h))
	for i, b := range h {
		rev[len(h)-1-i] = b
	}
	return hex.EncodeToString(rev)
}
