// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainztx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionRoundTrip(t *testing.T) {
	tx := &Transaction{
		Version: 1,
		TxIn: []TxIn{
			{PreviousOutPoint: OutPoint{Index: 0}, SignatureScript: []byte{1, 2, 3}},
		},
		TxOut: []TxOut{
			{Value: 49_950_000, PkScript: PayToPubKeyHashScript([20]byte{1})},
		},
		TzeIn: []TzeIn{
			{PreviousOutPoint: OutPoint{Index: 1}, Witness: []byte{9, 9}},
		},
		TzeOut: []TzeOut{
			{
				Value: 2_100_000,
				Precondition: TzePrecondition{
					ExtensionID: 42,
					Mode:        2,
					Payload:     []byte{0xde, 0xad, 0xbe, 0xef},
				},
			},
		},
		LockTime:     0,
		ExpiryHeight: 123,
	}

	got, err := Deserialize(tx.Serialize())
	require.NoError(t, err)
	require.Equal(t, tx, got)
}

func TestTransactionRoundTripEmptyVectors(t *testing.T) {
	tx := &Transaction{Version: 1}
	got, err := Deserialize(tx.Serialize())
	require.NoError(t, err)
	require.Equal(t, tx, got)
}

func TestClassifyScript(t *testing.T) {
	p2pkh := PayToPubKeyHashScript([20]byte{1, 2, 3})
	require.Equal(t, PubKeyHashTy, ClassifyScript(p2pkh))

	tze := TzeExtensionScript(TzePrecondition{ExtensionID: 1, Mode: 0, Payload: []byte{1}})
	require.Equal(t, TzeExtensionTy, ClassifyScript(tze))

	require.Equal(t, NonStandardTy, ClassifyScript([]byte{0x00}))
}

func TestExtractTzePreconditionRejectsTruncated(t *testing.T) {
	script := TzeExtensionScript(TzePrecondition{ExtensionID: 1, Mode: 0, Payload: []byte{1, 2, 3}})
	_, err := ExtractTzePrecondition(script[:len(script)-1])
	require.Error(t, err)
}
