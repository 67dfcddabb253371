// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainzwallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRegtestWalletDerivesDeterministicKey(t *testing.T) {
	w1, err := DefaultRegtestWallet()
	require.NoError(t, err)
	w2, err := DefaultRegtestWallet()
	require.NoError(t, err)

	k1, err := w1.DeriveKey(0, 0)
	require.NoError(t, err)
	k2, err := w2.DeriveKey(0, 0)
	require.NoError(t, err)

	require.Equal(t, k1.PubKeyHash(), k2.PubKeyHash())
}

func TestDeriveKeyVariesByIndex(t *testing.T) {
	w, err := DefaultRegtestWallet()
	require.NoError(t, err)

	k0, err := w.DeriveKey(0, 0)
	require.NoError(t, err)
	k1, err := w.DeriveKey(0, 1)
	require.NoError(t, err)

	require.NotEqual(t, k0.PubKeyHash(), k1.PubKeyHash())
}

func TestFromMnemonicRejectsInvalidPhrase(t *testing.T) {
	_, err := FromMnemonic("not a valid mnemonic phrase at all")
	require.Error(t, err)
}
