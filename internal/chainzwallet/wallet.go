// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainzwallet derives Chain-Z transparent keys and addresses
// from a BIP-39 mnemonic. HD derivation walks an hdkeychain.ExtendedKey
// by child index rather than implementing ZIP-32 faithfully, since the
// bridge only ever needs flat account/address-index key derivation, not
// shielded viewing keys.
package chainzwallet

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // transparent addresses are RIPEMD160(SHA256(pubkey))
)

// hdNetParamsStub satisfies hdkeychain.NetworkParams with the two HD key
// version prefixes NewMaster needs. Address encoding itself is out of
// scope for this wallet, so any fixed, internally-consistent version pair
// works; these match the standard xprv/xpub prefixes.
type hdNetParamsStub struct{}

func (hdNetParamsStub) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xad, 0xe4} }
func (hdNetParamsStub) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xb2, 0x1e} }

// Wallet derives deterministic secp256k1 keys from a seed.
type Wallet struct {
	seed []byte
}

// FromMnemonic builds a Wallet from a BIP-39 mnemonic phrase with an
// empty passphrase.
func FromMnemonic(mnemonic string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("chainzwallet: invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("chainzwallet: derive seed: %w", err)
	}
	return &Wallet{seed: seed}, nil
}

// RegtestDefaultSeed is the well-known mnemonic regtest harnesses mine
// coinbase rewards to; the (account 0, index 0) address collects miner
// rewards in a local regtest deployment.
const RegtestDefaultSeed = "fabric dilemma shift time border road fork license among uniform early laundry caution deer stamp"

// DefaultRegtestWallet returns the wallet used to spend Chain-Z regtest
// coinbase outputs. Tests and the demo harness use it; the production
// driver always takes its mnemonic from config.
func DefaultRegtestWallet() (*Wallet, error) {
	return FromMnemonic(RegtestDefaultSeed)
}

// Key is one derived secp256k1 keypair.
type Key struct {
	priv *secp256k1.PrivateKey
}

// DeriveKey derives the key at m/accountID'/addressIndex from the
// wallet's seed, flattened onto hdkeychain's plain child-index walk
// rather than ZIP-32's dedicated account/external chain levels.
func (w *Wallet) DeriveKey(accountID, addressIndex uint32) (*Key, error) {
	master, err := hdkeychain.NewMaster(w.seed, hdNetParamsStub{})
	if err != nil {
		return nil, fmt.Errorf("chainzwallet: derive master key: %w", err)
	}
	account, err := master.Child(hdkeychain.HardenedKeyStart + accountID)
	if err != nil {
		return nil, fmt.Errorf("chainzwallet: derive account key: %w", err)
	}
	child, err := account.Child(addressIndex)
	if err != nil {
		return nil, fmt.Errorf("chainzwallet: derive child key: %w", err)
	}
	privBytes, err := child.SerializedPrivKey()
	if err != nil {
		return nil, fmt.Errorf("chainzwallet: serialize private key: %w", err)
	}
	return &Key{priv: secp256k1.PrivKeyFromBytes(privBytes)}, nil
}

// SecretKey returns the derived private key.
func (k *Key) SecretKey() *secp256k1.PrivateKey {
	return k.priv
}

// PubKeyHash returns RIPEMD160(SHA256(serialized compressed pubkey)), the
// Chain-Z transparent address hash.
func (k *Key) PubKeyHash() [20]byte {
	pub := k.priv.PubKey().SerializeCompressed()
	sha := sha256.Sum256(pub)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	var out [20]byte
	copy(out[:], hasher.Sum(nil))
	return out
}
