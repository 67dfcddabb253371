// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridgetypes holds the plain data records shared by every bridge
// component: observed transfers, the TXO-ext STF anchor, and the
// cross-chain StateUpdate submitted to Chain-E. None of these types carry
// behavior beyond bit-exact conversions; they exist so the rest of the
// driver can pass immutable records around instead of raw chain bytes.
package bridgetypes

import "github.com/decred/dcrd/chaincfg/chainhash"

// OutPoint identifies a Chain-Z TXO-ext output by its containing
// transaction and output index.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

func (o OutPoint) String() string {
	return o.Hash.String() + ":" + itoa(o.Index)
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// DepositObserved is one well-formed DEPOSIT-mode TXO-ext decoded from
// Chain-Z. It is produced by internal/zcashwatcher and consumed by
// internal/txbuilder and internal/driver.
type DepositObserved struct {
	Outpoint     OutPoint
	EthRecipient [20]byte
	Amount       Zatoshis
	ChainZBlock  uint64
}

// WithdrawalRequested is one WithdrawalRequested event decoded from
// Chain-E. It is produced by internal/ethwatcher.
type WithdrawalRequested struct {
	ZcashPubKeyHash [20]byte
	Amount          Zatoshis
	ChainEBlock     uint64
}

// StfMode distinguishes the three TXO-ext payload shapes the bridge
// extension understands.
type StfMode byte

const (
	// ModeCreate mints the singleton CREATE anchor; it carries no
	// processed-transfer lists and is only ever seen once per deployment.
	ModeCreate StfMode = iota
	// ModeDeposit locks native value and names a Chain-E recipient.
	ModeDeposit
	// ModeStf is the STF anchor itself: the singleton state-transition
	// output that is consumed and re-emitted by every batch.
	ModeStf
)

func (m StfMode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeDeposit:
		return "deposit"
	case ModeStf:
		return "stf"
	default:
		return "unknown"
	}
}

// StfAnchor describes the singleton STF TXO-ext: the output anchoring the
// bridge's state machine on Chain-Z. At most one exists on-chain at a time.
type StfAnchor struct {
	Outpoint    OutPoint
	LockedValue Zatoshis
	StfID       [32]byte
	RootHash    [32]byte
}

// ProcessedDeposit is one deposit folded into a progress transaction's
// STF payload.
type ProcessedDeposit struct {
	To     [20]byte
	Amount Zatoshis
}

// ProcessedWithdrawal is one withdrawal folded into a progress
// transaction's STF payload.
type ProcessedWithdrawal struct {
	PubKeyHash [20]byte
	Amount     Zatoshis
}

// StateUpdate is the record submitted to the Chain-E bridge contract after
// every batch. Field order and naming mirror the contract's StateUpdate
// struct so the ethsubmitter package can pack it without reshuffling.
type StateUpdate struct {
	OldEthRoot        [32]byte
	OldEthBlockNumber uint64
	NewEthRoot        [32]byte
	NewEthBlockNumber uint64

	OldZecRoot        [32]byte
	OldZecBlockNumber uint64
	NewZecRoot        [32]byte
	NewZecBlockNumber uint64

	ZecToEthTransfers []ZecToEthTransfer
	EthToZecTransfers []EthToZecTransfer
}

// ZecToEthTransfer is a single processed deposit as it appears inside a
// StateUpdate's zecToEthTransfers array.
type ZecToEthTransfer struct {
	To     [20]byte
	Amount Zatoshis
}

// EthToZecTransfer is a single processed withdrawal as it appears inside a
// StateUpdate's ethToZecTransfers array.
type EthToZecTransfer struct {
	PubKeyHash [20]byte
	Amount     Zatoshis
}
