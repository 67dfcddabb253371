// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txbuilder constructs and submits Chain-Z transactions.
// Operations are stateless functions rather than methods on a sender
// struct carrying anchor/fee-coin/deposited fields: the driver owns that
// state across the reconciliation loop and threads it through each call,
// making crash recovery a matter of reloading state rather than
// reconstructing a live sender.
package txbuilder

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzwallet"
	"github.com/matter-labs/zcash-eth-bridge/internal/zcashwatcher"
)

// LockInValue is the default dust floor carried inside the STF anchor,
// used by callers (tests, the e2e demo) that have no deployment-specific
// value of their own. Production deployments instead thread the configured
// lockinvalue through to SendTzeCreate/InitializeTzeStf/Deploy explicitly,
// since it is a per-deployment value, not a protocol constant.
const LockInValue bridgetypes.Zatoshis = 100_000

// DefaultFee is the flat fee this builder pays per transaction.
const DefaultFee = 50_000

// TzeState is one (outpoint, output) pair tracked across builder calls:
// the STF anchor's current position, or a pending deposit's position
// before it is folded into the anchor.
type TzeState struct {
	Outpoint chainztx.OutPoint
	TzeOut   chainztx.TzeOut
}

func fetchFeeCoin(ctx context.Context, client chainzrpc.Client, feeTxID chainhash.Hash) (bridgetypes.Zatoshis, error) {
	tx, err := client.GetRawTransaction(ctx, feeTxID)
	if err != nil {
		return 0, fmt.Errorf("txbuilder: fetch fee coin: %w", err)
	}
	if len(tx.TxOut) == 0 {
		return 0, fmt.Errorf("txbuilder: fee tx %s has no transparent outputs", feeTxID)
	}
	return tx.TxOut[0].Value, nil
}

// presignHash computes the value signInput signs over: a double-SHA256 of
// the transaction with all input signature/witness fields zeroed, a
// simplified stand-in for the segregated sighash algorithms real
// Zcash/Bitcoin transparent and TZE inputs use. The real eth-bridge TZE
// extension's witness-program format is consensus code owned by the
// Chain-Z node, out of scope for this bridge; this
// signature only needs to be internally consistent for the builder and
// its in-memory test double, not verified by a script interpreter here.
func presignHash(tx *chainztx.Transaction) chainhash.Hash {
	unsigned := *tx
	unsigned.TxIn = make([]chainztx.TxIn, len(tx.TxIn))
	for i, in := range tx.TxIn {
		unsigned.TxIn[i] = chainztx.TxIn{PreviousOutPoint: in.PreviousOutPoint}
	}
	unsigned.TzeIn = make([]chainztx.TzeIn, len(tx.TzeIn))
	for i, in := range tx.TzeIn {
		unsigned.TzeIn[i] = chainztx.TzeIn{PreviousOutPoint: in.PreviousOutPoint}
	}
	return unsigned.TxID()
}

func signInput(key *chainzwallet.Key, sighash chainhash.Hash) []byte {
	sig := ecdsa.Sign(key.SecretKey(), sighash[:])
	return encodeSigScript(sig.Serialize(), key.SecretKey().PubKey().SerializeCompressed())
}

func encodeSigScript(sig, pub []byte) []byte {
	buf := make([]byte, 0, 2+len(sig)+len(pub))
	buf = append(buf, byte(len(sig)))
	buf = append(buf, sig...)
	buf = append(buf, byte(len(pub)))
	buf = append(buf, pub...)
	return buf
}

// signAndSend finalizes tx by signing its single transparent fee input and
// every TZE input with key, submits it, and returns its txid.
func signAndSend(ctx context.Context, client chainzrpc.Client, key *chainzwallet.Key, tx *chainztx.Transaction) (chainhash.Hash, error) {
	sighash := presignHash(tx)
	for i := range tx.TxIn {
		tx.TxIn[i].SignatureScript = signInput(key, sighash)
	}
	for i := range tx.TzeIn {
		tx.TzeIn[i].Witness = signInput(key, sighash)
	}

	txid, err := client.SendRawTransaction(ctx, tx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("txbuilder: send raw transaction: %w", err)
	}
	return txid, nil
}

// SendTzeCreate builds the singleton TZE create output that seeds the STF
// anchor. Callers must only call this once per anchor lifetime; CREATE is
// a one-time bootstrap. lockInValue is the deployment's configured dust
// floor; LockInValue is a sensible default.
func SendTzeCreate(ctx context.Context, client chainzrpc.Client, wallet *chainzwallet.Wallet, feeTxID chainhash.Hash, stfIdentifier, rootHash [32]byte, lockInValue bridgetypes.Zatoshis) (TzeState, chainhash.Hash, error) {
	minerKey, err := wallet.DeriveKey(0, 0)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: derive miner key: %w", err)
	}

	feeValue, err := fetchFeeCoin(ctx, client, feeTxID)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, err
	}

	afterFee, err := feeValue.Sub(DefaultFee)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: fee coin too small: %w", err)
	}
	changeValue, err := afterFee.Sub(lockInValue)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: fee coin can't cover lock-in: %w", err)
	}

	createPayload := bridgetypes.CreatePayload{StfIdentifier: stfIdentifier, RootHash: rootHash}
	tx := &chainztx.Transaction{
		Version: 1,
		TxIn:    []chainztx.TxIn{{PreviousOutPoint: chainztx.OutPoint{Hash: feeTxID, Index: 0}}},
		TxOut: []chainztx.TxOut{{
			Value:    changeValue,
			PkScript: chainztx.PayToPubKeyHashScript(minerKey.PubKeyHash()),
		}},
		TzeOut: []chainztx.TzeOut{{
			Value: lockInValue,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: bridgetypes.ExtensionID,
				Mode:        byte(bridgetypes.ModeCreate),
				Payload:     createPayload.Encode(),
			},
		}},
	}

	txid, err := signAndSend(ctx, client, minerKey, tx)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, err
	}

	// TZE outpoints come after transparent outputs, so index 1.
	state := TzeState{
		Outpoint: chainztx.OutPoint{Hash: txid, Index: 1},
		TzeOut:   tx.TzeOut[0],
	}
	return state, txid, nil
}

// SendTzeDeposit builds a deposit TZE output locking amount for
// ethRecipient.
func SendTzeDeposit(ctx context.Context, client chainzrpc.Client, wallet *chainzwallet.Wallet, feeTxID chainhash.Hash, stfIdentifier [32]byte, ethRecipient [20]byte, amount bridgetypes.Zatoshis) (TzeState, chainhash.Hash, error) {
	minerKey, err := wallet.DeriveKey(0, 0)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: derive miner key: %w", err)
	}

	feeValue, err := fetchFeeCoin(ctx, client, feeTxID)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, err
	}
	afterFee, err := feeValue.Sub(DefaultFee)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: fee coin too small: %w", err)
	}
	changeValue, err := afterFee.Sub(amount)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: fee coin can't cover deposit: %w", err)
	}

	depositPayload := bridgetypes.DepositPayload{To: ethRecipient, StfIdentifier: stfIdentifier}
	tx := &chainztx.Transaction{
		Version: 1,
		TxIn:    []chainztx.TxIn{{PreviousOutPoint: chainztx.OutPoint{Hash: feeTxID, Index: 0}}},
		TxOut: []chainztx.TxOut{{
			Value:    changeValue,
			PkScript: chainztx.PayToPubKeyHashScript(minerKey.PubKeyHash()),
		}},
		TzeOut: []chainztx.TzeOut{{
			Value: amount,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: bridgetypes.ExtensionID,
				Mode:        byte(bridgetypes.ModeDeposit),
				Payload:     depositPayload.Encode(),
			},
		}},
	}

	txid, err := signAndSend(ctx, client, minerKey, tx)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, err
	}

	state := TzeState{
		Outpoint: chainztx.OutPoint{Hash: txid, Index: 1},
		TzeOut:   tx.TzeOut[0],
	}
	return state, txid, nil
}

// InitializeTzeStf spends the create output into the STF anchor's first
// generation. lockInValue must match the value used at create time.
func InitializeTzeStf(ctx context.Context, client chainzrpc.Client, wallet *chainzwallet.Wallet, feeTxID chainhash.Hash, createState TzeState, stfIdentifier, rootHash [32]byte, lockInValue bridgetypes.Zatoshis) (TzeState, chainhash.Hash, error) {
	minerKey, err := wallet.DeriveKey(0, 0)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: derive miner key: %w", err)
	}

	feeValue, err := fetchFeeCoin(ctx, client, feeTxID)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, err
	}
	changeValue, err := feeValue.Sub(DefaultFee)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: fee coin too small: %w", err)
	}

	stfPayload := bridgetypes.StfPayload{StfIdentifier: stfIdentifier, RootHash: rootHash}
	tx := &chainztx.Transaction{
		Version: 1,
		TxIn:    []chainztx.TxIn{{PreviousOutPoint: chainztx.OutPoint{Hash: feeTxID, Index: 0}}},
		TxOut: []chainztx.TxOut{{
			Value:    changeValue,
			PkScript: chainztx.PayToPubKeyHashScript(minerKey.PubKeyHash()),
		}},
		TzeIn: []chainztx.TzeIn{{PreviousOutPoint: createState.Outpoint}},
		TzeOut: []chainztx.TzeOut{{
			Value: lockInValue,
			Precondition: chainztx.TzePrecondition{
				ExtensionID: bridgetypes.ExtensionID,
				Mode:        byte(bridgetypes.ModeStf),
				Payload:     stfPayload.Encode(),
			},
		}},
	}

	txid, err := signAndSend(ctx, client, minerKey, tx)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, err
	}

	state := TzeState{
		Outpoint: chainztx.OutPoint{Hash: txid, Index: 1},
		TzeOut:   tx.TzeOut[0],
	}
	return state, txid, nil
}

// ProgressTzeStf folds pending deposits and withdrawals into a new STF
// anchor generation. deposited is the locked-value accumulator the caller
// tracks across calls; the returned value reflects this call's folded
// deposits and withdrawals.
func ProgressTzeStf(
	ctx context.Context,
	client chainzrpc.Client,
	wallet *chainzwallet.Wallet,
	feeTxID chainhash.Hash,
	stfState TzeState,
	depositStates []zcashwatcher.DepositTzeOutput,
	stfIdentifier, rootHash [32]byte,
	processedDeposits []bridgetypes.ProcessedDeposit,
	processedWithdrawals []bridgetypes.ProcessedWithdrawal,
	deposited bridgetypes.Zatoshis,
) (TzeState, chainhash.Hash, bridgetypes.Zatoshis, error) {
	minerKey, err := wallet.DeriveKey(0, 0)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, 0, fmt.Errorf("txbuilder: derive miner key: %w", err)
	}

	feeValue, err := fetchFeeCoin(ctx, client, feeTxID)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, 0, err
	}
	changeValue, err := feeValue.Sub(DefaultFee)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, 0, fmt.Errorf("txbuilder: fee coin too small: %w", err)
	}

	newDeposited := deposited
	for _, d := range depositStates {
		newDeposited, err = newDeposited.Add(d.TzeOut.Value)
		if err != nil {
			return TzeState{}, chainhash.Hash{}, 0, fmt.Errorf("txbuilder: fold deposit: %w", err)
		}
	}
	for _, w := range processedWithdrawals {
		newDeposited, err = newDeposited.Sub(w.Amount)
		if err != nil {
			return TzeState{}, chainhash.Hash{}, 0, fmt.Errorf("txbuilder: fold withdrawal: %w", err)
		}
	}

	tx := &chainztx.Transaction{Version: 1}
	tx.TxIn = []chainztx.TxIn{{PreviousOutPoint: chainztx.OutPoint{Hash: feeTxID, Index: 0}}}

	tx.TzeIn = append(tx.TzeIn, chainztx.TzeIn{PreviousOutPoint: stfState.Outpoint})
	for _, d := range depositStates {
		tx.TzeIn = append(tx.TzeIn, chainztx.TzeIn{PreviousOutPoint: d.Outpoint})
	}

	// 1. Transparent fee change (always vout 0).
	tx.TxOut = append(tx.TxOut, chainztx.TxOut{
		Value:    changeValue,
		PkScript: chainztx.PayToPubKeyHashScript(minerKey.PubKeyHash()),
	})
	// 2. Withdrawal payouts, still transparent, in withdrawal order.
	for _, w := range processedWithdrawals {
		tx.TxOut = append(tx.TxOut, chainztx.TxOut{
			Value:    w.Amount,
			PkScript: chainztx.PayToPubKeyHashScript(w.PubKeyHash),
		})
	}

	// 3. TZE STF output, carrying the new deposited total forward.
	stfPayload := bridgetypes.StfPayload{
		StfIdentifier:        stfIdentifier,
		RootHash:             rootHash,
		ProcessedDeposits:    processedDeposits,
		ProcessedWithdrawals: processedWithdrawals,
	}
	tx.TzeOut = []chainztx.TzeOut{{
		Value: newDeposited,
		Precondition: chainztx.TzePrecondition{
			ExtensionID: bridgetypes.ExtensionID,
			Mode:        byte(bridgetypes.ModeStf),
			Payload:     stfPayload.Encode(),
		},
	}}

	txid, err := signAndSend(ctx, client, minerKey, tx)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, 0, err
	}

	// TZE outpoints come after transparent outputs: 1 fee change output
	// plus one per withdrawal.
	stfOutputIndex := uint32(1 + len(processedWithdrawals))
	state := TzeState{
		Outpoint: chainztx.OutPoint{Hash: txid, Index: stfOutputIndex},
		TzeOut:   tx.TzeOut[0],
	}
	return state, txid, newDeposited, nil
}

// Deploy runs the one-time CREATE-then-STF-init sequence that bootstraps a
// fresh bridge deployment. waitForTx blocks until a submitted transaction
// is confirmed before the next step spends its output.
func Deploy(
	ctx context.Context,
	client chainzrpc.Client,
	wallet *chainzwallet.Wallet,
	feeTxID chainhash.Hash,
	stfIdentifier, rootHash [32]byte,
	lockInValue bridgetypes.Zatoshis,
	waitForTx func(context.Context, chainzrpc.Client, chainhash.Hash) (uint64, error),
) (TzeState, chainhash.Hash, error) {
	createState, createTxID, err := SendTzeCreate(ctx, client, wallet, feeTxID, stfIdentifier, rootHash, lockInValue)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: deploy create: %w", err)
	}
	if _, err := waitForTx(ctx, client, createTxID); err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: wait for create tx: %w", err)
	}

	stfState, stfTxID, err := InitializeTzeStf(ctx, client, wallet, createTxID, createState, stfIdentifier, rootHash, lockInValue)
	if err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: deploy init stf: %w", err)
	}
	if _, err := waitForTx(ctx, client, stfTxID); err != nil {
		return TzeState{}, chainhash.Hash{}, fmt.Errorf("txbuilder: wait for stf init tx: %w", err)
	}

	return stfState, stfTxID, nil
}
