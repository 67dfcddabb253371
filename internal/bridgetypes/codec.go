// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridgetypes

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ExtensionID is the fixed constant identifying the bridge's TZE
// precondition and witness. It is a deployment-wide constant, not
// configurable.
const ExtensionID uint32 = 0x455448 // "ETH" read as a 24-bit tag, zero-extended.

// DepositPayload is the payload carried by every DEPOSIT-mode TXO-ext: a
// 20-byte Chain-E recipient plus the 32-byte stf_identifier binding the
// deposit to one bridge deployment.
type DepositPayload struct {
	To            [20]byte
	StfIdentifier [32]byte
}

// Encode serializes the deposit payload: recipient bytes followed by the
// stf_identifier, with no length prefix since both fields are fixed size.
func (p DepositPayload) Encode() []byte {
	buf := make([]byte, 52)
	copy(buf[0:20], p.To[:])
	copy(buf[20:52], p.StfIdentifier[:])
	return buf
}

// DecodeDepositPayload parses a DEPOSIT-mode payload. It returns an error
// (never a panic) on truncated input so the watcher can skip malformed
// outputs instead of aborting the scan.
func DecodeDepositPayload(b []byte) (DepositPayload, error) {
	if len(b) != 52 {
		return DepositPayload{}, fmt.Errorf("deposit payload: want 52 bytes, got %d", len(b))
	}
	var p DepositPayload
	copy(p.To[:], b[0:20])
	copy(p.StfIdentifier[:], b[20:52])
	return p, nil
}

// StfPayload is the payload carried by the STF TXO-ext: the bridge's
// identifier and root commitment plus the ordered lists of transfers this
// transition processed.
type StfPayload struct {
	StfIdentifier        [32]byte
	RootHash             [32]byte
	ProcessedDeposits    []ProcessedDeposit
	ProcessedWithdrawals []ProcessedWithdrawal
}

// Encode serializes the STF payload as: stf_identifier || root_hash ||
// u32-LE count || deposits || u32-LE count || withdrawals, following the
// length-prefixed-vector convention dcrd's wire package uses for variable
// length data.
func (p StfPayload) Encode() []byte {
	size := 64 + 4 + len(p.ProcessedDeposits)*28 + 4 + len(p.ProcessedWithdrawals)*28
	buf := make([]byte, 0, size)
	buf = append(buf, p.StfIdentifier[:]...)
	buf = append(buf, p.RootHash[:]...)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(p.ProcessedDeposits)))
	buf = append(buf, countBuf[:]...)
	for _, d := range p.ProcessedDeposits {
		buf = append(buf, d.To[:]...)
		var amt [8]byte
		binary.LittleEndian.PutUint64(amt[:], uint64(d.Amount))
		buf = append(buf, amt[:]...)
	}

	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(p.ProcessedWithdrawals)))
	buf = append(buf, countBuf[:]...)
	for _, w := range p.ProcessedWithdrawals {
		buf = append(buf, w.PubKeyHash[:]...)
		var amt [8]byte
		binary.LittleEndian.PutUint64(amt[:], uint64(w.Amount))
		buf = append(buf, amt[:]...)
	}
	return buf
}

// DecodeStfPayload parses an STF-mode payload, returning an error on any
// truncation or count/remaining-length mismatch.
func DecodeStfPayload(b []byte) (StfPayload, error) {
	if len(b) < 68 {
		return StfPayload{}, fmt.Errorf("stf payload: too short (%d bytes)", len(b))
	}
	var p StfPayload
	copy(p.StfIdentifier[:], b[0:32])
	copy(p.RootHash[:], b[32:64])

	off := 64
	depositCount, off, err := readCount(b, off)
	if err != nil {
		return StfPayload{}, fmt.Errorf("stf payload: deposit count: %w", err)
	}
	p.ProcessedDeposits = make([]ProcessedDeposit, 0, depositCount)
	for i := uint32(0); i < depositCount; i++ {
		if off+28 > len(b) {
			return StfPayload{}, fmt.Errorf("stf payload: %w", io.ErrUnexpectedEOF)
		}
		var d ProcessedDeposit
		copy(d.To[:], b[off:off+20])
		d.Amount = Zatoshis(binary.LittleEndian.Uint64(b[off+20 : off+28]))
		p.ProcessedDeposits = append(p.ProcessedDeposits, d)
		off += 28
	}

	withdrawalCount, off, err := readCount(b, off)
	if err != nil {
		return StfPayload{}, fmt.Errorf("stf payload: withdrawal count: %w", err)
	}
	p.ProcessedWithdrawals = make([]ProcessedWithdrawal, 0, withdrawalCount)
	for i := uint32(0); i < withdrawalCount; i++ {
		if off+28 > len(b) {
			return StfPayload{}, fmt.Errorf("stf payload: %w", io.ErrUnexpectedEOF)
		}
		var w ProcessedWithdrawal
		copy(w.PubKeyHash[:], b[off:off+20])
		w.Amount = Zatoshis(binary.LittleEndian.Uint64(b[off+20 : off+28]))
		p.ProcessedWithdrawals = append(p.ProcessedWithdrawals, w)
		off += 28
	}

	if off != len(b) {
		return StfPayload{}, fmt.Errorf("stf payload: %d trailing bytes", len(b)-off)
	}
	return p, nil
}

func readCount(b []byte, off int) (uint32, int, error) {
	if off+4 > len(b) {
		return 0, off, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint32(b[off : off+4]), off + 4, nil
}

// CreatePayload is the payload carried by the CREATE-mode TXO-ext: the
// first anchor mined for a deployment, before it is transitioned into its
// first STF form.
type CreatePayload struct {
	StfIdentifier [32]byte
	RootHash      [32]byte
}

// Encode serializes the CREATE payload.
func (p CreatePayload) Encode() []byte {
	buf := make([]byte, 64)
	copy(buf[0:32], p.StfIdentifier[:])
	copy(buf[32:64], p.RootHash[:])
	return buf
}

// DecodeCreatePayload parses a CREATE-mode payload.
func DecodeCreatePayload(b []byte) (CreatePayload, error) {
	if len(b) != 64 {
		return CreatePayload{}, fmt.Errorf("create payload: want 64 bytes, got %d", len(b))
	}
	var p CreatePayload
	copy(p.StfIdentifier[:], b[0:32])
	copy(p.RootHash[:], b[32:64])
	return p, nil
}
