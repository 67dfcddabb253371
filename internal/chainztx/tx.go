// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainztx

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
)

// OutPoint is the wire representation of bridgetypes.OutPoint: the hash is
// serialized in internal (little-endian/display-reversed) byte order, the
// same convention dcrd's wire.OutPoint uses.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// TxIn spends one transparent output.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
}

// TxOut is one transparent pay-to-pubkey-hash output.
type TxOut struct {
	Value    bridgetypes.Zatoshis
	PkScript []byte
}

// TzeIn consumes one TXO-ext output. It carries the previous outpoint and
// the witness proving the right to spend it; internal/txbuilder fills the
// witness in when it signs, and it is serialized with the transaction.
type TzeIn struct {
	PreviousOutPoint OutPoint
	Witness          []byte
}

// TzeOut creates one TXO-ext output.
type TzeOut struct {
	Value        bridgetypes.Zatoshis
	Precondition TzePrecondition
}

// Transaction is the subset of a Chain-Z transaction this bridge builds
// and parses: transparent inputs/outputs plus a TZE bundle. Transparent
// outputs are serialized before TZE outputs, so the fixed vout-index math
// in internal/txbuilder holds.
type Transaction struct {
	Version      uint32
	TxIn         []TxIn
	TxOut        []TxOut
	TzeIn        []TzeIn
	TzeOut       []TzeOut
	LockTime     uint32
	ExpiryHeight uint32
}

// Serialize encodes the transaction in the bridge's wire format: a
// varint-length-prefixed-vector layout matching dcrd's wire package
// conventions, extended with the two TZE vectors appended after the
// transparent bundle.
func (tx *Transaction) Serialize() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, tx.Version)

	writeVarInt(&buf, uint64(len(tx.TxIn)))
	for _, in := range tx.TxIn {
		buf.Write(in.PreviousOutPoint.Hash[:])
		writeUint32(&buf, in.PreviousOutPoint.Index)
		writeVarInt(&buf, uint64(len(in.SignatureScript)))
		buf.Write(in.SignatureScript)
	}

	writeVarInt(&buf, uint64(len(tx.TxOut)))
	for _, out := range tx.TxOut {
		writeUint64(&buf, uint64(out.Value))
		writeVarInt(&buf, uint64(len(out.PkScript)))
		buf.Write(out.PkScript)
	}

	writeVarInt(&buf, uint64(len(tx.TzeIn)))
	for _, in := range tx.TzeIn {
		buf.Write(in.PreviousOutPoint.Hash[:])
		writeUint32(&buf, in.PreviousOutPoint.Index)
		writeVarInt(&buf, uint64(len(in.Witness)))
		buf.Write(in.Witness)
	}

	writeVarInt(&buf, uint64(len(tx.TzeOut)))
	for _, out := range tx.TzeOut {
		writeUint64(&buf, uint64(out.Value))
		script := TzeExtensionScript(out.Precondition)
		writeVarInt(&buf, uint64(len(script)))
		buf.Write(script)
	}

	writeUint32(&buf, tx.LockTime)
	writeUint32(&buf, tx.ExpiryHeight)
	return buf.Bytes()
}

// TxID computes the transaction hash: a double-SHA256 over the serialized
// form, the same digest dcrd and Zcash both use for txids.
func (tx *Transaction) TxID() chainhash.Hash {
	ser := tx.Serialize()
	first := sha256.Sum256(ser)
	second := sha256.Sum256(first[:])
	return chainhash.Hash(second)
}

// Deserialize parses the wire format produced by Serialize.
func Deserialize(b []byte) (*Transaction, error) {
	r := bytes.NewReader(b)
	return deserializeFrom(r)
}

// deserializeFrom parses one transaction from r, leaving the reader
// positioned just past it. Block.go uses this to walk a concatenated,
// count-prefixed sequence of transactions without knowing their lengths
// up front.
func deserializeFrom(r *bytes.Reader) (*Transaction, error) {
	tx := &Transaction{}

	var err error
	if tx.Version, err = readUint32(r); err != nil {
		return nil, fmt.Errorf("chainztx: version: %w", err)
	}

	// An empty vector decodes to a nil slice, so a transaction built
	// without one round-trips through Serialize unchanged.
	inCount, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("chainztx: txin count: %w", err)
	}
	if inCount > 0 {
		tx.TxIn = make([]TxIn, inCount)
	}
	for i := range tx.TxIn {
		if _, err := io.ReadFull(r, tx.TxIn[i].PreviousOutPoint.Hash[:]); err != nil {
			return nil, fmt.Errorf("chainztx: txin[%d] hash: %w", i, err)
		}
		if tx.TxIn[i].PreviousOutPoint.Index, err = readUint32(r); err != nil {
			return nil, fmt.Errorf("chainztx: txin[%d] index: %w", i, err)
		}
		sigLen, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: txin[%d] sig len: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = make([]byte, sigLen)
		if _, err := io.ReadFull(r, tx.TxIn[i].SignatureScript); err != nil {
			return nil, fmt.Errorf("chainztx: txin[%d] sig: %w", i, err)
		}
	}

	outCount, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("chainztx: txout count: %w", err)
	}
	if outCount > 0 {
		tx.TxOut = make([]TxOut, outCount)
	}
	for i := range tx.TxOut {
		v, err := readUint64(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: txout[%d] value: %w", i, err)
		}
		tx.TxOut[i].Value = bridgetypes.Zatoshis(v)
		scriptLen, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: txout[%d] script len: %w", i, err)
		}
		tx.TxOut[i].PkScript = make([]byte, scriptLen)
		if _, err := io.ReadFull(r, tx.TxOut[i].PkScript); err != nil {
			return nil, fmt.Errorf("chainztx: txout[%d] script: %w", i, err)
		}
	}

	tzeInCount, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("chainztx: tzein count: %w", err)
	}
	if tzeInCount > 0 {
		tx.TzeIn = make([]TzeIn, tzeInCount)
	}
	for i := range tx.TzeIn {
		if _, err := io.ReadFull(r, tx.TzeIn[i].PreviousOutPoint.Hash[:]); err != nil {
			return nil, fmt.Errorf("chainztx: tzein[%d] hash: %w", i, err)
		}
		if tx.TzeIn[i].PreviousOutPoint.Index, err = readUint32(r); err != nil {
			return nil, fmt.Errorf("chainztx: tzein[%d] index: %w", i, err)
		}
		wLen, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: tzein[%d] witness len: %w", i, err)
		}
		tx.TzeIn[i].Witness = make([]byte, wLen)
		if _, err := io.ReadFull(r, tx.TzeIn[i].Witness); err != nil {
			return nil, fmt.Errorf("chainztx: tzein[%d] witness: %w", i, err)
		}
	}

	tzeOutCount, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("chainztx: tzeout count: %w", err)
	}
	if tzeOutCount > 0 {
		tx.TzeOut = make([]TzeOut, tzeOutCount)
	}
	for i := range tx.TzeOut {
		v, err := readUint64(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: tzeout[%d] value: %w", i, err)
		}
		scriptLen, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("chainztx: tzeout[%d] script len: %w", i, err)
		}
		script := make([]byte, scriptLen)
		if _, err := io.ReadFull(r, script); err != nil {
			return nil, fmt.Errorf("chainztx: tzeout[%d] script: %w", i, err)
		}
		precond, err := ExtractTzePrecondition(script)
		if err != nil {
			return nil, fmt.Errorf("chainztx: tzeout[%d]: %w", i, err)
		}
		tx.TzeOut[i] = TzeOut{Value: bridgetypes.Zatoshis(v), Precondition: precond}
	}

	if tx.LockTime, err = readUint32(r); err != nil {
		return nil, fmt.Errorf("chainztx: locktime: %w", err)
	}
	if tx.ExpiryHeight, err = readUint32(r); err != nil {
		return nil, fmt.Errorf("chainztx: expiry height: %w", err)
	}
	return tx, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// writeVarInt encodes length-prefixed vectors using dcrd wire's varint
// scheme: single byte for small counts, escaped wider encodings above.
func writeVarInt(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Write(b[:])
	case v <= 0xffffffff:
		buf.WriteByte(0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	default:
		buf.WriteByte(0xff)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readVarInt(r *bytes.Reader) (uint64, error) {
	discriminant, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch discriminant {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	default:
		return uint64(discriminant), nil
	}
}
