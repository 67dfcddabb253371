// Copyright (c) 2025 The zcash-eth-bridge developers
// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainztx implements the slice of Chain-Z's transaction format
// this bridge actually touches: transparent pay-to-pubkey-hash in/outputs
// and the bridge's own TZE ("type-extended output") precondition. It is a
// deliberately narrowed port of dcrd's txscript/standard.go: only the
// script classes a bridge transaction can ever contain are represented.
package chainztx

import (
	"encoding/binary"
	"fmt"
)

// Bitcoin-family opcodes used by the two script classes this package
// recognizes. Zcash transparent scripts share Bitcoin's opcode table.
const (
	opDup         = 0x76
	opHash160     = 0xa9
	opData20      = 0x14
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// tzeMarker is the leading byte distinguishing a TXO-ext lock script from a
// standard transparent script. It cannot collide with opDup since a
// standard script always starts there.
const tzeMarker = 0xfe

// ScriptClass is an enumeration of the lock-script shapes a bridge
// transaction produces or consumes, mirroring dcrd's ScriptClass enum
// trimmed to this bridge's two cases.
type ScriptClass byte

const (
	// NonStandardTy is any script this package does not recognize.
	NonStandardTy ScriptClass = iota
	// PubKeyHashTy is a standard transparent pay-to-pubkey-hash output.
	PubKeyHashTy
	// TzeExtensionTy is a type-extended bridge output (CREATE/DEPOSIT/STF).
	TzeExtensionTy
)

var scriptClassToName = []string{
	NonStandardTy:  "nonstandard",
	PubKeyHashTy:   "pubkeyhash",
	TzeExtensionTy: "tzeextension",
}

func (c ScriptClass) String() string {
	if int(c) >= len(scriptClassToName) {
		return "invalid"
	}
	return scriptClassToName[c]
}

// PayToPubKeyHashScript builds a standard transparent P2PKH lock script for
// the given 20-byte hash.
func PayToPubKeyHashScript(pkHash [20]byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, opData20)
	script = append(script, pkHash[:]...)
	script = append(script, opEqualVerify, opCheckSig)
	return script
}

// ExtractPubKeyHash classifies script and, if it is a standard P2PKH
// script, returns the embedded hash.
func ExtractPubKeyHash(script []byte) ([20]byte, bool) {
	var hash [20]byte
	if len(script) != 25 ||
		script[0] != opDup || script[1] != opHash160 || script[2] != opData20 ||
		script[23] != opEqualVerify || script[24] != opCheckSig {
		return hash, false
	}
	copy(hash[:], script[3:23])
	return hash, true
}

// TzePrecondition is the decoded form of a TXO-ext lock script: the
// extension identifier, the mode byte, and the raw mode-specific payload.
type TzePrecondition struct {
	ExtensionID uint32
	Mode        byte
	Payload     []byte
}

// TzeExtensionScript encodes a TXO-ext precondition into a lock script:
// marker || extensionID (u32 LE) || mode || payload length (u32 LE) ||
// payload. This is the bridge's own extension of the transparent script
// format; it is never interpreted by a general-purpose script engine.
func TzeExtensionScript(p TzePrecondition) []byte {
	script := make([]byte, 0, 10+len(p.Payload))
	script = append(script, tzeMarker)

	var idBuf [4]byte
	binary.LittleEndian.PutUint32(idBuf[:], p.ExtensionID)
	script = append(script, idBuf[:]...)

	script = append(script, p.Mode)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p.Payload)))
	script = append(script, lenBuf[:]...)
	script = append(script, p.Payload...)
	return script
}

// ClassifyScript reports which of the two recognized classes script
// belongs to.
func ClassifyScript(script []byte) ScriptClass {
	if _, ok := ExtractPubKeyHash(script); ok {
		return PubKeyHashTy
	}
	if len(script) >= 10 && script[0] == tzeMarker {
		return TzeExtensionTy
	}
	return NonStandardTy
}

// ExtractTzePrecondition decodes a TZE lock script produced by
// TzeExtensionScript. It returns an error rather than panicking so callers
// scanning untrusted blocks can skip malformed outputs.
func ExtractTzePrecondition(script []byte) (TzePrecondition, error) {
	if len(script) < 10 || script[0] != tzeMarker {
		return TzePrecondition{}, fmt.Errorf("chainztx: not a tze extension script")
	}
	extensionID := binary.LittleEndian.Uint32(script[1:5])
	mode := script[5]
	payloadLen := binary.LittleEndian.Uint32(script[6:10])
	if uint32(len(script)-10) != payloadLen {
		return TzePrecondition{}, fmt.Errorf("chainztx: tze payload length mismatch: header says %d, have %d", payloadLen, len(script)-10)
	}
	payload := make([]byte, payloadLen)
	copy(payload, script[10:])
	return TzePrecondition{ExtensionID: extensionID, Mode: mode, Payload: payload}, nil
}
