// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/matter-labs/zcash-eth-bridge/internal/bridgelog"
	"github.com/matter-labs/zcash-eth-bridge/internal/bridgetypes"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainerpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainzrpc"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
	"github.com/matter-labs/zcash-eth-bridge/internal/ethsubmitter"
	"github.com/matter-labs/zcash-eth-bridge/internal/txbuilder"
)

// stfSighting is one STF-mode TZE output discovered while scanning Chain-Z,
// along with the height it was mined at and its decoded payload.
type stfSighting struct {
	outpoint chainztx.OutPoint
	tzeOut   chainztx.TzeOut
	height   uint64
	payload  bridgetypes.StfPayload
}

// scanForStf walks every block from 0 to the current tip looking for TZE
// outputs in STF mode bearing stfIdentifier, and returns the one that is
// still unspent (not consumed as a TzeIn by any later transaction). At
// most one such output exists at any time.
//
// A full rescan is the straightforward, if not the cheapest, way to
// reconstruct the anchor without any indexing infrastructure beyond what
// chainzrpc.Client already exposes.
func scanForStf(ctx context.Context, client chainzrpc.Client, stfIdentifier [32]byte) (stfSighting, error) {
	height, err := client.GetBlockCount(ctx)
	if err != nil {
		return stfSighting{}, fmt.Errorf("driver: get block count: %w", err)
	}

	var sightings []stfSighting
	spent := make(map[chainztx.OutPoint]bool)

	for h := uint64(0); h <= height; h++ {
		hash, err := client.GetBlockHash(ctx, h)
		if err != nil {
			return stfSighting{}, fmt.Errorf("driver: block hash at %d: %w", h, err)
		}
		raw, err := client.GetBlock(ctx, hash)
		if err != nil {
			return stfSighting{}, fmt.Errorf("driver: block %s: %w", hash, err)
		}
		txs, err := chainztx.DeserializeBlockTransactions(raw.Bytes)
		if err != nil {
			return stfSighting{}, fmt.Errorf("driver: decode block %d: %w", h, err)
		}

		for _, tx := range txs {
			txid := tx.TxID()
			for _, in := range tx.TzeIn {
				spent[in.PreviousOutPoint] = true
			}
			// TZE vout indexes start after the transparent outputs, the
			// same convention txbuilder uses when it spends them.
			voutBase := uint32(len(tx.TxOut))
			for n, out := range tx.TzeOut {
				if out.Precondition.ExtensionID != bridgetypes.ExtensionID || out.Precondition.Mode != byte(bridgetypes.ModeStf) {
					continue
				}
				payload, err := bridgetypes.DecodeStfPayload(out.Precondition.Payload)
				if err != nil || payload.StfIdentifier != stfIdentifier {
					continue
				}
				sightings = append(sightings, stfSighting{
					outpoint: chainztx.OutPoint{Hash: txid, Index: voutBase + uint32(n)},
					tzeOut:   out,
					height:   h,
					payload:  payload,
				})
			}
		}
	}

	for _, s := range sightings {
		if !spent[s.outpoint] {
			return s, nil
		}
	}
	return stfSighting{}, fmt.Errorf("driver: no unspent stf anchor found for identifier %x", stfIdentifier)
}

// Recover reconstructs a Driver's State after a restart: it reads
// Chain-E's confirmed watermark via latestState(), scans Chain-Z for the
// unspent STF anchor, and seeds the state from those two sources.
//
// If the STF anchor was mined at a height newer than Chain-E's confirmed
// zec_block, the prior process crashed between submitting the Chain-Z
// transition and submitting the paired Chain-E StateUpdate. The anchor's
// own payload already names the deposits and withdrawals that batch
// processed, so Recover rebuilds and resubmits that StateUpdate directly
// instead of re-deriving it from a fresh chain scan.
func (d *Driver) Recover(ctx context.Context) (*State, error) {
	latest, err := d.ChainE.LatestState(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("driver: recover: latest state: %w", err)
	}

	sighting, err := scanForStf(ctx, d.ChainZ, d.StfIdentifier)
	if err != nil {
		return nil, fmt.Errorf("driver: recover: %w", err)
	}

	state := &State{
		LastChainZScanned: latest.ZecBlockNumber,
		LastChainEScanned: latest.EthBlockNumber,
		CurrentStf: txbuilder.TzeState{
			Outpoint: sighting.outpoint,
			TzeOut:   sighting.tzeOut,
		},
		FeeTxID:   sighting.outpoint.Hash,
		Deposited: sighting.tzeOut.Value,
		EthRoot:   d.RootHash,
		ZecRoot:   d.RootHash,
	}

	if sighting.height <= latest.ZecBlockNumber {
		bridgelog.Driver.Infof("recovered state: zec=%d eth=%d, in sync", state.LastChainZScanned, state.LastChainEScanned)
		return state, nil
	}

	bridgelog.Driver.Warnf("recovered stf anchor at height %d is newer than chain-e's confirmed zec_block %d; "+
		"resubmitting the pending state update", sighting.height, latest.ZecBlockNumber)

	hE, err := d.ChainE.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("driver: recover: chain-e height: %w", err)
	}

	update := pendingUpdateFromPayload(latest, sighting, hE, d.RootHash)
	if _, err := ethsubmitter.SubmitStateUpdate(ctx, d.ChainE, update); err != nil {
		return nil, fmt.Errorf("driver: recover: resubmit state update: %w", err)
	}

	state.LastChainZScanned = sighting.height
	state.LastChainEScanned = hE
	return state, nil
}

func pendingUpdateFromPayload(latest chainerpc.LatestState, sighting stfSighting, newEthBlock uint64, rootHash [32]byte) bridgetypes.StateUpdate {
	zecToEth := make([]bridgetypes.ZecToEthTransfer, len(sighting.payload.ProcessedDeposits))
	for i, pd := range sighting.payload.ProcessedDeposits {
		zecToEth[i] = bridgetypes.ZecToEthTransfer{To: pd.To, Amount: pd.Amount}
	}
	ethToZec := make([]bridgetypes.EthToZecTransfer, len(sighting.payload.ProcessedWithdrawals))
	for i, pw := range sighting.payload.ProcessedWithdrawals {
		ethToZec[i] = bridgetypes.EthToZecTransfer{PubKeyHash: pw.PubKeyHash, Amount: pw.Amount}
	}
	return bridgetypes.StateUpdate{
		OldEthRoot:        rootHash,
		OldEthBlockNumber: latest.EthBlockNumber,
		NewEthRoot:        rootHash,
		NewEthBlockNumber: newEthBlock,
		OldZecRoot:        rootHash,
		OldZecBlockNumber: latest.ZecBlockNumber,
		NewZecRoot:        rootHash,
		NewZecBlockNumber: sighting.height,
		ZecToEthTransfers: zecToEth,
		EthToZecTransfers: ethToZec,
	}
}
