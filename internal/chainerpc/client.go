// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainerpc is the Chain-E RPC façade: an ethclient.Client wrapper
// plus bound-contract handles for the bridge and wrapped-token contracts.
// No abigen-generated bindings are used; the ABI is parsed at startup and
// wrapped with bind.NewBoundContract per accounts/abi/bind's documented
// low-level usage.
package chainerpc

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/matter-labs/zcash-eth-bridge/contracts"
)

// LatestState mirrors the bridge contract's latestState() return tuple.
type LatestState struct {
	EthBlockNumber uint64
	EthRoot        [32]byte
	ZecBlockNumber uint64
	ZecRoot        [32]byte
}

// Client wraps an ethclient.Client with bound handles for the bridge and
// wrapped-token contracts.
type Client struct {
	eth    *ethclient.Client
	bridge *bind.BoundContract
	wzec   *bind.BoundContract

	bridgeAddress common.Address

	signer     *bind.TransactOpts
	signerAddr common.Address
}

// Dial connects to rpcURL and binds bridgeAddr/wzecAddr. signingKey may be
// nil for a read-only/watching client.
func Dial(ctx context.Context, rpcURL string, bridgeAddr, wzecAddr common.Address, signingKey *ecdsa.PrivateKey, chainID *big.Int) (*Client, error) {
	ethClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: dial %s: %w", rpcURL, err)
	}

	bridgeABI, err := abi.JSON(strings.NewReader(contracts.ZcashBridgeABI))
	if err != nil {
		return nil, fmt.Errorf("chainerpc: parse bridge abi: %w", err)
	}
	wzecABI, err := abi.JSON(strings.NewReader(contracts.WZecABI))
	if err != nil {
		return nil, fmt.Errorf("chainerpc: parse wzec abi: %w", err)
	}

	c := &Client{
		eth:           ethClient,
		bridge:        bind.NewBoundContract(bridgeAddr, bridgeABI, ethClient, ethClient, ethClient),
		wzec:          bind.NewBoundContract(wzecAddr, wzecABI, ethClient, ethClient, ethClient),
		bridgeAddress: bridgeAddr,
	}

	if signingKey != nil {
		opts, err := bind.NewKeyedTransactorWithChainID(signingKey, chainID)
		if err != nil {
			return nil, fmt.Errorf("chainerpc: build transactor: %w", err)
		}
		c.signer = opts
		c.signerAddr = crypto.PubkeyToAddress(signingKey.PublicKey)
	}

	return c, nil
}

// BridgeAddress returns the bridge contract's address, for log filtering.
func (c *Client) BridgeAddress() common.Address {
	return c.bridgeAddress
}

// BlockNumber returns Chain-E's current block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chainerpc: block number: %w", err)
	}
	return n, nil
}

// BlockByNumber returns the full block at number. internal/ethwatcher
// builds its log filter from block numbers alone and does not call it.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	block, err := c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("chainerpc: block %d: %w", number, err)
	}
	return block, nil
}

// FilterLogs runs a raw log query, used by internal/ethwatcher's
// ExtractEthToZecTransfers.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: filter logs: %w", err)
	}
	return logs, nil
}

// LatestState calls the bridge contract's latestState() view method.
func (c *Client) LatestState(opts *bind.CallOpts) (LatestState, error) {
	var out []interface{}
	if err := c.bridge.Call(opts, &out, "latestState"); err != nil {
		return LatestState{}, fmt.Errorf("chainerpc: latestState call: %w", err)
	}
	if len(out) != 4 {
		return LatestState{}, fmt.Errorf("chainerpc: latestState returned %d values, want 4", len(out))
	}
	ethBlock, ok := out[0].(uint64)
	if !ok {
		return LatestState{}, fmt.Errorf("chainerpc: latestState ethBlockNumber has unexpected type %T", out[0])
	}
	ethRoot, ok := out[1].([32]byte)
	if !ok {
		return LatestState{}, fmt.Errorf("chainerpc: latestState ethRoot has unexpected type %T", out[1])
	}
	zecBlock, ok := out[2].(uint64)
	if !ok {
		return LatestState{}, fmt.Errorf("chainerpc: latestState zecBlockNumber has unexpected type %T", out[2])
	}
	zecRoot, ok := out[3].([32]byte)
	if !ok {
		return LatestState{}, fmt.Errorf("chainerpc: latestState zecRoot has unexpected type %T", out[3])
	}
	return LatestState{EthBlockNumber: ethBlock, EthRoot: ethRoot, ZecBlockNumber: zecBlock, ZecRoot: zecRoot}, nil
}

// zecToEthTransferArg and ethToZecTransferArg mirror the tuple[] arguments
// submitStateUpdate's ABI expects.
type zecToEthTransferArg struct {
	To     common.Address
	Amount *big.Int
}

type ethToZecTransferArg struct {
	PubkeyHash [20]byte
	Amount     *big.Int
}

// stateUpdateArg mirrors the StateUpdate tuple the bridge ABI declares.
type stateUpdateArg struct {
	PreviousEthRoot        [32]byte
	PreviousEthBlockNumber uint64
	NewEthRoot             [32]byte
	NewEthBlockNumber      uint64
	PreviousZecRoot        [32]byte
	PreviousZecBlockNumber uint64
	NewZecRoot             [32]byte
	NewZecBlockNumber      uint64
	ZecToEthTransfers      []zecToEthTransferArg
	EthToZecTransfers      []ethToZecTransferArg
}

// SubmitStateUpdateInput is the Go-shaped argument to SubmitStateUpdate,
// decoupled from the ABI-tuple shape above.
type SubmitStateUpdateInput struct {
	PreviousEthRoot        [32]byte
	PreviousEthBlockNumber uint64
	NewEthRoot             [32]byte
	NewEthBlockNumber      uint64
	PreviousZecRoot        [32]byte
	PreviousZecBlockNumber uint64
	NewZecRoot             [32]byte
	NewZecBlockNumber      uint64
	ZecToEthTransfers      []ZecToEthTransfer
	EthToZecTransfers      []EthToZecTransfer
}

// ZecToEthTransfer is one processed deposit credited to an Eth recipient.
type ZecToEthTransfer struct {
	To     common.Address
	Amount uint64
}

// EthToZecTransfer is one processed withdrawal paying a Chain-Z pubkey hash.
type EthToZecTransfer struct {
	PubkeyHash [20]byte
	Amount     uint64
}

// SubmitStateUpdate signs and sends a submitStateUpdate transaction and
// waits for it to be mined.
func (c *Client) SubmitStateUpdate(ctx context.Context, in SubmitStateUpdateInput) (*types.Receipt, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("chainerpc: client has no signing key configured")
	}

	arg := stateUpdateArg{
		PreviousEthRoot:        in.PreviousEthRoot,
		PreviousEthBlockNumber: in.PreviousEthBlockNumber,
		NewEthRoot:             in.NewEthRoot,
		NewEthBlockNumber:      in.NewEthBlockNumber,
		PreviousZecRoot:        in.PreviousZecRoot,
		PreviousZecBlockNumber: in.PreviousZecBlockNumber,
		NewZecRoot:             in.NewZecRoot,
		NewZecBlockNumber:      in.NewZecBlockNumber,
	}
	for _, t := range in.ZecToEthTransfers {
		arg.ZecToEthTransfers = append(arg.ZecToEthTransfers, zecToEthTransferArg{
			To:     t.To,
			Amount: new(big.Int).SetUint64(t.Amount),
		})
	}
	for _, t := range in.EthToZecTransfers {
		arg.EthToZecTransfers = append(arg.EthToZecTransfers, ethToZecTransferArg{
			PubkeyHash: t.PubkeyHash,
			Amount:     new(big.Int).SetUint64(t.Amount),
		})
	}

	opts := *c.signer
	opts.Context = ctx
	tx, err := c.bridge.Transact(&opts, "submitStateUpdate", arg)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: submitStateUpdate send: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: submitStateUpdate wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("chainerpc: submitStateUpdate reverted, tx %s", tx.Hash())
	}
	return receipt, nil
}

// RequestWithdrawal calls the bridge contract's requestWithdrawal method
// from the signing key's account. Neither the driver nor internal/e2e
// calls it; the e2e demo synthesizes withdrawal logs on its in-memory
// Chain-E double instead.
func (c *Client) RequestWithdrawal(ctx context.Context, amount uint64, pubkeyHash [20]byte) (*types.Receipt, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("chainerpc: client has no signing key configured")
	}
	opts := *c.signer
	opts.Context = ctx
	tx, err := c.bridge.Transact(&opts, "requestWithdrawal", new(big.Int).SetUint64(amount), pubkeyHash)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: requestWithdrawal send: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: requestWithdrawal wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("chainerpc: requestWithdrawal reverted, tx %s", tx.Hash())
	}
	return receipt, nil
}

// API is the capability set internal/driver and internal/ethsubmitter need
// from a Chain-E client, satisfied by *Client. A test double can implement
// it without dialing a real ethclient, the same capability-set pattern
// chainzrpc.Client uses for the Chain-Z side.
type API interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	LatestState(opts *bind.CallOpts) (LatestState, error)
	SubmitStateUpdate(ctx context.Context, in SubmitStateUpdateInput) (*types.Receipt, error)
	BridgeAddress() common.Address
}

var _ API = (*Client)(nil)

// TotalSupply calls the wrapped-token contract's totalSupply() view method.
func (c *Client) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := c.wzec.Call(opts, &out, "totalSupply"); err != nil {
		return nil, fmt.Errorf("chainerpc: totalSupply call: %w", err)
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chainerpc: totalSupply has unexpected type %T", out[0])
	}
	return supply, nil
}

// Approve calls the wrapped-token contract's approve(spender, amount)
// method, used by withdrawal flows to let the bridge burn the caller's
// wrapped balance.
func (c *Client) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("chainerpc: client has no signing key configured")
	}
	opts := *c.signer
	opts.Context = ctx
	tx, err := c.wzec.Transact(&opts, "approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: approve send: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("chainerpc: approve wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("chainerpc: approve reverted, tx %s", tx.Hash())
	}
	return receipt, nil
}

// BalanceOf calls the wrapped-token contract's balanceOf(account) method.
func (c *Client) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.wzec.Call(opts, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("chainerpc: balanceOf call: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chainerpc: balanceOf has unexpected type %T", out[0])
	}
	return balance, nil
}
