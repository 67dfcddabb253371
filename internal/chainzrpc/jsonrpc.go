// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainzrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/matter-labs/zcash-eth-bridge/internal/chainztx"
)

// ErrTransport marks network-level or response-parse failures, as opposed
// to errors the node itself returned. Callers use IsTransportError to
// decide whether a failed call is worth retrying.
var ErrTransport = errors.New("chainzrpc: transport failure")

// IsTransportError reports whether err came from the transport layer
// rather than from the node's RPC error response.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// JSONRPCClient is the production Client implementation: a JSON-RPC 1.0
// client over HTTP using positional parameters, the dialect zcashd-style
// nodes speak.
type JSONRPCClient struct {
	url        string
	httpClient *http.Client
	nextID     int
}

// NewJSONRPCClient returns a client talking to the Chain-Z node at url.
func NewJSONRPCClient(url string) *JSONRPCClient {
	return &JSONRPCClient{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("chainzrpc: rpc error %d: %s", e.Code, e.Message)
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params json.RawMessage, out any) error {
	c.nextID++
	req := rpcRequest{JSONRPC: "1.0", ID: c.nextID, Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("chainzrpc: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chainzrpc: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("chainzrpc: decode result: %w", err)
	}
	return nil
}

func (c *JSONRPCClient) GetBlockCount(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.call(ctx, "getblockcount", json.RawMessage("[]"), &height); err != nil {
		return 0, err
	}
	return height, nil
}

func (c *JSONRPCClient) GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	var hashHex string
	params, _ := json.Marshal([]any{height})
	if err := c.call(ctx, "getblockhash", params, &hashHex); err != nil {
		return chainhash.Hash{}, err
	}
	return TxIDFromRPCString(hashHex)
}

func (c *JSONRPCClient) GetBlock(ctx context.Context, hash chainhash.Hash) (RawBlock, error) {
	var rawHex string
	params, _ := json.Marshal([]any{RPCString(hash), 0})
	if err := c.call(ctx, "getblock", params, &rawHex); err != nil {
		return RawBlock{}, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return RawBlock{}, fmt.Errorf("chainzrpc: decode block hex: %w", err)
	}
	return RawBlock{Hash: hash, Bytes: raw}, nil
}

func (c *JSONRPCClient) GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*chainztx.Transaction, error) {
	var rawHex string
	params, _ := json.Marshal([]any{RPCString(txid), 0})
	if err := c.call(ctx, "getrawtransaction", params, &rawHex); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("chainzrpc: decode tx hex: %w", err)
	}
	return chainztx.Deserialize(raw)
}

// GetRawTransactionVerbose calls getrawtransaction with verbosity 1, which
// reports the transaction's confirmation height directly instead of
// leaving the caller to infer it. Height is absent (zero) for a
// mempool-only transaction.
func (c *JSONRPCClient) GetRawTransactionVerbose(ctx context.Context, txid chainhash.Hash) (*RawTransactionInfo, error) {
	var obj struct {
		Hex    string `json:"hex"`
		Height int64  `json:"height"`
	}
	params, _ := json.Marshal([]any{RPCString(txid), 1})
	if err := c.call(ctx, "getrawtransaction", params, &obj); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(obj.Hex)
	if err != nil {
		return nil, fmt.Errorf("chainzrpc: decode tx hex: %w", err)
	}
	tx, err := chainztx.Deserialize(raw)
	if err != nil {
		return nil, err
	}
	return &RawTransactionInfo{Tx: tx, Height: obj.Height}, nil
}

func (c *JSONRPCClient) SendRawTransaction(ctx context.Context, tx *chainztx.Transaction) (chainhash.Hash, error) {
	raw := tx.Serialize()
	var txidHex string
	params, _ := json.Marshal([]any{hex.EncodeToString(raw)})
	if err := c.call(ctx, "sendrawtransaction", params, &txidHex); err != nil {
		return chainhash.Hash{}, fmt.Errorf("chainzrpc: send raw transaction: %w", err)
	}
	return TxIDFromRPCString(txidHex)
}

func (c *JSONRPCClient) GetAddressUTXOs(ctx context.Context, address string) ([]Utxo, error) {
	type addrUtxosRequest struct {
		Addresses []string `json:"addresses"`
		ChainInfo bool     `json:"chainInfo"`
	}
	type addrUtxoEntry struct {
		TxID          string `json:"txid"`
		OutputIndex   uint32 `json:"outputIndex"`
		Script        string `json:"script"`
		Satoshis      int64  `json:"satoshis"`
		Height        int64  `json:"height"`
		Confirmations int64  `json:"confirmations"`
	}

	params, _ := json.Marshal([]any{addrUtxosRequest{Addresses: []string{address}, ChainInfo: false}})
	var entries []addrUtxoEntry
	if err := c.call(ctx, "getaddressutxos", params, &entries); err != nil {
		return nil, fmt.Errorf("chainzrpc: get address utxos: %w", err)
	}

	utxos := make([]Utxo, 0, len(entries))
	for _, e := range entries {
		txid, err := TxIDFromRPCString(e.TxID)
		if err != nil {
			return nil, fmt.Errorf("chainzrpc: utxo txid: %w", err)
		}
		script, err := hex.DecodeString(e.Script)
		if err != nil {
			return nil, fmt.Errorf("chainzrpc: utxo script: %w", err)
		}
		utxos = append(utxos, Utxo{
			TxID:          txid,
			OutIndex:      e.OutputIndex,
			Script:        script,
			Value:         e.Satoshis,
			Height:        e.Height,
			Confirmations: e.Confirmations,
		})
	}
	return utxos, nil
}

func (c *JSONRPCClient) GetRawMempool(ctx context.Context) ([]chainhash.Hash, error) {
	var hexIDs []string
	if err := c.call(ctx, "getrawmempool", json.RawMessage("[false]"), &hexIDs); err != nil {
		return nil, fmt.Errorf("chainzrpc: get raw mempool: %w", err)
	}
	txids := make([]chainhash.Hash, 0, len(hexIDs))
	for _, s := range hexIDs {
		txid, err := TxIDFromRPCString(s)
		if err != nil {
			return nil, fmt.Errorf("chainzrpc: mempool txid: %w", err)
		}
		txids = append(txids, txid)
	}
	return txids, nil
}

var _ Client = (*JSONRPCClient)(nil)
