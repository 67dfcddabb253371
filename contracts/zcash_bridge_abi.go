// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package contracts holds the ABI fragments for the two Chain-E contracts
// this bridge talks to. No Solidity source lives in this repository; the
// contracts are an external, already-deployed dependency. The bindings are
// produced by hand-building `abi.ABI` values and wrapping them with
// `bind.NewBoundContract`, since no `abigen`-style codegen step runs in
// this build.
package contracts

// ZcashBridgeABI is the JSON ABI for the bridge contract: the StateUpdate
// struct tuple, submitStateUpdate/requestWithdrawal/latestState methods,
// and the WithdrawalRequested event.
const ZcashBridgeABI = `[
  {
    "type": "function",
    "name": "latestState",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [
      {"name": "ethBlockNumber", "type": "uint64"},
      {"name": "ethRoot", "type": "bytes32"},
      {"name": "zecBlockNumber", "type": "uint64"},
      {"name": "zecRoot", "type": "bytes32"}
    ]
  },
  {
    "type": "function",
    "name": "submitStateUpdate",
    "stateMutability": "nonpayable",
    "inputs": [
      {
        "name": "update",
        "type": "tuple",
        "components": [
          {"name": "previousEthRoot", "type": "bytes32"},
          {"name": "previousEthBlockNumber", "type": "uint64"},
          {"name": "newEthRoot", "type": "bytes32"},
          {"name": "newEthBlockNumber", "type": "uint64"},
          {"name": "previousZecRoot", "type": "bytes32"},
          {"name": "previousZecBlockNumber", "type": "uint64"},
          {"name": "newZecRoot", "type": "bytes32"},
          {"name": "newZecBlockNumber", "type": "uint64"},
          {
            "name": "zecToEthTransfers",
            "type": "tuple[]",
            "components": [
              {"name": "to", "type": "address"},
              {"name": "amount", "type": "uint256"}
            ]
          },
          {
            "name": "ethToZecTransfers",
            "type": "tuple[]",
            "components": [
              {"name": "pubkeyHash", "type": "bytes20"},
              {"name": "amount", "type": "uint256"}
            ]
          }
        ]
      }
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "requestWithdrawal",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "amount", "type": "uint256"},
      {"name": "pubkeyHash", "type": "bytes20"}
    ],
    "outputs": []
  },
  {
    "type": "event",
    "name": "WithdrawalRequested",
    "anonymous": false,
    "inputs": [
      {"name": "pubkeyHash", "type": "bytes20", "indexed": true},
      {"name": "amount", "type": "uint256", "indexed": false}
    ]
  }
]`

// WZecABI is the JSON ABI for the wrapped-token contract: the subset of
// ERC-20 the bridge's token handle uses.
const WZecABI = `[
  {
    "type": "function",
    "name": "balanceOf",
    "stateMutability": "view",
    "inputs": [{"name": "account", "type": "address"}],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "approve",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "spender", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "type": "function",
    "name": "totalSupply",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  }
]`
