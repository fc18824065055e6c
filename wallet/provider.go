// Package wallet abstracts the signing wallet behind the Provider interface
// so the batch orchestrator and submitter never touch keys or nodes
// directly.
//
// Production code uses [NodeProvider], a locally unlocked keystore account
// plus a set of RPC nodes to broadcast through. Tests inject [FakeProvider]
// which serves scripted outcomes without any network access.
package wallet

import (
	"context"
	"math/big"
)

// TxParams describes one transfer for the wallet to sign and broadcast.
// Zero GasLimit/nil GasPrice mean "let the provider fill them in".
type TxParams struct {
	From     string
	To       string
	Value    *big.Int
	Data     []byte
	GasLimit uint64
	GasPrice *big.Int
}

// Provider is the minimal wallet capability the multisend core requires.
//
// SignAndSend returns as soon as the transaction is accepted for broadcast;
// it does not wait for the transaction to be mined. Calling it twice
// produces two distinct transfers, it never retries internally.
type Provider interface {
	// Accounts returns the addresses the wallet is able to sign for.
	// An empty list means no account is authorized (wallet locked).
	Accounts(ctx context.Context) ([]string, error)

	// ChainID returns the chain the wallet is connected to.
	ChainID(ctx context.Context) (int64, error)

	// SignAndSend signs the transfer and broadcasts it, returning the
	// transaction hash. Failures follow the taxonomy in errors.go.
	SignAndSend(ctx context.Context, params TxParams) (string, error)
}
