// Package records persists batch outcomes so every multisend run leaves an
// auditable trail: who was paid, which txs went out and which recipients
// failed.
package records

import (
	"time"

	"github.com/tranvictor/multisend/addrbook"
)

// Status is the lifecycle state of a batch record.
type Status string

const (
	// StatusPending means the batch was recorded and sends are in flight.
	StatusPending Status = "pending"
	// StatusConfirmed means every recipient got a transaction.
	StatusConfirmed Status = "confirmed"
	// StatusPartiallyFailed means some recipients got a transaction and
	// some didn't.
	StatusPartiallyFailed Status = "partially_failed"
	// StatusFailed means not a single transaction went out.
	StatusFailed Status = "failed"
)

// TokenType says what kind of asset a batch transfers.
type TokenType string

const (
	TokenNative TokenType = "native"
	TokenERC20  TokenType = "erc20"
)

// BatchRecord is the persisted trail of one batch run.
//
// TxHashes and FailedAddresses partition the recipients that have been
// processed so far, so len(TxHashes)+len(FailedAddresses) never exceeds
// len(Recipients).
type BatchRecord struct {
	ID              string               `json:"id"`
	Sender          string               `json:"sender"`
	Network         string               `json:"network"`
	TokenType       TokenType            `json:"token_type"`
	TokenAddr       string               `json:"token_addr,omitempty"`
	Recipients      []addrbook.Recipient `json:"recipients"`
	TotalAmount     string               `json:"total_amount"`
	Status          Status               `json:"status"`
	TxHashes        []string             `json:"tx_hashes"`
	FailedAddresses []string             `json:"failed_addresses"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Update carries the fields that change after a batch finishes. Nil slices
// mean "leave as is" so a status-only update doesn't wipe results.
type Update struct {
	Status          Status
	TxHashes        []string
	FailedAddresses []string
}
