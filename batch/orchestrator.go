// Package batch drives a multisend run from start to finish: it checks the
// wallet is usable, records the batch, then pays every recipient one by one
// and persists the outcome.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tranvictor/multisend/addrbook"
	"github.com/tranvictor/multisend/common"
	"github.com/tranvictor/multisend/networks"
	"github.com/tranvictor/multisend/records"
	"github.com/tranvictor/multisend/submitter"
	"github.com/tranvictor/multisend/ui"
	"github.com/tranvictor/multisend/wallet"
)

// sendDelay spaces out consecutive transfers so the nodes see them in order
// and the wallet's nonce tracking never races the pending pool.
const sendDelay = 2 * time.Second

// PreconditionError means the batch was rejected before anything was sent
// or recorded. Err, when set, carries the underlying wallet error.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("batch rejected: %s", e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Spec describes one batch to run.
type Spec struct {
	// Sender is optional. When empty the wallet's first account is used,
	// otherwise it must be one of the wallet's accounts.
	Sender     string
	Recipients []addrbook.Recipient
	TokenType  records.TokenType
	// TokenAddr is the ERC20 contract, required when TokenType is erc20.
	TokenAddr string
}

// SendResult is the outcome of one recipient's transfer, in batch order.
// Exactly one of TxHash and Err is meaningful.
type SendResult struct {
	Address string
	TxHash  string
	Err     error
}

// Outcome is what a finished batch run reports back. Results holds the per
// recipient detail; TxHashes and FailedAddresses are the flat views that
// also end up in the persisted record.
type Outcome struct {
	RecordID        string
	Status          records.Status
	Results         []SendResult
	TxHashes        []string
	FailedAddresses []string
}

// Submitter sends one transfer and reports its hash. *submitter.Submitter
// is the production implementation.
type Submitter interface {
	SendNative(ctx context.Context, from, to, amount string) (string, error)
	SendToken(ctx context.Context, from, token, to, amount string) (string, error)
}

var _ Submitter = (*submitter.Submitter)(nil)

// Orchestrator runs batches. Transfers are strictly sequential, one
// recipient's failure never stops the rest of the batch, and the batch is
// recorded before the first transfer goes out.
type Orchestrator struct {
	submitter Submitter
	store     records.Store
	provider  wallet.Provider
	network   networks.Network
	ui        ui.UI

	// Delay between consecutive transfers. Tests set it to zero.
	Delay time.Duration
}

func NewOrchestrator(
	sub Submitter,
	store records.Store,
	provider wallet.Provider,
	network networks.Network,
	u ui.UI,
) *Orchestrator {
	return &Orchestrator{
		submitter: sub,
		store:     store,
		provider:  provider,
		network:   network,
		ui:        u,
		Delay:     sendDelay,
	}
}

// resolveSender validates the wallet state and picks the sending account.
func (o *Orchestrator) resolveSender(ctx context.Context, spec Spec) (string, error) {
	accounts, err := o.provider.Accounts(ctx)
	if err != nil {
		return "", fmt.Errorf("couldn't query wallet accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", &PreconditionError{Reason: "the wallet has no unlocked account"}
	}
	if spec.Sender == "" {
		return accounts[0], nil
	}
	for _, account := range accounts {
		if common.NormalizeAddress(account) == common.NormalizeAddress(spec.Sender) {
			return account, nil
		}
	}
	return "", &PreconditionError{
		Reason: fmt.Sprintf("the wallet can't sign for %s", spec.Sender),
	}
}

func (o *Orchestrator) checkPreconditions(ctx context.Context, spec Spec) (string, error) {
	if len(spec.Recipients) == 0 {
		return "", &PreconditionError{Reason: "the recipient list is empty"}
	}
	if spec.TokenType != records.TokenNative && spec.TokenType != records.TokenERC20 {
		return "", &PreconditionError{
			Reason: fmt.Sprintf("unknown token type %q", spec.TokenType),
		}
	}
	if spec.TokenType == records.TokenERC20 && !common.IsAddress(spec.TokenAddr) {
		return "", &PreconditionError{Reason: "erc20 batches need a valid token contract address"}
	}

	sender, err := o.resolveSender(ctx, spec)
	if err != nil {
		return "", err
	}

	chainID, err := o.provider.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("couldn't query the wallet's chain: %w", err)
	}
	if chainID != o.network.ChainID {
		return "", &PreconditionError{
			Reason: fmt.Sprintf(
				"wallet is on chain %d, batch targets %s (chain %d)",
				chainID, o.network.Name, o.network.ChainID,
			),
			Err: wallet.ErrNetworkMismatch,
		}
	}
	return sender, nil
}

func (o *Orchestrator) send(ctx context.Context, sender string, spec Spec, recipient addrbook.Recipient) (string, error) {
	if spec.TokenType == records.TokenERC20 {
		return o.submitter.SendToken(ctx, sender, spec.TokenAddr, recipient.Address, recipient.Amount)
	}
	return o.submitter.SendNative(ctx, sender, recipient.Address, recipient.Amount)
}

// Run executes the batch described by spec.
//
// The batch record is created with status pending before the first transfer
// and updated to its terminal status after the last one, so a crash mid run
// leaves a pending record behind as evidence. Run returns a non-nil Outcome
// together with an error when the transfers went out but the final record
// update failed.
func (o *Orchestrator) Run(ctx context.Context, spec Spec) (*Outcome, error) {
	sender, err := o.checkPreconditions(ctx, spec)
	if err != nil {
		return nil, err
	}

	amounts := []string{}
	for _, recipient := range spec.Recipients {
		amounts = append(amounts, recipient.Amount)
	}
	record := &records.BatchRecord{
		ID:              uuid.New().String(),
		Sender:          sender,
		Network:         o.network.Name,
		TokenType:       spec.TokenType,
		TokenAddr:       spec.TokenAddr,
		Recipients:      spec.Recipients,
		TotalAmount:     common.SumDecimalStrings(amounts),
		Status:          records.StatusPending,
		TxHashes:        []string{},
		FailedAddresses: []string{},
	}
	if err := o.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("couldn't record the batch: %w", err)
	}
	slog.Debug("batch recorded", "id", record.ID, "recipients", len(spec.Recipients),
		"token_type", spec.TokenType, "sender", sender)

	outcome := &Outcome{
		RecordID:        record.ID,
		TxHashes:        []string{},
		FailedAddresses: []string{},
	}
	// If anything escapes the loop itself, mark the record failed with
	// whatever was accumulated so far before letting it propagate. The
	// transfers that already went out must not disappear from the trail.
	defer func() {
		if r := recover(); r != nil {
			if err := o.store.Update(ctx, record.ID, records.Update{
				Status:          records.StatusFailed,
				TxHashes:        outcome.TxHashes,
				FailedAddresses: outcome.FailedAddresses,
			}); err != nil {
				slog.Debug("couldn't mark the batch failed", "id", record.ID, "error", err)
			}
			panic(r)
		}
	}()
	for i, recipient := range spec.Recipients {
		if i > 0 && o.Delay > 0 {
			time.Sleep(o.Delay)
		}
		o.ui.Info("[%d/%d] sending %s to %s...",
			i+1, len(spec.Recipients), recipient.Amount, recipient.Address)

		hash, err := o.send(ctx, sender, spec, recipient)
		outcome.Results = append(outcome.Results, SendResult{
			Address: recipient.Address,
			TxHash:  hash,
			Err:     err,
		})
		if err != nil {
			outcome.FailedAddresses = append(outcome.FailedAddresses, recipient.Address)
			o.ui.Error("transfer to %s failed: %s", recipient.Address, err)
			slog.Debug("transfer failed", "batch", record.ID, "to", recipient.Address, "error", err)
			continue
		}
		outcome.TxHashes = append(outcome.TxHashes, hash)
		o.ui.Success("tx %s", hash)
		slog.Debug("transfer sent", "batch", record.ID, "to", recipient.Address, "hash", hash)
	}

	switch {
	case len(outcome.TxHashes) == 0:
		outcome.Status = records.StatusFailed
	case len(outcome.FailedAddresses) == 0:
		outcome.Status = records.StatusConfirmed
	default:
		outcome.Status = records.StatusPartiallyFailed
	}

	err = o.store.Update(ctx, record.ID, records.Update{
		Status:          outcome.Status,
		TxHashes:        outcome.TxHashes,
		FailedAddresses: outcome.FailedAddresses,
	})
	if err != nil {
		return outcome, fmt.Errorf(
			"batch %s finished with status %s but the record couldn't be updated: %w",
			record.ID, outcome.Status, err,
		)
	}
	slog.Debug("batch finished", "id", record.ID, "status", outcome.Status,
		"sent", len(outcome.TxHashes), "failed", len(outcome.FailedAddresses))
	return outcome, nil
}
