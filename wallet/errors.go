package wallet

import (
	"errors"
	"strings"
)

var (
	// ErrNoProvider means no wallet capability is available at all (no nodes,
	// no reader).
	ErrNoProvider = errors.New("no wallet provider available")

	// ErrNoAccount means the wallet has no unlocked account to sign with.
	ErrNoAccount = errors.New("no account is unlocked")

	// ErrUserRejected means the user declined the signing prompt.
	ErrUserRejected = errors.New("user rejected the transaction")

	// ErrInsufficientFunds means the node rejected the transaction because
	// the sender can't cover value + gas.
	ErrInsufficientFunds = errors.New("insufficient funds for transfer")

	// ErrNetworkMismatch means the connected chain is not the expected one.
	ErrNetworkMismatch = errors.New("connected network doesn't match the expected chain")
)

// classifyRPCError maps raw node error text onto the sentinel taxonomy where
// possible, so callers can use errors.Is instead of string matching. Unknown
// errors are returned unchanged.
func classifyRPCError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient funds") {
		return errors.Join(ErrInsufficientFunds, err)
	}
	return err
}
