// Package addrbook holds the list of recipients a batch will pay out to,
// plus a persistent database of named addresses for quick lookup.
package addrbook

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/tranvictor/multisend/common"
)

// ErrNoValidRows is returned by ImportFromText when not a single line could
// be parsed into a recipient.
var ErrNoValidRows = errors.New("no valid recipient rows found")

// ValidationError describes why a recipient entry was rejected.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Recipient is one payout entry. Amount is a decimal string in token units,
// not wei, so "1.5" means 1.5 ETH or 1.5 tokens.
type Recipient struct {
	Address string `json:"address" db:"address"`
	Amount  string `json:"amount"  db:"amount"`
}

// Book is an ordered, duplicate-free list of recipients. Addresses are
// compared case-insensitively, a book can't pay the same address twice.
// Book is not safe for concurrent use.
type Book struct {
	recipients []Recipient
	seen       map[string]bool
}

func NewBook() *Book {
	return &Book{seen: map[string]bool{}}
}

func validateAmount(amount string) error {
	amount = strings.TrimSpace(amount)
	value, ok := new(big.Float).SetString(amount)
	if !ok {
		return &ValidationError{Field: "amount", Value: amount, Reason: "not a decimal number"}
	}
	if value.IsInf() {
		return &ValidationError{Field: "amount", Value: amount, Reason: "must be finite"}
	}
	if value.Sign() <= 0 {
		return &ValidationError{Field: "amount", Value: amount, Reason: "must be greater than zero"}
	}
	return nil
}

// AddRecipient validates and appends one recipient. The address must be a
// full hex address, the amount a positive decimal string, and the address
// must not already be in the book.
func (b *Book) AddRecipient(address, amount string) error {
	address = strings.TrimSpace(address)
	amount = strings.TrimSpace(amount)
	if !common.IsAddress(address) {
		return &ValidationError{Field: "address", Value: address, Reason: "not a valid hex address"}
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	key := common.NormalizeAddress(address)
	if b.seen[key] {
		return &ValidationError{Field: "address", Value: address, Reason: "already in the recipient list"}
	}
	b.seen[key] = true
	b.recipients = append(b.recipients, Recipient{Address: address, Amount: amount})
	return nil
}

// splitRow breaks an import line into fields. Commas, semicolons and any
// whitespace all work as separators so csv exports and hand written lists
// are both accepted.
func splitRow(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || r == '\t' || r == ' '
	})
}

// ImportFromText parses "address, amount" lines and adds every valid one.
// Invalid lines are skipped rather than failing the whole import; the
// counts of added and skipped lines are returned. If nothing at all was
// added the import fails with ErrNoValidRows.
func (b *Book) ImportFromText(text string) (added int, skipped int, err error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitRow(line)
		if len(fields) != 2 {
			skipped++
			continue
		}
		if err := b.AddRecipient(fields[0], fields[1]); err != nil {
			skipped++
			continue
		}
		added++
	}
	if added == 0 {
		return 0, skipped, ErrNoValidRows
	}
	return added, skipped, nil
}

// RemoveAt deletes the entry at the given position. Out of range indexes
// are a no-op.
func (b *Book) RemoveAt(index int) {
	if index < 0 || index >= len(b.recipients) {
		return
	}
	delete(b.seen, common.NormalizeAddress(b.recipients[index].Address))
	b.recipients = append(b.recipients[:index], b.recipients[index+1:]...)
}

// RemoveRecipient deletes the entry for address, matched case-insensitively.
func (b *Book) RemoveRecipient(address string) error {
	key := common.NormalizeAddress(address)
	if !b.seen[key] {
		return &ValidationError{Field: "address", Value: address, Reason: "not in the recipient list"}
	}
	delete(b.seen, key)
	for i, recipient := range b.recipients {
		if common.NormalizeAddress(recipient.Address) == key {
			b.recipients = append(b.recipients[:i], b.recipients[i+1:]...)
			break
		}
	}
	return nil
}

// Clear drops all recipients.
func (b *Book) Clear() {
	b.recipients = nil
	b.seen = map[string]bool{}
}

// Recipients returns a copy of the list in insertion order.
func (b *Book) Recipients() []Recipient {
	return append([]Recipient{}, b.recipients...)
}

func (b *Book) Len() int {
	return len(b.recipients)
}

// TotalAmount sums all recipient amounts as a decimal string.
func (b *Book) TotalAmount() string {
	amounts := []string{}
	for _, recipient := range b.recipients {
		amounts = append(amounts, recipient.Amount)
	}
	return common.SumDecimalStrings(amounts)
}
