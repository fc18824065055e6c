package addrbook

import (
	"errors"
	"testing"
)

const (
	addr1 = "0x1111111111111111111111111111111111111111"
	addr2 = "0x2222222222222222222222222222222222222222"
	addr3 = "0x3333333333333333333333333333333333333333"
)

func TestAddRecipient(t *testing.T) {
	book := NewBook()
	if err := book.AddRecipient(addr1, "1.5"); err != nil {
		t.Fatalf("adding a valid recipient failed: %s", err)
	}
	if book.Len() != 1 {
		t.Fatalf("expected 1 recipient, got %d", book.Len())
	}

	var validationErr *ValidationError
	if err := book.AddRecipient("0x123", "1"); !errors.As(err, &validationErr) {
		t.Errorf("expected a validation error for a bad address, got %v", err)
	}
	if err := book.AddRecipient(addr2, "abc"); !errors.As(err, &validationErr) {
		t.Errorf("expected a validation error for a bad amount, got %v", err)
	}
	if err := book.AddRecipient(addr2, "0"); !errors.As(err, &validationErr) {
		t.Errorf("expected a validation error for a zero amount, got %v", err)
	}
	if err := book.AddRecipient(addr2, "-1"); !errors.As(err, &validationErr) {
		t.Errorf("expected a validation error for a negative amount, got %v", err)
	}
	if book.Len() != 1 {
		t.Errorf("invalid entries must not be added, got %d recipients", book.Len())
	}
}

func TestAddRecipientRejectsInfiniteAmounts(t *testing.T) {
	book := NewBook()
	var validationErr *ValidationError
	for _, amount := range []string{"inf", "Inf", "+Inf"} {
		if err := book.AddRecipient(addr1, amount); !errors.As(err, &validationErr) {
			t.Errorf("expected a validation error for amount %q, got %v", amount, err)
		}
	}
	if book.Len() != 0 {
		t.Errorf("infinite amounts must not be added, got %v", book.Recipients())
	}
}

func TestAddRecipientRejectsDuplicatesCaseInsensitively(t *testing.T) {
	book := NewBook()
	if err := book.AddRecipient("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", "1"); err != nil {
		t.Fatalf("adding a valid recipient failed: %s", err)
	}
	if err := book.AddRecipient("0xABCDEFabcdefABCDEFabcdefABCDEFabcdefABCD", "2"); err == nil {
		t.Errorf("expected the duplicate address to be rejected")
	}
	if book.Len() != 1 {
		t.Errorf("expected 1 recipient, got %d", book.Len())
	}
}

func TestImportFromTextIsLenient(t *testing.T) {
	text := "garbage line\n" +
		addr1 + ", 1.5\n" +
		"0xnotanaddress 2\n" +
		"\n" +
		"# a comment\n" +
		addr2 + ",Inf\n" +
		addr1 + " 3\n" // duplicate, must be skipped

	book := NewBook()
	added, skipped, err := book.ImportFromText(text)
	if err != nil {
		t.Fatalf("import failed: %s", err)
	}
	if added != 1 {
		t.Errorf("expected exactly 1 accepted row, got %d", added)
	}
	if skipped != 4 {
		t.Errorf("expected 4 skipped rows, got %d", skipped)
	}
	if book.Len() != 1 {
		t.Errorf("expected 1 recipient in the book, got %d", book.Len())
	}
}

func TestImportFromTextFailsWhenNothingIsValid(t *testing.T) {
	book := NewBook()
	_, _, err := book.ImportFromText("garbage\nmore garbage")
	if !errors.Is(err, ErrNoValidRows) {
		t.Errorf("expected ErrNoValidRows, got %v", err)
	}
}

func TestImportSeparators(t *testing.T) {
	text := addr1 + ",1\n" + addr2 + "\t2\n" + addr3 + "; 3\n"
	book := NewBook()
	added, skipped, err := book.ImportFromText(text)
	if err != nil {
		t.Fatalf("import failed: %s", err)
	}
	if added != 3 || skipped != 0 {
		t.Errorf("expected 3 added and 0 skipped, got %d and %d", added, skipped)
	}
}

func TestRemoveRecipient(t *testing.T) {
	book := NewBook()
	book.AddRecipient(addr1, "1")
	book.AddRecipient(addr2, "2")

	if err := book.RemoveRecipient(addr3); err == nil {
		t.Errorf("expected removing an unknown address to fail")
	}
	if err := book.RemoveRecipient(addr1); err != nil {
		t.Fatalf("removal failed: %s", err)
	}
	recipients := book.Recipients()
	if len(recipients) != 1 || recipients[0].Address != addr2 {
		t.Errorf("expected only %s to remain, got %v", addr2, recipients)
	}

	// the removed address can be added again
	if err := book.AddRecipient(addr1, "5"); err != nil {
		t.Errorf("re-adding a removed address failed: %s", err)
	}
}

func TestRemoveAt(t *testing.T) {
	book := NewBook()
	book.AddRecipient(addr1, "1")
	book.AddRecipient(addr2, "2")

	// out of range indexes are a no-op
	book.RemoveAt(-1)
	book.RemoveAt(5)
	if book.Len() != 2 {
		t.Fatalf("out of range removal must not change the book, got %d", book.Len())
	}

	book.RemoveAt(0)
	recipients := book.Recipients()
	if len(recipients) != 1 || recipients[0].Address != addr2 {
		t.Errorf("expected only %s to remain, got %v", addr2, recipients)
	}
	if err := book.AddRecipient(addr1, "3"); err != nil {
		t.Errorf("re-adding a positionally removed address failed: %s", err)
	}
}

func TestClearAndTotal(t *testing.T) {
	book := NewBook()
	book.AddRecipient(addr1, "1.5")
	book.AddRecipient(addr2, "2.5")
	if total := book.TotalAmount(); total != "4" {
		t.Errorf("expected total 4, got %s", total)
	}
	book.Clear()
	if book.Len() != 0 {
		t.Errorf("expected an empty book after Clear, got %d recipients", book.Len())
	}
	if err := book.AddRecipient(addr1, "1"); err != nil {
		t.Errorf("adding after Clear failed: %s", err)
	}
}

func TestRecipientsReturnsACopy(t *testing.T) {
	book := NewBook()
	book.AddRecipient(addr1, "1")
	recipients := book.Recipients()
	recipients[0].Amount = "999"
	if book.Recipients()[0].Amount != "1" {
		t.Errorf("mutating the returned slice must not affect the book")
	}
}
