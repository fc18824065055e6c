package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tranvictor/multisend/addrbook"
	"github.com/tranvictor/multisend/networks"
	"github.com/tranvictor/multisend/records"
	"github.com/tranvictor/multisend/ui"
	"github.com/tranvictor/multisend/wallet"
)

const (
	sender = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addr1  = "0x1111111111111111111111111111111111111111"
	addr2  = "0x2222222222222222222222222222222222222222"
	addr3  = "0x3333333333333333333333333333333333333333"
	token  = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
)

// fakeSubmitter serves scripted outcomes per recipient address and records
// the order transfers were attempted in.
type fakeSubmitter struct {
	failures map[string]error
	calls    []string
	onSend   func(to string)
}

func (f *fakeSubmitter) send(to string) (string, error) {
	f.calls = append(f.calls, to)
	if f.onSend != nil {
		f.onSend(to)
	}
	if err, ok := f.failures[to]; ok {
		return "", err
	}
	return fmt.Sprintf("0xhash%d", len(f.calls)), nil
}

func (f *fakeSubmitter) SendNative(ctx context.Context, from, to, amount string) (string, error) {
	return f.send(to)
}

func (f *fakeSubmitter) SendToken(ctx context.Context, from, token, to, amount string) (string, error) {
	return f.send(to)
}

func newTestOrchestrator(sub Submitter, store records.Store) *Orchestrator {
	provider := wallet.NewFakeProvider(sender, networks.EthereumMainnet.ChainID)
	o := NewOrchestrator(sub, store, provider, networks.EthereumMainnet, ui.NewRecordingUI())
	o.Delay = 0
	return o
}

func threeRecipients() []addrbook.Recipient {
	return []addrbook.Recipient{
		{Address: addr1, Amount: "1"},
		{Address: addr2, Amount: "2"},
		{Address: addr3, Amount: "3"},
	}
}

func TestRunAllSuccess(t *testing.T) {
	sub := &fakeSubmitter{}
	store := records.NewMemoryStore()
	o := newTestOrchestrator(sub, store)

	outcome, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	if outcome.Status != records.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", outcome.Status)
	}
	if len(outcome.TxHashes) != 3 {
		t.Errorf("expected 3 tx hashes, got %d", len(outcome.TxHashes))
	}
	if len(outcome.FailedAddresses) != 0 {
		t.Errorf("expected no failures, got %v", outcome.FailedAddresses)
	}
	if len(outcome.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(outcome.Results))
	}

	record, err := store.Get(context.Background(), outcome.RecordID)
	if err != nil {
		t.Fatalf("the record wasn't persisted: %s", err)
	}
	if record.Status != records.StatusConfirmed {
		t.Errorf("expected the record to be confirmed, got %s", record.Status)
	}
	if record.Sender != sender {
		t.Errorf("expected sender %s, got %s", sender, record.Sender)
	}
	if record.TotalAmount != "6" {
		t.Errorf("expected total 6, got %s", record.TotalAmount)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	sub := &fakeSubmitter{failures: map[string]error{
		addr2: errors.New("nonce too low"),
	}}
	store := records.NewMemoryStore()
	o := newTestOrchestrator(sub, store)

	outcome, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	if outcome.Status != records.StatusPartiallyFailed {
		t.Errorf("expected partially_failed, got %s", outcome.Status)
	}
	if len(outcome.TxHashes) != 2 {
		t.Errorf("expected 2 tx hashes, got %d", len(outcome.TxHashes))
	}
	if len(outcome.FailedAddresses) != 1 || outcome.FailedAddresses[0] != addr2 {
		t.Errorf("expected %s to be the only failure, got %v", addr2, outcome.FailedAddresses)
	}
	// one failure must not stop the rest of the batch
	if len(sub.calls) != 3 {
		t.Errorf("expected all 3 transfers to be attempted, got %d", len(sub.calls))
	}
	if outcome.Results[1].Err == nil || outcome.Results[1].Address != addr2 {
		t.Errorf("expected the second result to carry the failure, got %+v", outcome.Results[1])
	}

	record, _ := store.Get(context.Background(), outcome.RecordID)
	if len(record.TxHashes)+len(record.FailedAddresses) != len(record.Recipients) {
		t.Errorf("record results don't cover all recipients: %+v", record)
	}
}

func TestRunAllFailures(t *testing.T) {
	boom := errors.New("insufficient funds")
	sub := &fakeSubmitter{failures: map[string]error{
		addr1: boom, addr2: boom, addr3: boom,
	}}
	store := records.NewMemoryStore()
	o := newTestOrchestrator(sub, store)

	outcome, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	if outcome.Status != records.StatusFailed {
		t.Errorf("expected failed, got %s", outcome.Status)
	}
	if len(outcome.TxHashes) != 0 || len(outcome.FailedAddresses) != 3 {
		t.Errorf("expected 0 hashes and 3 failures, got %d and %d",
			len(outcome.TxHashes), len(outcome.FailedAddresses))
	}
}

func TestRunTransfersAreInOrder(t *testing.T) {
	sub := &fakeSubmitter{}
	o := newTestOrchestrator(sub, records.NewMemoryStore())

	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	want := []string{addr1, addr2, addr3}
	for i, to := range want {
		if sub.calls[i] != to {
			t.Errorf("expected transfer %d to go to %s, got %s", i, to, sub.calls[i])
		}
	}
}

// providerSubmitter pushes every transfer through the wallet provider so
// the fake can observe call timing.
type providerSubmitter struct {
	provider wallet.Provider
}

func (s *providerSubmitter) SendNative(ctx context.Context, from, to, amount string) (string, error) {
	return s.provider.SignAndSend(ctx, wallet.TxParams{From: from, To: to})
}

func (s *providerSubmitter) SendToken(ctx context.Context, from, token, to, amount string) (string, error) {
	return s.provider.SignAndSend(ctx, wallet.TxParams{From: from, To: token})
}

func TestRunTransfersNeverOverlap(t *testing.T) {
	provider := wallet.NewFakeProvider(sender, networks.EthereumMainnet.ChainID)
	provider.Latency = 5 * time.Millisecond
	o := NewOrchestrator(
		&providerSubmitter{provider: provider}, records.NewMemoryStore(), provider,
		networks.EthereumMainnet, ui.NewRecordingUI(),
	)
	o.Delay = 0

	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	if provider.Overlapped {
		t.Errorf("a transfer was issued while the previous one was still in flight")
	}
	want := []string{addr1, addr2, addr3}
	got := provider.SentTo()
	if len(got) != len(want) {
		t.Fatalf("expected %d transfers, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected transfer %d to go to %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRunRecordsBeforeFirstTransfer(t *testing.T) {
	store := records.NewMemoryStore()
	sub := &fakeSubmitter{}
	var statusAtFirstSend records.Status
	var recordSeen bool
	sub.onSend = func(to string) {
		if len(sub.calls) != 1 {
			return
		}
		listed, err := store.List(context.Background())
		if err == nil && len(listed) == 1 {
			recordSeen = true
			statusAtFirstSend = listed[0].Status
		}
	}
	o := newTestOrchestrator(sub, store)

	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	if !recordSeen {
		t.Fatalf("the batch record must exist before the first transfer")
	}
	if statusAtFirstSend != records.StatusPending {
		t.Errorf("expected a pending record during the run, got %s", statusAtFirstSend)
	}
}

func TestRunRejectsEmptyRecipients(t *testing.T) {
	store := records.NewMemoryStore()
	o := newTestOrchestrator(&fakeSubmitter{}, store)

	_, err := o.Run(context.Background(), Spec{TokenType: records.TokenNative})
	var preconditionErr *PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
	listed, _ := store.List(context.Background())
	if len(listed) != 0 {
		t.Errorf("a rejected batch must not be recorded")
	}
}

func TestRunRejectsERC20WithoutTokenAddress(t *testing.T) {
	o := newTestOrchestrator(&fakeSubmitter{}, records.NewMemoryStore())
	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenERC20,
	})
	var preconditionErr *PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Errorf("expected a precondition error, got %v", err)
	}
}

func TestRunRejectsUnknownTokenType(t *testing.T) {
	o := newTestOrchestrator(&fakeSubmitter{}, records.NewMemoryStore())
	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenType("nft"),
	})
	var preconditionErr *PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Errorf("expected a precondition error, got %v", err)
	}
}

func TestRunRejectsLockedWallet(t *testing.T) {
	provider := wallet.NewFakeProvider(sender, networks.EthereumMainnet.ChainID)
	provider.AccountList = nil
	o := NewOrchestrator(
		&fakeSubmitter{}, records.NewMemoryStore(), provider,
		networks.EthereumMainnet, ui.NewRecordingUI(),
	)
	o.Delay = 0

	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	var preconditionErr *PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Errorf("expected a precondition error for a locked wallet, got %v", err)
	}
}

func TestRunRejectsForeignSender(t *testing.T) {
	o := newTestOrchestrator(&fakeSubmitter{}, records.NewMemoryStore())
	_, err := o.Run(context.Background(), Spec{
		Sender:     addr1,
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	var preconditionErr *PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Errorf("expected a precondition error for a foreign sender, got %v", err)
	}
}

func TestRunRejectsWrongChain(t *testing.T) {
	provider := wallet.NewFakeProvider(sender, networks.BSCMainnet.ChainID)
	o := NewOrchestrator(
		&fakeSubmitter{}, records.NewMemoryStore(), provider,
		networks.EthereumMainnet, ui.NewRecordingUI(),
	)
	o.Delay = 0

	_, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	var preconditionErr *PreconditionError
	if !errors.As(err, &preconditionErr) {
		t.Errorf("expected a precondition error for a wrong chain, got %v", err)
	}
	if !errors.Is(err, wallet.ErrNetworkMismatch) {
		t.Errorf("expected the error to unwrap to a network mismatch, got %v", err)
	}
}

func TestRunReturnsOutcomeWhenFinalUpdateFails(t *testing.T) {
	store := records.NewMemoryStore()
	sub := &fakeSubmitter{}
	sub.onSend = func(to string) {
		// transfers went out, then the store dies before the final update
		store.UpdateErr = errors.New("disk on fire")
	}
	o := newTestOrchestrator(sub, store)

	outcome, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
	if err == nil {
		t.Fatalf("expected the persist failure to be reported")
	}
	if outcome == nil {
		t.Fatalf("the outcome must still be returned, the transfers are out")
	}
	if outcome.Status != records.StatusConfirmed {
		t.Errorf("expected confirmed outcome, got %s", outcome.Status)
	}
	if len(outcome.TxHashes) != 3 {
		t.Errorf("expected 3 tx hashes, got %d", len(outcome.TxHashes))
	}
}

func TestRunMarksRecordFailedWhenLoopPanics(t *testing.T) {
	store := records.NewMemoryStore()
	sub := &fakeSubmitter{}
	sub.onSend = func(to string) {
		if to == addr2 {
			panic("wallet driver crashed")
		}
	}
	o := newTestOrchestrator(sub, store)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected the panic to propagate")
		}
		listed, err := store.List(context.Background())
		if err != nil || len(listed) != 1 {
			t.Fatalf("expected one record, got %v (%v)", listed, err)
		}
		if listed[0].Status != records.StatusFailed {
			t.Errorf("expected the record to be marked failed, got %s", listed[0].Status)
		}
		// the transfer that went out before the crash must stay on record
		if len(listed[0].TxHashes) != 1 {
			t.Errorf("expected 1 preserved tx hash, got %v", listed[0].TxHashes)
		}
	}()
	o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenNative,
	})
}

func TestRunERC20UsesTokenTransfers(t *testing.T) {
	sub := &fakeSubmitter{}
	tokenCalls := 0
	o := newTestOrchestrator(&tokenCountingSubmitter{inner: sub, count: &tokenCalls}, records.NewMemoryStore())

	outcome, err := o.Run(context.Background(), Spec{
		Recipients: threeRecipients(),
		TokenType:  records.TokenERC20,
		TokenAddr:  token,
	})
	if err != nil {
		t.Fatalf("run failed: %s", err)
	}
	if tokenCalls != 3 {
		t.Errorf("expected 3 token transfers, got %d", tokenCalls)
	}
	if outcome.Status != records.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", outcome.Status)
	}
}

type tokenCountingSubmitter struct {
	inner *fakeSubmitter
	count *int
}

func (s *tokenCountingSubmitter) SendNative(ctx context.Context, from, to, amount string) (string, error) {
	return s.inner.SendNative(ctx, from, to, amount)
}

func (s *tokenCountingSubmitter) SendToken(ctx context.Context, from, token, to, amount string) (string, error) {
	*s.count++
	return s.inner.SendToken(ctx, from, token, to, amount)
}
