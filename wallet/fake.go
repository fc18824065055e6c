package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeCall records one SignAndSend invocation on a FakeProvider.
type FakeCall struct {
	Params     TxParams
	StartedAt  time.Time
	FinishedAt time.Time
}

// FakeProvider implements Provider with scripted outcomes for tests. Each
// SignAndSend call consumes the next entry of Script; a nil entry succeeds
// with a deterministic hash, a non-nil one fails with that error. When the
// script runs out every further call succeeds.
//
// The fake also detects overlapping SignAndSend calls, so tests can assert
// that transfers run strictly one after another.
type FakeProvider struct {
	mu sync.Mutex

	AccountList []string
	Chain       int64
	Script      []error
	Latency     time.Duration

	Calls      []FakeCall
	inFlight   bool
	Overlapped bool

	nextCall int
}

func NewFakeProvider(account string, chainID int64) *FakeProvider {
	return &FakeProvider{
		AccountList: []string{account},
		Chain:       chainID,
	}
}

func (f *FakeProvider) Accounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.AccountList...), nil
}

func (f *FakeProvider) ChainID(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Chain, nil
}

func (f *FakeProvider) SignAndSend(ctx context.Context, params TxParams) (string, error) {
	f.mu.Lock()
	if f.inFlight {
		f.Overlapped = true
	}
	f.inFlight = true
	call := FakeCall{Params: params, StartedAt: time.Now()}
	index := f.nextCall
	f.nextCall++
	var outcome error
	if index < len(f.Script) {
		outcome = f.Script[index]
	}
	latency := f.Latency
	f.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	call.FinishedAt = time.Now()
	f.Calls = append(f.Calls, call)
	f.inFlight = false
	if outcome != nil {
		return "", outcome
	}
	return fmt.Sprintf("0x%064x", index+1), nil
}

// SentTo returns the To addresses of all recorded calls in order.
func (f *FakeProvider) SentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []string{}
	for _, call := range f.Calls {
		result = append(result, call.Params.To)
	}
	return result
}
