// Package submitter turns "pay this address this amount" into a signed,
// broadcasted transaction. It owns the unit conversion from decimal amounts
// to wei and the ERC20 transfer encoding, so callers only ever deal in
// human readable amounts.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/multisend/common"
	"github.com/tranvictor/multisend/networks"
	"github.com/tranvictor/multisend/reader"
	"github.com/tranvictor/multisend/wallet"
)

// ErrInsufficientTokenBalance means the sender's token balance doesn't cover
// the transfer. Checked before broadcasting since nodes happily accept a
// doomed token transfer and burn gas on the revert.
var ErrInsufficientTokenBalance = errors.New("insufficient token balance")

// ChainReader is the read access the submitter needs from the chain.
// *reader.EthReader satisfies it in production.
type ChainReader interface {
	ERC20Balance(ctx context.Context, token, owner string) (*big.Int, error)
	ERC20Decimal(ctx context.Context, token string) (uint64, error)
}

var _ ChainReader = (*reader.EthReader)(nil)

// Submitter sends individual transfers through a wallet Provider.
type Submitter struct {
	provider wallet.Provider
	reader   ChainReader
	network  networks.Network

	// GasPrice (gwei) and GasLimit override the provider's estimates for
	// every transfer when set. Zero means let the provider decide.
	GasPrice float64
	GasLimit uint64

	mu       sync.Mutex
	decimals map[string]uint64
}

func NewSubmitter(provider wallet.Provider, r ChainReader, network networks.Network) *Submitter {
	return &Submitter{
		provider: provider,
		reader:   r,
		network:  network,
		decimals: map[string]uint64{},
	}
}

// txParams fills in the configured gas overrides, when any.
func (s *Submitter) txParams(from, to string, value *big.Int, data []byte) wallet.TxParams {
	params := wallet.TxParams{
		From:     from,
		To:       to,
		Value:    value,
		Data:     data,
		GasLimit: s.GasLimit,
	}
	if s.GasPrice > 0 {
		params.GasPrice = common.GweiToWei(s.GasPrice)
	}
	return params
}

// SendNative transfers amount (a decimal string, in the native token's
// units) from from to to and returns the tx hash.
func (s *Submitter) SendNative(ctx context.Context, from, to, amount string) (string, error) {
	value, err := common.FloatStringToBig(amount, s.network.NativeTokenDecimal)
	if err != nil {
		return "", err
	}
	return s.provider.SignAndSend(ctx, s.txParams(from, to, value, nil))
}

// tokenDecimals queries and caches the decimals of a token contract.
// Decimals never change for a deployed token so one query per process is
// enough.
func (s *Submitter) tokenDecimals(ctx context.Context, token string) (uint64, error) {
	key := common.NormalizeAddress(token)
	s.mu.Lock()
	cached, ok := s.decimals[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	decimals, err := s.reader.ERC20Decimal(ctx, token)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.decimals[key] = decimals
	s.mu.Unlock()
	return decimals, nil
}

// SendToken transfers amount of the ERC20 at token from from to to and
// returns the tx hash. The sender's token balance is checked first.
func (s *Submitter) SendToken(ctx context.Context, from, token, to, amount string) (string, error) {
	decimals, err := s.tokenDecimals(ctx, token)
	if err != nil {
		return "", err
	}
	value, err := common.FloatStringToBig(amount, decimals)
	if err != nil {
		return "", err
	}

	balance, err := s.reader.ERC20Balance(ctx, token, from)
	if err != nil {
		return "", fmt.Errorf("couldn't check token balance: %w", err)
	}
	if balance.Cmp(value) < 0 {
		return "", fmt.Errorf(
			"%w: have %s, need %s",
			ErrInsufficientTokenBalance,
			common.BigToFloatString(balance, decimals),
			amount,
		)
	}

	data, err := reader.PackERC20Data("transfer", ethcommon.HexToAddress(to), value)
	if err != nil {
		return "", err
	}
	return s.provider.SignAndSend(ctx, s.txParams(from, token, big.NewInt(0), data))
}
