// Package reader provides read-only access to an Ethereum compatible
// network over one or more JSON-RPC nodes. Every query is attempted on the
// configured nodes in turn until one of them answers, so a single flaky
// node doesn't fail the whole operation.
package reader

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tranvictor/multisend/networks"
)

const queryTimeout = 10 * time.Second

type EthReader struct {
	clients map[string]*ethclient.Client
}

// NewEthReader dials the nodes of the given network. Nodes that cannot be
// dialed are skipped; an error is returned only if no node is reachable.
func NewEthReader(network networks.Network) (*EthReader, error) {
	clients := map[string]*ethclient.Client{}
	var lastErr error
	for name, url := range network.Nodes() {
		client, err := ethclient.Dial(url)
		if err != nil {
			lastErr = err
			continue
		}
		clients[name] = client
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("couldn't connect to any node: %w", lastErr)
	}
	return &EthReader{clients: clients}, nil
}

// tryAll runs fn against each node until one succeeds.
func (r *EthReader) tryAll(ctx context.Context, fn func(ctx context.Context, client *ethclient.Client) error) error {
	var lastErr error
	for name, client := range r.clients {
		timeout, cancel := context.WithTimeout(ctx, queryTimeout)
		err := fn(timeout, client)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s: %w", name, err)
	}
	return lastErr
}

func (r *EthReader) ChainID(ctx context.Context) (int64, error) {
	var result *big.Int
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		id, err := client.ChainID(ctx)
		if err != nil {
			return err
		}
		result = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return result.Int64(), nil
}

func (r *EthReader) GetBalance(ctx context.Context, addr string) (*big.Int, error) {
	var result *big.Int
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		balance, err := client.BalanceAt(ctx, ethcommon.HexToAddress(addr), nil)
		if err != nil {
			return err
		}
		result = balance
		return nil
	})
	return result, err
}

// GetMinedNonce returns the nonce of the latest mined block for addr.
func (r *EthReader) GetMinedNonce(ctx context.Context, addr string) (uint64, error) {
	var result uint64
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		nonce, err := client.NonceAt(ctx, ethcommon.HexToAddress(addr), nil)
		if err != nil {
			return err
		}
		result = nonce
		return nil
	})
	return result, err
}

// GetPendingNonce returns the next nonce taking the node's pending pool into
// account.
func (r *EthReader) GetPendingNonce(ctx context.Context, addr string) (uint64, error) {
	var result uint64
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		nonce, err := client.PendingNonceAt(ctx, ethcommon.HexToAddress(addr))
		if err != nil {
			return err
		}
		result = nonce
		return nil
	})
	return result, err
}

func (r *EthReader) SuggestedGasPrice(ctx context.Context) (*big.Int, error) {
	var result *big.Int
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		price, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}
		result = price
		return nil
	})
	return result, err
}

func (r *EthReader) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	toAddr := ethcommon.HexToAddress(to)
	msg := ethereum.CallMsg{
		From:  ethcommon.HexToAddress(from),
		To:    &toAddr,
		Value: value,
		Data:  data,
	}
	var result uint64
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		gas, err := client.EstimateGas(ctx, msg)
		if err != nil {
			return err
		}
		result = gas
		return nil
	})
	return result, err
}

func (r *EthReader) callContract(ctx context.Context, contract string, data []byte) ([]byte, error) {
	toAddr := ethcommon.HexToAddress(contract)
	msg := ethereum.CallMsg{To: &toAddr, Data: data}
	var result []byte
	err := r.tryAll(ctx, func(ctx context.Context, client *ethclient.Client) error {
		output, err := client.CallContract(ctx, msg, nil)
		if err != nil {
			return err
		}
		result = output
		return nil
	})
	return result, err
}

// ERC20Balance returns the token balance of owner on the given token
// contract.
func (r *EthReader) ERC20Balance(ctx context.Context, token, owner string) (*big.Int, error) {
	data, err := PackERC20Data("balanceOf", ethcommon.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	output, err := r.callContract(ctx, token, data)
	if err != nil {
		return nil, err
	}
	values, err := erc20ABI.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("'%s' doesn't look like an ERC20 token: %w", token, err)
	}
	return values[0].(*big.Int), nil
}

// ERC20Decimal returns the decimals of the given token contract.
func (r *EthReader) ERC20Decimal(ctx context.Context, token string) (uint64, error) {
	data, err := PackERC20Data("decimals")
	if err != nil {
		return 0, err
	}
	output, err := r.callContract(ctx, token, data)
	if err != nil {
		return 0, err
	}
	values, err := erc20ABI.Unpack("decimals", output)
	if err != nil {
		return 0, fmt.Errorf("'%s' doesn't look like an ERC20 token: %w", token, err)
	}
	return uint64(values[0].(uint8)), nil
}

// ERC20Symbol returns the symbol of the given token contract.
func (r *EthReader) ERC20Symbol(ctx context.Context, token string) (string, error) {
	data, err := PackERC20Data("symbol")
	if err != nil {
		return "", err
	}
	output, err := r.callContract(ctx, token, data)
	if err != nil {
		return "", err
	}
	values, err := erc20ABI.Unpack("symbol", output)
	if err != nil {
		return "", fmt.Errorf("'%s' doesn't look like an ERC20 token: %w", token, err)
	}
	return values[0].(string), nil
}
