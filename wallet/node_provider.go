package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tranvictor/multisend/common"
	"github.com/tranvictor/multisend/networks"
	"github.com/tranvictor/multisend/reader"
)

// extraGasLimit is added on top of the node's estimation so txs don't fail
// right at the boundary when state changes between estimation and execution.
const extraGasLimit = 20000

// NodeProvider is the production Provider. It signs with a locally unlocked
// keystore account and broadcasts through the network's RPC nodes.
//
// It keeps track of the nonces it has signed so a batch of back to back
// transfers doesn't reuse a nonce while earlier txs are still pending in the
// node's pool.
type NodeProvider struct {
	mu sync.Mutex

	network     networks.Network
	reader      *reader.EthReader
	broadcaster *Broadcaster

	account *Account

	chainVerified bool
	chainID       int64

	// last signed nonce per sender, normalized address as key
	lastSigned map[string]uint64
}

func NewNodeProvider(network networks.Network, r *reader.EthReader, b *Broadcaster) *NodeProvider {
	return &NodeProvider{
		network:     network,
		reader:      r,
		broadcaster: b,
		lastSigned:  map[string]uint64{},
	}
}

// Unlock attaches a decrypted account to the provider. Until Unlock is
// called SignAndSend fails with ErrNoAccount.
func (p *NodeProvider) Unlock(account *Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.account = account
}

func (p *NodeProvider) Accounts(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.account == nil {
		return []string{}, nil
	}
	return []string{p.account.Address()}, nil
}

// ChainID queries the connected nodes and verifies the answer against the
// configured network. The verification happens once and is cached.
func (p *NodeProvider) ChainID(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verifiedChainID(ctx)
}

func (p *NodeProvider) verifiedChainID(ctx context.Context) (int64, error) {
	if p.chainVerified {
		return p.chainID, nil
	}
	if p.reader == nil {
		return 0, ErrNoProvider
	}
	id, err := p.reader.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("couldn't query chain id: %w", err)
	}
	if id != p.network.ChainID {
		return 0, fmt.Errorf(
			"%w: nodes are on chain %d, expected %d (%s)",
			ErrNetworkMismatch, id, p.network.ChainID, p.network.Name,
		)
	}
	p.chainVerified = true
	p.chainID = id
	return id, nil
}

// nextNonce returns the nonce to sign with. The node's pending nonce is the
// baseline but if this provider already signed at or beyond it, the tx right
// after the last signed one is used instead. The node might not have seen
// our previous broadcast yet.
func (p *NodeProvider) nextNonce(ctx context.Context, from string) (uint64, error) {
	nonce, err := p.reader.GetPendingNonce(ctx, from)
	if err != nil {
		return 0, fmt.Errorf("couldn't get pending nonce: %w", err)
	}
	last, signedBefore := p.lastSigned[common.NormalizeAddress(from)]
	if signedBefore && last+1 > nonce {
		slog.Debug("node pending nonce is behind, using local nonce",
			"node_nonce", nonce, "local_nonce", last+1)
		nonce = last + 1
	}
	return nonce, nil
}

func (p *NodeProvider) SignAndSend(ctx context.Context, params TxParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reader == nil || p.broadcaster == nil || !p.broadcaster.HasNodes() {
		return "", ErrNoProvider
	}
	if p.account == nil {
		return "", ErrNoAccount
	}
	if common.NormalizeAddress(params.From) != common.NormalizeAddress(p.account.Address()) {
		return "", fmt.Errorf("%w: %s is not unlocked", ErrNoAccount, params.From)
	}

	chainID, err := p.verifiedChainID(ctx)
	if err != nil {
		return "", err
	}

	gasPrice := params.GasPrice
	if gasPrice == nil {
		gasPrice, err = p.reader.SuggestedGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("couldn't get gas price: %w", err)
		}
	}

	gasLimit := params.GasLimit
	if gasLimit == 0 {
		estimated, err := p.reader.EstimateGas(ctx, params.From, params.To, params.Value, params.Data)
		if err != nil {
			return "", classifyRPCError(fmt.Errorf("couldn't estimate gas: %w", err))
		}
		gasLimit = estimated + extraGasLimit
	}

	nonce, err := p.nextNonce(ctx, params.From)
	if err != nil {
		return "", err
	}

	tx := types.NewTransaction(
		nonce,
		ethcommon.HexToAddress(params.To),
		params.Value,
		gasLimit,
		gasPrice,
		params.Data,
	)
	signedTx, err := p.account.SignTx(tx, chainID)
	if err != nil {
		return "", err
	}

	hash, broadcasted, err := p.broadcaster.BroadcastTx(ctx, signedTx)
	if !broadcasted {
		return "", classifyRPCError(err)
	}
	p.lastSigned[common.NormalizeAddress(params.From)] = nonce
	slog.Debug("tx broadcasted", "hash", hash, "nonce", nonce, "to", params.To)
	return hash, nil
}
