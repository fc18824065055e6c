package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tranvictor/multisend/common"
	"github.com/tranvictor/multisend/networks"
)

const broadcastTimeout = 4 * time.Second

// Broadcaster takes a signed tx and tries to broadcast it to all nodes that
// it manages as fast as possible. A broadcast counts as successful when at
// least one node accepted the raw transaction.
type Broadcaster struct {
	clients map[string]*rpc.Client
}

// NewBroadcaster dials the nodes of the given network. Unreachable nodes are
// logged and skipped.
func NewBroadcaster(network networks.Network) *Broadcaster {
	clients := map[string]*rpc.Client{}
	for name, url := range network.Nodes() {
		client, err := rpc.Dial(url)
		if err != nil {
			slog.Warn("couldn't connect to node", "node", name, "url", url, "error", err)
			continue
		}
		clients[name] = client
	}
	return &Broadcaster{clients: clients}
}

func (b *Broadcaster) HasNodes() bool {
	return len(b.clients) > 0
}

func (b *Broadcaster) broadcast(ctx context.Context, client *rpc.Client, data string) error {
	return client.CallContext(ctx, nil, "eth_sendRawTransaction", data)
}

// BroadcastTx encodes the signed tx and broadcasts it. It returns the tx
// hash, whether at least one node accepted it, and the aggregated node
// errors otherwise.
func (b *Broadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (string, bool, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return "", false, fmt.Errorf("tx is not valid, couldn't encode it: %w", err)
	}
	return b.Broadcast(ctx, hexutil.Encode(data))
}

// Broadcast sends hex encoded raw tx data to every node in parallel.
func (b *Broadcaster) Broadcast(ctx context.Context, data string) (string, bool, error) {
	hash := crypto.Keccak256Hash(hexutil.MustDecode(data)).Hex()
	if len(b.clients) == 0 {
		return hash, false, ErrNoProvider
	}

	timeout, cancel := context.WithTimeout(ctx, broadcastTimeout)
	defer cancel()

	parallelTasks := []func() error{}
	for id := range b.clients {
		cli := b.clients[id]
		parallelTasks = append(parallelTasks, func() error {
			return b.broadcast(timeout, cli, data)
		})
	}
	err, numErrs := common.RunParallel(parallelTasks...)
	if numErrs == len(b.clients) {
		return hash, false, err
	}
	return hash, true, nil
}
