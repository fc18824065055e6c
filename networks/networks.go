package networks

import (
	"fmt"
	"os"
	"strings"
)

// Network describes the single chain a multisend run is expected to talk to.
// A batch is always bound to exactly one network; the orchestrator refuses to
// start if the wallet provider reports a different chain id.
type Network struct {
	Name               string
	AlternativeNames   []string
	ChainID            int64
	NativeTokenSymbol  string
	NativeTokenDecimal uint64

	// NodeVariableName is the env var that overrides the default nodes with a
	// custom RPC endpoint.
	NodeVariableName string
	DefaultNodes     map[string]string
}

// Nodes returns the RPC endpoints to use for this network. If the node env
// var is set, it takes precedence over the defaults.
func (n Network) Nodes() map[string]string {
	if custom := os.Getenv(n.NodeVariableName); custom != "" {
		return map[string]string{"custom-node": custom}
	}
	return n.DefaultNodes
}

var EthereumMainnet = Network{
	Name:               "mainnet",
	AlternativeNames:   []string{"ethereum", "eth"},
	ChainID:            1,
	NativeTokenSymbol:  "ETH",
	NativeTokenDecimal: 18,
	NodeVariableName:   "MULTISEND_ETHEREUM_NODE",
	DefaultNodes: map[string]string{
		"mainnet-infura": "https://mainnet.infura.io/v3/3243deae379342b29e329a1a01d8e4cb",
		"mainnet-llama":  "https://eth.llamarpc.com",
		"mainnet-ankr":   "https://rpc.ankr.com/eth",
	},
}

var Sepolia = Network{
	Name:               "sepolia",
	AlternativeNames:   []string{},
	ChainID:            11155111,
	NativeTokenSymbol:  "ETH",
	NativeTokenDecimal: 18,
	NodeVariableName:   "MULTISEND_SEPOLIA_NODE",
	DefaultNodes: map[string]string{
		"sepolia-infura": "https://sepolia.infura.io/v3/3243deae379342b29e329a1a01d8e4cb",
	},
}

var BSCMainnet = Network{
	Name:               "bsc",
	AlternativeNames:   []string{"binance"},
	ChainID:            56,
	NativeTokenSymbol:  "BNB",
	NativeTokenDecimal: 18,
	NodeVariableName:   "MULTISEND_BSC_NODE",
	DefaultNodes: map[string]string{
		"binance":  "https://bsc-dataseed.binance.org",
		"defibit":  "https://bsc-dataseed1.defibit.io",
		"ninicoin": "https://bsc-dataseed1.ninicoin.io",
	},
}

var supported = []Network{
	EthereumMainnet,
	Sepolia,
	BSCMainnet,
}

// All returns every supported network.
func All() []Network {
	return supported
}

// Find looks a network up by its name or one of its alternative names,
// case-insensitively.
func Find(name string) (Network, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, n := range supported {
		if n.Name == lowered {
			return n, nil
		}
		for _, alt := range n.AlternativeNames {
			if alt == lowered {
				return n, nil
			}
		}
	}
	return Network{}, fmt.Errorf("'%s' is not a supported network", name)
}
