package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/tranvictor/multisend/config"
	"github.com/tranvictor/multisend/networks"
	"github.com/tranvictor/multisend/ui"
)

var appUI ui.UI = ui.NewTerminalUI()

var rootCmd = &cobra.Command{
	Use:   "multisend",
	Short: "Send native or ERC20 transfers to many recipients in one batch",
	Long: `Multisend pays a list of recipients in one go. You give it a list of
address and amount pairs, it signs and broadcasts one transfer per recipient
and records the whole batch so you can always tell who got paid and who
didn't.

It supports:

	1. Native token batches (ETH, BNB, ...) and ERC20 token batches.

	2. A local wallet of encrypted keystores, looked up by address or by
	fuzzy matching on the description you saved them with.

	3. A searchable book of named addresses so recipients and tokens can
	be referred to by name.

	4. A persisted record per batch, either as local json files or in
	postgres when ` + config.PostgresDSNVar + ` is set.

Custom nodes can be configured per network via env vars, see
'multisend network' for the variable names.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		level := slog.LevelWarn
		if config.Debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})))
	},
}

// currentNetwork resolves the --network flag. Unknown names abort the
// command since every other step depends on it.
func currentNetwork() networks.Network {
	network, err := networks.Find(config.Network)
	if err != nil {
		names := []string{}
		for _, n := range networks.All() {
			names = append(names, n.Name)
		}
		appUI.Error("unknown network %q, supported networks: %v", config.Network, names)
		os.Exit(1)
	}
	return network
}

func Execute() {
	rootCmd.PersistentFlags().StringVarP(
		&config.Network, "network", "k", "mainnet",
		`target network. Valid values: "mainnet", "sepolia", "bsc".`,
	)
	rootCmd.PersistentFlags().BoolVar(
		&config.Debug, "debug", false, "enable debug logging",
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
