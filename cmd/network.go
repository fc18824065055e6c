package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/multisend/networks"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show supported networks and their node configuration",
	Run: func(cmd *cobra.Command, args []string) {
		rows := [][]string{}
		for _, network := range networks.All() {
			nodes := []string{}
			for _, url := range network.Nodes() {
				nodes = append(nodes, url)
			}
			rows = append(rows, []string{
				network.Name,
				fmt.Sprintf("%d", network.ChainID),
				network.NativeTokenSymbol,
				network.NodeVariableName,
				strings.Join(nodes, ", "),
			})
		}
		appUI.Table(
			[]string{"Network", "Chain ID", "Native", "Custom node env var", "Nodes"},
			rows,
		)
	},
}

func init() {
	rootCmd.AddCommand(networkCmd)
}
