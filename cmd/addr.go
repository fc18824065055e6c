package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var addrCmd = &cobra.Command{
	Use:   "addr",
	Short: "Manage your book of named addresses",
}

var addAddrCmd = &cobra.Command{
	Use:   "add <address> <name>...",
	Short: "Save an address under a searchable name",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		nameDB, err := openNameDB()
		if err != nil {
			return err
		}
		defer nameDB.Close()
		name := strings.Join(args[1:], " ")
		if err := nameDB.Add(args[0], name); err != nil {
			return err
		}
		appUI.Success("saved %s as %q", args[0], name)
		return nil
	},
}

var searchAddrCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search saved addresses by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nameDB, err := openNameDB()
		if err != nil {
			return err
		}
		defer nameDB.Close()
		hits := nameDB.Search(strings.Join(args, " "))
		if len(hits) == 0 {
			appUI.Warn("no saved address matches")
			return nil
		}
		for i, hit := range hits {
			appUI.Info("%d. %s: %s", i+1, hit.Address, hit.Desc)
		}
		return nil
	},
}

var listAddrCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all saved addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		nameDB, err := openNameDB()
		if err != nil {
			return err
		}
		defer nameDB.Close()
		entries := nameDB.All()
		appUI.Info("You have %d saved addresses:", len(entries))
		rows := [][]string{}
		for _, entry := range entries {
			rows = append(rows, []string{entry.Address, entry.Desc})
		}
		appUI.Table([]string{"Address", "Name"}, rows)
		return nil
	},
}

func init() {
	addrCmd.AddCommand(addAddrCmd)
	addrCmd.AddCommand(searchAddrCmd)
	addrCmd.AddCommand(listAddrCmd)
	rootCmd.AddCommand(addrCmd)
}
