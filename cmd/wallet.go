package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/tranvictor/multisend/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage your wallets",
}

var importWalletCmd = &cobra.Command{
	Use:   "import <keystore-file>",
	Short: "Import an encrypted keystore wallet",
	Long: `Import verifies the keystore with its passphrase, copies it into
~/.multisend/keystores and saves a description so the wallet can later be
picked by fuzzy keyword via --from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := wallet.PromptPassword("Enter the keystore passphrase: ")
		if err != nil {
			return err
		}
		appUI.Info("Enter a description for this wallet, it is used to search the wallet by keywords.")
		desc := appUI.Ask(nil)
		record, err := wallet.ImportKeystore(args[0], password, desc)
		if err != nil {
			appUI.Error("couldn't import the keystore: %s", err)
			return err
		}
		appUI.Success("imported %s, record stored under ~/.multisend", record.Address)
		appUI.Info("Check your wallets with:\n> multisend wallet list")
		return nil
	},
}

var listWalletCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all of your wallets",
	Run: func(cmd *cobra.Command, args []string) {
		descs := wallet.GetAccounts()
		appUI.Info("You have %d wallets:", len(descs))
		sort.Slice(descs, func(i, j int) bool {
			return descs[i].Desc < descs[j].Desc
		})
		for i, desc := range descs {
			appUI.Info("%d. %s (%s)", i+1, desc.Address, desc.Desc)
		}
		appUI.Info("\nImport more wallets with:\n> multisend wallet import <keystore-file>")
	},
}

func init() {
	walletCmd.AddCommand(importWalletCmd)
	walletCmd.AddCommand(listWalletCmd)
	rootCmd.AddCommand(walletCmd)
}
