package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/multisend/addrbook"
	"github.com/tranvictor/multisend/batch"
	"github.com/tranvictor/multisend/config"
	"github.com/tranvictor/multisend/reader"
	"github.com/tranvictor/multisend/records"
	"github.com/tranvictor/multisend/submitter"
	"github.com/tranvictor/multisend/wallet"
)

// buildBookFromFile loads "address amount" lines from path. Separators can
// be commas, semicolons or whitespace; invalid lines are reported and
// skipped.
func buildBookFromFile(path string) (*addrbook.Book, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read recipient file: %w", err)
	}
	book := addrbook.NewBook()
	added, skipped, err := book.ImportFromText(string(content))
	if err != nil {
		return nil, err
	}
	appUI.Info("loaded %d recipients from %s", added, path)
	if skipped > 0 {
		appUI.Warn("%d lines were skipped as invalid", skipped)
	}
	return book, nil
}

// buildBookInteractively prompts for recipients one line at a time until an
// empty line.
func buildBookInteractively(nameDB *addrbook.NameDB) *addrbook.Book {
	book := addrbook.NewBook()
	appUI.Info("Enter recipients as '<address or saved name> <amount>', one per line.")
	appUI.Info("Finish with an empty line.")
	for {
		line := appUI.Ask(nil)
		if strings.TrimSpace(line) == "" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			appUI.Error("expected '<address or saved name> <amount>', got %q", line)
			continue
		}
		address := fields[0]
		if nameDB != nil {
			resolved, err := nameDB.Resolve(address)
			if err != nil {
				appUI.Error("%s", err)
				continue
			}
			address = resolved
		}
		if err := book.AddRecipient(address, fields[1]); err != nil {
			appUI.Error("%s", err)
			continue
		}
		appUI.Success("added %s with amount %s (%d so far)", address, fields[1], book.Len())
	}
	return book
}

// confirmBatch shows the full recipient table and asks for a go-ahead.
func confirmBatch(book *addrbook.Book, symbol string, tokenAddr string) bool {
	appUI.Section("Confirm recipients before sending")
	rows := [][]string{}
	for i, recipient := range book.Recipients() {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1), recipient.Address, recipient.Amount,
		})
	}
	appUI.Table([]string{"#", "Recipient", fmt.Sprintf("Amount (%s)", symbol)}, rows)
	meta := [][2]string{
		{"Recipients", fmt.Sprintf("%d", book.Len())},
		{"Total", fmt.Sprintf("%s %s", book.TotalAmount(), symbol)},
	}
	if tokenAddr != "" {
		meta = append(meta, [2]string{"Token contract", tokenAddr})
	}
	appUI.KeyValue(meta)
	if config.SkipConfirm {
		return true
	}
	return appUI.Confirm("Send this batch?", false)
}

func unlockWallet() (*wallet.Account, error) {
	hint := config.From
	if hint == "" {
		descs := wallet.GetAccounts()
		switch len(descs) {
		case 0:
			return nil, fmt.Errorf("%w: import one with 'multisend wallet import'", wallet.ErrNoAccount)
		case 1:
			return wallet.UnlockAccount(descs[0])
		default:
			appUI.Info("You have %d wallets, pick one with --from <address or keyword>:", len(descs))
			for i, desc := range descs {
				appUI.Info("%d. %s (%s)", i+1, desc.Address, desc.Desc)
			}
			return nil, fmt.Errorf("%w: ambiguous wallet choice", wallet.ErrNoAccount)
		}
	}
	desc, err := wallet.GetAccount(hint)
	if err != nil {
		return nil, err
	}
	return wallet.UnlockAccount(desc)
}

var sendCmd = &cobra.Command{
	Use:   "send [recipient-file]",
	Short: "Send a batch of transfers to many recipients",
	Long: `Send pays every recipient in the list one transfer each, in order. Without
a recipient file the list is entered interactively. Each batch is recorded
before the first transfer goes out and the record is updated with the result
of every transfer at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		network := currentNetwork()

		nameDB, err := openNameDB()
		if err != nil {
			appUI.Warn("address name db is unavailable: %s", err)
		} else {
			defer nameDB.Close()
		}

		var book *addrbook.Book
		if len(args) == 1 {
			book, err = buildBookFromFile(args[0])
			if err != nil {
				return err
			}
		} else {
			book = buildBookInteractively(nameDB)
		}
		if book.Len() == 0 {
			return fmt.Errorf("nothing to send, the recipient list is empty")
		}

		tokenType := records.TokenNative
		tokenAddr := ""
		symbol := network.NativeTokenSymbol
		if config.Token != "" {
			if nameDB == nil {
				return fmt.Errorf("couldn't resolve token %q without the address db", config.Token)
			}
			tokenAddr, err = nameDB.Resolve(config.Token)
			if err != nil {
				return err
			}
			tokenType = records.TokenERC20
			symbol = "token"
		}

		r, err := reader.NewEthReader(network)
		if err != nil {
			return err
		}
		if tokenType == records.TokenERC20 {
			if s, err := r.ERC20Symbol(ctx, tokenAddr); err == nil {
				symbol = s
			}
		}

		if !confirmBatch(book, symbol, tokenAddr) {
			appUI.Warn("aborted, nothing was sent")
			return nil
		}

		account, err := unlockWallet()
		if err != nil {
			return err
		}
		provider := wallet.NewNodeProvider(network, r, wallet.NewBroadcaster(network))
		provider.Unlock(account)

		store, err := openStore()
		if err != nil {
			return err
		}

		sub := submitter.NewSubmitter(provider, r, network)
		sub.GasPrice = config.GasPrice
		sub.GasLimit = config.GasLimit

		orchestrator := batch.NewOrchestrator(
			sub,
			store,
			provider,
			network,
			appUI,
		)
		appUI.Section(fmt.Sprintf("Sending %d transfers from %s", book.Len(), account.Address()))
		outcome, err := orchestrator.Run(ctx, batch.Spec{
			Sender:     account.Address(),
			Recipients: book.Recipients(),
			TokenType:  tokenType,
			TokenAddr:  tokenAddr,
		})
		if err != nil && outcome == nil {
			return err
		}
		if err != nil {
			appUI.Warn("%s", err)
		}

		appUI.Section("Batch result")
		appUI.KeyValue([][2]string{
			{"Record", outcome.RecordID},
			{"Status", string(outcome.Status)},
			{"Sent", fmt.Sprintf("%d/%d", len(outcome.TxHashes), book.Len())},
		})
		for _, result := range outcome.Results {
			if result.Err != nil {
				appUI.Error("%s: %s", result.Address, result.Err)
			} else {
				appUI.Success("%s: %s", result.Address, result.TxHash)
			}
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVarP(&config.From, "from", "f", "",
		"wallet to send from, address or a keyword of its description")
	sendCmd.Flags().StringVarP(&config.Token, "token", "t", "",
		"ERC20 token to send, contract address or a saved name. Empty means the native token")
	sendCmd.Flags().Float64VarP(&config.GasPrice, "gasprice", "p", 0,
		"gas price in gwei for every transfer. 0 means ask the node")
	sendCmd.Flags().Uint64VarP(&config.GasLimit, "gas", "g", 0,
		"gas limit for every transfer. 0 means estimate per transfer")
	sendCmd.Flags().BoolVarP(&config.SkipConfirm, "yes", "y", false,
		"skip the confirmation prompt")
	rootCmd.AddCommand(sendCmd)
}
