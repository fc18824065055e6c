package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tranvictor/multisend/records"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Inspect past batch records",
}

var listBatchesCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all recorded batches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		batches, err := store.List(context.Background())
		if err != nil {
			return err
		}
		appUI.Info("You have %d recorded batches:", len(batches))
		rows := [][]string{}
		for _, record := range batches {
			rows = append(rows, []string{
				record.ID,
				record.CreatedAt.Format("2006-01-02 15:04"),
				record.Network,
				string(record.TokenType),
				fmt.Sprintf("%d", len(record.Recipients)),
				record.TotalAmount,
				string(record.Status),
			})
		}
		appUI.Table(
			[]string{"ID", "Created", "Network", "Token", "Recipients", "Total", "Status"},
			rows,
		)
		return nil
	},
}

var showBatchCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one batch record in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		record, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		printBatchRecord(record)
		return nil
	},
}

func printBatchRecord(record *records.BatchRecord) {
	appUI.Section(fmt.Sprintf("Batch %s", record.ID))
	meta := [][2]string{
		{"Status", string(record.Status)},
		{"Network", record.Network},
		{"Sender", record.Sender},
		{"Token", string(record.TokenType)},
		{"Total", record.TotalAmount},
		{"Created", record.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated", record.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	if record.TokenAddr != "" {
		meta = append(meta, [2]string{"Token contract", record.TokenAddr})
	}
	appUI.KeyValue(meta)

	rows := [][]string{}
	for i, recipient := range record.Recipients {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1), recipient.Address, recipient.Amount,
		})
	}
	appUI.Table([]string{"#", "Recipient", "Amount"}, rows)

	if len(record.TxHashes) > 0 {
		appUI.Info("Transactions:")
		for _, hash := range record.TxHashes {
			appUI.Success("  %s", hash)
		}
	}
	if len(record.FailedAddresses) > 0 {
		appUI.Info("Failed recipients:")
		for _, address := range record.FailedAddresses {
			appUI.Error("  %s", address)
		}
	}
}

func init() {
	batchesCmd.AddCommand(listBatchesCmd)
	batchesCmd.AddCommand(showBatchCmd)
	rootCmd.AddCommand(batchesCmd)
}
