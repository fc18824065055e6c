package cmd

import (
	"os"

	"github.com/tranvictor/multisend/addrbook"
	"github.com/tranvictor/multisend/config"
	"github.com/tranvictor/multisend/records"
)

// openStore picks where batch records go. Postgres when the DSN env var is
// set, local json files otherwise.
func openStore() (records.Store, error) {
	if dsn := os.Getenv(config.PostgresDSNVar); dsn != "" {
		return records.NewPostgresStore(dsn)
	}
	return records.NewFileStore(records.DefaultBatchDir())
}

func openNameDB() (*addrbook.NameDB, error) {
	dataFile, indexPath := addrbook.DefaultNameDBPaths()
	return addrbook.NewNameDB(dataFile, indexPath)
}
