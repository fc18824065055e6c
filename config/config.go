// Package config holds the flag values shared across multisend commands.
package config

var (
	Network string
	Debug   bool

	From        string
	Token       string
	GasPrice    float64
	GasLimit    uint64
	SkipConfirm bool
)

// PostgresDSNVar is the env var holding the postgres connection string.
// When it is set batch records go to postgres instead of local json files.
const PostgresDSNVar = "MULTISEND_POSTGRES_DSN"
