package wallet

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/term"
)

// Account wraps a decrypted keystore key and can sign transactions for its
// address.
type Account struct {
	key *keystore.Key
}

// NewKeystoreAccount decrypts the keystore json at file with password.
func NewKeystoreAccount(file, password string) (*Account, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't read keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(content, password)
	if err != nil {
		return nil, fmt.Errorf("couldn't decrypt the keystore with provided password: %w", err)
	}
	return &Account{key: key}, nil
}

// Address returns the checksummed hex address of the account.
func (a *Account) Address() string {
	return a.key.Address.Hex()
}

// SignTx signs tx with the account's key for the given chain.
func (a *Account) SignTx(tx *types.Transaction, chainID int64) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(big.NewInt(chainID))
	signedTx, err := types.SignTx(tx, signer, a.key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("couldn't sign the tx: %w", err)
	}
	return signedTx, nil
}

// PromptPassword reads a password from the terminal without echoing it.
func PromptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

// UnlockAccount prompts for the keystore password and decrypts the account
// described by desc. An empty password input aborts with ErrUserRejected.
func UnlockAccount(desc AccDesc) (*Account, error) {
	password, err := PromptPassword(fmt.Sprintf("Enter passphrase for %s: ", desc.Address))
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrUserRejected
	}
	return NewKeystoreAccount(desc.Keypath, password)
}
