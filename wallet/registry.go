package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tranvictor/multisend/common"
)

// AccDesc is the on-disk record of an imported wallet account. The keystore
// json stays where Keypath points, only its location and a human readable
// description are stored here.
type AccDesc struct {
	Address string `json:"address"`
	Keypath string `json:"keypath"`
	Desc    string `json:"desc"`
}

func getDataDir() string {
	return filepath.Join(common.GetHomeDir(), ".multisend")
}

func getKeystoreDir() string {
	return filepath.Join(getDataDir(), "keystores")
}

func accountRecordPath(address string) string {
	return filepath.Join(getDataDir(), fmt.Sprintf("%s.json", common.NormalizeAddress(address)))
}

// StoreAccountRecord persists the account record under the data dir.
func StoreAccountRecord(desc AccDesc) error {
	if err := os.MkdirAll(getDataDir(), 0755); err != nil {
		return err
	}
	content, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(accountRecordPath(desc.Address), content, 0644)
}

// GetAccounts returns all imported account records.
func GetAccounts() []AccDesc {
	entries, err := os.ReadDir(getDataDir())
	if err != nil {
		return nil
	}
	result := []AccDesc{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if !common.IsAddress(name) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(getDataDir(), entry.Name()))
		if err != nil {
			continue
		}
		desc := AccDesc{}
		if err := json.Unmarshal(content, &desc); err != nil {
			continue
		}
		result = append(result, desc)
	}
	return result
}

type accSource []AccDesc

func (s accSource) Len() int { return len(s) }

func (s accSource) String(i int) string {
	return fmt.Sprintf("%s_%s", s[i].Address, s[i].Desc)
}

// GetAccount resolves hint to an imported account. An exact address match
// wins, otherwise the best fuzzy match over "address_description" strings is
// used, the same way one would grep through a list of wallets.
func GetAccount(hint string) (AccDesc, error) {
	accounts := accSource(GetAccounts())
	if len(accounts) == 0 {
		return AccDesc{}, fmt.Errorf("%w: import one with 'multisend wallet import'", ErrNoAccount)
	}
	if common.IsAddress(hint) {
		for _, desc := range accounts {
			if common.NormalizeAddress(desc.Address) == common.NormalizeAddress(hint) {
				return desc, nil
			}
		}
		return AccDesc{}, fmt.Errorf("%w: no imported wallet with address %s", ErrNoAccount, hint)
	}
	matches := fuzzy.FindFrom(hint, accounts)
	if len(matches) == 0 {
		return AccDesc{}, fmt.Errorf("%w: no imported wallet matches '%s'", ErrNoAccount, hint)
	}
	return accounts[matches[0].Index], nil
}

// ImportKeystore verifies that path holds a valid keystore json, copies it
// into the data dir and records it under desc. The password is only used to
// verify the file, it is not stored anywhere.
func ImportKeystore(path, password, desc string) (AccDesc, error) {
	account, err := NewKeystoreAccount(path, password)
	if err != nil {
		return AccDesc{}, err
	}
	if err := os.MkdirAll(getKeystoreDir(), 0700); err != nil {
		return AccDesc{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return AccDesc{}, err
	}
	keypath := filepath.Join(
		getKeystoreDir(),
		fmt.Sprintf("%s.json", common.NormalizeAddress(account.Address())),
	)
	if err := os.WriteFile(keypath, content, 0600); err != nil {
		return AccDesc{}, err
	}
	record := AccDesc{
		Address: account.Address(),
		Keypath: keypath,
		Desc:    desc,
	}
	if err := StoreAccountRecord(record); err != nil {
		return AccDesc{}, err
	}
	return record, nil
}
