package common

import (
	"log"
	"os/user"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress returns true if addr is a full 42-character 0x-prefixed hex
// Ethereum address. Checksum casing is not enforced.
func IsAddress(addr string) bool {
	return addressPattern.MatchString(strings.TrimSpace(addr))
}

// NormalizeAddress lower-cases an address so it can be used as a map key or
// compared case-insensitively.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func GetHomeDir() string {
	usr, err := user.Current()
	if err != nil {
		log.Fatal(err)
	}
	return usr.HomeDir
}
