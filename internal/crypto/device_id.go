package crypto

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DeviceID derives the 128 hex character "did" fingerprint the login
// endpoint expects from a stable machine seed.
func DeviceID(seed string) string {
	sum := blake2b.Sum512([]byte(seed))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// MachineSeed joins host name and user config dir; both are stable for a
// given user on a given machine.
func MachineSeed() string {
	host, _ := os.Hostname()
	dir, _ := os.UserConfigDir()
	return "wftool|" + host + "|" + dir
}
