// Package cryptox derives content addresses for stored blobs.
package cryptox

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ContentKey returns the hex BLAKE2b-256 digest of data.
func ContentKey(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
