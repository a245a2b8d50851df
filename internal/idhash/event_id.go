package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// EventID computes a deterministic event identifier using SHA256.
// Formula: SHA256("{chain}:{address}:{lt}:{txHash}"), lowercase hex,
// truncated to 16 characters (a 64-bit fingerprint). The truncation
// trades collision margin for a compact key; at this workload's volume
// collisions are acceptably rare.
func EventID(chain, address string, lt int64, txHash string) string {
	data := fmt.Sprintf("%s:%s:%d:%s", chain, address, lt, txHash)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}
