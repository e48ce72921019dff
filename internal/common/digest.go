package common

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DigestJSON returns the hex sha256 of the canonical JSON encoding of v.
// Used to fingerprint submission payloads for receipts.
func DigestJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
