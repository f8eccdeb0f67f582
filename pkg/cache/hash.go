package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the SHA-256 hex digest of data. Snapshot and layout hashes
// exposed by the pipeline are produced with this.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a cache key of the form "prefix:digest" where the digest
// covers the JSON encoding of all parts. Parts that cannot marshal collapse
// to null, which still yields a stable key.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
