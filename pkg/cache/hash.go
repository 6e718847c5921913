package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey returns kind + ":" + the SHA-256 of the JSON encoding of parts.
// Options structs encode by field name, so adding a field to one
// invalidates every key of that kind.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(parts)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash is the hex SHA-256 of data. Inputs are identified by it in cache
// keys, reports and archive entries.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
