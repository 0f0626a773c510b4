package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory and disk layers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SourceKey builds the cache key for a fetched corpus source.
func SourceKey(source string) string {
	sum := sha256.Sum256([]byte("src\x00" + source))
	return "reconcilia:v1:" + hex.EncodeToString(sum[:])
}

// PairKey builds the cache key for a similarity result. Similarity is
// symmetric, so the pair is ordered before hashing.
func PairKey(provider, a, b string) string {
	if a > b {
		a, b = b, a
	}
	sum := sha256.Sum256([]byte("sim\x00" + provider + "\x00" + a + "\x00" + b))
	return "reconcilia:v1:" + hex.EncodeToString(sum[:])
}
