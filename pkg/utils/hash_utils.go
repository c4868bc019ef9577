package utils

import (
	"crypto/md5"
	"encoding/hex"
	"hash/fnv"
)

// URLHash returns the hex MD5 of a URL, used as a stable storage key.
// Empty input yields an empty hash.
func URLHash(url string) string {
	if url == "" {
		return ""
	}
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// ShortURLHash returns the first 8 characters of URLHash, for log lines.
func ShortURLHash(url string) string {
	full := URLHash(url)
	if len(full) > 8 {
		return full[:8]
	}
	return full
}

// Bucket maps s onto [0, n) deterministically. n <= 0 yields 0.
func Bucket(s string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(n))
}
