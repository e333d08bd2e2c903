package util

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"path"
	"strings"
)

// MaxExtensionLength is the longest URL path extension carried over onto a
// cache file name. Longer extensions are dropped rather than truncated.
const MaxExtensionLength = 4

// hashLen is the length of a hex encoded SHA-1 digest.
const hashLen = sha1.Size * 2

// bucketLen is the number of leading hex characters used as the cache
// subdirectory. 3 hex characters give 4096 buckets.
const bucketLen = 3

// GetHash calculates the SHA-1 hash of data from an io.Reader.
// It returns the hash as a hexadecimal string.
func GetHash(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetStringHash returns the hex encoded SHA-1 of s.
// Every call uses its own hash state, so it is safe for concurrent use.
func GetStringHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashPathFromHash generates a content-addressed relative path from a hash.
// The result is in the format "abc/def0123...[.ext]": the first three hex
// characters name the bucket directory, the rest (plus ext, which must
// already carry its leading dot) name the file.
func HashPathFromHash(hash, ext string) string {
	if len(hash) <= bucketLen {
		return hash + ext
	}
	return hash[:bucketLen] + "/" + hash[bucketLen:] + ext
}

// ExtensionForPath returns ".ext" for the last segment of a slash separated
// URL path when it has a non-empty extension of at most MaxExtensionLength
// bytes, and "" otherwise. Dot-files such as "/.hidden" have no extension.
func ExtensionForPath(urlPath string) string {
	base := path.Base(urlPath)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return ""
	}
	ext := base[idx+1:]
	if ext == "" || len(ext) > MaxExtensionLength {
		return ""
	}
	return "." + ext
}

// CachePathForKey builds the slash separated cache path for a canonical URL
// string. urlPath is the escaped path of the same URL and only contributes
// the file extension.
func CachePathForKey(root, key, urlPath string) string {
	rel := HashPathFromHash(GetStringHash(key), ExtensionForPath(urlPath))
	if root == "" {
		return rel
	}
	return strings.TrimSuffix(root, "/") + "/" + rel
}

// IsCachePath reports whether rel, a slash separated path relative to the
// cache root, follows the "<3 hex>/<37 hex>[.ext]" layout.
func IsCachePath(rel string) bool {
	bucket, name, ok := strings.Cut(rel, "/")
	if !ok || len(bucket) != bucketLen || !isHex(bucket) {
		return false
	}
	stem, ext, hasExt := strings.Cut(name, ".")
	if len(stem) != hashLen-bucketLen || !isHex(stem) {
		return false
	}
	if hasExt && (ext == "" || len(ext) > MaxExtensionLength || strings.Contains(ext, ".")) {
		return false
	}
	return true
}

// HashFromCachePath extracts the full hash from a relative cache path.
func HashFromCachePath(rel string) (string, error) {
	if !IsCachePath(rel) {
		return "", ErrInvalidCachePath
	}
	bucket, name, _ := strings.Cut(rel, "/")
	stem, _, _ := strings.Cut(name, ".")
	return bucket + stem, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
