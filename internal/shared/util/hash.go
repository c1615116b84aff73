package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashNamespace maps a storage namespace (application id, external reference)
// to a hex directory name. Namespaces are compared case-insensitively.
func HashNamespace(namespace string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(namespace))))
	return hex.EncodeToString(sum[:])
}
