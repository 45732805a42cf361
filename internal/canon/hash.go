package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainChart    = "ziwei/chart/v1"
	DomainDocument = "ziwei/document/v1"
)

// Sum computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator prevents domain/data boundary ambiguity.
func Sum(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Key computes the content-addressed key of obj under domain.
func Key(domain string, obj Object) (string, error) {
	data, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("canon key %s: %w", domain, err)
	}
	return Sum(domain, data), nil
}

// MustKey is like Key but panics on error.
// Use only when obj is built from known-good scalar fields.
func MustKey(domain string, obj Object) string {
	k, err := Key(domain, obj)
	if err != nil {
		panic(err)
	}
	return k
}
