package cval

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainValue is the domain prefix for content-addressed value identity.
// The version suffix allows a future algorithm migration without ambiguity.
const DomainValue = "scopedsl/value/v1"

// Hash computes the content-addressed identity of a value.
// Format: SHA256(domain || 0x00 || canonical-json). The null separator
// prevents domain/payload boundary ambiguity.
//
// Result sets use this to deduplicate structured elements (arrays surfaced
// by relationship steps) where plain map keys cannot serve.
func Hash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash value: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainValue))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
