package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainMetadata separates metadata hashes from any other hash the project
// may compute. The version suffix allows future algorithm migration.
const DomainMetadata = "segmaker/metadata/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content address of a metadata snapshot.
func (m *Metadata) Hash() (string, error) {
	canonical, err := MarshalCanonical(m.ToIR())
	if err != nil {
		return "", fmt.Errorf("metadata hash: %w", err)
	}
	return hashWithDomain(DomainMetadata, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the snapshot is known to be valid.
func (m *Metadata) MustHash() string {
	h, err := m.Hash()
	if err != nil {
		panic(err)
	}
	return h
}
