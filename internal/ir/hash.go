package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInput   = "rill/input/v1"
	DomainCombine = "rill/combine/v1"
)

// Digest is the precomputed structural hash of a node.
// It is comparable and used directly as a map key.
type Digest [sha256.Size]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, for logs.
func (d Digest) Short() string {
	return d.String()[:12]
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) Digest {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var d Digest
	h.Sum(d[:0])
	return d
}

// inputDigest hashes a leaf. The InputRef is part of the content, so two
// leaves share a digest only when they name the same input with the same type.
func inputDigest(ref InputRef, t Type) Digest {
	data, err := MarshalCanonical(map[string]any{
		"input": ref.id,
		"type":  t.String(),
	})
	if err != nil {
		panic(err) // only primitives are encoded above
	}
	return hashWithDomain(DomainInput, data)
}

// combineDigest hashes a derived node over its children's digests.
// Children are already hashed, so the cost is constant per node.
func combineDigest(op Op, t Type, left, right Digest) Digest {
	data, err := MarshalCanonical(map[string]any{
		"op":    op.String(),
		"type":  t.String(),
		"left":  left.String(),
		"right": right.String(),
	})
	if err != nil {
		panic(err)
	}
	return hashWithDomain(DomainCombine, data)
}
