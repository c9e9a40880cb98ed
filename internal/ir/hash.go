package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainMessage = "xbridge/message/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MessageHash computes the content hash of a full message.
// Validators that observed byte-for-byte the same message produce the same
// hash; any difference in any field starts a competing group.
func MessageHash(msg Message) (string, error) {
	canonical, err := MarshalExact(msg.ToValue())
	if err != nil {
		return "", fmt.Errorf("MessageHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMessage, canonical), nil
}

// MustMessageHash is like MessageHash but panics on error.
// Use only in tests.
func MustMessageHash(msg Message) string {
	h, err := MessageHash(msg)
	if err != nil {
		panic(err)
	}
	return h
}
