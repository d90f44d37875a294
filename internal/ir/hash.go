package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old hashes.
const (
	DomainGroup = "verifly/group/v1"
	DomainOrder = "verifly/order/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash identifies a group spec by content. Callback order is
// significant since it decides tie-breaks during resolution; the label is
// not.
func SpecHash(spec GroupSpec) (string, error) {
	canonical, err := MarshalCanonical(spec)
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGroup, canonical), nil
}

// OrderHash identifies a resolved order.
func OrderHash(order []string) (string, error) {
	canonical, err := MarshalCanonical(order)
	if err != nil {
		return "", fmt.Errorf("OrderHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOrder, canonical), nil
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpecHash(spec GroupSpec) string {
	h, err := SpecHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}
