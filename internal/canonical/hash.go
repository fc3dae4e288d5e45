package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows changing the
// encoding without colliding with older digests.
const (
	DomainCircuit = "digisim/circuit/v1"
	DomainTrace   = "digisim/trace/v1"
)

// Hash returns SHA256(domain || 0x00 || data) in hex. The separator keeps
// the domain and data boundary unambiguous.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash returns the digest of a circuit description given as a
// canonical value.
func SpecHash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("SpecHash: %w", err)
	}
	return Hash(DomainCircuit, data), nil
}

// TraceDigest returns the digest of a simulation trace given as a
// canonical value.
func TraceDigest(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("TraceDigest: %w", err)
	}
	return Hash(DomainTrace, data), nil
}
