package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const IdentitySize = 32

// Identity is the base58 encoding of a 32-byte account address or public key.
type Identity string

func ParseIdentity(s string) (Identity, error) {
	if len(s) == 0 {
		return "", fmt.Errorf("missing identity")
	}
	buf := base58.Decode(s)
	if len(buf) != IdentitySize {
		return "", fmt.Errorf(
			"invalid identity %s: expected %d bytes, got %d", s, IdentitySize, len(buf),
		)
	}
	return Identity(s), nil
}

func IdentityFromBytes(buf []byte) (Identity, error) {
	if len(buf) != IdentitySize {
		return "", fmt.Errorf("invalid identity length: expected %d, got %d", IdentitySize, len(buf))
	}
	return Identity(base58.Encode(buf)), nil
}

func (i Identity) IsZero() bool {
	return len(i) == 0
}

func (i Identity) Bytes() []byte {
	return base58.Decode(string(i))
}

func (i Identity) String() string {
	return string(i)
}
