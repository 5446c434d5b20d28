package crypto

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// NewKeccak256 returns a legacy Keccak-256 hasher, as used by Ethereum
// derived chains.
func NewKeccak256() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// Keccak256 returns the legacy Keccak-256 digest of bz.
func Keccak256(bz []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(bz)
	return hasher.Sum(nil)
}
