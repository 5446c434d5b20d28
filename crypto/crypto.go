package crypto

import (
	"github.com/tendermint/lightcore/crypto/tmhash"
	"github.com/tendermint/lightcore/libs/bytes"
)

const (
	// HashSize is the size in bytes of a SHA-256 digest.
	HashSize = tmhash.Size

	// AddressSize is the size of a pubkey address.
	AddressSize = tmhash.TruncatedSize
)

// An address is a []byte, but hex-encoded even in JSON.
// []byte leaves us the option to change the address length.
// Use an alias so Unmarshal methods (with ptr receivers) are available too.
type Address = bytes.HexBytes

// AddressHash computes a truncated SHA-256 hash of bz for use as
// a validator address.
func AddressHash(bz []byte) Address {
	return Address(tmhash.SumTruncated(bz))
}

// Checksum returns the SHA256 of the bz.
func Checksum(bz []byte) []byte {
	return tmhash.Sum(bz)
}

type PubKey interface {
	Address() Address
	Bytes() []byte
	VerifySignature(msg []byte, sig []byte) bool
	Equals(PubKey) bool
	Type() string
}

type PrivKey interface {
	Bytes() []byte
	Sign(msg []byte) ([]byte, error)
	PubKey() PubKey
	Equals(PrivKey) bool
	Type() string
}

// BatchVerifier verifies many signatures at once.
type BatchVerifier interface {
	// Add appends an entry into the BatchVerifier.
	Add(key PubKey, message, signature []byte) error
	// Verify verifies all the entries in the BatchVerifier, and returns
	// if every signature in the batch is valid, and a vector of bools
	// indicating the verification status of each signature (in the order
	// that signatures were added to the batch).
	Verify() (bool, []bool)
}
