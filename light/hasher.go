package light

import (
	"fmt"
	"strings"

	"github.com/tendermint/lightcore/crypto"
	tmbytes "github.com/tendermint/lightcore/libs/bytes"
	"github.com/tendermint/lightcore/types"
)

// Names of the supported header hash functions.
const (
	HashSHA256    = "sha256"
	HashKeccak256 = "keccak256"
)

// SHA256HeaderHasher hashes headers the way the chain itself does.
type SHA256HeaderHasher struct{}

var _ HeaderHasher = SHA256HeaderHasher{}

func (SHA256HeaderHasher) Hash(header *types.Header) tmbytes.HexBytes {
	return header.Hash()
}

// Keccak256HeaderHasher builds the same merkle tree as SHA256HeaderHasher
// with Keccak-256 as the hash function.
type Keccak256HeaderHasher struct{}

var _ HeaderHasher = Keccak256HeaderHasher{}

func (Keccak256HeaderHasher) Hash(header *types.Header) tmbytes.HexBytes {
	return header.HashWith(crypto.NewKeccak256)
}

// HeaderHasherByName returns the hasher registered under name.
func HeaderHasherByName(name string) (HeaderHasher, error) {
	switch strings.ToLower(name) {
	case HashSHA256, "":
		return SHA256HeaderHasher{}, nil
	case HashKeccak256:
		return Keccak256HeaderHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown header hash function %q (want %s or %s)", name, HashSHA256, HashKeccak256)
	}
}
