package merkle

import (
	"hash"

	"github.com/tendermint/lightcore/crypto/tmhash"
)

var (
	leafPrefix  = []byte{0}
	innerPrefix = []byte{1}
)

// returns empty hash of the given hash function
func emptyHash(newHash func() hash.Hash) []byte {
	return newHash().Sum(nil)
}

// returns hash(0x00 || leaf)
func leafHash(newHash func() hash.Hash, leaf []byte) []byte {
	h := newHash()
	h.Write(leafPrefix)
	h.Write(leaf)
	return h.Sum(nil)
}

// returns hash(0x01 || left || right)
func innerHash(newHash func() hash.Hash, left []byte, right []byte) []byte {
	h := newHash()
	h.Write(innerPrefix)
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

var defaultHash = tmhash.New
