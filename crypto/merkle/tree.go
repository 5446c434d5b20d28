package merkle

import (
	"hash"
	"math/bits"
)

// HashFromByteSlices computes a Merkle tree where the leaves are the byte slice,
// in the provided order. It follows RFC-6962 and uses SHA-256.
func HashFromByteSlices(items [][]byte) []byte {
	return HashFromByteSlicesWith(defaultHash, items)
}

// HashFromByteSlicesWith is HashFromByteSlices with a caller supplied hash
// function.
func HashFromByteSlicesWith(newHash func() hash.Hash, items [][]byte) []byte {
	switch len(items) {
	case 0:
		return emptyHash(newHash)
	case 1:
		return leafHash(newHash, items[0])
	default:
		k := getSplitPoint(int64(len(items)))
		left := HashFromByteSlicesWith(newHash, items[:k])
		right := HashFromByteSlicesWith(newHash, items[k:])
		return innerHash(newHash, left, right)
	}
}

// getSplitPoint returns the largest power of 2 less than length
func getSplitPoint(length int64) int64 {
	if length < 1 {
		panic("Trying to split a tree with size < 1")
	}
	uLength := uint(length)
	bitlen := bits.Len(uLength)
	k := int64(1 << uint(bitlen-1))
	if k == length {
		k >>= 1
	}
	return k
}
