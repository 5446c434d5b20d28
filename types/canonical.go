package types

import (
	"encoding/binary"
	"time"

	gogotypes "github.com/gogo/protobuf/types"

	tmbytes "github.com/tendermint/lightcore/libs/bytes"
)

// VoteSignBytes returns the canonical bytes a validator signs when voting for
// the header identified by headerHash. Every field is proto-wrapped and
// length-prefixed so that no two distinct votes share sign bytes. It fails if
// ts is outside the range of a protobuf Timestamp.
func VoteSignBytes(chainID string, height int64, round int32, headerHash tmbytes.HexBytes, ts time.Time) ([]byte, error) {
	pbt, err := gogotypes.StdTimeMarshal(ts)
	if err != nil {
		return nil, err
	}

	fields := [][]byte{
		cdcEncode(chainID),
		cdcEncode(height),
		cdcEncode(int64(round)),
		cdcEncode(headerHash),
		pbt,
	}

	var (
		bz  []byte
		buf [binary.MaxVarintLen64]byte
	)
	for _, f := range fields {
		n := binary.PutUvarint(buf[:], uint64(len(f)))
		bz = append(bz, buf[:n]...)
		bz = append(bz, f...)
	}
	return bz, nil
}
