package light

import (
	tmbytes "github.com/tendermint/lightcore/libs/bytes"
	"github.com/tendermint/lightcore/types"
)

// HeaderHasher computes the hash a commit refers to.
type HeaderHasher interface {
	Hash(header *types.Header) tmbytes.HexBytes
}

// CommitValidator checks that a commit is well formed with respect to a
// validator set: it is not empty, every signature belongs to a member, no
// member signed twice and every signature is valid.
type CommitValidator interface {
	Validate(commit *types.Commit, vals *types.ValidatorSet) error
}

// VotingPowerCalculator measures voting power.
//
// TotalPowerOf returns the total power of vals. VotingPowerIn returns the
// power of the members of vals that signed the commit; signers outside vals
// do not count.
type VotingPowerCalculator interface {
	TotalPowerOf(vals *types.ValidatorSet) (int64, error)
	VotingPowerIn(commit *types.Commit, vals *types.ValidatorSet) (int64, error)
}
