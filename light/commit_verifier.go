package light

import (
	"errors"
	"fmt"

	"github.com/tendermint/lightcore/crypto/ed25519"
	tmmath "github.com/tendermint/lightcore/libs/math"
	"github.com/tendermint/lightcore/types"
)

var (
	// ErrEmptyCommit is returned for a commit without any present signature.
	ErrEmptyCommit = errors.New("commit has no signatures")
	// ErrEmptyValidatorSet is returned when a commit is checked against an
	// empty validator set.
	ErrEmptyValidatorSet = errors.New("validator set is nil or empty")
)

// ErrUnknownSigner means a commit carries a signature of an address which is
// not a member of the validator set.
type ErrUnknownSigner struct {
	Index   int
	Address []byte
}

func (e ErrUnknownSigner) Error() string {
	return fmt.Sprintf("signature #%d is from %X, which is not in the validator set", e.Index, e.Address)
}

// ErrDoubleSign means the same validator signed the commit more than once.
type ErrDoubleSign struct {
	Index   int
	Address []byte
}

func (e ErrDoubleSign) Error() string {
	return fmt.Sprintf("validator %X signed the commit twice (signature #%d)", e.Address, e.Index)
}

// ErrWrongSignature means a member's signature does not verify.
type ErrWrongSignature struct {
	Index     int
	Signature []byte
}

func (e ErrWrongSignature) Error() string {
	return fmt.Sprintf("wrong signature (#%d): %X", e.Index, e.Signature)
}

// CommitVerifier validates ed25519 signed commits for one chain and measures
// the voting power behind them.
type CommitVerifier struct {
	ChainID string
}

var (
	_ CommitValidator       = CommitVerifier{}
	_ VotingPowerCalculator = CommitVerifier{}
)

// NewCommitVerifier returns a CommitVerifier for chainID.
func NewCommitVerifier(chainID string) CommitVerifier {
	return CommitVerifier{ChainID: chainID}
}

type vote struct {
	idx   int
	val   *types.Validator
	bytes []byte
	sig   []byte
}

// Validate implements CommitValidator.
func (cv CommitVerifier) Validate(commit *types.Commit, vals *types.ValidatorSet) error {
	if vals.IsNilOrEmpty() {
		return ErrEmptyValidatorSet
	}
	votes, err := cv.collect(commit, vals, true, false)
	if err != nil {
		return err
	}
	if len(votes) == 0 {
		return ErrEmptyCommit
	}
	return verifyAll(votes)
}

// TotalPowerOf implements VotingPowerCalculator.
func (CommitVerifier) TotalPowerOf(vals *types.ValidatorSet) (int64, error) {
	if vals.IsNilOrEmpty() {
		return 0, ErrEmptyValidatorSet
	}
	var total int64
	for _, val := range vals.Validators {
		if val.VotingPower < 0 {
			return 0, fmt.Errorf("validator %v has negative voting power", val.Address)
		}
		sum, ok := tmmath.SafeAddInt64(total, val.VotingPower)
		if !ok || sum > types.MaxTotalVotingPower {
			return 0, types.ErrTotalVotingPowerOverflow
		}
		total = sum
	}
	return total, nil
}

// VotingPowerIn implements VotingPowerCalculator. Only votes for the
// committed header count. Signatures from outside vals are ignored, but a
// member's invalid signature is an error.
func (cv CommitVerifier) VotingPowerIn(commit *types.Commit, vals *types.ValidatorSet) (int64, error) {
	if vals.IsNilOrEmpty() {
		return 0, ErrEmptyValidatorSet
	}
	votes, err := cv.collect(commit, vals, false, true)
	if err != nil {
		return 0, err
	}
	if len(votes) == 0 {
		return 0, nil
	}
	if err := verifyAll(votes); err != nil {
		return 0, err
	}

	var power int64
	for _, v := range votes {
		sum, ok := tmmath.SafeAddInt64(power, v.val.VotingPower)
		if !ok {
			return 0, tmmath.ErrOverflowInt64
		}
		power = sum
	}
	return power, nil
}

// collect gathers the votes of commit cast by members of vals. If strict is
// set, a signature from a non member is an error. If forBlockOnly is set,
// nil votes are skipped.
func (cv CommitVerifier) collect(
	commit *types.Commit,
	vals *types.ValidatorSet,
	strict, forBlockOnly bool,
) ([]vote, error) {
	if commit == nil {
		return nil, ErrEmptyCommit
	}

	seen := make(map[string]int, len(commit.Signatures))
	votes := make([]vote, 0, len(commit.Signatures))
	for idx, cs := range commit.Signatures {
		if cs.Absent() {
			continue
		}
		if err := cs.ValidateBasic(); err != nil {
			return nil, fmt.Errorf("invalid signature #%d: %w", idx, err)
		}
		if forBlockOnly && !cs.ForBlock() {
			continue
		}

		_, val := vals.GetByAddress(cs.ValidatorAddress)
		if val == nil {
			if strict {
				return nil, ErrUnknownSigner{Index: idx, Address: cs.ValidatorAddress}
			}
			continue
		}

		key := string(val.Address)
		if _, ok := seen[key]; ok {
			return nil, ErrDoubleSign{Index: idx, Address: val.Address}
		}
		seen[key] = idx

		signBytes, err := commit.VoteSignBytes(cv.ChainID, int32(idx))
		if err != nil {
			return nil, fmt.Errorf("signature #%d: %w", idx, err)
		}
		votes = append(votes, vote{
			idx:   idx,
			val:   val,
			bytes: signBytes,
			sig:   cs.Signature,
		})
	}
	return votes, nil
}

// verifyAll checks every signature in one batch and reports the first
// invalid one.
func verifyAll(votes []vote) error {
	bv := ed25519.NewBatchVerifier()
	for _, v := range votes {
		if err := bv.Add(v.val.PubKey, v.bytes, v.sig); err != nil {
			return ErrWrongSignature{Index: v.idx, Signature: v.sig}
		}
	}
	ok, valid := bv.Verify()
	if ok {
		return nil
	}
	for i, v := range votes {
		if !valid[i] {
			return ErrWrongSignature{Index: v.idx, Signature: v.sig}
		}
	}
	return errors.New("batch verification failed")
}
