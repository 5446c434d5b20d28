package types

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tendermint/lightcore/crypto/merkle"
	tmbytes "github.com/tendermint/lightcore/libs/bytes"
)

const (
	// MaxTotalVotingPower - the maximum allowed total voting power.
	// It needs to be sufficiently small to, in all cases, allow the
	// cross-multiplication against a trust level to stay within int64.
	MaxTotalVotingPower = int64(math.MaxInt64) / 8
)

// ErrTotalVotingPowerOverflow is returned if the total voting power of the
// resulting validator set exceeds MaxTotalVotingPower.
var ErrTotalVotingPowerOverflow = fmt.Errorf("total voting power of resulting valset exceeds max %d",
	MaxTotalVotingPower)

// ValidatorSet represent a set of *Validator at a given height.
//
// The validators are kept sorted by voting power (descending), then by
// address (ascending). The hash of a set therefore depends only on its
// members and their voting power.
type ValidatorSet struct {
	Validators []*Validator `json:"validators"`
}

// NewValidatorSet initializes a ValidatorSet by copying over the values from
// `valz`, a list of Validators, and sorting them canonically.
func NewValidatorSet(valz []*Validator) *ValidatorSet {
	vals := &ValidatorSet{Validators: validatorListCopy(valz)}
	sort.Sort(ValidatorsByVotingPower(vals.Validators))
	return vals
}

// ValidateBasic performs stateless validation of the set.
func (vals *ValidatorSet) ValidateBasic() error {
	if vals.IsNilOrEmpty() {
		return errors.New("validator set is nil or empty")
	}

	seen := make(map[string]struct{}, len(vals.Validators))
	for idx, val := range vals.Validators {
		if err := val.ValidateBasic(); err != nil {
			return fmt.Errorf("invalid validator #%d: %w", idx, err)
		}
		key := string(val.Address)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate validator %v", val.Address)
		}
		seen[key] = struct{}{}
	}

	if _, err := vals.totalVotingPower(); err != nil {
		return err
	}
	return nil
}

// IsNilOrEmpty returns true if validator set is nil or empty.
func (vals *ValidatorSet) IsNilOrEmpty() bool {
	return vals == nil || len(vals.Validators) == 0
}

// Copy each validator into a new ValidatorSet.
func (vals *ValidatorSet) Copy() *ValidatorSet {
	if vals == nil {
		return nil
	}
	return &ValidatorSet{Validators: validatorListCopy(vals.Validators)}
}

// HasAddress returns true if address given is in the validator set, false -
// otherwise.
func (vals *ValidatorSet) HasAddress(address []byte) bool {
	_, val := vals.GetByAddress(address)
	return val != nil
}

// GetByAddress returns an index of the validator with address and validator
// itself (copy) if found. Otherwise, -1 and nil are returned.
func (vals *ValidatorSet) GetByAddress(address []byte) (index int32, val *Validator) {
	if vals == nil {
		return -1, nil
	}
	for idx, val := range vals.Validators {
		if bytes.Equal(val.Address, address) {
			return int32(idx), val.Copy()
		}
	}
	return -1, nil
}

// Size returns the length of the validator set.
func (vals *ValidatorSet) Size() int {
	if vals == nil {
		return 0
	}
	return len(vals.Validators)
}

func (vals *ValidatorSet) totalVotingPower() (int64, error) {
	sum := int64(0)
	for _, val := range vals.Validators {
		sum += val.VotingPower
		if sum > MaxTotalVotingPower || sum < 0 {
			return 0, ErrTotalVotingPowerOverflow
		}
	}
	return sum, nil
}

// TotalVotingPower returns the sum of the voting powers of all validators.
// It panics if the sum exceeds MaxTotalVotingPower; use ValidateBasic first
// on sets from untrusted sources.
func (vals *ValidatorSet) TotalVotingPower() int64 {
	if vals == nil {
		return 0
	}
	sum, err := vals.totalVotingPower()
	if err != nil {
		panic(err)
	}
	return sum
}

// Hash returns the Merkle root hash build using validators (as leaves) in the
// canonical order.
func (vals *ValidatorSet) Hash() tmbytes.HexBytes {
	if vals == nil {
		return merkle.HashFromByteSlices(nil)
	}
	sorted := make([]*Validator, len(vals.Validators))
	copy(sorted, vals.Validators)
	sort.Sort(ValidatorsByVotingPower(sorted))

	bzs := make([][]byte, len(sorted))
	for i, val := range sorted {
		bzs[i] = val.Bytes()
	}
	return merkle.HashFromByteSlices(bzs)
}

// String returns a string representation of ValidatorSet.
//
// See StringIndented.
func (vals *ValidatorSet) String() string {
	return vals.StringIndented("")
}

// StringIndented returns an intended String.
//
// See Validator#String.
func (vals *ValidatorSet) StringIndented(indent string) string {
	if vals == nil {
		return "nil-ValidatorSet"
	}
	var valStrings []string
	for _, val := range vals.Validators {
		valStrings = append(valStrings, val.String())
	}
	return fmt.Sprintf(`ValidatorSet{
%s  Validators:
%s    %v
%s}`,
		indent, indent, strings.Join(valStrings, "\n"+indent+"    "),
		indent)
}

// MarshalZerologObject formats this object for logging purposes
func (vals *ValidatorSet) MarshalZerologObject(e *zerolog.Event) {
	if vals == nil {
		return
	}
	e.Int("size", len(vals.Validators))
	e.Str("hash", vals.Hash().ShortString())
	e.Str("validators", ValidatorListString(vals.Validators))
}

func validatorListCopy(valsList []*Validator) []*Validator {
	if valsList == nil {
		return nil
	}
	valsCopy := make([]*Validator, len(valsList))
	for i, val := range valsList {
		valsCopy[i] = val.Copy()
	}
	return valsCopy
}

//-----------------

// ValidatorsByVotingPower implements sort.Interface for []*Validator based on
// the VotingPower and Address fields.
type ValidatorsByVotingPower []*Validator

func (valz ValidatorsByVotingPower) Len() int { return len(valz) }

func (valz ValidatorsByVotingPower) Less(i, j int) bool {
	if valz[i].VotingPower == valz[j].VotingPower {
		return bytes.Compare(valz[i].Address, valz[j].Address) == -1
	}
	return valz[i].VotingPower > valz[j].VotingPower
}

func (valz ValidatorsByVotingPower) Swap(i, j int) {
	valz[i], valz[j] = valz[j], valz[i]
}
