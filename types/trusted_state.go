package types

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// TrustedState is a header together with the validator set that signed it,
// both already accepted by the light client. A TrustedState is produced
// only by a successful verification or installed as a subjective anchor.
type TrustedState struct {
	Header     *Header       `json:"header"`
	Validators *ValidatorSet `json:"validators"`
}

// NewTrustedState bundles header and validators into a TrustedState.
func NewTrustedState(header *Header, vals *ValidatorSet) TrustedState {
	return TrustedState{Header: header, Validators: vals}
}

// Height returns the height of the trusted header, or 0 if unset.
func (ts TrustedState) Height() int64 {
	if ts.Header == nil {
		return 0
	}
	return ts.Header.Height
}

// ValidateBasic checks that the header is well formed and that the
// validator set matches the header's ValidatorsHash.
func (ts TrustedState) ValidateBasic() error {
	if ts.Header == nil {
		return errors.New("missing header")
	}
	if ts.Validators == nil {
		return errors.New("missing validator set")
	}
	if err := ts.Header.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if err := ts.Validators.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid validator set: %w", err)
	}
	if valsHash := ts.Validators.Hash(); !ts.Header.ValidatorsHash.Equal(valsHash) {
		return fmt.Errorf("expected validators hash of header to match validator set hash (%X != %X)",
			ts.Header.ValidatorsHash, valsHash)
	}
	return nil
}

// Copy returns a deep copy. Mutating the copy never affects the original.
func (ts TrustedState) Copy() TrustedState {
	return TrustedState{
		Header:     ts.Header.Copy(),
		Validators: ts.Validators.Copy(),
	}
}

// MarshalZerologObject formats this object for logging purposes
func (ts TrustedState) MarshalZerologObject(e *zerolog.Event) {
	e.Object("header", ts.Header)
	e.Object("validators", ts.Validators)
}

// LightBlock is a SignedHeader and a ValidatorSet.
// It is the basis of the light client.
type LightBlock struct {
	*SignedHeader  `json:"signed_header"`
	ValidatorSet   *ValidatorSet `json:"validator_set"`
	NextValidators *ValidatorSet `json:"next_validator_set"`
}

// ValidateBasic checks that the data is correct and consistent
//
// This does no verification of the signatures
func (lb LightBlock) ValidateBasic(chainID string) error {
	if lb.SignedHeader == nil {
		return errors.New("missing signed header")
	}
	if lb.ValidatorSet == nil {
		return errors.New("missing validator set")
	}
	if lb.NextValidators == nil {
		return errors.New("missing next validator set")
	}

	if err := lb.SignedHeader.ValidateBasic(chainID); err != nil {
		return fmt.Errorf("invalid signed header: %w", err)
	}
	if err := lb.ValidatorSet.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid validator set: %w", err)
	}
	if err := lb.NextValidators.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid next validator set: %w", err)
	}
	return nil
}
