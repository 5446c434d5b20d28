package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tendermint/lightcore/crypto"
	"github.com/tendermint/lightcore/crypto/ed25519"
)

// Validator is a member of a validator set. Its voting power is fixed for
// the lifetime of the set it belongs to.
type Validator struct {
	Address     crypto.Address `json:"address"`
	PubKey      ed25519.PubKey `json:"pub_key"`
	VotingPower int64          `json:"voting_power,string"`
}

// NewValidator returns a new validator with the given pubkey and voting power.
func NewValidator(pubKey ed25519.PubKey, votingPower int64) *Validator {
	return &Validator{
		Address:     pubKey.Address(),
		PubKey:      pubKey,
		VotingPower: votingPower,
	}
}

// ValidateBasic performs basic validation.
func (v *Validator) ValidateBasic() error {
	if v == nil {
		return errors.New("nil validator")
	}
	if len(v.PubKey) != ed25519.PubKeySize {
		return fmt.Errorf("validator pubkey has wrong size %d", len(v.PubKey))
	}

	if v.VotingPower < 0 {
		return errors.New("validator has negative voting power")
	}

	addr := v.PubKey.Address()
	if !v.Address.Equal(addr) {
		return fmt.Errorf("validator address is incorrectly derived from pubkey. Exp: %v, got %v", addr, v.Address)
	}

	return nil
}

// Copy creates a new copy of the validator so we can mutate it.
func (v *Validator) Copy() *Validator {
	return &Validator{
		Address:     v.Address.Copy(),
		PubKey:      append(ed25519.PubKey(nil), v.PubKey...),
		VotingPower: v.VotingPower,
	}
}

// String returns a string representation of String.
//
// 1. address
// 2. public key
// 3. voting power
func (v *Validator) String() string {
	if v == nil {
		return "nil-Validator"
	}
	return fmt.Sprintf("Validator{%v %v VP:%v}",
		v.Address,
		v.PubKey,
		v.VotingPower)
}

// MarshalZerologObject formats this object for logging purposes
func (v *Validator) MarshalZerologObject(e *zerolog.Event) {
	if v == nil {
		return
	}

	e.Str("address", v.Address.String())
	e.Str("pub_key", v.PubKey.String())
	e.Int64("voting_power", v.VotingPower)
}

// Bytes computes the unique encoding of a validator with a given voting power.
// These are the bytes that gets hashed in consensus. It excludes address
// as its redundant with the pubkey.
func (v *Validator) Bytes() []byte {
	pk := cdcEncode([]byte(v.PubKey))
	vp := cdcEncode(v.VotingPower)

	bz := make([]byte, 0, len(pk)+len(vp))
	bz = append(bz, pk...)
	return append(bz, vp...)
}

// ValidatorListString returns a prettified validator list for logging purposes.
func ValidatorListString(vals []*Validator) string {
	chunks := make([]string, len(vals))
	for i, val := range vals {
		chunks[i] = fmt.Sprintf("%s:%d", val.Address, val.VotingPower)
	}

	return strings.Join(chunks, ",")
}
