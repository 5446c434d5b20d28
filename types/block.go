package types

import (
	"errors"
	"fmt"
	"hash"
	"time"

	gogotypes "github.com/gogo/protobuf/types"
	"github.com/rs/zerolog"

	"github.com/tendermint/lightcore/crypto"
	"github.com/tendermint/lightcore/crypto/merkle"
	"github.com/tendermint/lightcore/crypto/tmhash"
	tmbytes "github.com/tendermint/lightcore/libs/bytes"
)

const (
	// MaxChainIDLen is a maximum length of the chain ID.
	MaxChainIDLen = 50
)

// Header defines the structure of a block header as seen by the light client.
// NOTE: changes to the Header should be duplicated in:
// - header.Hash()
// - header.MarshalZerologObject()
type Header struct {
	ChainID string    `json:"chain_id"`
	Height  int64     `json:"height,string"`
	Time    time.Time `json:"time"`

	// hashes from the app output from the prev block
	ValidatorsHash     tmbytes.HexBytes `json:"validators_hash"`      // validators for the current block
	NextValidatorsHash tmbytes.HexBytes `json:"next_validators_hash"` // validators for the next block
	AppHash            tmbytes.HexBytes `json:"app_hash"`             // state after txs from the previous block

	ProposerAddress crypto.Address `json:"proposer_address"` // original proposer of the block
}

// ValidateBasic performs stateless validation on a Header returning an error
// if any validation fails.
func (h Header) ValidateBasic() error {
	if len(h.ChainID) > MaxChainIDLen {
		return fmt.Errorf("chainID is too long; got: %d, max: %d", len(h.ChainID), MaxChainIDLen)
	}

	if h.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", h.Height)
	}

	if err := ValidateHash(h.ValidatorsHash); err != nil {
		return fmt.Errorf("wrong ValidatorsHash: %v", err)
	}
	if err := ValidateHash(h.NextValidatorsHash); err != nil {
		return fmt.Errorf("wrong NextValidatorsHash: %v", err)
	}
	if len(h.ProposerAddress) != 0 && len(h.ProposerAddress) != crypto.AddressSize {
		return fmt.Errorf(
			"invalid ProposerAddress length; got: %d, expected: %d",
			len(h.ProposerAddress), crypto.AddressSize,
		)
	}

	return nil
}

// Hash returns the hash of the header.
// It computes a Merkle tree from the header fields
// ordered as they appear in the Header.
// Returns nil if ValidatorHash is missing,
// since a Header is not valid unless there is
// a ValidatorsHash (corresponding to the validator set).
func (h *Header) Hash() tmbytes.HexBytes {
	return h.HashWith(tmhash.New)
}

// HashWith is Hash computed with the given hash function.
func (h *Header) HashWith(newHash func() hash.Hash) tmbytes.HexBytes {
	if h == nil || len(h.ValidatorsHash) == 0 {
		return nil
	}

	pbt, err := gogotypes.StdTimeMarshal(h.Time)
	if err != nil {
		return nil
	}

	return merkle.HashFromByteSlicesWith(newHash, [][]byte{
		cdcEncode(h.ChainID),
		cdcEncode(h.Height),
		pbt,
		cdcEncode(h.ValidatorsHash),
		cdcEncode(h.NextValidatorsHash),
		cdcEncode(h.AppHash),
		cdcEncode(h.ProposerAddress),
	})
}

// Copy returns a deep copy of the header.
func (h *Header) Copy() *Header {
	if h == nil {
		return nil
	}
	return &Header{
		ChainID:            h.ChainID,
		Height:             h.Height,
		Time:               h.Time,
		ValidatorsHash:     h.ValidatorsHash.Copy(),
		NextValidatorsHash: h.NextValidatorsHash.Copy(),
		AppHash:            h.AppHash.Copy(),
		ProposerAddress:    h.ProposerAddress.Copy(),
	}
}

// StringIndented returns an indented string representation of the header.
func (h *Header) StringIndented(indent string) string {
	if h == nil {
		return "nil-Header"
	}
	return fmt.Sprintf(`Header{
%s  ChainID:        %v
%s  Height:         %v
%s  Time:           %v
%s  Validators:     %v
%s  NextValidators: %v
%s  App:            %v
%s  Proposer:       %v
%s}#%v`,
		indent, h.ChainID,
		indent, h.Height,
		indent, h.Time,
		indent, h.ValidatorsHash,
		indent, h.NextValidatorsHash,
		indent, h.AppHash,
		indent, h.ProposerAddress,
		indent, h.Hash(),
	)
}

// MarshalZerologObject formats this object for logging purposes
func (h *Header) MarshalZerologObject(e *zerolog.Event) {
	if h == nil {
		return
	}
	e.Str("chain_id", h.ChainID)
	e.Int64("height", h.Height)
	e.Time("time", h.Time)
	e.Str("validators_hash", h.ValidatorsHash.ShortString())
	e.Str("next_validators_hash", h.NextValidatorsHash.ShortString())
}

//-------------------------------------

// BlockIDFlag indicates which BlockID the signature is for.
type BlockIDFlag byte

const (
	// BlockIDFlagAbsent - no vote was received from a validator.
	BlockIDFlagAbsent BlockIDFlag = iota + 1
	// BlockIDFlagCommit - voted for the Commit.BlockID.
	BlockIDFlagCommit
	// BlockIDFlagNil - voted for nil.
	BlockIDFlagNil
)

// CommitSig is a part of the Vote included in a Commit.
type CommitSig struct {
	BlockIDFlag      BlockIDFlag      `json:"block_id_flag"`
	ValidatorAddress crypto.Address   `json:"validator_address"`
	Timestamp        time.Time        `json:"timestamp"`
	Signature        tmbytes.HexBytes `json:"signature"`
}

// NewCommitSigAbsent returns new CommitSig with BlockIDFlagAbsent. Other
// fields are all empty.
func NewCommitSigAbsent() CommitSig {
	return CommitSig{
		BlockIDFlag: BlockIDFlagAbsent,
	}
}

// ForBlock returns true if CommitSig is for the block.
func (cs CommitSig) ForBlock() bool {
	return cs.BlockIDFlag == BlockIDFlagCommit
}

// Absent returns true if CommitSig is absent.
func (cs CommitSig) Absent() bool {
	return cs.BlockIDFlag == BlockIDFlagAbsent
}

// ValidateBasic performs basic validation.
func (cs CommitSig) ValidateBasic() error {
	switch cs.BlockIDFlag {
	case BlockIDFlagAbsent:
	case BlockIDFlagCommit:
	case BlockIDFlagNil:
	default:
		return fmt.Errorf("unknown BlockIDFlag: %v", cs.BlockIDFlag)
	}

	switch cs.BlockIDFlag {
	case BlockIDFlagAbsent:
		if len(cs.ValidatorAddress) != 0 {
			return errors.New("validator address is present")
		}
		if len(cs.Signature) != 0 {
			return errors.New("signature is present")
		}
	default:
		if len(cs.ValidatorAddress) != crypto.AddressSize {
			return fmt.Errorf("expected ValidatorAddress size to be %d bytes, got %d bytes",
				crypto.AddressSize,
				len(cs.ValidatorAddress),
			)
		}
		if len(cs.Signature) == 0 {
			return errors.New("signature is missing")
		}
		if _, err := gogotypes.TimestampProto(cs.Timestamp); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

//-------------------------------------

// Commit contains the evidence that a block was committed by a set of
// validators.
type Commit struct {
	Height     int64            `json:"height,string"`
	Round      int32            `json:"round"`
	HeaderHash tmbytes.HexBytes `json:"header_hash"`
	Signatures []CommitSig      `json:"signatures"`
}

// VoteSignBytes returns the bytes the validator at valIdx signed for this
// commit. Nil votes sign an empty header hash.
func (commit *Commit) VoteSignBytes(chainID string, valIdx int32) ([]byte, error) {
	cs := commit.Signatures[valIdx]
	var headerHash tmbytes.HexBytes
	if cs.ForBlock() {
		headerHash = commit.HeaderHash
	}
	return VoteSignBytes(chainID, commit.Height, commit.Round, headerHash, cs.Timestamp)
}

// ValidateBasic performs basic validation that doesn't involve state data.
func (commit *Commit) ValidateBasic() error {
	if commit.Height < 0 {
		return errors.New("negative Height")
	}
	if commit.Round < 0 {
		return errors.New("negative Round")
	}

	if commit.Height >= 1 {
		if err := ValidateHash(commit.HeaderHash); err != nil {
			return fmt.Errorf("wrong HeaderHash: %w", err)
		}
		if len(commit.Signatures) == 0 {
			return errors.New("no signatures in commit")
		}
		for i, commitSig := range commit.Signatures {
			if err := commitSig.ValidateBasic(); err != nil {
				return fmt.Errorf("wrong CommitSig #%d: %v", i, err)
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the commit.
func (commit *Commit) Copy() *Commit {
	if commit == nil {
		return nil
	}
	sigs := make([]CommitSig, len(commit.Signatures))
	for i, cs := range commit.Signatures {
		sigs[i] = CommitSig{
			BlockIDFlag:      cs.BlockIDFlag,
			ValidatorAddress: cs.ValidatorAddress.Copy(),
			Timestamp:        cs.Timestamp,
			Signature:        cs.Signature.Copy(),
		}
	}
	return &Commit{
		Height:     commit.Height,
		Round:      commit.Round,
		HeaderHash: commit.HeaderHash.Copy(),
		Signatures: sigs,
	}
}

// MarshalZerologObject formats this object for logging purposes
func (commit *Commit) MarshalZerologObject(e *zerolog.Event) {
	if commit != nil {
		e.Int64("height", commit.Height)
		e.Int32("round", commit.Round)
		e.Str("header_hash", commit.HeaderHash.ShortString())
		e.Int("signatures", len(commit.Signatures))
	}
}

//-------------------------------------

// SignedHeader is a header along with the commits that prove it.
type SignedHeader struct {
	*Header `json:"header"`

	Commit *Commit `json:"commit"`
}

// ValidateBasic does basic consistency checks and makes sure the header
// and commit are consistent.
//
// NOTE: This does not actually check the cryptographic signatures. Make sure
// to use a commit validator or call VerifyCommit on a ValidatorSet.
func (sh SignedHeader) ValidateBasic(chainID string) error {
	if sh.Header == nil {
		return errors.New("missing header")
	}
	if sh.Commit == nil {
		return errors.New("missing commit")
	}

	if err := sh.Header.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if err := sh.Commit.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid commit: %w", err)
	}

	if sh.ChainID != chainID {
		return fmt.Errorf("header belongs to another chain %q, not %q", sh.ChainID, chainID)
	}

	// Make sure the header is consistent with the commit.
	if sh.Commit.Height != sh.Height {
		return fmt.Errorf("header and commit height mismatch: %d vs %d", sh.Height, sh.Commit.Height)
	}

	return nil
}

// MarshalZerologObject formats this object for logging purposes
func (sh *SignedHeader) MarshalZerologObject(e *zerolog.Event) {
	if sh == nil {
		return
	}
	e.Object("header", sh.Header)
	e.Object("commit", sh.Commit)
}

// ValidateHash returns an error if the hash is not empty, but its
// size != tmhash.Size.
func ValidateHash(h []byte) error {
	if len(h) > 0 && len(h) != tmhash.Size {
		return fmt.Errorf("expected size to be %d bytes, got %d bytes",
			tmhash.Size,
			len(h),
		)
	}
	return nil
}
