package light

import (
	"errors"
	"fmt"
	"time"

	tmbytes "github.com/tendermint/lightcore/libs/bytes"
	tmmath "github.com/tendermint/lightcore/libs/math"
)

// ErrInvalidValidatorSet means the validator set handed in with the header
// does not hash to the header's ValidatorsHash.
type ErrInvalidValidatorSet struct {
	Expected tmbytes.HexBytes
	Got      tmbytes.HexBytes
}

func (e ErrInvalidValidatorSet) Error() string {
	return fmt.Sprintf("validators hash mismatch: header has %v, validator set hashes to %v", e.Expected, e.Got)
}

// ErrInvalidNextValidatorSet means the next validator set handed in with the
// header does not hash to the header's NextValidatorsHash.
type ErrInvalidNextValidatorSet struct {
	Expected tmbytes.HexBytes
	Got      tmbytes.HexBytes
}

func (e ErrInvalidNextValidatorSet) Error() string {
	return fmt.Sprintf("next validators hash mismatch: header has %v, next validator set hashes to %v",
		e.Expected, e.Got)
}

// ErrInvalidCommitValue means the commit was not made for the given header.
type ErrInvalidCommitValue struct {
	HeaderHash tmbytes.HexBytes
	CommitHash tmbytes.HexBytes
}

func (e ErrInvalidCommitValue) Error() string {
	return fmt.Sprintf("commit signs header %v, not %v", e.CommitHash, e.HeaderHash)
}

// ErrImplementationSpecific wraps a failure reported by a CommitValidator.
type ErrImplementationSpecific struct {
	Reason error
}

func (e ErrImplementationSpecific) Error() string {
	return fmt.Sprintf("invalid commit: %v", e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrImplementationSpecific) Unwrap() error {
	return e.Reason
}

// ErrNotWithinTrustPeriod means the trusted header has expired according to
// the trusting period and the current time, or is not strictly in the past.
// If so, the light client must be reset subjectively.
type ErrNotWithinTrustPeriod struct {
	ExpiresAt time.Time
	Now       time.Time
}

func (e ErrNotWithinTrustPeriod) Error() string {
	return fmt.Sprintf("header is not within the trust period: expires at %v (now: %v)", e.ExpiresAt, e.Now)
}

// ErrHeaderFromTheFuture means the header time is after the current time.
type ErrHeaderFromTheFuture struct {
	HeaderTime time.Time
	Now        time.Time
}

func (e ErrHeaderFromTheFuture) Error() string {
	return fmt.Sprintf("header time %v is from the future (now: %v)", e.HeaderTime, e.Now)
}

// ErrNonMonotonicBftTime means the untrusted header is not strictly newer
// than the trusted one.
type ErrNonMonotonicBftTime struct {
	Got     time.Time
	Trusted time.Time
}

func (e ErrNonMonotonicBftTime) Error() string {
	return fmt.Sprintf("expected new header time %v to be after old header time %v", e.Got, e.Trusted)
}

// ErrNonIncreasingHeight means the untrusted header is not above the trusted
// one.
type ErrNonIncreasingHeight struct {
	Got      int64
	Expected int64
}

func (e ErrNonIncreasingHeight) Error() string {
	return fmt.Sprintf("expected new header height %d to be at least %d", e.Got, e.Expected)
}

// ErrInsufficientVotingPower means signed power did not exceed the trust
// threshold of the total power.
type ErrInsufficientVotingPower struct {
	TotalPower     int64
	SignedPower    int64
	TrustThreshold tmmath.Fraction
}

func (e ErrInsufficientVotingPower) Error() string {
	return fmt.Sprintf("insufficient voting power: signed %d of %d, need more than %v",
		e.SignedPower, e.TotalPower, e.TrustThreshold)
}

// ErrInsufficientValidatorsOverlap means too little of the trusted
// validator set signed the new header. A power of -1 could not be computed.
type ErrInsufficientValidatorsOverlap struct {
	TotalPower  int64
	SignedPower int64
}

func (e ErrInsufficientValidatorsOverlap) Error() string {
	return fmt.Sprintf("insufficient validators overlap: %d of %d trusted voting power signed",
		e.SignedPower, e.TotalPower)
}

// ErrInvalidCommit means too little of the new header's own validator set
// signed it. A power of -1 could not be computed.
type ErrInvalidCommit struct {
	TotalPower  int64
	SignedPower int64
}

func (e ErrInvalidCommit) Error() string {
	return fmt.Sprintf("invalid commit: %d of %d voting power signed", e.SignedPower, e.TotalPower)
}

// ErrInvalidInput means Verify was handed a nil or malformed argument.
type ErrInvalidInput struct {
	Reason error
}

func (e ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid verification input: %v", e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrInvalidInput) Unwrap() error {
	return e.Reason
}

// ErrorKind returns a short, stable name for err, suitable as a metric label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ErrInvalidValidatorSet{}):
		return "invalid_validator_set"
	case errors.As(err, &ErrInvalidNextValidatorSet{}):
		return "invalid_next_validator_set"
	case errors.As(err, &ErrInvalidCommitValue{}):
		return "invalid_commit_value"
	case errors.As(err, &ErrImplementationSpecific{}):
		return "implementation_specific"
	case errors.As(err, &ErrNotWithinTrustPeriod{}):
		return "not_within_trust_period"
	case errors.As(err, &ErrHeaderFromTheFuture{}):
		return "header_from_the_future"
	case errors.As(err, &ErrNonMonotonicBftTime{}):
		return "non_monotonic_bft_time"
	case errors.As(err, &ErrNonIncreasingHeight{}):
		return "non_increasing_height"
	case errors.As(err, &ErrInsufficientVotingPower{}):
		return "insufficient_voting_power"
	case errors.As(err, &ErrInsufficientValidatorsOverlap{}):
		return "insufficient_validators_overlap"
	case errors.As(err, &ErrInvalidCommit{}):
		return "invalid_commit"
	case errors.As(err, &ErrInvalidInput{}):
		return "invalid_input"
	default:
		return "other"
	}
}
