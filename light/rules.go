package light

import (
	"time"

	tmmath "github.com/tendermint/lightcore/libs/math"
	"github.com/tendermint/lightcore/libs/pred"
	"github.com/tendermint/lightcore/types"
)

// Rule names, as they appear when inspecting a verification.
const (
	RuleValidatorSetsMatch          = "validator_sets_match"
	RuleNextValidatorsMatch         = "next_validators_match"
	RuleHeaderMatchesCommit         = "header_matches_commit"
	RuleValidCommit                 = "valid_commit"
	RuleMonotonicBftTime            = "is_monotonic_bft_time"
	RuleMonotonicHeight             = "is_monotonic_height"
	RuleValidNextValidatorSet       = "valid_next_validator_set"
	RuleSufficientValidatorsOverlap = "has_sufficient_validators_overlap"
	RuleSufficientSignersOverlap    = "has_sufficient_signers_overlap"
	RuleSufficientVotingPower       = "has_sufficient_voting_power"
	RuleWithinTrustPeriod           = "is_within_trust_period"
	ruleNotFromTheFuture            = "is_not_from_the_future"
	ruleNotExpired                  = "is_not_expired"
)

// Rule is a named verification predicate which, asserted, fails with one of
// the errors of this package.
type Rule = *pred.NamedPredicate

func rule(name string, p pred.Predicate, ifFalse func() error) Rule {
	return pred.Named(pred.ToAssert(p, func(pred.Predicate) error { return ifFalse() }), name)
}

// ValidatorSetsMatch holds if vals hashes to the header's ValidatorsHash.
func ValidatorSetsMatch(header *types.Header, vals *types.ValidatorSet) Rule {
	return rule(RuleValidatorSetsMatch,
		pred.FromFunc(func() bool { return header.ValidatorsHash.Equal(vals.Hash()) }),
		func() error { return ErrInvalidValidatorSet{Expected: header.ValidatorsHash, Got: vals.Hash()} },
	)
}

// NextValidatorsMatch holds if nextVals hashes to the header's
// NextValidatorsHash.
func NextValidatorsMatch(header *types.Header, nextVals *types.ValidatorSet) Rule {
	return nextValidators(RuleNextValidatorsMatch, header, nextVals)
}

// ValidNextValidatorSet is the same check as NextValidatorsMatch, evaluated
// again once the commit and the monotonicity rules held.
func ValidNextValidatorSet(header *types.Header, nextVals *types.ValidatorSet) Rule {
	return nextValidators(RuleValidNextValidatorSet, header, nextVals)
}

func nextValidators(name string, header *types.Header, nextVals *types.ValidatorSet) Rule {
	return rule(name,
		pred.FromFunc(func() bool { return header.NextValidatorsHash.Equal(nextVals.Hash()) }),
		func() error {
			return ErrInvalidNextValidatorSet{Expected: header.NextValidatorsHash, Got: nextVals.Hash()}
		},
	)
}

// HeaderMatchesCommit holds if the commit was made for header.
func HeaderMatchesCommit(header *types.Header, commit *types.Commit, hasher HeaderHasher) Rule {
	return rule(RuleHeaderMatchesCommit,
		pred.FromFunc(func() bool {
			hash := hasher.Hash(header)
			return len(hash) > 0 && hash.Equal(commit.HeaderHash)
		}),
		func() error {
			return ErrInvalidCommitValue{HeaderHash: hasher.Hash(header), CommitHash: commit.HeaderHash}
		},
	)
}

// ValidCommit holds if validator accepts commit for vals. On failure the
// commit is validated again to report the reason, so the rule holds no state
// between evaluations.
func ValidCommit(commit *types.Commit, vals *types.ValidatorSet, validator CommitValidator) Rule {
	return rule(RuleValidCommit,
		pred.FromFunc(func() bool { return validator.Validate(commit, vals) == nil }),
		func() error { return ErrImplementationSpecific{Reason: validator.Validate(commit, vals)} },
	)
}

// IsMonotonicBftTime holds if the untrusted header is strictly newer than
// the trusted one.
func IsMonotonicBftTime(untrusted, trusted *types.Header) Rule {
	return rule(RuleMonotonicBftTime,
		pred.FromFunc(func() bool { return untrusted.Time.After(trusted.Time) }),
		func() error { return ErrNonMonotonicBftTime{Got: untrusted.Time, Trusted: trusted.Time} },
	)
}

// IsMonotonicHeight holds if the untrusted header is above the trusted one.
func IsMonotonicHeight(untrusted, trusted *types.Header) Rule {
	return rule(RuleMonotonicHeight,
		pred.GreaterThan(untrusted.Height, trusted.Height),
		func() error { return ErrNonIncreasingHeight{Got: untrusted.Height, Expected: trusted.Height + 1} },
	)
}

// HasSufficientVotingPower holds if signed > total * threshold, computed
// without division. It does not hold if the products overflow.
func HasSufficientVotingPower(signed, total int64, threshold tmmath.Fraction) Rule {
	return rule(RuleSufficientVotingPower,
		pred.FromFunc(func() bool { return exceedsThreshold(signed, total, threshold) }),
		func() error {
			return ErrInsufficientVotingPower{TotalPower: total, SignedPower: signed, TrustThreshold: threshold}
		},
	)
}

func exceedsThreshold(signed, total int64, threshold tmmath.Fraction) bool {
	if signed < 0 || total < 0 || threshold.Denominator <= 0 {
		return false
	}
	lhs, ok := tmmath.SafeMulInt64(signed, threshold.Denominator)
	if !ok {
		return false
	}
	rhs, ok := tmmath.SafeMulInt64(total, threshold.Numerator)
	if !ok {
		return false
	}
	return lhs > rhs
}

// powers asks calc for the total power of vals and the power behind commit.
// A power that cannot be computed is reported as -1.
func powers(calc VotingPowerCalculator, commit *types.Commit, vals *types.ValidatorSet) (total, signed int64) {
	total, signed = -1, -1
	if t, err := calc.TotalPowerOf(vals); err == nil {
		total = t
	}
	if s, err := calc.VotingPowerIn(commit, vals); err == nil {
		signed = s
	}
	return total, signed
}

// HasSufficientValidatorsOverlap holds if the part of the trusted validator
// set which signed commit has more than threshold of its power.
func HasSufficientValidatorsOverlap(
	commit *types.Commit,
	trustedVals *types.ValidatorSet,
	threshold tmmath.Fraction,
	calc VotingPowerCalculator,
) Rule {
	var total, signed int64 = -1, -1
	return rule(RuleSufficientValidatorsOverlap,
		pred.FromFunc(func() bool {
			total, signed = powers(calc, commit, trustedVals)
			return HasSufficientVotingPower(signed, total, threshold).Eval()
		}),
		func() error { return ErrInsufficientValidatorsOverlap{TotalPower: total, SignedPower: signed} },
	)
}

// HasSufficientSignersOverlap holds if the part of the untrusted validator
// set which signed commit has more than threshold of its power.
func HasSufficientSignersOverlap(
	commit *types.Commit,
	untrustedVals *types.ValidatorSet,
	threshold tmmath.Fraction,
	calc VotingPowerCalculator,
) Rule {
	var total, signed int64 = -1, -1
	return rule(RuleSufficientSignersOverlap,
		pred.FromFunc(func() bool {
			total, signed = powers(calc, commit, untrustedVals)
			return HasSufficientVotingPower(signed, total, threshold).Eval()
		}),
		func() error { return ErrInvalidCommit{TotalPower: total, SignedPower: signed} },
	)
}

// IsWithinTrustPeriod holds if header is strictly in the past and has not
// expired yet: header.Time < now < header.Time + trustingPeriod. A header
// from the future is reported as such even if it would also be expired.
func IsWithinTrustPeriod(header *types.Header, trustingPeriod time.Duration, now time.Time) Rule {
	expiresAt := header.Time.Add(trustingPeriod)

	notFromTheFuture := rule(ruleNotFromTheFuture,
		pred.Not(pred.FromFunc(func() bool { return header.Time.After(now) })),
		func() error { return ErrHeaderFromTheFuture{HeaderTime: header.Time, Now: now} },
	)
	notExpired := rule(ruleNotExpired,
		pred.And(
			pred.FromFunc(func() bool { return header.Time.Before(now) }),
			pred.FromFunc(func() bool { return expiresAt.After(now) }),
		),
		func() error { return ErrNotWithinTrustPeriod{ExpiresAt: expiresAt, Now: now} },
	)
	return pred.Named(pred.And(notFromTheFuture, notExpired), RuleWithinTrustPeriod)
}

// VerificationInput is everything a single verification pass looks at.
type VerificationInput struct {
	Trusted           types.TrustedState
	Untrusted         *types.SignedHeader
	UntrustedVals     *types.ValidatorSet
	UntrustedNextVals *types.ValidatorSet
	TrustThreshold    tmmath.Fraction

	Hasher          HeaderHasher
	CommitValidator CommitValidator
	Calculator      VotingPowerCalculator
}

// VerificationRules returns the conjunction of the nine verification rules
// in the order they are asserted. Asserting it stops at the first rule that
// does not hold.
func VerificationRules(in VerificationInput) pred.Predicate {
	var (
		header  = in.Untrusted.Header
		commit  = in.Untrusted.Commit
		trusted = in.Trusted.Header
	)
	return pred.All(
		ValidatorSetsMatch(header, in.UntrustedVals),
		NextValidatorsMatch(header, in.UntrustedNextVals),
		HeaderMatchesCommit(header, commit, in.Hasher),
		ValidCommit(commit, in.UntrustedVals, in.CommitValidator),
		IsMonotonicBftTime(header, trusted),
		IsMonotonicHeight(header, trusted),
		ValidNextValidatorSet(header, in.UntrustedNextVals),
		HasSufficientValidatorsOverlap(commit, in.Trusted.Validators, in.TrustThreshold, in.Calculator),
		HasSufficientSignersOverlap(commit, in.UntrustedVals, in.TrustThreshold, in.Calculator),
	)
}
