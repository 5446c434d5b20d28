package light

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendermint/lightcore/libs/log"
	tmmath "github.com/tendermint/lightcore/libs/math"
	"github.com/tendermint/lightcore/libs/pred"
	"github.com/tendermint/lightcore/types"
)

// DefaultTrustThreshold is the default trust threshold: more than 1/3 of the
// trusted voting power must have signed a header for it to be trusted.
var DefaultTrustThreshold = tmmath.Fraction{Numerator: 1, Denominator: 3}

// ValidateTrustThreshold checks that 0 < numerator <= denominator.
func ValidateTrustThreshold(th tmmath.Fraction) error {
	if th.Numerator <= 0 || th.Denominator <= 0 || th.Numerator > th.Denominator {
		return fmt.Errorf("trust threshold must be within (0, 1], given %v", th)
	}
	return nil
}

// Option sets a parameter for the verifier.
type Option func(*Verifier)

// TrustingPeriod makes the verifier check that the trusted header is still
// within the given trusting period before anything else. Zero disables the
// check.
func TrustingPeriod(d time.Duration) Option {
	return func(v *Verifier) {
		v.trustingPeriod = d
	}
}

// Logger option can be used to set a logger for the verifier.
func Logger(l log.Logger) Option {
	return func(v *Verifier) {
		v.logger = l
	}
}

// WithMetrics sets the metrics.
func WithMetrics(m *Metrics) Option {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// Verifier decides whether an untrusted signed header can be trusted given
// a trusted state. It holds no state of its own apart from its
// configuration and is safe for concurrent use.
type Verifier struct {
	hasher          HeaderHasher
	commitValidator CommitValidator
	calculator      VotingPowerCalculator

	trustingPeriod time.Duration
	logger         log.Logger
	metrics        *Metrics
}

// NewVerifier returns a Verifier using the given capabilities.
func NewVerifier(
	hasher HeaderHasher,
	commitValidator CommitValidator,
	calculator VotingPowerCalculator,
	options ...Option,
) *Verifier {
	v := &Verifier{
		hasher:          hasher,
		commitValidator: commitValidator,
		calculator:      calculator,
		logger:          log.NewNopLogger(),
		metrics:         NopMetrics(),
	}
	for _, o := range options {
		o(v)
	}
	return v
}

// Verify checks that untrusted, signed by untrustedVals and announcing
// untrustedNextVals, can be trusted given trusted. now is only used for the
// trusting period check.
//
// On success the caller may adopt
// types.NewTrustedState(untrusted.Header, untrustedVals). Verify returns the
// error of the first rule which does not hold.
func (v *Verifier) Verify(
	trusted types.TrustedState,
	untrusted *types.SignedHeader,
	untrustedVals, untrustedNextVals *types.ValidatorSet,
	threshold tmmath.Fraction,
	now time.Time,
) error {
	start := time.Now()
	err := v.verify(trusted, untrusted, untrustedVals, untrustedNextVals, threshold, now)

	v.metrics.Verifications.With("outcome", ErrorKind(err)).Add(1)
	v.metrics.VerificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		v.logger.Debug("header verification failed",
			"trusted", trusted.Height(),
			"err", err)
		return err
	}

	v.metrics.LatestTrustedHeight.Set(float64(untrusted.Height))
	v.logger.Debug("header verified",
		"trusted", trusted.Height(),
		"height", untrusted.Height,
		"hash", untrusted.Commit.HeaderHash)
	return nil
}

func (v *Verifier) verify(
	trusted types.TrustedState,
	untrusted *types.SignedHeader,
	untrustedVals, untrustedNextVals *types.ValidatorSet,
	threshold tmmath.Fraction,
	now time.Time,
) error {
	in, err := v.input(trusted, untrusted, untrustedVals, untrustedNextVals, threshold)
	if err != nil {
		return err
	}

	if v.trustingPeriod > 0 {
		if err := IsWithinTrustPeriod(trusted.Header, v.trustingPeriod, now).Assert(); err != nil {
			return err
		}
	}

	return pred.AssertOf(VerificationRules(in))
}

// Inspect evaluates the same rules as Verify, without stopping at the first
// failure, and returns the evaluation tree. It is meant for diagnostics.
func (v *Verifier) Inspect(
	trusted types.TrustedState,
	untrusted *types.SignedHeader,
	untrustedVals, untrustedNextVals *types.ValidatorSet,
	threshold tmmath.Fraction,
	now time.Time,
) (pred.Tree, error) {
	in, err := v.input(trusted, untrusted, untrustedVals, untrustedNextVals, threshold)
	if err != nil {
		return pred.Tree{}, err
	}

	p := VerificationRules(in)
	if v.trustingPeriod > 0 {
		p = pred.And(IsWithinTrustPeriod(trusted.Header, v.trustingPeriod, now), p)
	}
	return pred.Inspect(p), nil
}

func (v *Verifier) input(
	trusted types.TrustedState,
	untrusted *types.SignedHeader,
	untrustedVals, untrustedNextVals *types.ValidatorSet,
	threshold tmmath.Fraction,
) (VerificationInput, error) {
	var reason error
	switch {
	case trusted.Header == nil:
		reason = errors.New("missing trusted header")
	case trusted.Validators == nil:
		reason = errors.New("missing trusted validator set")
	case untrusted == nil || untrusted.Header == nil:
		reason = errors.New("missing untrusted header")
	case untrusted.Commit == nil:
		reason = errors.New("missing untrusted commit")
	case untrustedVals == nil:
		reason = errors.New("missing untrusted validator set")
	case untrustedNextVals == nil:
		reason = errors.New("missing untrusted next validator set")
	default:
		reason = validateSets(trusted.Validators, untrustedVals, untrustedNextVals)
		if reason == nil {
			reason = ValidateTrustThreshold(threshold)
		}
	}
	if reason != nil {
		return VerificationInput{}, ErrInvalidInput{Reason: reason}
	}

	return VerificationInput{
		Trusted:           trusted,
		Untrusted:         untrusted,
		UntrustedVals:     untrustedVals,
		UntrustedNextVals: untrustedNextVals,
		TrustThreshold:    threshold,
		Hasher:            v.hasher,
		CommitValidator:   v.commitValidator,
		Calculator:        v.calculator,
	}, nil
}

func validateSets(trusted, untrusted, untrustedNext *types.ValidatorSet) error {
	if err := trusted.ValidateBasic(); err != nil {
		return fmt.Errorf("trusted validator set: %w", err)
	}
	if err := untrusted.ValidateBasic(); err != nil {
		return fmt.Errorf("untrusted validator set: %w", err)
	}
	if err := untrustedNext.ValidateBasic(); err != nil {
		return fmt.Errorf("untrusted next validator set: %w", err)
	}
	return nil
}
