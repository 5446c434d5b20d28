package light_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightcore/libs/log"
	tmmath "github.com/tendermint/lightcore/libs/math"
	"github.com/tendermint/lightcore/libs/pred"
	"github.com/tendermint/lightcore/light"
	"github.com/tendermint/lightcore/types"
)

var oneThird = tmmath.Fraction{Numerator: 1, Denominator: 3}

func newVerifier(options ...light.Option) *light.Verifier {
	cv := light.NewCommitVerifier(chainID)
	return light.NewVerifier(light.SHA256HeaderHasher{}, cv, cv, options...)
}

func TestVerifySuccess(t *testing.T) {
	f := newFixture(t)
	v := newVerifier(light.Logger(log.TestingLogger()), light.TrustingPeriod(24*time.Hour))

	untrusted := f.signed(t, keyA, keyC)
	err := v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, f.now)
	require.NoError(t, err)

	next := types.NewTrustedState(untrusted.Header, f.v11)
	require.NoError(t, next.ValidateBasic())
	assert.EqualValues(t, 11, next.Height())
	assert.Equal(t, f.v11.Hash(), next.Validators.Hash())
}

func TestVerifyInsufficientValidatorsOverlap(t *testing.T) {
	f := newFixture(t)
	v := newVerifier()

	err := v.Verify(f.trusted, f.signed(t, keyB), f.v11, f.v11, oneThird, f.now)

	var e light.ErrInsufficientValidatorsOverlap
	require.True(t, errors.As(err, &e), "got %v", err)
	assert.Equal(t, light.ErrInsufficientValidatorsOverlap{TotalPower: 100, SignedPower: 30}, e)
}

func TestVerifyIsDeterministic(t *testing.T) {
	f := newFixture(t)
	v := newVerifier()

	for _, untrusted := range []*types.SignedHeader{f.signed(t, keyA, keyC), f.signed(t, keyB)} {
		hashBefore := untrusted.Hash()
		valsBefore := f.v11.Hash()
		trustedBefore := f.trusted.Header.Hash()

		err1 := v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, f.now)
		err2 := v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, f.now)
		assert.Equal(t, err1, err2)

		assert.Equal(t, hashBefore, untrusted.Hash())
		assert.Equal(t, valsBefore, f.v11.Hash())
		assert.Equal(t, trustedBefore, f.trusted.Header.Hash())
	}
}

func TestVerifyRules(t *testing.T) {
	f := newFixture(t)
	v := newVerifier()

	other := valSet(weighted{keyA, 1})

	testCases := []struct {
		name       string
		untrusted  func() *types.SignedHeader
		vals, next *types.ValidatorSet
		check      func(t *testing.T, err error)
	}{
		{
			name:      "validator set mismatch",
			untrusted: func() *types.SignedHeader { return f.signed(t, keyA, keyC) },
			vals:      other,
			next:      f.v11,
			check: func(t *testing.T, err error) {
				var e light.ErrInvalidValidatorSet
				require.ErrorAs(t, err, &e)
				assert.Equal(t, f.header11.ValidatorsHash, e.Expected)
				assert.Equal(t, other.Hash(), e.Got)
			},
		},
		{
			name:      "next validator set mismatch",
			untrusted: func() *types.SignedHeader { return f.signed(t, keyA, keyC) },
			vals:      f.v11,
			next:      other,
			check: func(t *testing.T, err error) {
				require.ErrorAs(t, err, &light.ErrInvalidNextValidatorSet{})
			},
		},
		{
			name: "commit for another header",
			untrusted: func() *types.SignedHeader {
				sh := f.signed(t, keyA, keyC)
				h := *f.header11
				h.AppHash = make([]byte, 32)
				h.AppHash[0] = 1
				return &types.SignedHeader{Header: &h, Commit: sh.Commit}
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				var e light.ErrInvalidCommitValue
				require.ErrorAs(t, err, &e)
				assert.Equal(t, f.header11.Hash(), e.CommitHash)
			},
		},
		{
			name: "forged signature",
			untrusted: func() *types.SignedHeader {
				sh := f.signed(t, keyA, keyC)
				for i := range sh.Commit.Signatures {
					if sh.Commit.Signatures[i].ForBlock() {
						sh.Commit.Signatures[i].Signature[0] ^= 0xff
						break
					}
				}
				return sh
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				var e light.ErrImplementationSpecific
				require.ErrorAs(t, err, &e)
				require.ErrorAs(t, err, &light.ErrWrongSignature{})
			},
		},
		{
			name: "signature timestamp out of range",
			untrusted: func() *types.SignedHeader {
				var ts time.Time
				require.NoError(t, json.Unmarshal([]byte(`"0000-06-01T00:00:00Z"`), &ts))
				sh := f.signed(t, keyA, keyC)
				for i := range sh.Commit.Signatures {
					if sh.Commit.Signatures[i].ForBlock() {
						sh.Commit.Signatures[i].Timestamp = ts
					}
				}
				return sh
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				var e light.ErrImplementationSpecific
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "implementation_specific", light.ErrorKind(err))
			},
		},
		{
			name: "empty commit",
			untrusted: func() *types.SignedHeader {
				return f.signed(t)
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, light.ErrEmptyCommit)
			},
		},
		{
			name: "header not newer",
			untrusted: func() *types.SignedHeader {
				h := genHeader(11, f.trusted.Header.Time, f.v11, f.v11)
				return &types.SignedHeader{Header: h, Commit: signHeader(t, h, f.v11, keyA, keyC)}
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				var e light.ErrNonMonotonicBftTime
				require.ErrorAs(t, err, &e)
				assert.Equal(t, f.trusted.Header.Time, e.Trusted)
			},
		},
		{
			name: "same height",
			untrusted: func() *types.SignedHeader {
				h := genHeader(10, bTime.Add(time.Minute), f.v11, f.v11)
				return &types.SignedHeader{Header: h, Commit: signHeader(t, h, f.v11, keyA, keyC)}
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				var e light.ErrNonIncreasingHeight
				require.ErrorAs(t, err, &e)
				assert.Equal(t, light.ErrNonIncreasingHeight{Got: 10, Expected: 11}, e)
			},
		},
		{
			name: "lower height",
			untrusted: func() *types.SignedHeader {
				h := genHeader(9, bTime.Add(time.Minute), f.v11, f.v11)
				return &types.SignedHeader{Header: h, Commit: signHeader(t, h, f.v11, keyA, keyC)}
			},
			vals: f.v11,
			next: f.v11,
			check: func(t *testing.T, err error) {
				assert.Equal(t, light.ErrNonIncreasingHeight{Got: 9, Expected: 11}, err)
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := v.Verify(f.trusted, tc.untrusted(), tc.vals, tc.next, oneThird, f.now)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestVerifyFailsFast(t *testing.T) {
	f := newFixture(t)

	// The validator set does not match the header and nobody signed, so both
	// the first and the last rule fail. The first one must win and the
	// calculator must never be consulted.
	calc := &mockCalculator{}
	v := light.NewVerifier(light.SHA256HeaderHasher{}, acceptAll{}, calc)

	untrusted := f.signed(t)
	err := v.Verify(f.trusted, untrusted, f.v10, f.v11, oneThird, f.now)
	require.ErrorAs(t, err, &light.ErrInvalidValidatorSet{})

	calc.AssertNotCalled(t, "TotalPowerOf", mock.Anything)
	calc.AssertNotCalled(t, "VotingPowerIn", mock.Anything, mock.Anything)
}

// Rule 8 measures the commit against the trusted validator set and rule 9
// against the untrusted one.
func TestVerifyOverlapRulesUseTheRightValidatorSet(t *testing.T) {
	f := newFixture(t)
	untrusted := f.signed(t, keyA, keyC)

	t.Run("trusted set is short", func(t *testing.T) {
		calc := &mockCalculator{}
		calc.On("TotalPowerOf", f.v10).Return(int64(100), nil)
		calc.On("VotingPowerIn", untrusted.Commit, f.v10).Return(int64(30), nil)

		v := light.NewVerifier(light.SHA256HeaderHasher{}, acceptAll{}, calc)
		err := v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, f.now)
		assert.Equal(t, light.ErrInsufficientValidatorsOverlap{TotalPower: 100, SignedPower: 30}, err)

		calc.AssertExpectations(t)
		calc.AssertNotCalled(t, "TotalPowerOf", f.v11)
	})

	t.Run("untrusted set is short", func(t *testing.T) {
		calc := &mockCalculator{}
		calc.On("TotalPowerOf", f.v10).Return(int64(100), nil)
		calc.On("VotingPowerIn", untrusted.Commit, f.v10).Return(int64(70), nil)
		calc.On("TotalPowerOf", f.v11).Return(int64(100), nil)
		calc.On("VotingPowerIn", untrusted.Commit, f.v11).Return(int64(20), nil)

		v := light.NewVerifier(light.SHA256HeaderHasher{}, acceptAll{}, calc)
		err := v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, f.now)
		assert.Equal(t, light.ErrInvalidCommit{TotalPower: 100, SignedPower: 20}, err)

		calc.AssertExpectations(t)
	})

	t.Run("calculator failure", func(t *testing.T) {
		calc := &mockCalculator{}
		calc.On("TotalPowerOf", f.v10).Return(int64(0), errors.New("boom"))
		calc.On("VotingPowerIn", untrusted.Commit, f.v10).Return(int64(0), errors.New("boom"))

		v := light.NewVerifier(light.SHA256HeaderHasher{}, acceptAll{}, calc)
		err := v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, f.now)
		assert.Equal(t, light.ErrInsufficientValidatorsOverlap{TotalPower: -1, SignedPower: -1}, err)
	})
}

func TestVerifyTrustingPeriod(t *testing.T) {
	f := newFixture(t)
	untrusted := f.signed(t, keyA, keyC)
	trustedTime := f.trusted.Header.Time

	testCases := []struct {
		name   string
		period time.Duration
		now    time.Time
		check  func(t *testing.T, err error)
	}{
		{"within", time.Hour, trustedTime.Add(59 * time.Minute), func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
		{"disabled", 0, trustedTime.Add(1000 * time.Hour), func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
		{"expired", time.Hour, trustedTime.Add(2 * time.Hour), func(t *testing.T, err error) {
			assert.Equal(t, light.ErrNotWithinTrustPeriod{
				ExpiresAt: trustedTime.Add(time.Hour),
				Now:       trustedTime.Add(2 * time.Hour),
			}, err)
		}},
		{"from the future", time.Hour, trustedTime.Add(-time.Second), func(t *testing.T, err error) {
			assert.ErrorAs(t, err, &light.ErrHeaderFromTheFuture{})
		}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v := newVerifier(light.TrustingPeriod(tc.period))
			tc.check(t, v.Verify(f.trusted, untrusted, f.v11, f.v11, oneThird, tc.now))
		})
	}
}

func TestVerifyInvalidInput(t *testing.T) {
	f := newFixture(t)
	v := newVerifier()
	untrusted := f.signed(t, keyA, keyC)

	var nilMember types.ValidatorSet
	require.NoError(t, json.Unmarshal([]byte(`{"validators":[null]}`), &nilMember))
	trustedNilMember := types.TrustedState{Header: f.trusted.Header, Validators: &nilMember}

	testCases := []struct {
		name      string
		trusted   types.TrustedState
		untrusted *types.SignedHeader
		vals      *types.ValidatorSet
		next      *types.ValidatorSet
		threshold tmmath.Fraction
	}{
		{"no trusted header", types.TrustedState{Validators: f.v10}, untrusted, f.v11, f.v11, oneThird},
		{"no trusted validators", types.TrustedState{Header: f.trusted.Header}, untrusted, f.v11, f.v11, oneThird},
		{"no untrusted header", f.trusted, nil, f.v11, f.v11, oneThird},
		{"no commit", f.trusted, &types.SignedHeader{Header: f.header11}, f.v11, f.v11, oneThird},
		{"no validators", f.trusted, untrusted, nil, f.v11, oneThird},
		{"no next validators", f.trusted, untrusted, f.v11, nil, oneThird},
		{"nil trusted validator", trustedNilMember, untrusted, f.v11, f.v11, oneThird},
		{"nil validator", f.trusted, untrusted, &nilMember, f.v11, oneThird},
		{"nil next validator", f.trusted, untrusted, f.v11, &nilMember, oneThird},
		{"empty validators", f.trusted, untrusted, &types.ValidatorSet{}, f.v11, oneThird},
		{"zero threshold", f.trusted, untrusted, f.v11, f.v11, tmmath.Fraction{Numerator: 0, Denominator: 3}},
		{"threshold above one", f.trusted, untrusted, f.v11, f.v11, tmmath.Fraction{Numerator: 4, Denominator: 3}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := v.Verify(tc.trusted, tc.untrusted, tc.vals, tc.next, tc.threshold, f.now)
			assert.ErrorAs(t, err, &light.ErrInvalidInput{})
			assert.Equal(t, "invalid_input", light.ErrorKind(err))
		})
	}
}

func TestInspect(t *testing.T) {
	f := newFixture(t)
	v := newVerifier(light.TrustingPeriod(24 * time.Hour))

	tree, err := v.Inspect(f.trusted, f.signed(t, keyB), f.v11, f.v11, oneThird, f.now)
	require.NoError(t, err)
	assert.False(t, tree.Value)

	for _, name := range []string{
		light.RuleWithinTrustPeriod,
		light.RuleValidatorSetsMatch,
		light.RuleNextValidatorsMatch,
		light.RuleHeaderMatchesCommit,
		light.RuleValidCommit,
		light.RuleMonotonicBftTime,
		light.RuleMonotonicHeight,
		light.RuleValidNextValidatorSet,
	} {
		node, ok := tree.Find(name)
		require.True(t, ok, name)
		assert.True(t, node.Value, name)
	}

	// Only b signed: 30 of 100 in both sets.
	for _, name := range []string{
		light.RuleSufficientValidatorsOverlap,
		light.RuleSufficientSignersOverlap,
	} {
		node, ok := tree.Find(name)
		require.True(t, ok, name)
		assert.False(t, node.Value, name)
	}
	assert.Contains(t, tree.String(), light.RuleSufficientValidatorsOverlap+": false")

	_, err = v.Inspect(f.trusted, nil, f.v11, f.v11, oneThird, f.now)
	assert.Error(t, err)
}

func TestVerificationRulesOrder(t *testing.T) {
	f := newFixture(t)
	cv := light.NewCommitVerifier(chainID)
	p := light.VerificationRules(light.VerificationInput{
		Trusted:           f.trusted,
		Untrusted:         f.signed(t, keyA, keyC),
		UntrustedVals:     f.v11,
		UntrustedNextVals: f.v11,
		TrustThreshold:    oneThird,
		Hasher:            light.SHA256HeaderHasher{},
		CommitValidator:   cv,
		Calculator:        cv,
	})
	require.NoError(t, pred.AssertOf(p))

	var names []string
	pred.Inspect(p).Walk(func(_ int, node pred.Tree) bool {
		for _, name := range []string{
			light.RuleValidatorSetsMatch,
			light.RuleNextValidatorsMatch,
			light.RuleHeaderMatchesCommit,
			light.RuleValidCommit,
			light.RuleMonotonicBftTime,
			light.RuleMonotonicHeight,
			light.RuleValidNextValidatorSet,
			light.RuleSufficientValidatorsOverlap,
			light.RuleSufficientSignersOverlap,
		} {
			if node.Label == name {
				names = append(names, name)
				return false
			}
		}
		return true
	})
	assert.Equal(t, []string{
		light.RuleValidatorSetsMatch,
		light.RuleNextValidatorsMatch,
		light.RuleHeaderMatchesCommit,
		light.RuleValidCommit,
		light.RuleMonotonicBftTime,
		light.RuleMonotonicHeight,
		light.RuleValidNextValidatorSet,
		light.RuleSufficientValidatorsOverlap,
		light.RuleSufficientSignersOverlap,
	}, names)
}

func TestValidateTrustThreshold(t *testing.T) {
	testCases := []struct {
		th    tmmath.Fraction
		valid bool
	}{
		{tmmath.Fraction{Numerator: 1, Denominator: 3}, true},
		{tmmath.Fraction{Numerator: 2, Denominator: 3}, true},
		{tmmath.Fraction{Numerator: 1, Denominator: 1}, true},
		{tmmath.Fraction{Numerator: 0, Denominator: 1}, false},
		{tmmath.Fraction{Numerator: 4, Denominator: 3}, false},
		{tmmath.Fraction{Numerator: 1, Denominator: 0}, false},
		{tmmath.Fraction{Numerator: -1, Denominator: -3}, false},
	}
	for _, tc := range testCases {
		err := light.ValidateTrustThreshold(tc.th)
		if tc.valid {
			assert.NoError(t, err, tc.th.String())
		} else {
			assert.Error(t, err, tc.th.String())
		}
	}
}

func TestPrometheusMetrics(t *testing.T) {
	f := newFixture(t)
	metrics := light.PrometheusMetrics("lightcore_test")
	v := newVerifier(light.WithMetrics(metrics))

	require.NoError(t, v.Verify(f.trusted, f.signed(t, keyA, keyC), f.v11, f.v11, oneThird, f.now))
	require.Error(t, v.Verify(f.trusted, f.signed(t, keyB), f.v11, f.v11, oneThird, f.now))

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "lightcore_test_light_verifications":
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "outcome" {
						found[lp.GetValue()] = m.GetCounter().GetValue()
					}
				}
			case "lightcore_test_light_latest_trusted_height":
				found["height"] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{
		"ok":                              1,
		"insufficient_validators_overlap": 1,
		"height":                          11,
	}, found)
}
