package light_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"

	tmmath "github.com/tendermint/lightcore/libs/math"
	"github.com/tendermint/lightcore/light"
	"github.com/tendermint/lightcore/types"
)

func TestHasSufficientVotingPowerBoundary(t *testing.T) {
	twoThirds := tmmath.Fraction{Numerator: 2, Denominator: 3}

	testCases := []struct {
		signed, total int64
		threshold     tmmath.Fraction
		holds         bool
	}{
		{200, 300, twoThirds, false}, // exactly 2/3 is not enough
		{201, 300, twoThirds, true},
		{199, 300, twoThirds, false},
		{34, 100, oneThird, true},
		{33, 100, oneThird, false},
		{100, 100, tmmath.Fraction{Numerator: 1, Denominator: 1}, false},
		{0, 0, oneThird, false},
		{math.MaxInt64, math.MaxInt64, twoThirds, false}, // overflow
		{-1, 100, oneThird, false},
		{100, -1, oneThird, false},
	}

	for _, tc := range testCases {
		p := light.HasSufficientVotingPower(tc.signed, tc.total, tc.threshold)
		assert.Equal(t, tc.holds, p.Eval(), "%d/%d > %v", tc.signed, tc.total, tc.threshold)

		err := p.Assert()
		if tc.holds {
			assert.NoError(t, err)
		} else {
			assert.Equal(t, light.ErrInsufficientVotingPower{
				TotalPower:     tc.total,
				SignedPower:    tc.signed,
				TrustThreshold: tc.threshold,
			}, err)
		}
	}
}

func TestHasSufficientVotingPowerMatchesDivision(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(1, types.MaxTotalVotingPower/1000).Draw(t, "total").(int64)
		signed := rapid.Int64Range(0, total).Draw(t, "signed").(int64)
		den := rapid.Int64Range(1, 1000).Draw(t, "den").(int64)
		num := rapid.Int64Range(1, den).Draw(t, "num").(int64)

		got := light.HasSufficientVotingPower(signed, total, tmmath.Fraction{Numerator: num, Denominator: den}).Eval()
		// signed/total > num/den, in exact integer arithmetic
		want := signed*den > total*num
		if got != want {
			t.Fatalf("signed=%d total=%d threshold=%d/%d: got %v, want %v", signed, total, num, den, got, want)
		}
	})
}

func TestIsWithinTrustPeriodBoundaries(t *testing.T) {
	header := &types.Header{Time: bTime}
	period := time.Hour

	testCases := []struct {
		name  string
		now   time.Time
		check func(t *testing.T, err error)
	}{
		{"inside", bTime.Add(30 * time.Minute), func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
		{"just after header", bTime.Add(time.Nanosecond), func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
		{"header time is now", bTime, func(t *testing.T, err error) {
			assert.Equal(t, light.ErrNotWithinTrustPeriod{ExpiresAt: bTime.Add(period), Now: bTime}, err)
		}},
		{"expires now", bTime.Add(period), func(t *testing.T, err error) {
			assert.Equal(t, light.ErrNotWithinTrustPeriod{ExpiresAt: bTime.Add(period), Now: bTime.Add(period)}, err)
		}},
		{"just before expiry", bTime.Add(period - time.Nanosecond), func(t *testing.T, err error) {
			assert.NoError(t, err)
		}},
		{"from the future", bTime.Add(-time.Nanosecond), func(t *testing.T, err error) {
			assert.Equal(t, light.ErrHeaderFromTheFuture{HeaderTime: bTime, Now: bTime.Add(-time.Nanosecond)}, err)
		}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, light.IsWithinTrustPeriod(header, period, tc.now).Assert())
		})
	}
}

func TestIsWithinTrustPeriodFutureWinsOverExpiry(t *testing.T) {
	// A zero trusting period means the header is expired the moment it is
	// made. From the future is still reported first.
	header := &types.Header{Time: bTime}
	err := light.IsWithinTrustPeriod(header, 0, bTime.Add(-time.Second)).Assert()
	assert.ErrorAs(t, err, &light.ErrHeaderFromTheFuture{})
}

func TestIsMonotonicHeightBoundary(t *testing.T) {
	trusted := &types.Header{Height: 10}

	assert.NoError(t, light.IsMonotonicHeight(&types.Header{Height: 11}, trusted).Assert())
	assert.Equal(t,
		light.ErrNonIncreasingHeight{Got: 10, Expected: 11},
		light.IsMonotonicHeight(&types.Header{Height: 10}, trusted).Assert())
}

func TestRulesAreNamed(t *testing.T) {
	f := newFixture(t)
	sh := f.signed(t, keyA)
	cv := light.NewCommitVerifier(chainID)

	testCases := []struct {
		rule light.Rule
		name string
	}{
		{light.ValidatorSetsMatch(sh.Header, f.v11), "validator_sets_match"},
		{light.NextValidatorsMatch(sh.Header, f.v11), "next_validators_match"},
		{light.HeaderMatchesCommit(sh.Header, sh.Commit, light.SHA256HeaderHasher{}), "header_matches_commit"},
		{light.ValidCommit(sh.Commit, f.v11, cv), "valid_commit"},
		{light.IsMonotonicBftTime(sh.Header, f.trusted.Header), "is_monotonic_bft_time"},
		{light.IsMonotonicHeight(sh.Header, f.trusted.Header), "is_monotonic_height"},
		{light.ValidNextValidatorSet(sh.Header, f.v11), "valid_next_validator_set"},
		{light.HasSufficientValidatorsOverlap(sh.Commit, f.v10, oneThird, cv), "has_sufficient_validators_overlap"},
		{light.HasSufficientSignersOverlap(sh.Commit, f.v11, oneThird, cv), "has_sufficient_signers_overlap"},
		{light.HasSufficientVotingPower(1, 2, oneThird), "has_sufficient_voting_power"},
		{light.IsWithinTrustPeriod(f.trusted.Header, time.Hour, f.now), "is_within_trust_period"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.name, tc.rule.Name())
		assert.Equal(t, tc.name, tc.rule.Inspect().Label)
	}
}

func TestHeaderHashers(t *testing.T) {
	f := newFixture(t)

	sha, err := light.HeaderHasherByName("sha256")
	require.NoError(t, err)
	keccak, err := light.HeaderHasherByName("Keccak256")
	require.NoError(t, err)
	_, err = light.HeaderHasherByName("md5")
	require.Error(t, err)

	assert.Equal(t, f.header11.Hash(), sha.Hash(f.header11))
	assert.Len(t, keccak.Hash(f.header11), 32)
	assert.NotEqual(t, sha.Hash(f.header11), keccak.Hash(f.header11))

	// A commit made over the Keccak hash only verifies with the Keccak hasher.
	sh := f.signed(t, keyA, keyC)
	sh.Commit.HeaderHash = keccak.Hash(f.header11)
	assert.Error(t, light.HeaderMatchesCommit(sh.Header, sh.Commit, sha).Assert())
	assert.NoError(t, light.HeaderMatchesCommit(sh.Header, sh.Commit, keccak).Assert())
}

func TestValidCommitConcurrentAssert(t *testing.T) {
	f := newFixture(t)
	cv := light.NewCommitVerifier(chainID)

	good := f.signed(t, keyA, keyC)
	bad := f.signed(t, keyA, keyC)
	for i := range bad.Commit.Signatures {
		if bad.Commit.Signatures[i].ForBlock() {
			bad.Commit.Signatures[i].Signature[0] ^= 0xff
			break
		}
	}

	holds := light.ValidCommit(good.Commit, f.v11, cv)
	fails := light.ValidCommit(bad.Commit, f.v11, cv)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			if err := holds.Assert(); err != nil {
				return err
			}
			err := fails.Assert()
			var e light.ErrImplementationSpecific
			if !errors.As(err, &e) || !errors.As(e.Reason, &light.ErrWrongSignature{}) {
				return fmt.Errorf("unexpected error %v", err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
