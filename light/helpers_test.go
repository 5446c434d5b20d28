package light_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightcore/crypto/ed25519"
	tmbytes "github.com/tendermint/lightcore/libs/bytes"
	"github.com/tendermint/lightcore/types"
)

const chainID = "test-chain"

var (
	bTime = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	keyA = ed25519.GenPrivKeyFromSecret([]byte("validator a"))
	keyB = ed25519.GenPrivKeyFromSecret([]byte("validator b"))
	keyC = ed25519.GenPrivKeyFromSecret([]byte("validator c"))
)

type weighted struct {
	key   ed25519.PrivKey
	power int64
}

func pubKey(key ed25519.PrivKey) ed25519.PubKey {
	return key.PubKey().(ed25519.PubKey)
}

// valSet produces a validator set with the given keys and powers.
func valSet(ws ...weighted) *types.ValidatorSet {
	vals := make([]*types.Validator, len(ws))
	for i, w := range ws {
		vals[i] = types.NewValidator(pubKey(w.key), w.power)
	}
	return types.NewValidatorSet(vals)
}

func genHeader(height int64, bTime time.Time, vals, nextVals *types.ValidatorSet) *types.Header {
	return &types.Header{
		ChainID:            chainID,
		Height:             height,
		Time:               bTime,
		ValidatorsHash:     vals.Hash(),
		NextValidatorsHash: nextVals.Hash(),
		AppHash:            tmbytes.HexBytes(make([]byte, 32)),
		ProposerAddress:    vals.Validators[0].Address,
	}
}

// signHeader commits header with the votes of signers. Members of vals which
// are not signers are absent. Signers which are not members of vals are
// appended at the end of the commit.
func signHeader(t testing.TB, header *types.Header, vals *types.ValidatorSet, signers ...ed25519.PrivKey) *types.Commit {
	t.Helper()

	isSigner := func(val *types.Validator) (ed25519.PrivKey, bool) {
		for _, k := range signers {
			if pubKey(k).Equals(val.PubKey) {
				return k, true
			}
		}
		return nil, false
	}

	commit := &types.Commit{
		Height:     header.Height,
		Round:      1,
		HeaderHash: header.Hash(),
	}
	var keys []ed25519.PrivKey
	for _, val := range vals.Validators {
		key, ok := isSigner(val)
		if !ok {
			commit.Signatures = append(commit.Signatures, types.NewCommitSigAbsent())
			keys = append(keys, nil)
			continue
		}
		commit.Signatures = append(commit.Signatures, types.CommitSig{
			BlockIDFlag:      types.BlockIDFlagCommit,
			ValidatorAddress: val.Address,
			Timestamp:        header.Time,
		})
		keys = append(keys, key)
	}
	for _, k := range signers {
		if !vals.HasAddress(pubKey(k).Address()) {
			commit.Signatures = append(commit.Signatures, types.CommitSig{
				BlockIDFlag:      types.BlockIDFlagCommit,
				ValidatorAddress: pubKey(k).Address(),
				Timestamp:        header.Time,
			})
			keys = append(keys, k)
		}
	}

	for idx, key := range keys {
		if key == nil {
			continue
		}
		signBytes, err := commit.VoteSignBytes(chainID, int32(idx))
		require.NoError(t, err)
		sig, err := key.Sign(signBytes)
		require.NoError(t, err)
		commit.Signatures[idx].Signature = sig
	}
	return commit
}

// fixture is a trusted state at height 10 and a header at height 11 whose
// validator set has the same members with different powers.
type fixture struct {
	v10, v11 *types.ValidatorSet
	trusted  types.TrustedState
	header11 *types.Header
	now      time.Time
}

func newFixture(t testing.TB) fixture {
	t.Helper()

	v10 := valSet(weighted{keyA, 50}, weighted{keyB, 30}, weighted{keyC, 20})
	v11 := valSet(weighted{keyA, 40}, weighted{keyB, 30}, weighted{keyC, 30})
	require.NotEqual(t, v10.Hash(), v11.Hash())

	header10 := genHeader(10, bTime, v10, v11)
	return fixture{
		v10:      v10,
		v11:      v11,
		trusted:  types.NewTrustedState(header10, v10),
		header11: genHeader(11, bTime.Add(time.Minute), v11, v11),
		now:      bTime.Add(2 * time.Hour),
	}
}

func (f fixture) signed(t testing.TB, signers ...ed25519.PrivKey) *types.SignedHeader {
	return &types.SignedHeader{
		Header: f.header11,
		Commit: signHeader(t, f.header11, f.v11, signers...),
	}
}

// mockCalculator is a VotingPowerCalculator driven by testify expectations.
type mockCalculator struct {
	mock.Mock
}

func (m *mockCalculator) TotalPowerOf(vals *types.ValidatorSet) (int64, error) {
	args := m.Called(vals)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCalculator) VotingPowerIn(commit *types.Commit, vals *types.ValidatorSet) (int64, error) {
	args := m.Called(commit, vals)
	return args.Get(0).(int64), args.Error(1)
}

type acceptAll struct{}

func (acceptAll) Validate(*types.Commit, *types.ValidatorSet) error { return nil }
