package db

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/lightcore/light/store"
	"github.com/tendermint/lightcore/types"
)

const prefixTrustedState = int64(1)

type dbs struct {
	db     dbm.DB
	prefix string

	mtx sync.Mutex
}

var _ store.Persistent = (*dbs)(nil)

// New returns a Persistent store backed by db. prefix is used to separate
// the states of different light clients sharing one database.
func New(db dbm.DB, prefix string) store.Persistent {
	return &dbs{db: db, prefix: prefix}
}

// Save persists state under its header height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Save(state types.TrustedState) error {
	if err := state.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid trusted state: %w", err)
	}

	bz, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling trusted state: %w", err)
	}

	key, err := s.stateKey(state.Height())
	if err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.db.SetSync(key, bz); err != nil {
		return fmt.Errorf("saving trusted state %d: %w", state.Height(), err)
	}
	return nil
}

// Load returns the state at height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Load(height int64) (types.TrustedState, error) {
	if height <= 0 {
		return types.TrustedState{}, store.ErrInvalidHeight
	}

	key, err := s.stateKey(height)
	if err != nil {
		return types.TrustedState{}, err
	}
	bz, err := s.db.Get(key)
	if err != nil {
		return types.TrustedState{}, err
	}
	if len(bz) == 0 {
		return types.TrustedState{}, store.ErrStateNotFound
	}
	return decodeState(bz)
}

// Delete removes the state at height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Delete(height int64) error {
	if height <= 0 {
		return store.ErrInvalidHeight
	}
	key, err := s.stateKey(height)
	if err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.db.DeleteSync(key)
}

// LatestHeight returns the last (newest) height, or -1 if the store is
// empty.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LatestHeight() (int64, error) {
	start, end, err := s.bounds()
	if err != nil {
		return -1, err
	}
	itr, err := s.db.ReverseIterator(start, end)
	if err != nil {
		return -1, err
	}
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		height, err := s.parseKey(itr.Key())
		if err == nil {
			return height, nil
		}
	}
	return -1, itr.Error()
}

// Size returns the number of stored states.
func (s *dbs) Size() (int, error) {
	n := 0
	err := s.each(func(int64, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Prune removes the oldest states so that at most size are left.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Prune(size int) error {
	if size < 0 {
		return fmt.Errorf("negative size %d", size)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	var heights []int64
	if err := s.each(func(height int64, _ []byte) error {
		heights = append(heights, height)
		return nil
	}); err != nil {
		return err
	}
	if len(heights) <= size {
		return nil
	}

	b := s.db.NewBatch()
	defer b.Close()

	// heights are in ascending order
	for _, h := range heights[:len(heights)-size] {
		key, err := s.stateKey(h)
		if err != nil {
			return err
		}
		if err := b.Delete(key); err != nil {
			return err
		}
	}
	return b.WriteSync()
}

// Restore loads every stored state into rw.
func (s *dbs) Restore(rw store.ReadWrite) (int, error) {
	n := 0
	err := s.each(func(height int64, bz []byte) error {
		state, err := decodeState(bz)
		if err != nil {
			return fmt.Errorf("decoding trusted state %d: %w", height, err)
		}
		if err := rw.Set(height, state); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// each calls fn for every stored state in ascending height order.
func (s *dbs) each(fn func(height int64, bz []byte) error) error {
	start, end, err := s.bounds()
	if err != nil {
		return err
	}
	itr, err := s.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		height, err := s.parseKey(itr.Key())
		if err != nil {
			continue
		}
		if err := fn(height, itr.Value()); err != nil {
			return err
		}
	}
	return itr.Error()
}

func decodeState(bz []byte) (types.TrustedState, error) {
	var state types.TrustedState
	if err := json.Unmarshal(bz, &state); err != nil {
		return types.TrustedState{}, err
	}
	return state, nil
}

//----------------------------------------------------------------------------
// keys

func (s *dbs) stateKey(height int64) ([]byte, error) {
	key, err := orderedcode.Append(nil, s.prefix, prefixTrustedState, height)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *dbs) bounds() (start, end []byte, err error) {
	if start, err = s.stateKey(1); err != nil {
		return nil, nil, err
	}
	if end, err = s.stateKey(math.MaxInt64); err != nil {
		return nil, nil, err
	}
	// end is exclusive
	return start, append(end, 0xff), nil
}

func (s *dbs) parseKey(key []byte) (int64, error) {
	var (
		prefix string
		kind   int64
		height int64
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &kind, &height)
	if err != nil {
		return 0, err
	}
	if remaining != "" {
		return 0, fmt.Errorf("unexpected remainder in key %X", key)
	}
	if prefix != s.prefix || kind != prefixTrustedState {
		return 0, fmt.Errorf("key %X does not hold a trusted state", key)
	}
	return height, nil
}
