package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tendermint/lightcore/types"
)

// ErrInvalidHeight is returned when a state is stored at a height below 1.
var ErrInvalidHeight = errors.New("height must be greater than zero")

// ReadOnly is a read only view of trusted states. Every state returned is a
// snapshot: later writes to the store never show through it.
type ReadOnly interface {
	// Get returns the trusted state at height, if any.
	Get(height int64) (types.TrustedState, bool)

	// Latest returns the trusted state with the highest height, if any.
	Latest() (types.TrustedState, bool)

	// Size returns the number of stored states.
	Size() int
}

// ReadWrite is a ReadOnly view which can also store states.
type ReadWrite interface {
	ReadOnly

	// Set stores state at height, replacing what was there. height must be > 0
	// and state must pass ValidateBasic.
	Set(height int64, state types.TrustedState) error

	// Prune removes the oldest states until at most size are left.
	Prune(size int) error
}

// TrustedStore is an in-memory map from height to trusted state, safe for
// concurrent use. Each call is atomic; there are no transactions across
// heights.
type TrustedStore struct {
	mtx    sync.RWMutex
	states map[int64]types.TrustedState
}

// New returns an empty TrustedStore.
func New() *TrustedStore {
	return &TrustedStore{states: make(map[int64]types.TrustedState)}
}

// Reader returns a read only handle on s.
func (s *TrustedStore) Reader() ReadOnly {
	return Reader{store: s}
}

// ReadWriter returns a read-write handle on s.
func (s *TrustedStore) ReadWriter() ReadWrite {
	return ReadWriter{Reader{store: s}}
}

func (s *TrustedStore) get(height int64) (types.TrustedState, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	state, ok := s.states[height]
	if !ok {
		return types.TrustedState{}, false
	}
	return state.Copy(), true
}

func (s *TrustedStore) latest() (types.TrustedState, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var (
		max   int64
		found bool
	)
	for h := range s.states {
		if !found || h > max {
			max, found = h, true
		}
	}
	if !found {
		return types.TrustedState{}, false
	}
	return s.states[max].Copy(), true
}

func (s *TrustedStore) size() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.states)
}

func (s *TrustedStore) set(height int64, state types.TrustedState) error {
	if height <= 0 {
		return ErrInvalidHeight
	}
	if err := state.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid trusted state: %w", err)
	}

	state = state.Copy()

	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.states[height] = state
	return nil
}

func (s *TrustedStore) prune(size int) error {
	if size < 0 {
		return fmt.Errorf("negative size %d", size)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.states) <= size {
		return nil
	}
	heights := make([]int64, 0, len(s.states))
	for h := range s.states {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	for _, h := range heights[:len(heights)-size] {
		delete(s.states, h)
	}
	return nil
}

// Reader is the ReadOnly handle of a TrustedStore.
type Reader struct {
	store *TrustedStore
}

var _ ReadOnly = Reader{}

func (r Reader) Get(height int64) (types.TrustedState, bool) { return r.store.get(height) }

func (r Reader) Latest() (types.TrustedState, bool) { return r.store.latest() }

func (r Reader) Size() int { return r.store.size() }

// ReadWriter is the ReadWrite handle of a TrustedStore.
type ReadWriter struct {
	Reader
}

var _ ReadWrite = ReadWriter{}

func (rw ReadWriter) Set(height int64, state types.TrustedState) error {
	return rw.store.set(height, state)
}

func (rw ReadWriter) Prune(size int) error { return rw.store.prune(size) }

// ErrStateNotFound is returned by a Persistent store when there is no state
// at the requested height.
var ErrStateNotFound = errors.New("trusted state not found")

// Persistent is a durable home for trusted states. It sits outside the
// TrustedStore: callers save what they Set and Restore on startup.
type Persistent interface {
	// Save stores state under its header height.
	Save(state types.TrustedState) error

	// Load returns the state at height, or ErrStateNotFound.
	Load(height int64) (types.TrustedState, error)

	// Delete removes the state at height, if any.
	Delete(height int64) error

	// LatestHeight returns the highest stored height, or -1 if empty.
	LatestHeight() (int64, error)

	// Size returns the number of stored states.
	Size() (int, error)

	// Prune removes the oldest states until at most size are left.
	Prune(size int) error

	// Restore sets every stored state into rw and returns how many there
	// were.
	Restore(rw ReadWrite) (int, error)
}
