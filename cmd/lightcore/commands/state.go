package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dbm "github.com/tendermint/tm-db"

	tmos "github.com/tendermint/lightcore/libs/os"
	"github.com/tendermint/lightcore/light"
	"github.com/tendermint/lightcore/light/store"
	dbs "github.com/tendermint/lightcore/light/store/db"
	"github.com/tendermint/lightcore/types"
)

const dbName = "light-client-db"

// trustedStates is the in-memory trusted store restored from, and written
// through to, the database.
type trustedStates struct {
	db      dbm.DB
	durable store.Persistent
	mem     *store.TrustedStore
}

func (e *env) openStates() (*trustedStates, error) {
	db, err := dbm.NewDB(dbName, dbm.BackendType(e.conf.DBBackend), e.conf.DBDir())
	if err != nil {
		return nil, fmt.Errorf("can't create a db: %w", err)
	}

	s := &trustedStates{
		db:      db,
		durable: dbs.New(db, e.conf.Light.ChainID),
		mem:     store.New(),
	}
	n, err := s.durable.Restore(s.mem.ReadWriter())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restoring trusted states: %w", err)
	}
	e.logger.Debug("Restored trusted states", "count", n)
	return s, nil
}

// save sets state in memory and in the database, then prunes both down to
// max states (0 keeps everything).
func (s *trustedStates) save(state types.TrustedState, max int) error {
	if err := s.mem.ReadWriter().Set(state.Height(), state); err != nil {
		return err
	}
	if err := s.durable.Save(state); err != nil {
		return err
	}
	if max <= 0 {
		return nil
	}
	if err := s.mem.ReadWriter().Prune(max); err != nil {
		return err
	}
	return s.durable.Prune(max)
}

// snapshot returns the state at height, or the latest one if height is 0.
func (s *trustedStates) snapshot(height int64) (types.TrustedState, error) {
	r := s.mem.Reader()
	var (
		state types.TrustedState
		ok    bool
	)
	if height == 0 {
		state, ok = r.Latest()
	} else {
		state, ok = r.Get(height)
	}
	if !ok {
		if height == 0 {
			return types.TrustedState{}, errors.New("no trusted state, install one with the trust command")
		}
		return types.TrustedState{}, fmt.Errorf("no trusted state at height %d: %w", height, store.ErrStateNotFound)
	}
	return state, nil
}

func (s *trustedStates) Close() error {
	return s.db.Close()
}

func readJSONFile(path string, v interface{}) error {
	bz, err := tmos.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

var (
	promMetricsOnce sync.Once
	promMetrics     *light.Metrics
)

// metrics returns the verifier metrics and a function writing them out, as
// configured in the [instrumentation] section. Prometheus collectors are
// registered once per process.
func (e *env) metrics() (*light.Metrics, func() error) {
	instr := e.conf.Instrumentation
	if !instr.Prometheus {
		return light.NopMetrics(), func() error { return nil }
	}
	promMetricsOnce.Do(func() {
		promMetrics = light.PrometheusMetrics(instr.Namespace)
	})
	path := e.conf.TextfilePath(instr)
	return promMetrics, func() error {
		return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
	}
}
