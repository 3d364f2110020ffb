// Package factory builds solver sessions for the registered backends.
package factory

import (
	"slices"
	"sync"

	"github.com/vhavlena/smtswitch/pkg/backends/sat"
	"github.com/vhavlena/smtswitch/pkg/config"
	"github.com/vhavlena/smtswitch/pkg/log"
	"github.com/vhavlena/smtswitch/pkg/metrics"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

// Constructor creates a fresh session over a new engine instance.
type Constructor func(opts ...smt.Option) smt.Solver

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{
		sat.Name: func(opts ...smt.Option) smt.Solver {
			return smt.NewLoggingSolver[sat.Sort, sat.Ref](sat.New(), opts...)
		},
	}
)

// Register adds a backend under name, replacing any previous one.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = c
}

// Available returns the registered backend names in lexical order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// New validates cfg and returns a session on the configured backend with its
// logic and options applied. logger and col may be nil.
//
// Parameters:
//
//	cfg config.Config: Session configuration.
//	logger *log.Logger: Logger for the decorator, or nil to discard.
//	col *metrics.Collectors: Shared collectors, or nil for none.
//
// Returns:
//
//	smt.Solver: The new session.
//	error: Usage errors for bad configuration, Internal for backend failures.
func New(cfg config.Config, logger *log.Logger, col *metrics.Collectors) (smt.Solver, error) {
	if err := cfg.Validate(Available()); err != nil {
		return nil, err
	}
	mu.RLock()
	ctor := registry[cfg.Backend]
	mu.RUnlock()

	var opts []smt.Option
	if logger != nil {
		opts = append(opts, smt.WithLogger(logger.With(log.Params{"backend": cfg.Backend})))
	}
	if col != nil {
		opts = append(opts, smt.WithMetrics(col))
	}
	s := ctor(opts...)

	if cfg.Logic != "" {
		if err := s.SetLogic(cfg.Logic); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := s.SetOpt(k, cfg.Options[k]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// IntSort returns the sort integers are encoded with under cfg: Int, or a
// bit-vector of cfg.IntWidth bits.
func IntSort(s smt.Solver, cfg config.Config) (*smt.Sort, error) {
	if cfg.IntWidth == 0 {
		return s.MakeSort(smt.KindInt)
	}
	return s.MakeBVSort(cfg.IntWidth)
}
