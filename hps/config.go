package hps

import (
	"fmt"
	"runtime"
)

// Config fixes the discretization and the build policy of a hierarchy.
type Config struct {
	// P is the Chebyshev order per axis of each leaf, Q the Gauss panel
	// order per boundary face dimension, 2 <= Q < P.
	P, Q int
	// Workers bounds the per-level build parallelism; zero means GOMAXPROCS.
	Workers int
	// CondLimit rejects local or merge systems whose one-norm condition
	// estimate exceeds it; zero disables the check.
	CondLimit float64
	// RetainOperators keeps the downward solve operators during the build.
	// Without them the hierarchy only exposes the root boundary map, and
	// volume solves must go through SolveSubtree.
	RetainOperators bool
}

// DefaultCondLimit guards factorizations during merges. Condition numbers
// beyond this leave too few correct digits in a double precision solve.
const DefaultCondLimit = 1.e+13

func (cfg *Config) workers() (n int) {
	n = cfg.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return
}

func (cfg *Config) check() (err error) {
	if cfg.P < 3 || cfg.Q < 2 || cfg.Q >= cfg.P {
		err = fmt.Errorf("invalid discretization orders p = %d, q = %d", cfg.P, cfg.Q)
	}
	return
}
