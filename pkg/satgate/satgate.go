// Package satgate is the thin adapter between the CNF builder and the
// internal SAT engine: variable allocation, clause insertion, scoped
// assumption push/pop with guaranteed rollback, and per-call conflict
// budgeting.
package satgate

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gitrdm/satsweep/internal/satcore"
)

// Status mirrors satcore.Status at this package's boundary so callers
// never need to import internal/satcore directly.
type Status = satcore.Status

const (
	Unsat = satcore.StatusUnsat
	Sat   = satcore.StatusSat
	Undec = satcore.StatusUndec
)

// Gate wraps an internal SAT engine with logging and the assumption
// scoping discipline described in the design note "Assumption push/pop +
// rollback".
type Gate struct {
	solver *satcore.Solver
	log    zerolog.Logger
}

// New creates a Gate with the given logger (use zerolog.Nop() for none).
func New(log zerolog.Logger) *Gate {
	return &Gate{solver: satcore.New(), log: log}
}

// NewVar allocates a fresh SAT variable and returns its id.
func (g *Gate) NewVar() int32 { return g.solver.NewVar() }

// ClauseCount reports how many clauses have been inserted so far, for test
// instrumentation of the CNF encodings.
func (g *Gate) ClauseCount() int { return g.solver.ClauseCount() }

// AddClause inserts a clause. A ground-level conflict here is a fatal
// internal inconsistency: the caller should abort.
func (g *Gate) AddClause(lits []int32) error {
	return g.solver.AddClause(lits)
}

// Assumptions is a scoped handle over a push/pop/rollback span: Push adds
// an assumption literal, and Release always pops every assumption pushed
// through this handle and rolls the solver back, on every exit path
// including an Undec outcome. Callers should acquire one per SolveTwo
// call via Gate.BeginAssumptions and defer Release immediately.
type Assumptions struct {
	g *Gate
}

// BeginAssumptions opens a new scoped assumption span.
func (g *Gate) BeginAssumptions() *Assumptions {
	return &Assumptions{g: g}
}

// Push forces lit true for the remainder of this span.
func (a *Assumptions) Push(lit int32) {
	a.g.solver.PushAssumption(lit)
}

// Solve runs the SAT engine under every assumption pushed on this span so
// far, bounded by confBudget conflicts.
func (a *Assumptions) Solve(confBudget int) Status {
	start := time.Now()
	status := a.g.solver.Solve(confBudget)
	a.g.log.Debug().
		Str("status", status.String()).
		Dur("elapsed", time.Since(start)).
		Int("conf_budget", confBudget).
		Msg("satgate: solve")
	return status
}

// ModelValue reads variable v's value from the most recent Sat model.
func (a *Assumptions) ModelValue(v int32) bool {
	return a.g.solver.ModelValue(v)
}

// Release pops this span's assumptions and rolls the solver back to the
// state before it began. Must be called exactly once per span, typically
// via defer immediately after BeginAssumptions, so rollback runs on every
// exit path.
func (a *Assumptions) Release() {
	a.g.solver.Rollback()
}
