// Package engine is the sweep-loop orchestrator: it drives simulation,
// classification, and SAT queries to a fixpoint, merging proved-equivalent
// nodes and reporting a counter-example if a miter output is shown
// satisfiable.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/classes"
	"github.com/gitrdm/satsweep/pkg/classify"
	"github.com/gitrdm/satsweep/pkg/cnf"
	"github.com/gitrdm/satsweep/pkg/rebuild"
	"github.com/gitrdm/satsweep/pkg/satgate"
	"github.com/gitrdm/satsweep/pkg/simpack"
)

// Result is what Run returns: the graph and class store hold the engine's
// output, the same AIG with each internal node's representative and
// proved flags populated; Cex is non-nil only on a miter failure.
type Result struct {
	// RunID correlates this run's log lines. It exists purely for
	// observability, not identity.
	RunID string

	Graph   *aig.Graph
	Classes *classes.Store

	// Success is true when the sweep reached its zero-disproof fixpoint
	// (non-miter mode), or when miter mode completed with no CO ever
	// observed nonzero. False only on a miter failure, in which case Cex
	// is populated.
	Success bool
	Cex     *Cex

	Iterations int
}

// pendingBit is a SAT-derived counter-example bit recorded during a
// SolveTwo SAT outcome, replayed into sim at the start of the next
// iteration after RandomizeCIs has reshuffled everything else.
type pendingBit struct {
	ci, col int
	bit     bool
}

// Run executes the sweep loop over g until a fixpoint, a miter failure,
// or ctx cancellation.
func Run(ctx context.Context, g *aig.Graph, cfg Config, log zerolog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()
	switch {
	case cfg.FVeryVerbose:
		log = log.Level(zerolog.DebugLevel)
	case cfg.FVerbose:
		log = log.Level(zerolog.InfoLevel)
	default:
		log = log.Level(zerolog.WarnLevel)
	}

	sim, err := simpack.New(g, cfg.NSimWords)
	if err != nil {
		return nil, err
	}
	defer sim.Release()

	store := classes.New(g.N())
	classifier := classify.New(g, store)

	rg := rebuild.New()
	gate := satgate.New(log)
	builder := cnf.New(rg, gate)

	g.Nodes[aig.Const0Index].Value = int32(aig.NewLit(rebuild.Const0Index, false))
	origCIOfRebuilt := make(map[int]int, len(g.CIs))
	for _, ci := range g.CIs {
		lit := rg.NewCI()
		g.Nodes[ci].Value = int32(lit)
		origCIOfRebuilt[lit.Index()] = ci
	}

	var pending []pendingBit
	builtClasses := false

	runRound := func() (fired int, err error) {
		sim.RandomizeCIs()
		for _, p := range pending {
			if err := sim.SetInputBit(p.ci, p.col, p.bit); err != nil {
				return -1, err
			}
		}
		sim.PropagateAnds()
		if cfg.IsMiter {
			sim.EvalCos()
			if co := anyCoFired(g, sim); co != -1 {
				return co, nil
			}
		}
		if !builtClasses {
			classifier.BuildInitial(sim)
			builtClasses = true
		} else {
			classifier.RefineAll(sim)
		}
		return -1, nil
	}

	for round := 0; round < cfg.NSimRounds; round++ {
		co, err := runRound()
		if err != nil {
			return nil, err
		}
		if co != -1 {
			return &Result{RunID: runID, Graph: g, Classes: store, Cex: buildCex(g, sim, co)}, nil
		}
	}

	iteration := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		iteration++
		g.ResetIterationMarks()

		co, err := runRound()
		// The replayed bits are now folded into sim; start collecting this
		// iteration's disproof patterns from scratch.
		pending = pending[:0]
		if err != nil {
			return nil, err
		}
		if co != -1 {
			return &Result{RunID: runID, Graph: g, Classes: store, Cex: buildCex(g, sim, co), Iterations: iteration}, nil
		}

		var proved, disprovedCount, failedCount int
		disproved := false

		for _, i := range g.Ands {
			n := &g.Nodes[i]

			if g.Nodes[n.Fanin0.Index()].Mark1 || g.Nodes[n.Fanin1.Index()].Mark1 {
				n.Mark1 = true
			}
			if n.Mark1 {
				continue
			}
			if n.Value != aig.Unassigned {
				continue
			}
			f0v, f1v := g.Nodes[n.Fanin0.Index()].Value, g.Nodes[n.Fanin1.Index()].Value
			if f0v == aig.Unassigned || f1v == aig.Unassigned {
				continue
			}

			lit0, lit1 := aig.Lit(f0v), aig.Lit(f1v)
			if n.Fanin0.IsComplemented() {
				lit0 = lit0.Not()
			}
			if n.Fanin1.IsComplemented() {
				lit1 = lit1.Not()
			}
			pNew := rg.And(lit0, lit1)
			n.Value = int32(pNew)

			r := store.GetRepr(i)
			if r == classes.Void || g.Nodes[r].Mark1 {
				continue
			}
			rVal := aig.Lit(g.Nodes[r].Value)
			if g.Nodes[r].Value == aig.Unassigned {
				continue
			}

			if rebuild.SameVariable(rVal, pNew) {
				n.Proved = true
				proved++
				continue
			}

			phaseDiffers := g.Phase(i) != g.Phase(r)
			status, bits, err := solveTwo(builder, rg, gate, rVal, pNew, phaseDiffers, r == aig.Const0Index, cfg.NConfLimit, origCIOfRebuilt)
			if err != nil {
				return nil, err
			}

			switch status {
			case satgate.Sat:
				col := sim.AdvancePattern()
				for ci, bit := range bits {
					if err := sim.SetInputBit(ci, col, bit); err != nil {
						return nil, err
					}
					pending = append(pending, pendingBit{ci: ci, col: col, bit: bit})
				}
				n.Value = aig.Unassigned
				disproved = true
				disprovedCount++
				if iteration <= tfoSkipIterationBound {
					n.Mark1 = true
					if g.Nodes[r].Kind == aig.KindAnd {
						g.Nodes[r].Mark1 = true
					}
				}
			case satgate.Unsat:
				merged := rVal
				if phaseDiffers {
					merged = merged.Not()
				}
				n.Value = int32(merged)
				n.Proved = true
				proved++
			case satgate.Undec:
				n.Failed = true
				failedCount++
			}
		}

		log.Info().
			Int("iteration", iteration).
			Int("proved", proved).
			Int("disproved", disprovedCount).
			Int("failed", failedCount).
			Msg("sweep iteration complete")

		if !disproved {
			return &Result{RunID: runID, Graph: g, Classes: store, Success: true, Iterations: iteration}, nil
		}
	}
}

// solveTwo proves r equivalent to i (up to the given phase difference)
// only if both assumption combinations that would witness a difference
// are UNSAT. When r is the constant-0 representative, r's SAT variable is
// permanently forced false by its own unit clause, so the "r_var=1"
// combination can never be satisfied; only the "r_var=0" combination is
// queried.
func solveTwo(builder *cnf.Builder, rg *rebuild.Graph, gate *satgate.Gate, rLit, iLit aig.Lit, phaseDiffers, rIsConst0 bool, confLimit int, origCIOfRebuilt map[int]int) (satgate.Status, map[int]bool, error) {
	defer rg.ClearSatVars()

	// A clause-insertion conflict while variablizing is the fatal
	// InternalInconsistency case from the error taxonomy, surfaced under
	// this package's sentinel so callers need not reach into satcore.
	rVar, err := builder.Literal(rLit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInternalInconsistency, err)
	}
	iVar, err := builder.Literal(iLit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInternalInconsistency, err)
	}

	if rIsConst0 {
		return trySolve(gate, rg, -rVar, iVar, !phaseDiffers, confLimit, origCIOfRebuilt)
	}

	status, bits, err := trySolve(gate, rg, rVar, iVar, phaseDiffers, confLimit, origCIOfRebuilt)
	if err != nil {
		return 0, nil, err
	}
	if status != satgate.Unsat {
		return status, bits, nil
	}

	status, bits, err = trySolve(gate, rg, -rVar, iVar, !phaseDiffers, confLimit, origCIOfRebuilt)
	if err != nil {
		return 0, nil, err
	}
	return status, bits, nil
}

// trySolve assumes rVar and iVar at the polarities that witness a
// disagreement, runs Solve under budget, and on a Sat outcome extracts
// model bits for every CI reachable in the SAT cone (identified as any
// rebuilt CI node that received a SAT variable during this query).
func trySolve(gate *satgate.Gate, rg *rebuild.Graph, rAssume, iTrueLit int32, wantITrue bool, confLimit int, origCIOfRebuilt map[int]int) (satgate.Status, map[int]bool, error) {
	asm := gate.BeginAssumptions()
	defer asm.Release()

	iAssume := -iTrueLit
	if wantITrue {
		iAssume = iTrueLit
	}
	asm.Push(rAssume)
	asm.Push(iAssume)

	status := asm.Solve(confLimit)
	if status != satgate.Sat {
		return status, nil, nil
	}

	bits := make(map[int]bool)
	for idx := range rg.Nodes {
		n := rg.Nodes[idx]
		if n.IsCI && n.SatVar != rebuild.NoVar {
			if origCI, ok := origCIOfRebuilt[idx]; ok {
				bits[origCI] = asm.ModelValue(n.SatVar)
			}
		}
	}
	return status, bits, nil
}
