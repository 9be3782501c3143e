// Package main demonstrates the sat-sweeping engine on a handful of small,
// hand-built AIGs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/cnf"
	"github.com/gitrdm/satsweep/pkg/engine"
	"github.com/gitrdm/satsweep/pkg/rebuild"
	"github.com/gitrdm/satsweep/pkg/satgate"
)

func main() {
	fmt.Println("=== satsweep Examples ===")
	fmt.Println()

	twoIdenticalInverters()
	miterOfEqualCircuits()
	miterWithDiscrepancy()
	constantZeroDetection()
	muxRecognition()
	undecHandling()
}

// xor appends the AND/NOT gates computing a XOR b (De Morgan: a XOR b =
// NOT(NOT(a AND NOT b) AND NOT(NOT a AND b))) and returns its literal.
func xor(g *aig.Graph, a, b aig.Lit) (aig.Lit, error) {
	t1, err := g.AddAnd(a, b.Not())
	if err != nil {
		return 0, err
	}
	t2, err := g.AddAnd(a.Not(), b)
	if err != nil {
		return 0, err
	}
	or, err := g.AddAnd(aig.NewLit(t1, true), aig.NewLit(t2, true))
	if err != nil {
		return 0, err
	}
	return aig.NewLit(or, true), nil
}

func mustRun(g *aig.Graph, cfg engine.Config) *engine.Result {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	result, err := engine.Run(context.Background(), g, cfg, log)
	if err != nil {
		fmt.Printf("   error: %v\n", err)
		os.Exit(1)
	}
	return result
}

// twoIdenticalInverters builds CI a, AND n1 = a & a, AND n2 = a & a and
// checks that the sweep proves both copies equivalent to a itself.
func twoIdenticalInverters() {
	fmt.Println("1. Two Identical Inverters:")

	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	n1, _ := g.AddAnd(a, a)
	n2, _ := g.AddAnd(a, a)

	cfg := engine.DefaultConfig()
	result := mustRun(g, cfg)

	fmt.Printf("   repr[n1] = %d, repr[n2] = %d (input a = %d), proved[n2] = %v\n",
		result.Classes.GetRepr(n1), result.Classes.GetRepr(n2), a.Index(), result.Graph.Nodes[n2].Proved)
	fmt.Println()
}

// miterOfEqualCircuits builds a miter over two syntactically distinct but
// logically identical 2-AND expressions and checks the sweep reports
// success with no counter-example.
func miterOfEqualCircuits() {
	fmt.Println("2. Miter of Equal Circuits:")

	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	b := aig.NewLit(g.AddCI(), false)
	f, _ := g.AddAnd(a, b)
	gg, _ := g.AddAnd(b, a)
	po, _ := xor(g, aig.NewLit(f, false), aig.NewLit(gg, false))
	g.AddCO(po)

	cfg := engine.DefaultConfig()
	cfg.IsMiter = true
	result := mustRun(g, cfg)

	fmt.Printf("   success = %v, cex = %v\n", result.Success, result.Cex)
	fmt.Println()
}

// miterWithDiscrepancy builds f = a & b, g = a & !b and checks the sweep
// finds the one-bit discrepancy and reports a counter-example.
func miterWithDiscrepancy() {
	fmt.Println("3. Miter With a One-Bit Discrepancy:")

	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	b := aig.NewLit(g.AddCI(), false)
	f, _ := g.AddAnd(a, b)
	gg, _ := g.AddAnd(a, b.Not())
	po, _ := xor(g, aig.NewLit(f, false), aig.NewLit(gg, false))
	g.AddCO(po)

	cfg := engine.DefaultConfig()
	cfg.IsMiter = true
	result := mustRun(g, cfg)

	if result.Cex != nil {
		fmt.Printf("   success = %v, cex.PO = %d, cex.CIBits = %v\n", result.Success, result.Cex.PO, result.Cex.CIBits)
	} else {
		fmt.Printf("   success = %v, cex = nil\n", result.Success)
	}
	fmt.Println()
}

// constantZeroDetection builds n = a & !a and checks the sweep proves it
// equivalent to the constant-zero node.
func constantZeroDetection() {
	fmt.Println("4. Constant-Zero Detection:")

	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	n, _ := g.AddAnd(a, a.Not())

	cfg := engine.DefaultConfig()
	result := mustRun(g, cfg)

	repr := result.Classes.GetRepr(n)
	fmt.Printf("   repr[n] = %d (const0 = %d), proved[n] = %v\n", repr, aig.Const0Index, result.Graph.Nodes[n].Proved)
	fmt.Println()
}

// muxRecognition builds ite(s, x, y) as two ANDs and an OR in the rebuilt
// graph and shows the CNF builder spotting the pattern: one six-clause ITE
// encoding instead of a clause set per gate.
func muxRecognition() {
	fmt.Println("5. MUX Recognition:")

	rg := rebuild.New()
	gate := satgate.New(zerolog.Nop())
	b := cnf.New(rg, gate)

	s := rg.NewCI()
	x := rg.NewCI()
	y := rg.NewCI()
	n0 := rg.And(s, x)
	n1 := rg.And(s.Not(), y)
	f := rg.And(n0.Not(), n1.Not())

	before := gate.ClauseCount()
	if _, err := b.Variable(f.Index()); err != nil {
		fmt.Printf("   error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   mux flagged = %v, clauses emitted = %d\n",
		rg.Nodes[f.Index()].Mark0, gate.ClauseCount()-before)
	fmt.Println()
}

// undecHandling shows the conflict budget in action: the same
// unsatisfiable query comes back UNDEC under a budget of one conflict and
// UNSAT once given room to finish.
func undecHandling() {
	fmt.Println("6. UNDEC Handling:")

	gate := satgate.New(zerolog.Nop())
	p := gate.NewVar()
	q := gate.NewVar()
	for _, c := range [][]int32{{p, q}, {p, -q}, {-p, q}, {-p, -q}} {
		if err := gate.AddClause(c); err != nil {
			fmt.Printf("   error: %v\n", err)
			os.Exit(1)
		}
	}

	asm := gate.BeginAssumptions()
	tight := asm.Solve(1)
	asm.Release()

	asm = gate.BeginAssumptions()
	roomy := asm.Solve(1000)
	asm.Release()

	fmt.Printf("   budget 1 -> %v, budget 1000 -> %v\n", tight, roomy)
	fmt.Println()
}

