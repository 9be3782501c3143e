// Package cnf implements on-demand CNF encoding of the rebuilt AIG:
// MUX recognition reuses the standard six-clause ITE
// encoding, and everything else is collected into maximal AND super-gates
// encoded with one multi-literal clause plus one implication per leaf.
package cnf

import (
	"fmt"

	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/rebuild"
	"github.com/gitrdm/satsweep/pkg/satgate"
)

// Builder variablizes rebuilt-AIG nodes on demand, emitting clauses into
// the given SAT gate. A Builder is reused across the whole sweep; only
// the rebuilt graph's SatVar bookkeeping is cleared per query (see
// rebuild.Graph.ClearSatVars).
type Builder struct {
	rg   *rebuild.Graph
	gate *satgate.Gate
}

// New creates a Builder over rebuilt graph rg, emitting clauses into gate.
func New(rg *rebuild.Graph, gate *satgate.Gate) *Builder {
	return &Builder{rg: rg, gate: gate}
}

// Variable returns the SAT variable for rebuilt-AIG object idx,
// allocating and emitting clauses for it and its frontier if it has not
// been variablized yet.
func (b *Builder) Variable(idx int) (int32, error) {
	n := &b.rg.Nodes[idx]
	if n.SatVar != rebuild.NoVar {
		return n.SatVar, nil
	}
	if idx == rebuild.Const0Index {
		v := b.gate.NewVar()
		b.rg.AllocSatVar(idx, v)
		if err := b.gate.AddClause([]int32{-v}); err != nil {
			return 0, err
		}
		return v, nil
	}
	if n.IsCI {
		v := b.gate.NewVar()
		b.rg.AllocSatVar(idx, v)
		return v, nil
	}
	if n.Mark0 {
		return b.variablizeMux(idx)
	}
	return b.variablizeSuperGate(idx)
}

// Literal returns the signed CNF literal for a rebuilt-AIG literal,
// negating the underlying variable per the literal's complement bit.
func (b *Builder) Literal(lit aig.Lit) (int32, error) {
	v, err := b.Variable(lit.Index())
	if err != nil {
		return 0, err
	}
	if lit.IsComplemented() {
		return -v, nil
	}
	return v, nil
}

// variablizeMux emits the standard six-clause ITE encoding for a node
// recognized as ite(s, t, e), after recursively variablizing its three
// sub-literals, which may themselves be further MUX or super-gate nodes.
func (b *Builder) variablizeMux(idx int) (int32, error) {
	s, t, e, ok := b.extractMux(idx)
	if !ok {
		return 0, fmt.Errorf("cnf: node %d flagged Mark0 but does not decompose as a MUX", idx)
	}

	i, err := b.Literal(s)
	if err != nil {
		return 0, err
	}
	tv, err := b.Literal(t)
	if err != nil {
		return 0, err
	}
	ev, err := b.Literal(e)
	if err != nil {
		return 0, err
	}

	f := b.gate.NewVar()
	b.rg.AllocSatVar(idx, f)

	clauses := [][]int32{
		{-i, -tv, f},
		{-i, tv, -f},
		{i, -ev, f},
		{i, ev, -f},
	}
	if absVar(tv) != absVar(ev) {
		clauses = append(clauses,
			[]int32{tv, ev, -f},
			[]int32{-tv, -ev, f},
		)
	}
	for _, c := range clauses {
		if err := b.gate.AddClause(c); err != nil {
			return 0, err
		}
	}
	return f, nil
}

func absVar(l int32) int32 {
	if l < 0 {
		return -l
	}
	return l
}

// extractMux recovers the (s, t, e) decomposition of a node already
// flagged Mark0 by rebuild.Graph.detectMux. Its two fanins are
// NAND(s, x) and NAND(not-s, y) in some order, so the node (their AND)
// computes ite(s, not-x, not-y): t and e are returned as not-x and not-y.
func (b *Builder) extractMux(idx int) (s, t, e aig.Lit, ok bool) {
	n := b.rg.Nodes[idx]
	n0 := b.rg.Nodes[n.Fanin0.Index()]
	n1 := b.rg.Nodes[n.Fanin1.Index()]

	combos := []struct{ m0, o0, m1, o1 aig.Lit }{
		{n0.Fanin0, n0.Fanin1, n1.Fanin0, n1.Fanin1},
		{n0.Fanin0, n0.Fanin1, n1.Fanin1, n1.Fanin0},
		{n0.Fanin1, n0.Fanin0, n1.Fanin0, n1.Fanin1},
		{n0.Fanin1, n0.Fanin0, n1.Fanin1, n1.Fanin0},
	}
	for _, c := range combos {
		if c.m0.Index() != c.m1.Index() || c.m0.Index() == rebuild.Const0Index {
			continue
		}
		if c.m0.IsComplemented() == c.m1.IsComplemented() {
			continue
		}
		if !c.m0.IsComplemented() {
			return c.m0, c.o0.Not(), c.o1.Not(), true
		}
		return c.m1, c.o1.Not(), c.o0.Not(), true
	}
	return 0, 0, 0, false
}

// variablizeSuperGate collects the maximal AND super-gate rooted at idx:
// the DFS expands uncomplemented edges into unshared, non-MUX AND nodes and
// records a leaf wherever it reaches a complemented edge, a CI, the
// constant, a node shared elsewhere (RefCount > 1) or a MUX node. It then
// emits k 2-literal implications plus one (k+1)-literal clause over the
// variablized leaves.
func (b *Builder) variablizeSuperGate(root int) (int32, error) {
	leaves := b.collectLeaves(root)

	leafVars := make([]int32, 0, len(leaves))
	for _, l := range leaves {
		v, err := b.Literal(l)
		if err != nil {
			return 0, err
		}
		leafVars = append(leafVars, v)
	}

	f := b.gate.NewVar()
	b.rg.AllocSatVar(root, f)

	for _, lv := range leafVars {
		if err := b.gate.AddClause([]int32{lv, -f}); err != nil {
			return 0, err
		}
	}
	big := make([]int32, 0, len(leafVars)+1)
	for _, lv := range leafVars {
		big = append(big, -lv)
	}
	big = append(big, f)
	if err := b.gate.AddClause(big); err != nil {
		return 0, err
	}
	return f, nil
}

// collectLeaves performs the super-gate DFS described above, deduping
// leaves that are reached more than once.
func (b *Builder) collectLeaves(root int) []aig.Lit {
	var leaves []aig.Lit
	seen := make(map[aig.Lit]bool)
	var dfs func(lit aig.Lit)
	dfs = func(lit aig.Lit) {
		idx := lit.Index()
		if lit.IsComplemented() {
			if !seen[lit] {
				seen[lit] = true
				leaves = append(leaves, lit)
			}
			return
		}
		n := b.rg.Nodes[idx]
		if idx == rebuild.Const0Index || n.IsCI || n.Mark0 {
			if !seen[lit] {
				seen[lit] = true
				leaves = append(leaves, lit)
			}
			return
		}
		if idx != root && b.rg.RefCount(idx) > 1 {
			if !seen[lit] {
				seen[lit] = true
				leaves = append(leaves, lit)
			}
			return
		}
		dfs(n.Fanin0)
		dfs(n.Fanin1)
	}
	dfs(aig.NewLit(root, false))
	return leaves
}
