// Package aig defines the And-Inverter Graph data model that the
// sat-sweeping engine operates over: a dense, index-addressed node array
// with packed literal fanins, precomputed phase, and the scratch/result
// fields the sweep loop attaches to each node as it runs.
package aig

import "fmt"

// Kind tags the role a Node plays in the graph.
type Kind uint8

const (
	// KindConst0 is the sentinel constant-zero node at index 0.
	KindConst0 Kind = iota
	// KindCI is a combinational input.
	KindCI
	// KindAnd is a two-input AND gate.
	KindAnd
	// KindCO is a combinational output (a named observation point, not a
	// gate in its own right).
	KindCO
)

func (k Kind) String() string {
	switch k {
	case KindConst0:
		return "Const0"
	case KindCI:
		return "CI"
	case KindAnd:
		return "And"
	case KindCO:
		return "CO"
	default:
		return "Unknown"
	}
}

// Unassigned is the sentinel value for Node.Value meaning "not yet
// assigned a literal in the rebuilt AIG".
const Unassigned = -1

// Const0Index is the index of the constant-zero sentinel node, always 0.
const Const0Index = 0

// Lit packs a node index and a complement bit into a single literal, the
// representation used for fanins everywhere in this package:
// (index << 1) | complement.
type Lit int32

// NewLit builds a literal from a node index and complement bit.
func NewLit(index int, complement bool) Lit {
	l := Lit(index) << 1
	if complement {
		l |= 1
	}
	return l
}

// Index returns the node index this literal refers to.
func (l Lit) Index() int { return int(l >> 1) }

// IsComplemented reports whether this literal's complement bit is set.
func (l Lit) IsComplemented() bool { return l&1 != 0 }

// Not returns the literal with its complement bit flipped.
func (l Lit) Not() Lit { return l ^ 1 }

// Node is one entry in the dense AIG array.
type Node struct {
	Kind Kind

	// Fanin0, Fanin1 are fanin literals for KindAnd and KindCO nodes; for
	// KindCO, Fanin1 is unused.
	Fanin0, Fanin1 Lit

	// Phase is this node's value under the all-zero CI assignment.
	Phase bool

	// Mark1 is the transient per-iteration TFO-of-disproved flag, cleared
	// at the start of each sweep iteration.
	Mark1 bool

	// Value is this node's literal in the rebuilt, structurally hashed
	// AIG (see pkg/rebuild), or Unassigned if not yet swept.
	Value int32

	// Proved and Failed are monotone sweep-result flags.
	Proved, Failed bool
}

// Graph is the dense, index-addressed AIG. Index 0 is always the
// constant-zero sentinel.
type Graph struct {
	Nodes []Node

	// CIs, Ands, COs list node indices in declaration order; Ands is also
	// kept in topological order, which for a well-formed AIG is simply
	// index order (every fanin index is strictly less than its user).
	CIs, Ands, COs []int
}

// New creates an empty graph with only the constant-zero sentinel.
func New() *Graph {
	g := &Graph{Nodes: make([]Node, 1)}
	g.Nodes[0] = Node{Kind: KindConst0, Value: Unassigned}
	return g
}

// AddCI appends a fresh combinational input and returns its index.
func (g *Graph) AddCI() int {
	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{Kind: KindCI, Value: Unassigned})
	g.CIs = append(g.CIs, idx)
	return idx
}

// AddAnd appends a two-input AND over the given fanin literals, computing
// its phase from its fanins' phases, and returns its index. Fanin
// indices must already exist (this is the well-formedness precondition
// the rest of the engine relies on for topological-order traversal).
func (g *Graph) AddAnd(f0, f1 Lit) (int, error) {
	if int(f0.Index()) >= len(g.Nodes) || int(f1.Index()) >= len(g.Nodes) {
		return 0, fmt.Errorf("aig: AddAnd fanin references a node not yet in the graph")
	}
	idx := len(g.Nodes)
	phase := g.litPhase(f0) && g.litPhase(f1)
	g.Nodes = append(g.Nodes, Node{
		Kind:   KindAnd,
		Fanin0: f0,
		Fanin1: f1,
		Phase:  phase,
		Value:  Unassigned,
	})
	g.Ands = append(g.Ands, idx)
	return idx, nil
}

// AddCO appends a combinational output observing the given driver
// literal, computing its phase from the driver's, and returns its index.
func (g *Graph) AddCO(driver Lit) (int, error) {
	if int(driver.Index()) >= len(g.Nodes) {
		return 0, fmt.Errorf("aig: AddCO driver references a node not yet in the graph")
	}
	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{
		Kind:   KindCO,
		Fanin0: driver,
		Phase:  g.litPhase(driver),
		Value:  Unassigned,
	})
	g.COs = append(g.COs, idx)
	return idx, nil
}

// litPhase returns the all-zero-CI phase of a literal (the referenced
// node's phase, complemented per the literal's bit). Const0's phase is
// always false.
func (g *Graph) litPhase(l Lit) bool {
	return g.Nodes[l.Index()].Phase != l.IsComplemented()
}

// Phase returns node i's precomputed all-zero-CI phase.
func (g *Graph) Phase(i int) bool { return g.Nodes[i].Phase }

// N returns the number of nodes, including the constant-zero sentinel.
func (g *Graph) N() int { return len(g.Nodes) }

// ResetIterationMarks clears Mark1 on every node, as required at the start
// of each sweep iteration (see design note on markers as scratch state).
func (g *Graph) ResetIterationMarks() {
	for i := range g.Nodes {
		g.Nodes[i].Mark1 = false
	}
}
