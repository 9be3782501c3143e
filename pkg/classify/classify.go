// Package classify builds and refines candidate-equivalence classes from
// simulation content: an initial hash-based bucketing of nodes by their
// simulation signature, followed by verify-on-collision refinement.
package classify

import (
	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/classes"
	"github.com/gitrdm/satsweep/pkg/simpack"
)

// primes16 is a fixed mix of 16 odd primes for signature hashing.
// Collisions are only a classification-quality concern (RefineOne always
// verifies), so this mix is not tuned further.
var primes16 = [16]uint64{
	1009, 1049, 1093, 1151, 1201, 1249, 1297, 1361,
	1409, 1453, 1499, 1553, 1601, 1657, 1699, 1753,
}

// signature folds a node's simulation words into a single hash bucket
// key, canonicalized against the node's phase bit so that a node and its
// logical complement land in the same bucket (their Equal test already
// treats them as candidate-equal).
func signature(sim *simpack.Sim, i int) uint64 {
	row := sim.Row(i)
	canonicalize := row[0]&1 != 0
	var h uint64
	for w, word := range row {
		if canonicalize {
			word = ^word
		}
		h += word * primes16[w%len(primes16)]
	}
	return h
}

// Classifier owns the hash-bucket table used only during BuildInitial;
// steady-state refinement after that works purely off the class store's
// existing heads.
type Classifier struct {
	g     *aig.Graph
	store *classes.Store
}

// New creates a classifier over g, writing classes into store.
func New(g *aig.Graph, store *classes.Store) *Classifier {
	return &Classifier{g: g, store: store}
}

// BuildInitial hashes every non-CO node's simulation signature (Const0,
// CIs, and ANDs alike) into first-seen-wins buckets, establishing initial
// candidate classes, then refines every resulting head to split false
// collisions. Runs exactly once, immediately after the first
// PropagateAnds.
//
// Only COs are excluded: a CO mirrors its driver's simulation vector but
// is an observation point, not a merge candidate. Const0, being index 0,
// is always visited first and so always heads the class of nodes believed
// constant-0 up to simulation. A CI likewise precedes every AND built
// from it, so an AND that simulates identically to a bare CI lands in
// that CI's class and gets merged against it.
func (c *Classifier) BuildInitial(sim *simpack.Sim) {
	buckets := make(map[uint64][]int)
	order := make([]uint64, 0)

	for i := 0; i < c.g.N(); i++ {
		if c.g.Nodes[i].Kind == aig.KindCO {
			continue
		}
		sig := signature(sim, i)
		if _, ok := buckets[sig]; !ok {
			order = append(order, sig)
		}
		buckets[sig] = append(buckets[sig], i)
	}

	for _, sig := range order {
		members := buckets[sig]
		head := members[0]
		rest := members[1:]
		if len(rest) == 0 {
			continue
		}
		c.store.InstallClass(head, rest)
	}

	c.store.ClassHeads(func(head int) {
		c.store.RefineOne(head, sim)
	})
}

// RefineAll walks every current class head and runs RefineOne, called
// after every simulation round following the first.
func (c *Classifier) RefineAll(sim *simpack.Sim) {
	c.store.ClassHeads(func(head int) {
		c.store.RefineOne(head, sim)
	})
}
