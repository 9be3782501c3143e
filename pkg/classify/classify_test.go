package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/classes"
	"github.com/gitrdm/satsweep/pkg/simpack"
)

func TestBuildInitialGroupsIdenticalSimulation(t *testing.T) {
	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	b := aig.NewLit(g.AddCI(), false)
	n1, err := g.AddAnd(a, b)
	require.NoError(t, err)
	n2, err := g.AddAnd(a, b)
	require.NoError(t, err)

	sim, err := simpack.New(g, 4)
	require.NoError(t, err)
	defer sim.Release()
	sim.RandomizeCIs()
	sim.PropagateAnds()

	store := classes.New(g.N())
	c := New(g, store)
	c.BuildInitial(sim)

	require.Equal(t, n1, store.GetRepr(n2))
}

// TestBuildInitialLetsCIHeadItsClass checks that CIs are hashed into the
// candidate table like any other non-CO node: an AND that simulates
// bit-for-bit identical to a bare CI (n = a&a copies a's row exactly)
// must land in that CI's class, with the CI, always the lower index, as
// its head.
func TestBuildInitialLetsCIHeadItsClass(t *testing.T) {
	g := aig.New()
	ci := g.AddCI()
	a := aig.NewLit(ci, false)
	n1, err := g.AddAnd(a, a)
	require.NoError(t, err)
	n2, err := g.AddAnd(a, a)
	require.NoError(t, err)

	sim, err := simpack.New(g, 4)
	require.NoError(t, err)
	defer sim.Release()
	sim.RandomizeCIs()
	sim.PropagateAnds()

	store := classes.New(g.N())
	c := New(g, store)
	c.BuildInitial(sim)

	require.Equal(t, ci, store.GetRepr(n1))
	require.Equal(t, ci, store.GetRepr(n2))
	require.Equal(t, classes.Void, store.GetRepr(ci), "the CI is the class head, not a member")
}

// TestBuildInitialIncludesConst0Sentinel checks that a node that
// simulates to all-zero (n = a&!a) lands in Const0's class, which
// requires index 0 to actually be hashed into the candidate table.
func TestBuildInitialIncludesConst0Sentinel(t *testing.T) {
	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	n, err := g.AddAnd(a, a.Not())
	require.NoError(t, err)

	sim, err := simpack.New(g, 4)
	require.NoError(t, err)
	defer sim.Release()
	sim.RandomizeCIs()
	sim.PropagateAnds()

	store := classes.New(g.N())
	c := New(g, store)
	c.BuildInitial(sim)

	require.Equal(t, aig.Const0Index, store.GetRepr(n))
}

func TestBuildInitialSkipsCONodes(t *testing.T) {
	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	n1, err := g.AddAnd(a, a)
	require.NoError(t, err)
	_, err = g.AddCO(aig.NewLit(n1, false))
	require.NoError(t, err)
	co := g.COs[0]

	sim, err := simpack.New(g, 2)
	require.NoError(t, err)
	defer sim.Release()
	sim.RandomizeCIs()
	sim.PropagateAnds()
	sim.EvalCos()

	store := classes.New(g.N())
	c := New(g, store)
	c.BuildInitial(sim)

	// A CO must never become a class head or member: it mirrors another
	// node's simulation vector but is not a candidate for SAT sweeping.
	var everSeen bool
	store.ClassHeads(func(h int) {
		if h == co {
			everSeen = true
		}
		store.IterateClass(h, func(m int) {
			if m == co {
				everSeen = true
			}
		})
	})
	require.False(t, everSeen)
}

func TestRefineAllSplitsAfterSimulationDiverges(t *testing.T) {
	g := aig.New()
	a := aig.NewLit(g.AddCI(), false)
	b := aig.NewLit(g.AddCI(), false)
	n1, err := g.AddAnd(a, b)
	require.NoError(t, err)
	n2, err := g.AddAnd(a, b.Not())
	require.NoError(t, err)

	sim, err := simpack.New(g, 4)
	require.NoError(t, err)
	defer sim.Release()

	// Force a false initial collision by hand: install n1, n2 into one
	// class directly (bypassing the hash step) to exercise RefineAll's
	// verify-on-collision behavior independent of hash luck.
	store := classes.New(g.N())
	store.InstallClass(n1, []int{n2})

	sim.RandomizeCIs()
	sim.PropagateAnds()

	c := New(g, store)
	c.RefineAll(sim)

	if sim.Equal(n1, n2) {
		t.Skip("random patterns happened not to distinguish a&b from a&!b this run")
	}
	require.Equal(t, classes.Void, store.GetRepr(n2))
}
