// Package classes implements the candidate-equivalence class store: an
// intrusive, index-addressed union-find-like structure where each class
// is a representative node plus a singly linked chain of members, always
// kept in topological (increasing index) order.
package classes

// Void marks a node as having no representative: either it is a class
// head, or it has not been classified at all.
const Void = -1

// Store holds repr[i] (the current candidate representative of node i, or
// Void) and next[i] (the next member in i's class chain, or -1) for every
// node index. It indexes into, but does not own, the graph or simulation
// store it classifies: everything is referenced by index, never by
// pointer.
type Store struct {
	repr []int
	next []int

	// heads records every index ever installed as a class head, in the
	// order first seen, so ClassHeads can iterate deterministically
	// without rescanning repr.
	heads []int
	// isHead avoids duplicate entries in heads.
	isHead []bool
}

// New allocates a class store for n nodes (n = Graph.N()), all initially
// unclassified.
func New(n int) *Store {
	s := &Store{
		repr:   make([]int, n),
		next:   make([]int, n),
		isHead: make([]bool, n),
	}
	for i := range s.repr {
		s.repr[i] = Void
		s.next[i] = -1
	}
	return s
}

// GetRepr returns node i's current representative, or Void.
func (s *Store) GetRepr(i int) int { return s.repr[i] }

// SetRepr sets node i's representative. r must be Void or strictly less
// than i.
func (s *Store) SetRepr(i, r int) { s.repr[i] = r }

// GetNext returns the next member in i's class chain, or -1 at the tail.
func (s *Store) GetNext(i int) int { return s.next[i] }

// SetNext links i's next chain pointer.
func (s *Store) SetNext(i, n int) { s.next[i] = n }

// MarkHead records head as a class head, for later ClassHeads iteration.
func (s *Store) MarkHead(head int) {
	if !s.isHead[head] {
		s.isHead[head] = true
		s.heads = append(s.heads, head)
	}
}

// UnmarkHead removes head from future ClassHeads iteration (used when a
// class splits down to a single surviving member and is no longer a
// useful head to re-check).
func (s *Store) UnmarkHead(head int) {
	s.isHead[head] = false
}

// ClassHeads iterates over every node ever installed as a head and still
// marked as one, in first-installed order.
func (s *Store) ClassHeads(fn func(head int)) {
	for _, h := range s.heads {
		if s.isHead[h] {
			fn(h)
		}
	}
}

// IterateClass walks the member chain starting at head (inclusive),
// calling fn on each member index in chain order (which is topological
// order).
func (s *Store) IterateClass(head int, fn func(member int)) {
	for m := head; m != -1; m = s.next[m] {
		fn(m)
	}
}

// InstallClass records a brand-new class: head is its own representative
// (Void), and members (already in topological order, not including head)
// are chained after it with repr pointing back at head.
func (s *Store) InstallClass(head int, members []int) {
	s.MarkHead(head)
	prev := head
	for _, m := range members {
		s.repr[m] = head
		s.next[prev] = m
		prev = m
	}
	s.next[prev] = -1
}

// Equality is the simulation-consistency oracle RefineOne needs: it
// reports whether two node indices are currently simulation-equal
// (up to inversion).
type Equality interface {
	Equal(i, j int) bool
}

// RefineOne splits the class headed by head into two classes wherever
// members are no longer Equal to head under current simulation content:
// the retained class keeps every member still Equal(head, member); the
// split-off class starts at the first disequal member (the new head) and
// collects the rest, preserving topological order in both chains. It
// then recursively refines the new class, since a freshly split-off class
// may itself contain further disequal subgroups.
func (s *Store) RefineOne(head int, eq Equality) {
	var kept, split []int
	s.IterateClass(s.next[head], func(m int) {
		if eq.Equal(head, m) {
			kept = append(kept, m)
		} else {
			split = append(split, m)
		}
	})

	// Rebuild head's chain with only the kept members.
	prev := head
	for _, m := range kept {
		s.next[prev] = m
		prev = m
	}
	s.next[prev] = -1
	if len(kept) == 0 {
		// Every member moved out: head is a singleton now and no longer a
		// useful candidate head to re-check.
		s.UnmarkHead(head)
	}

	if len(split) == 0 {
		return
	}

	newHead := split[0]
	s.repr[newHead] = Void
	s.MarkHead(newHead)
	rest := split[1:]
	prev = newHead
	for _, m := range rest {
		s.repr[m] = newHead
		s.next[prev] = m
		prev = m
	}
	s.next[prev] = -1

	if len(rest) > 0 {
		s.RefineOne(newHead, eq)
	} else {
		// A singleton class is no longer a useful candidate head.
		s.UnmarkHead(newHead)
	}
}
