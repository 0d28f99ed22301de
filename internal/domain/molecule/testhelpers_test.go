package molecule

import "testing"

// build constructs a graph from atoms and (i, j, order) triples.
func build(t *testing.T, atoms []Atom, bonds ...[3]int) *Graph {
	t.Helper()
	g := NewGraph()
	for _, a := range atoms {
		g.AddAtom(a)
	}
	for _, b := range bonds {
		if err := g.AddBond(b[0], b[1], BondOrder(b[2])); err != nil {
			t.Fatalf("AddBond(%v): %v", b, err)
		}
	}
	return g
}

// sodiumAcetate is CC(=O)[O-].[Na+]
func sodiumAcetate(t *testing.T) *Graph {
	return build(t,
		[]Atom{{Z: Carbon, HCount: 3}, {Z: Carbon}, {Z: Oxygen}, {Z: Oxygen, Charge: -1}, {Z: Sodium, Charge: 1}},
		[3]int{0, 1, 1}, [3]int{1, 2, 2}, [3]int{1, 3, 1},
	)
}
