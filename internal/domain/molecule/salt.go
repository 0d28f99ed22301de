package molecule

// SaltMetalIndices returns, in ascending order, the indices of Li, Na, Mg, K
// and Ca atoms bonded to at most one other atom.
func SaltMetalIndices(g *Graph) []int {
	var idx []int
	for i, a := range g.Atoms {
		if IsSaltMetal(a.Z) && g.Degree(i) <= 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// StripSaltMetals removes counter-ion metal atoms (see SaltMetalIndices).
// When nothing matches, g itself is returned.  Otherwise the removal is
// applied to a copy, so g is never modified.  Stripping is idempotent.
//
// An uncharged neighbour that was bonded to a stripped metal takes one
// implicit hydrogen per unit of the broken bond's order, so O-[Na] becomes
// OH rather than a radical.
func StripSaltMetals(g *Graph) *Graph {
	idx := SaltMetalIndices(g)
	if len(idx) == 0 {
		return g
	}
	out := g.Clone()
	metal := make(map[int]bool, len(idx))
	for _, i := range idx {
		metal[i] = true
	}
	for _, b := range out.Bonds {
		switch {
		case metal[b.Begin] && !metal[b.End]:
			refill(out, b.End, b.Order)
		case metal[b.End] && !metal[b.Begin]:
			refill(out, b.Begin, b.Order)
		}
	}
	// indices come from g itself and cannot be out of range
	_ = out.RemoveAtoms(idx)
	return out
}

func refill(g *Graph, i int, order BondOrder) {
	a := &g.Atoms[i]
	if a.Charge != 0 || len(Valences(a.Z, 0)) == 0 {
		return
	}
	if order == BondAromatic {
		order = BondSingle
	}
	a.HCount += int(order)
}
