package molecule

// IsInorganic reports whether g has no carbon and no silicon atom.
func IsInorganic(g *Graph) bool {
	for _, a := range g.Atoms {
		if a.Z == Carbon || a.Z == Silicon {
			return false
		}
	}
	return true
}

// ContainsDisallowedAtom reports whether some atom of g lies outside the
// allowed set {H, C, N, O, F, Si, P, S, Cl, Br, I}.  Metals and metalloids
// such as B or Se are therefore disallowed.
func ContainsDisallowedAtom(g *Graph) bool {
	for _, a := range g.Atoms {
		if !IsAllowedElement(a.Z) {
			return true
		}
	}
	return false
}

// IsSilane reports whether g contains both carbon and silicon.
func IsSilane(g *Graph) bool {
	var c, si bool
	for _, a := range g.Atoms {
		switch a.Z {
		case Carbon:
			c = true
		case Silicon:
			si = true
		}
		if c && si {
			return true
		}
	}
	return false
}

// HeavyAtomCount counts the atoms of g that are not hydrogen.
func HeavyAtomCount(g *Graph) int {
	n := 0
	for _, a := range g.Atoms {
		if a.Z != Hydrogen {
			n++
		}
	}
	return n
}

// Classification is the set of predicates evaluated for one fragment.  It
// is computed on demand and never stored on the graph.
type Classification struct {
	Inorganic      bool `json:"inorganic"`
	DisallowedAtom bool `json:"disallowed_atom"`
	Silane         bool `json:"silane"`
	HeavyAtoms     int  `json:"heavy_atoms"`
}

// Classify evaluates every predicate for g.
func Classify(g *Graph) Classification {
	return Classification{
		Inorganic:      IsInorganic(g),
		DisallowedAtom: ContainsDisallowedAtom(g),
		Silane:         IsSilane(g),
		HeavyAtoms:     HeavyAtomCount(g),
	}
}
