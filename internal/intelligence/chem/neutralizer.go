package chem

import (
	"fmt"
	"sort"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
)

// Neutralizer implements molecule.Neutralizer with proton transfer rules:
//
//   - a cation carrying hydrogens loses one proton per unit of charge until
//     it is neutral or has no hydrogen left;
//   - cations without hydrogens (quaternary N+, nitro N+) are permanent, and
//     an equal number of anionic charges stays in place to balance them,
//     anions bonded to a cation first;
//   - every other anionic charge on a non-metal gains a proton.
//
// The graph must pass the valence check before and after; a graph that
// does not yields molecule.ErrNeutralization.
type Neutralizer struct{}

// NewNeutralizer returns a Neutralizer.
func NewNeutralizer() *Neutralizer { return &Neutralizer{} }

// Neutralize implements molecule.Neutralizer.
func (n *Neutralizer) Neutralize(g *molecule.Graph) (*molecule.Graph, error) {
	if err := CheckValences(g); err != nil {
		return nil, molecule.ErrNeutralization.WithDetail(err.Error())
	}

	out := g.Clone()

	for i := range out.Atoms {
		a := &out.Atoms[i]
		for a.Charge > 0 && a.HCount > 0 {
			a.Charge--
			a.HCount--
		}
	}

	permanent := 0
	for _, a := range out.Atoms {
		if a.Charge > 0 {
			permanent += a.Charge
		}
	}

	type anion struct {
		idx        int
		nextToPlus bool
	}
	var anions []anion
	for i, a := range out.Atoms {
		if a.Charge < 0 && protonatable(a.Z) {
			near := false
			for _, j := range out.Neighbors(i) {
				if out.Atoms[j].Charge > 0 {
					near = true
					break
				}
			}
			anions = append(anions, anion{idx: i, nextToPlus: near})
		}
	}
	sort.SliceStable(anions, func(x, y int) bool {
		return anions[x].nextToPlus && !anions[y].nextToPlus
	})

	keep := permanent
	for _, an := range anions {
		a := &out.Atoms[an.idx]
		units := -a.Charge
		for u := 0; u < units; u++ {
			if keep > 0 {
				keep--
				continue
			}
			a.Charge++
			a.HCount++
		}
	}

	if err := CheckValences(out); err != nil {
		return nil, molecule.ErrNeutralization.WithDetail(err.Error())
	}
	return out, nil
}

// protonatable reports whether an anion of element z can take a proton:
// any element with a default valence, which excludes the metals.
func protonatable(z int) bool {
	return len(molecule.Valences(z, 0)) > 0
}

// CheckValences verifies that no atom exceeds the largest valence its
// element allows at its charge, counting bonds plus implicit hydrogens.
// Aromatic bonds count as single bonds, so aromatic systems are never
// flagged.  Elements without a valence table are not checked.
func CheckValences(g *molecule.Graph) error {
	for i, a := range g.Atoms {
		if a.HCount < 0 {
			return fmt.Errorf("atom %d (%s) has negative hydrogen count", i, a.Symbol())
		}
		limit, ok := molecule.MaxValence(a.Z, a.Charge)
		if !ok {
			continue
		}
		sum, _ := g.BondOrderSum(i)
		if v := sum + a.HCount; v > limit {
			return fmt.Errorf("atom %d (%s%+d) has valence %d, maximum %d", i, a.Symbol(), a.Charge, v, limit)
		}
	}
	return nil
}
