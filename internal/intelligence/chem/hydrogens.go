// Package chem provides the concrete chemistry collaborators behind the
// standardization pipeline: SMILES and V2000 molfile/SDF codecs, a
// rule-based neutralizer, and the canonical ranking that feeds both the
// identity key and the canonical SMILES writer.
package chem

import (
	"github.com/turtacn/molstandardizer/internal/domain/molecule"
)

// piDonor reports whether an aromatic atom of element z contributes a
// double bond to its ring (pyridine-type) rather than a lone pair
// (furan-type).
func piDonor(z int) bool {
	switch z {
	case molecule.Boron, molecule.Carbon, molecule.Nitrogen, molecule.Phosphorus, 33:
		return true
	}
	return false
}

// ImplicitHydrogens returns the hydrogen count atom i needs to reach its
// default valence.  Aromatic atoms only ever fill their lowest valence;
// pyrrole-type nitrogens must carry their hydrogen explicitly.  Elements
// without a default valence get none.
func ImplicitHydrogens(g *molecule.Graph, i int) int {
	a := g.Atoms[i]
	vals := molecule.Valences(a.Z, a.Charge)
	if len(vals) == 0 {
		return 0
	}
	sum, arom := g.BondOrderSum(i)
	if a.Aromatic {
		if arom > 0 && piDonor(a.Z-a.Charge) {
			sum++
		}
		if sum >= vals[0] {
			return 0
		}
		return vals[0] - sum
	}
	for _, v := range vals {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

// AssignImplicitHydrogens sets HCount from ImplicitHydrogens for every atom
// i where fixed[i] is false.  A nil fixed slice assigns all atoms.
func AssignImplicitHydrogens(g *molecule.Graph, fixed []bool) {
	for i := range g.Atoms {
		if fixed != nil && fixed[i] {
			continue
		}
		g.Atoms[i].HCount = ImplicitHydrogens(g, i)
	}
}
