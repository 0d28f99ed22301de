// Package molecule holds the molecular graph model and the structural rules
// applied to it during standardization: salt-metal stripping, fragment
// splitting and the element-based classification predicates.
package molecule

import (
	"fmt"
	"sort"

	"github.com/turtacn/molstandardizer/pkg/errors"
)

// BondOrder is the multiplicity of a bond.
type BondOrder int

const (
	BondSingle   BondOrder = 1
	BondDouble   BondOrder = 2
	BondTriple   BondOrder = 3
	BondAromatic BondOrder = 4
)

func (o BondOrder) String() string {
	switch o {
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondAromatic:
		return "aromatic"
	default:
		return fmt.Sprintf("BondOrder(%d)", int(o))
	}
}

// Atom is one vertex of a molecular graph.
type Atom struct {
	Z        int  `json:"z"`
	Charge   int  `json:"charge,omitempty"`
	HCount   int  `json:"h_count,omitempty"` // implicit hydrogens
	Isotope  int  `json:"isotope,omitempty"` // 0 = natural abundance
	Aromatic bool `json:"aromatic,omitempty"`
}

// Symbol returns the element symbol of the atom.
func (a Atom) Symbol() string { return Symbol(a.Z) }

// Bond connects two atoms by index.  Begin < End is not required.
type Bond struct {
	Begin int       `json:"begin"`
	End   int       `json:"end"`
	Order BondOrder `json:"order"`
}

// Other returns the endpoint of b that is not i.
func (b Bond) Other(i int) int {
	if b.Begin == i {
		return b.End
	}
	return b.Begin
}

// Graph is a molecular graph with a property bag.  A Graph is owned by one
// goroutine at a time; none of its methods synchronise.
type Graph struct {
	Atoms []Atom
	Bonds []Bond
	Props *Metadata
}

// NewGraph returns an empty graph with an empty property bag.
func NewGraph() *Graph {
	return &Graph{Props: &Metadata{}}
}

// NumAtoms returns the number of atoms.
func (g *Graph) NumAtoms() int { return len(g.Atoms) }

// NumBonds returns the number of bonds.
func (g *Graph) NumBonds() int { return len(g.Bonds) }

// AddAtom appends a and returns its index.
func (g *Graph) AddAtom(a Atom) int {
	g.Atoms = append(g.Atoms, a)
	return len(g.Atoms) - 1
}

// AddBond connects atoms i and j.  It rejects out-of-range indices, self
// loops and duplicate bonds.
func (g *Graph) AddBond(i, j int, order BondOrder) error {
	if err := g.checkIndex(i); err != nil {
		return err
	}
	if err := g.checkIndex(j); err != nil {
		return err
	}
	if i == j {
		return errors.Newf(errors.ErrCodeMoleculeAtomIndex, "self bond on atom %d", i)
	}
	if g.BondBetween(i, j) >= 0 {
		return errors.Newf(errors.ErrCodeMoleculeAtomIndex, "duplicate bond %d-%d", i, j)
	}
	g.Bonds = append(g.Bonds, Bond{Begin: i, End: j, Order: order})
	return nil
}

func (g *Graph) checkIndex(i int) error {
	if i < 0 || i >= len(g.Atoms) {
		return errors.Newf(errors.ErrCodeMoleculeAtomIndex, "atom index %d out of range [0,%d)", i, len(g.Atoms))
	}
	return nil
}

// BondBetween returns the index of the bond joining i and j, or -1.
func (g *Graph) BondBetween(i, j int) int {
	for k, b := range g.Bonds {
		if (b.Begin == i && b.End == j) || (b.Begin == j && b.End == i) {
			return k
		}
	}
	return -1
}

// Degree returns the number of bonds incident to atom i.  Implicit
// hydrogens do not count.
func (g *Graph) Degree(i int) int {
	d := 0
	for _, b := range g.Bonds {
		if b.Begin == i || b.End == i {
			d++
		}
	}
	return d
}

// Neighbors returns the indices bonded to atom i in bond order.
func (g *Graph) Neighbors(i int) []int {
	var out []int
	for _, b := range g.Bonds {
		switch i {
		case b.Begin:
			out = append(out, b.End)
		case b.End:
			out = append(out, b.Begin)
		}
	}
	return out
}

// BondOrderSum returns the explicit valence of atom i counting each aromatic
// bond as 1, and the number of aromatic bonds seen.
func (g *Graph) BondOrderSum(i int) (sum, aromatic int) {
	for _, b := range g.Bonds {
		if b.Begin != i && b.End != i {
			continue
		}
		if b.Order == BondAromatic {
			aromatic++
			sum++
			continue
		}
		sum += int(b.Order)
	}
	return sum, aromatic
}

// TotalHydrogens returns the implicit hydrogen count of atom i plus any
// explicit hydrogen atoms bonded to it.
func (g *Graph) TotalHydrogens(i int) int {
	h := g.Atoms[i].HCount
	for _, n := range g.Neighbors(i) {
		if g.Atoms[n].Z == Hydrogen {
			h++
		}
	}
	return h
}

// NetCharge returns the sum of formal charges.
func (g *Graph) NetCharge() int {
	q := 0
	for _, a := range g.Atoms {
		q += a.Charge
	}
	return q
}

// Clone returns a deep copy of g, property bag included.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Atoms: make([]Atom, len(g.Atoms)),
		Bonds: make([]Bond, len(g.Bonds)),
		Props: g.Props.Clone(),
	}
	copy(c.Atoms, g.Atoms)
	copy(c.Bonds, g.Bonds)
	return c
}

// RemoveAtoms deletes the atoms at indices together with their bonds and
// renumbers the survivors contiguously, preserving their relative order.
//
// The indices are processed in strictly descending order: each one is
// marked first, then a single compaction pass rebuilds the atom and bond
// lists, so no index still awaiting removal is shifted by an earlier one.
// Duplicate indices are collapsed.  An out-of-range index fails the whole
// batch and leaves g untouched.
func (g *Graph) RemoveAtoms(indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	desc := make([]int, len(indices))
	copy(desc, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(desc)))

	removed := make([]bool, len(g.Atoms))
	for _, idx := range desc {
		if err := g.checkIndex(idx); err != nil {
			return err
		}
		removed[idx] = true
	}

	remap := make([]int, len(g.Atoms))
	atoms := g.Atoms[:0:0]
	for i, a := range g.Atoms {
		if removed[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(atoms)
		atoms = append(atoms, a)
	}

	bonds := g.Bonds[:0:0]
	for _, b := range g.Bonds {
		if removed[b.Begin] || removed[b.End] {
			continue
		}
		bonds = append(bonds, Bond{Begin: remap[b.Begin], End: remap[b.End], Order: b.Order})
	}

	g.Atoms = atoms
	g.Bonds = bonds
	return nil
}

// Subgraph materialises the atoms at indices (ascending) as an independent
// graph with contiguous indices.  Bonds with both ends inside are kept.  The
// property bag is not copied.
func (g *Graph) Subgraph(indices []int) *Graph {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	remap := make(map[int]int, len(sorted))
	sub := NewGraph()
	for _, i := range sorted {
		remap[i] = sub.AddAtom(g.Atoms[i])
	}
	for _, b := range g.Bonds {
		bi, ok1 := remap[b.Begin]
		ei, ok2 := remap[b.End]
		if ok1 && ok2 {
			sub.Bonds = append(sub.Bonds, Bond{Begin: bi, End: ei, Order: b.Order})
		}
	}
	return sub
}
