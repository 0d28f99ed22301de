package standardization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
)

// protonShift neutralizes by moving a proton per unit of charge.
var protonShift = molecule.NeutralizerFunc(func(g *molecule.Graph) (*molecule.Graph, error) {
	out := g.Clone()
	for i := range out.Atoms {
		a := &out.Atoms[i]
		for a.Charge < 0 {
			a.Charge++
			a.HCount++
		}
		for a.Charge > 0 && a.HCount > 0 {
			a.Charge--
			a.HCount--
		}
	}
	return out, nil
})

// atomMultisetKey keys a graph by its sorted atoms and bond count.
var atomMultisetKey = molecule.KeyGeneratorFunc(func(g *molecule.Graph) (string, error) {
	parts := make([]string, 0, g.NumAtoms())
	for _, a := range g.Atoms {
		parts = append(parts, fmt.Sprintf("%d/%d/%d", a.Z, a.Charge, a.HCount))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s|%d", strings.Join(parts, ","), g.NumBonds()), nil
})

func graphOf(atoms []molecule.Atom, bonds ...[3]int) *molecule.Graph {
	g := molecule.NewGraph()
	for _, a := range atoms {
		g.AddAtom(a)
	}
	for _, b := range bonds {
		if err := g.AddBond(b[0], b[1], molecule.BondOrder(b[2])); err != nil {
			panic(err)
		}
	}
	return g
}

// chain returns n carbons bonded in a line, offset from base.
func chain(base, n int) ([]molecule.Atom, [][3]int) {
	atoms := make([]molecule.Atom, n)
	var bonds [][3]int
	for i := range atoms {
		atoms[i] = molecule.Atom{Z: molecule.Carbon, HCount: 2}
		if i > 0 {
			bonds = append(bonds, [3]int{base + i - 1, base + i, 1})
		}
	}
	return atoms, bonds
}

// disjoint concatenates components into one graph.
func disjoint(parts ...*molecule.Graph) *molecule.Graph {
	g := molecule.NewGraph()
	for _, p := range parts {
		off := g.NumAtoms()
		for _, a := range p.Atoms {
			g.AddAtom(a)
		}
		for _, b := range p.Bonds {
			_ = g.AddBond(b.Begin+off, b.End+off, b.Order)
		}
	}
	return g
}

func carbonChain(n int) *molecule.Graph {
	atoms, bonds := chain(0, n)
	return graphOf(atoms, bonds...)
}
