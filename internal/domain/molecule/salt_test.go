package molecule

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripSaltMetals_RemovesCounterIon(t *testing.T) {
	g := sodiumAcetate(t)
	out := StripSaltMetals(g)

	require.Equal(t, 4, out.NumAtoms())
	for _, a := range out.Atoms {
		assert.NotEqual(t, Sodium, a.Z)
	}
	assert.Equal(t, 5, g.NumAtoms(), "input left intact")
}

func TestStripSaltMetals_NoMatchReturnsSameGraph(t *testing.T) {
	g := build(t, []Atom{{Z: Carbon}, {Z: Oxygen}}, [3]int{0, 1, 1})
	assert.Same(t, g, StripSaltMetals(g))
}

func TestStripSaltMetals_KeepsBridgingMetal(t *testing.T) {
	// O-Mg-O: magnesium has degree 2 and stays
	g := build(t, []Atom{{Z: Oxygen}, {Z: Magnesium}, {Z: Oxygen}}, [3]int{0, 1, 1}, [3]int{1, 2, 1})
	assert.Same(t, g, StripSaltMetals(g))
}

func TestStripSaltMetals_DegreeOneMetalIsRemoved(t *testing.T) {
	// C-O-Li: lithium bonded once is still a counter-ion
	g := build(t, []Atom{{Z: Carbon}, {Z: Oxygen}, {Z: Lithium}}, [3]int{0, 1, 1}, [3]int{1, 2, 1})
	out := StripSaltMetals(g)
	assert.Equal(t, []Atom{{Z: Carbon}, {Z: Oxygen, HCount: 1}}, out.Atoms)
	assert.Equal(t, []Bond{{Begin: 0, End: 1, Order: BondSingle}}, out.Bonds)
	assert.Equal(t, 0, g.Atoms[1].HCount, "input left intact")
}

func TestStripSaltMetals_CovalentAcetateGetsHydroxyl(t *testing.T) {
	// CC(=O)O[Na]
	g := build(t,
		[]Atom{{Z: Carbon, HCount: 3}, {Z: Carbon}, {Z: Oxygen}, {Z: Oxygen}, {Z: Sodium}},
		[3]int{0, 1, 1}, [3]int{1, 2, 2}, [3]int{1, 3, 1}, [3]int{3, 4, 1},
	)
	out := StripSaltMetals(g)
	assert.Equal(t, []Atom{{Z: Carbon, HCount: 3}, {Z: Carbon}, {Z: Oxygen}, {Z: Oxygen, HCount: 1}}, out.Atoms)
	assert.Equal(t, 0, out.NetCharge())
}

func TestStripSaltMetals_RefillFollowsBondOrder(t *testing.T) {
	// C=[Mg]: the carbon regains both hydrogens
	g := build(t, []Atom{{Z: Carbon, HCount: 2}, {Z: Magnesium}}, [3]int{0, 1, 2})
	out := StripSaltMetals(g)
	assert.Equal(t, []Atom{{Z: Carbon, HCount: 4}}, out.Atoms)
}

func TestStripSaltMetals_ChargedNeighbourNotRefilled(t *testing.T) {
	// [O-]-[Na+] drawn with a bond keeps the anion for the neutralizer
	g := build(t, []Atom{{Z: Carbon, HCount: 3}, {Z: Oxygen, Charge: -1}, {Z: Sodium, Charge: 1}},
		[3]int{0, 1, 1}, [3]int{1, 2, 1})
	out := StripSaltMetals(g)
	assert.Equal(t, []Atom{{Z: Carbon, HCount: 3}, {Z: Oxygen, Charge: -1}}, out.Atoms)
}

func TestStripSaltMetals_PairedMetalsRefillNothing(t *testing.T) {
	// Na-Na: both ends are stripped
	g := build(t, []Atom{{Z: Sodium}, {Z: Sodium}, {Z: Carbon, HCount: 4}}, [3]int{0, 1, 1})
	out := StripSaltMetals(g)
	assert.Equal(t, []Atom{{Z: Carbon, HCount: 4}}, out.Atoms)
}

func TestStripSaltMetals_MultipleMetals(t *testing.T) {
	g := build(t, []Atom{{Z: Calcium, Charge: 2}, {Z: Carbon}, {Z: Potassium, Charge: 1}, {Z: Oxygen}, {Z: Sodium, Charge: 1}},
		[3]int{1, 3, 1})
	assert.Equal(t, []int{0, 2, 4}, SaltMetalIndices(g))

	out := StripSaltMetals(g)
	assert.Equal(t, []Atom{{Z: Carbon}, {Z: Oxygen}}, out.Atoms)
	assert.Equal(t, []Bond{{Begin: 0, End: 1, Order: BondSingle}}, out.Bonds)
}

func TestStripSaltMetals_Idempotent(t *testing.T) {
	once := StripSaltMetals(sodiumAcetate(t))
	twice := StripSaltMetals(once)
	assert.Same(t, once, twice)
	assert.Empty(t, cmp.Diff(once, twice))
}

func TestStripSaltMetals_OnlyMetals(t *testing.T) {
	g := build(t, []Atom{{Z: Sodium}, {Z: Potassium}})
	out := StripSaltMetals(g)
	assert.Equal(t, 0, out.NumAtoms())
}
