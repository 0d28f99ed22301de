package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectedComponents(t *testing.T) {
	// 0-3 bonded, 1 alone, 2-4-5 chain
	g := build(t, []Atom{{Z: Carbon}, {Z: Oxygen}, {Z: Nitrogen}, {Z: Carbon}, {Z: Carbon}, {Z: Sulfur}},
		[3]int{0, 3, 1}, [3]int{4, 2, 1}, [3]int{5, 4, 1})

	assert.Equal(t, [][]int{{0, 3}, {1}, {2, 4, 5}}, ConnectedComponents(g))
	assert.Equal(t, 3, FragmentCount(g))
}

func TestConnectedComponents_Empty(t *testing.T) {
	assert.Nil(t, ConnectedComponents(NewGraph()))
	assert.Empty(t, Fragments(NewGraph()))
}

func TestFragments_ReindexContiguously(t *testing.T) {
	g := sodiumAcetate(t)
	g.Props.Set("ID", "42")

	frags := Fragments(g)
	require.Len(t, frags, 2)

	acetate, sodium := frags[0], frags[1]
	assert.Equal(t, 4, acetate.NumAtoms())
	assert.Equal(t, 3, acetate.NumBonds())
	for _, b := range acetate.Bonds {
		assert.Less(t, b.Begin, acetate.NumAtoms())
		assert.Less(t, b.End, acetate.NumAtoms())
	}
	assert.Equal(t, []Atom{{Z: Sodium, Charge: 1}}, sodium.Atoms)
	assert.Equal(t, 0, acetate.Props.Len(), "fragments do not inherit the record's properties")
	assert.Equal(t, 5, g.NumAtoms(), "splitting never mutates the input")
}

func TestFragments_SingleComponent(t *testing.T) {
	g := build(t, []Atom{{Z: Carbon}, {Z: Oxygen}}, [3]int{0, 1, 1})
	frags := Fragments(g)
	require.Len(t, frags, 1)
	assert.Equal(t, g.Atoms, frags[0].Atoms)
	assert.Equal(t, g.Bonds, frags[0].Bonds)
}
