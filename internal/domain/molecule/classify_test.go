package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func atomsOf(zs ...int) *Graph {
	g := NewGraph()
	for _, z := range zs {
		g.AddAtom(Atom{Z: z})
	}
	return g
}

func TestIsInorganic(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
		want bool
	}{
		{"water", atomsOf(Oxygen), true},
		{"ammonia", atomsOf(Nitrogen), true},
		{"methane", atomsOf(Carbon), false},
		{"silane", atomsOf(Silicon), false},
		{"iron", atomsOf(Iron), true},
		{"empty", NewGraph(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInorganic(tt.g))
		})
	}
}

func TestContainsDisallowedAtom(t *testing.T) {
	assert.False(t, ContainsDisallowedAtom(atomsOf(Hydrogen, Carbon, Nitrogen, Oxygen, Fluorine, Silicon, Phosphorus, Sulfur, Chlorine, Bromine, Iodine)))
	assert.True(t, ContainsDisallowedAtom(atomsOf(Carbon, Iron)))
	assert.True(t, ContainsDisallowedAtom(atomsOf(Boron)))
	assert.True(t, ContainsDisallowedAtom(atomsOf(Selenium)))
	assert.True(t, ContainsDisallowedAtom(atomsOf(Sodium)))
	assert.False(t, ContainsDisallowedAtom(NewGraph()))
}

func TestIsSilane(t *testing.T) {
	assert.True(t, IsSilane(atomsOf(Carbon, Silicon)))
	assert.False(t, IsSilane(atomsOf(Silicon)))
	assert.False(t, IsSilane(atomsOf(Carbon)))
}

func TestHeavyAtomCount(t *testing.T) {
	assert.Equal(t, 2, HeavyAtomCount(atomsOf(Hydrogen, Carbon, Hydrogen, Oxygen)))
	assert.Equal(t, 0, HeavyAtomCount(atomsOf(Hydrogen)))
}

func TestClassify(t *testing.T) {
	c := Classify(atomsOf(Carbon, Silicon, Hydrogen, Iron))
	assert.Equal(t, Classification{Inorganic: false, DisallowedAtom: true, Silane: true, HeavyAtoms: 3}, c)
}

func TestElementTable(t *testing.T) {
	z, ok := AtomicNumber("Cl")
	assert.True(t, ok)
	assert.Equal(t, Chlorine, z)
	_, ok = AtomicNumber("CL")
	assert.False(t, ok)
	_, ok = AtomicNumber("*")
	assert.False(t, ok)
	assert.Equal(t, "Og", Symbol(118))
	assert.Equal(t, "*", Symbol(200))
	assert.Equal(t, "Fe", Atom{Z: Iron}.Symbol())
}

func TestValences(t *testing.T) {
	assert.Equal(t, []int{4}, Valences(Carbon, 0))
	assert.Equal(t, []int{4}, Valences(Nitrogen, 1), "N+ behaves like C")
	assert.Equal(t, []int{1}, Valences(Oxygen, -1), "O- behaves like F")
	assert.Nil(t, Valences(Sodium, 1))

	v, ok := MaxValence(Sulfur, 0)
	assert.True(t, ok)
	assert.Equal(t, 6, v)
	_, ok = MaxValence(Iron, 0)
	assert.False(t, ok)
}
