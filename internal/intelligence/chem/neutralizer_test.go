package chem

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
)

func TestNeutralizer_Neutralize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"carboxylate", "CC(=O)[O-]", "CC(=O)O"},
		{"ammonium", "[NH4+]", "N"},
		{"protonated amine", "CC[NH3+]", "CCN"},
		{"zwitterion", "[NH3+]CC(=O)[O-]", "NCC(=O)O"},
		{"sulfate", "[O-]S(=O)(=O)[O-]", "OS(=O)(=O)O"},
		{"phenolate", "[O-]c1ccccc1", "Oc1ccccc1"},
		{"nitro kept", "C[N+](=O)[O-]", "C[N+](=O)[O-]"},
		{"betaine kept", "C[N+](C)(C)CC(=O)[O-]", "C[N+](C)(C)CC(=O)[O-]"},
		{"quaternary salt balances", "C[N+](C)(C)C.CC(=O)[O-]", "C[N+](C)(C)C.CC(=O)[O-]"},
		{"already neutral", "CCO", "CCO"},
	}

	n := NewNeutralizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := mustParse(t, tt.in)
			out, err := n.Neutralize(in)
			require.NoError(t, err)
			assert.Equal(t, CanonicalString(mustParse(t, tt.want)), CanonicalString(out))
		})
	}
}

func TestNeutralizer_DoesNotMutateInput(t *testing.T) {
	in := mustParse(t, "CC(=O)[O-]")
	in.Props.Set("ID", "7")
	before := in.Clone()

	out, err := NewNeutralizer().Neutralize(in)
	require.NoError(t, err)
	assert.Equal(t, before.Atoms, in.Atoms)
	assert.Equal(t, 0, out.NetCharge())

	v, ok := out.Props.Get("ID")
	require.True(t, ok)
	assert.Equal(t, "7", v)
}

func TestNeutralizer_Failures(t *testing.T) {
	n := NewNeutralizer()

	pentavalent := mustParse(t, "CC(C)(C)(C)C")
	_, err := n.Neutralize(pentavalent)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, molecule.ErrNeutralization))

	negativeH := mustParse(t, "C")
	negativeH.Atoms[0].HCount = -1
	_, err = n.Neutralize(negativeH)
	assert.True(t, stderrors.Is(err, molecule.ErrNeutralization))
}

func TestCheckValences(t *testing.T) {
	assert.NoError(t, CheckValences(mustParse(t, "CS(=O)(=O)C")))
	assert.NoError(t, CheckValences(mustParse(t, "c1ccccc1")))
	assert.NoError(t, CheckValences(mustParse(t, "[Fe+3]")))
	assert.NoError(t, CheckValences(mustParse(t, "C[N+](C)(C)C")))
	assert.Error(t, CheckValences(mustParse(t, "C[N+](C)(C)(C)C")))
	assert.Error(t, CheckValences(mustParse(t, "[OH3]")))
}
