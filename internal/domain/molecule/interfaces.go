package molecule

import (
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// ErrNeutralization is returned by a Neutralizer for a fragment that fails
// its structural sanity check.  Match with errors.Is or errors.IsCode.
var ErrNeutralization = errors.New(errors.ErrCodeMoleculeNeutralization, "molecule could not be neutralised")

// Neutralizer produces the canonical neutral form of one fragment.  The
// input is not modified; the returned graph is new and carries a copy of
// the input's property bag.
type Neutralizer interface {
	Neutralize(g *Graph) (*Graph, error)
}

// KeyGenerator computes an identity key for a neutralized fragment.  Two
// fragments with equal keys are the same molecule.
type KeyGenerator interface {
	CanonicalKey(g *Graph) (string, error)
}

// Parser turns one serialized record into a graph and its metadata.
type Parser interface {
	Parse(raw []byte) (*Graph, *Metadata, error)
}

// NeutralizerFunc adapts a function to Neutralizer.
type NeutralizerFunc func(g *Graph) (*Graph, error)

// Neutralize calls f(g).
func (f NeutralizerFunc) Neutralize(g *Graph) (*Graph, error) { return f(g) }

// KeyGeneratorFunc adapts a function to KeyGenerator.
type KeyGeneratorFunc func(g *Graph) (string, error)

// CanonicalKey calls f(g).
func (f KeyGeneratorFunc) CanonicalKey(g *Graph) (string, error) { return f(g) }
