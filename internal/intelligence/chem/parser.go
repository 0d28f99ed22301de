package chem

import (
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// Structure formats understood by ParserFor and WriteStructure.
const (
	FormatSMILES  = "smiles"
	FormatMolfile = "molfile"
)

var formatAliases = map[string]string{
	"smiles":  FormatSMILES,
	"smi":     FormatSMILES,
	"molfile": FormatMolfile,
	"mol":     FormatMolfile,
	"sdf":     FormatMolfile,
	"sd":      FormatMolfile,
}

// NormalizeFormat maps a format name or alias to its canonical name.
func NormalizeFormat(format string) (string, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return "", errors.Newf(errors.ErrCodeMoleculeInvalidFormat, "unsupported structure format %q", format)
	}
	return f, nil
}

// ParserFor returns the parser for format.
func ParserFor(format string) (molecule.Parser, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if f == FormatSMILES {
		return SMILESParser{}, nil
	}
	return MolfileParser{}, nil
}

// ParseStructure parses raw in the given format.
func ParseStructure(format string, raw []byte) (*molecule.Graph, *molecule.Metadata, error) {
	p, err := ParserFor(format)
	if err != nil {
		return nil, nil, err
	}
	return p.Parse(raw)
}

// WriteStructure serializes g in the given format.  SMILES output is the
// canonical SMILES; molfile output is a full SD record with meta as data
// items.
func WriteStructure(format string, g *molecule.Graph, meta *molecule.Metadata) ([]byte, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if f == FormatSMILES {
		return []byte(WriteSMILES(g)), nil
	}
	return FormatSDFRecord(g, meta), nil
}
