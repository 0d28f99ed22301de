package chem

import (
	"strconv"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// TitleProperty is the metadata name under which a record title is kept:
// the text after the structure on a SMILES line, or the first molfile line.
const TitleProperty = "_Name"

// ---------------------------------------------------------------------------
// Atom tables
// ---------------------------------------------------------------------------

// organicSubset lists the symbols that may be written without brackets.
var organicSubset = map[string]int{
	"B": molecule.Boron, "C": molecule.Carbon, "N": molecule.Nitrogen, "O": molecule.Oxygen,
	"P": molecule.Phosphorus, "S": molecule.Sulfur, "F": molecule.Fluorine,
	"Cl": molecule.Chlorine, "Br": molecule.Bromine, "I": molecule.Iodine,
}

// aromaticOrganic lists the lower-case symbols allowed without brackets.
var aromaticOrganic = map[byte]int{
	'b': molecule.Boron, 'c': molecule.Carbon, 'n': molecule.Nitrogen,
	'o': molecule.Oxygen, 'p': molecule.Phosphorus, 's': molecule.Sulfur,
}

// aromaticBracket lists the lower-case symbols allowed inside brackets.
var aromaticBracket = map[string]int{
	"b": molecule.Boron, "c": molecule.Carbon, "n": molecule.Nitrogen, "o": molecule.Oxygen,
	"p": molecule.Phosphorus, "s": molecule.Sulfur, "se": molecule.Selenium, "as": 33, "te": 52,
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// SMILESParser reads one SMILES line.  Text after the first run of
// whitespace is kept as the record title.
type SMILESParser struct{}

// Parse implements molecule.Parser.
func (SMILESParser) Parse(raw []byte) (*molecule.Graph, *molecule.Metadata, error) {
	line := strings.TrimSpace(string(raw))
	structure, title := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		structure, title = line[:i], strings.TrimSpace(line[i+1:])
	}

	g, err := ParseSMILES(structure)
	if err != nil {
		return nil, nil, err
	}
	meta := molecule.NewMetadata()
	if title != "" {
		meta.Set(TitleProperty, title)
	}
	return g, meta, nil
}

type ringBond struct {
	atom  int
	order molecule.BondOrder
}

type smilesParser struct {
	src      string
	pos      int
	g        *molecule.Graph
	bracket  []bool
	prev     int
	branches []int
	pending  molecule.BondOrder
	rings    map[int]ringBond
}

// ParseSMILES parses a SMILES string into a graph.  Atoms written outside
// brackets receive implicit hydrogens from their default valence; bracket
// atoms keep exactly the hydrogens written.  Stereo marks are accepted and
// dropped.
func ParseSMILES(s string) (*molecule.Graph, error) {
	p := &smilesParser{
		src:   s,
		g:     molecule.NewGraph(),
		prev:  -1,
		rings: make(map[int]ringBond),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	AssignImplicitHydrogens(p.g, p.bracket)
	return p.g, nil
}

func (p *smilesParser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, format, args...).
		WithDetail("smiles=" + p.src + " pos=" + strconv.Itoa(p.pos))
}

func (p *smilesParser) run() error {
	if p.src == "" {
		return p.errorf("empty SMILES")
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errorf("branch opened before any atom")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++

		case c == ')':
			if len(p.branches) == 0 {
				return p.errorf("unbalanced ')'")
			}
			if p.pending != 0 {
				return p.errorf("bond symbol before ')'")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++

		case c == '.':
			if p.pending != 0 {
				return p.errorf("bond symbol before '.'")
			}
			p.prev = -1
			p.pos++

		case c == '-' || c == '=' || c == '#' || c == ':' || c == '/' || c == '\\' || c == '$':
			if p.pending != 0 {
				return p.errorf("consecutive bond symbols")
			}
			switch c {
			case '=':
				p.pending = molecule.BondDouble
			case '#':
				p.pending = molecule.BondTriple
			case ':':
				p.pending = molecule.BondAromatic
			case '$':
				return p.errorf("quadruple bonds are not supported")
			default:
				p.pending = molecule.BondSingle
			}
			p.pos++

		case c == '%':
			if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
				return p.errorf("'%%' must be followed by two digits")
			}
			n := int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
			if err := p.ringClosure(n); err != nil {
				return err
			}
			p.pos += 3

		case isDigit(c):
			if err := p.ringClosure(int(c - '0')); err != nil {
				return err
			}
			p.pos++

		case c == '[':
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				return p.errorf("unclosed '['")
			}
			a, err := p.bracketAtom(p.src[p.pos+1 : p.pos+end])
			if err != nil {
				return err
			}
			if err := p.addAtom(a, true); err != nil {
				return err
			}
			p.pos += end + 1

		case c == '*':
			if err := p.addAtom(molecule.Atom{}, false); err != nil {
				return err
			}
			p.pos++

		default:
			a, n, ok := p.organicAtom()
			if !ok {
				return p.errorf("unexpected character %q", c)
			}
			if err := p.addAtom(a, false); err != nil {
				return err
			}
			p.pos += n
		}
	}

	switch {
	case p.pending != 0:
		return p.errorf("dangling bond at end of input")
	case len(p.branches) > 0:
		return p.errorf("unclosed branch")
	case len(p.rings) > 0:
		return p.errorf("unclosed ring bond")
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *smilesParser) organicAtom() (molecule.Atom, int, bool) {
	rest := p.src[p.pos:]
	if len(rest) >= 2 {
		if z, ok := organicSubset[rest[:2]]; ok {
			return molecule.Atom{Z: z}, 2, true
		}
	}
	if z, ok := organicSubset[rest[:1]]; ok {
		return molecule.Atom{Z: z}, 1, true
	}
	if z, ok := aromaticOrganic[rest[0]]; ok {
		return molecule.Atom{Z: z, Aromatic: true}, 1, true
	}
	return molecule.Atom{}, 0, false
}

// bracketAtom parses the text between '[' and ']':
// isotope? symbol chirality? hcount? charge? class?
func (p *smilesParser) bracketAtom(s string) (molecule.Atom, error) {
	var a molecule.Atom
	i := 0

	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i > start {
		a.Isotope, _ = strconv.Atoi(s[start:i])
	}

	switch {
	case i >= len(s):
		return a, p.errorf("bracket atom without element")
	case s[i] == '*':
		i++
	case s[i] >= 'A' && s[i] <= 'Z':
		if i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z' {
			if z, ok := molecule.AtomicNumber(s[i : i+2]); ok {
				a.Z = z
				i += 2
				break
			}
		}
		z, ok := molecule.AtomicNumber(s[i : i+1])
		if !ok {
			return a, p.errorf("unknown element in [%s]", s)
		}
		a.Z = z
		i++
	case s[i] >= 'a' && s[i] <= 'z':
		a.Aromatic = true
		if i+1 < len(s) {
			if z, ok := aromaticBracket[s[i:i+2]]; ok {
				a.Z = z
				i += 2
				break
			}
		}
		z, ok := aromaticBracket[s[i:i+1]]
		if !ok {
			return a, p.errorf("unknown aromatic element in [%s]", s)
		}
		a.Z = z
		i++
	default:
		return a, p.errorf("unexpected %q in [%s]", s[i], s)
	}

	// chirality: @, @@, @TH1, @SP2, @OH12 ...
	for i < len(s) && s[i] == '@' {
		i++
	}
	if i+1 < len(s) && s[i-1] == '@' {
		switch s[i : i+2] {
		case "TH", "AL", "SP", "TB", "OH":
			i += 2
			for i < len(s) && isDigit(s[i]) {
				i++
			}
		}
	}

	if i < len(s) && s[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(s) && isDigit(s[i]) {
			a.HCount = int(s[i] - '0')
			i++
		}
	}

	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		sign := 1
		if s[i] == '-' {
			sign = -1
		}
		sym := s[i]
		i++
		mag := 1
		switch {
		case i < len(s) && isDigit(s[i]):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			mag, _ = strconv.Atoi(s[i:j])
			i = j
		default:
			for i < len(s) && s[i] == sym {
				mag++
				i++
			}
		}
		a.Charge = sign * mag
	}

	if i < len(s) && s[i] == ':' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	if i != len(s) {
		return a, p.errorf("trailing characters in [%s]", s)
	}
	return a, nil
}

func (p *smilesParser) addAtom(a molecule.Atom, bracket bool) error {
	idx := p.g.AddAtom(a)
	p.bracket = append(p.bracket, bracket)
	if p.prev >= 0 {
		if err := p.g.AddBond(p.prev, idx, p.bondOrder(p.prev, idx, p.pending)); err != nil {
			return p.errorf("invalid bond: %v", err)
		}
	} else if p.pending != 0 {
		return p.errorf("bond symbol without preceding atom")
	}
	p.pending = 0
	p.prev = idx
	return nil
}

func (p *smilesParser) bondOrder(i, j int, explicit molecule.BondOrder) molecule.BondOrder {
	if explicit != 0 {
		return explicit
	}
	if p.g.Atoms[i].Aromatic && p.g.Atoms[j].Aromatic {
		return molecule.BondAromatic
	}
	return molecule.BondSingle
}

func (p *smilesParser) ringClosure(n int) error {
	if p.prev < 0 {
		return p.errorf("ring bond %d without preceding atom", n)
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringBond{atom: p.prev, order: p.pending}
		p.pending = 0
		return nil
	}
	if open.order != 0 && p.pending != 0 && open.order != p.pending {
		return p.errorf("conflicting bond orders on ring bond %d", n)
	}
	explicit := p.pending
	if explicit == 0 {
		explicit = open.order
	}
	if err := p.g.AddBond(open.atom, p.prev, p.bondOrder(open.atom, p.prev, explicit)); err != nil {
		return p.errorf("invalid ring bond %d: %v", n, err)
	}
	delete(p.rings, n)
	p.pending = 0
	return nil
}
