package chem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// ---------------------------------------------------------------------------
// V2000 reader
// ---------------------------------------------------------------------------

// MolfileParser reads one SDF record (a V2000 mol block optionally followed
// by data items).  The header title and every data item become metadata.
type MolfileParser struct{}

// Parse implements molecule.Parser.
func (MolfileParser) Parse(raw []byte) (*molecule.Graph, *molecule.Metadata, error) {
	return ParseSDFRecord(raw)
}

var chargeCodes = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func molfileError(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeMoleculeParsingFailed, format, args...)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// field returns the trimmed fixed-width column [from, to) of line, or ""
// when the line is too short.
func field(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

func atoiField(line string, from, to int) (int, error) {
	f := field(line, from, to)
	if f == "" {
		return 0, nil
	}
	return strconv.Atoi(f)
}

// ParseMolBlock parses a V2000 mol block and returns the graph and the
// header title.  Hydrogens are derived from default valences unless the
// atom's valence column says otherwise.  Coordinates are discarded.
func ParseMolBlock(block string) (*molecule.Graph, string, error) {
	lines := splitLines(block)
	if len(lines) < 4 {
		return nil, "", molfileError("mol block has %d lines, need at least 4", len(lines))
	}
	title := strings.TrimSpace(lines[0])
	counts := lines[3]
	if strings.Contains(counts, "V3000") {
		return nil, title, molfileError("V3000 mol blocks are not supported")
	}
	natoms, err1 := atoiField(counts, 0, 3)
	nbonds, err2 := atoiField(counts, 3, 6)
	if err1 != nil || err2 != nil {
		return nil, title, molfileError("malformed counts line %q", counts)
	}
	if len(lines) < 4+natoms+nbonds {
		return nil, title, molfileError("mol block truncated: %d atoms and %d bonds declared", natoms, nbonds)
	}

	g := molecule.NewGraph()
	valence := make([]int, natoms)
	for k := 0; k < natoms; k++ {
		line := lines[4+k]
		a, vvv, err := parseAtomLine(line)
		if err != nil {
			return nil, title, molfileError("atom %d: %v", k+1, err)
		}
		valence[k] = vvv
		g.AddAtom(a)
	}

	for k := 0; k < nbonds; k++ {
		line := lines[4+natoms+k]
		b, e, t, err := parseBondLine(line)
		if err != nil {
			return nil, title, molfileError("bond %d: %v", k+1, err)
		}
		order := molecule.BondOrder(t)
		if t < 1 || t > 4 {
			return nil, title, molfileError("bond %d: unsupported bond type %d", k+1, t)
		}
		if err := g.AddBond(b-1, e-1, order); err != nil {
			return nil, title, molfileError("bond %d: %v", k+1, err)
		}
		if order == molecule.BondAromatic {
			g.Atoms[b-1].Aromatic = true
			g.Atoms[e-1].Aromatic = true
		}
	}

	chargesReset := false
	for _, line := range lines[4+natoms+nbonds:] {
		switch {
		case strings.HasPrefix(line, "M  END"):
			return finishMolBlock(g, valence), title, nil
		case strings.HasPrefix(line, "M  CHG"), strings.HasPrefix(line, "M  ISO"):
			pairs, err := propertyPairs(line, natoms)
			if err != nil {
				return nil, title, molfileError("%q: %v", line, err)
			}
			isCharge := strings.HasPrefix(line, "M  CHG")
			if isCharge && !chargesReset {
				for i := range g.Atoms {
					g.Atoms[i].Charge = 0
				}
				chargesReset = true
			}
			for _, p := range pairs {
				if isCharge {
					g.Atoms[p[0]].Charge = p[1]
				} else {
					g.Atoms[p[0]].Isotope = p[1]
				}
			}
		}
	}
	return finishMolBlock(g, valence), title, nil
}

func finishMolBlock(g *molecule.Graph, valence []int) *molecule.Graph {
	AssignImplicitHydrogens(g, nil)
	for i, v := range valence {
		if v == 0 {
			continue
		}
		if v == 15 {
			v = 0
		}
		sum, _ := g.BondOrderSum(i)
		if h := v - sum; h >= 0 {
			g.Atoms[i].HCount = h
		}
	}
	return g
}

func parseAtomLine(line string) (molecule.Atom, int, error) {
	var a molecule.Atom
	symbol := field(line, 31, 34)
	if symbol == "" {
		// tolerate whitespace-separated atom lines
		f := strings.Fields(line)
		if len(f) < 4 {
			return a, 0, fmt.Errorf("short atom line %q", line)
		}
		symbol = f[3]
	}
	switch symbol {
	case "D":
		a.Z, a.Isotope = molecule.Hydrogen, 2
	case "T":
		a.Z, a.Isotope = molecule.Hydrogen, 3
	case "*", "A", "Q", "L", "R#":
		a.Z = 0
	default:
		z, ok := molecule.AtomicNumber(symbol)
		if !ok {
			return a, 0, fmt.Errorf("unknown element %q", symbol)
		}
		a.Z = z
	}
	code, err := atoiField(line, 36, 39)
	if err != nil {
		return a, 0, fmt.Errorf("bad charge field in %q", line)
	}
	a.Charge = chargeCodes[code]
	vvv, err := atoiField(line, 48, 51)
	if err != nil {
		return a, 0, fmt.Errorf("bad valence field in %q", line)
	}
	return a, vvv, nil
}

func parseBondLine(line string) (begin, end, typ int, err error) {
	if begin, err = atoiField(line, 0, 3); err != nil {
		return
	}
	if end, err = atoiField(line, 3, 6); err != nil {
		return
	}
	if typ, err = atoiField(line, 6, 9); err != nil {
		return
	}
	if begin == 0 || end == 0 {
		err = fmt.Errorf("short bond line %q", line)
	}
	return
}

// propertyPairs parses "M  XXXnn8 aaa vvv ..." into (atom index, value)
// pairs with 0-based atom indices.
func propertyPairs(line string, natoms int) ([][2]int, error) {
	f := strings.Fields(line)
	if len(f) < 3 {
		return nil, fmt.Errorf("missing entry count")
	}
	n, err := strconv.Atoi(f[2])
	if err != nil || len(f) < 3+2*n {
		return nil, fmt.Errorf("bad entry count")
	}
	out := make([][2]int, 0, n)
	for k := 0; k < n; k++ {
		atom, err1 := strconv.Atoi(f[3+2*k])
		val, err2 := strconv.Atoi(f[4+2*k])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("bad entry %d", k+1)
		}
		if atom < 1 || atom > natoms {
			return nil, fmt.Errorf("atom %d out of range", atom)
		}
		out = append(out, [2]int{atom - 1, val})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// V2000 writer
// ---------------------------------------------------------------------------

// WriteMolBlock renders g as a V2000 mol block ending in "M  END\n".  All
// coordinates are zero.  Atoms whose hydrogen count differs from the
// default valence carry it in the valence column.
func WriteMolBlock(g *molecule.Graph, title string) string {
	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(title, "\n", " "))
	sb.WriteString("\n  molstd\n\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", g.NumAtoms(), g.NumBonds())

	var charges, isotopes [][2]int
	for i, a := range g.Atoms {
		symbol := molecule.Symbol(a.Z)
		code := 0
		for c, q := range chargeCodes {
			if q == a.Charge && a.Charge != 0 {
				code = c
			}
		}
		vvv := 0
		if a.HCount != ImplicitHydrogens(g, i) {
			sum, _ := g.BondOrderSum(i)
			vvv = sum + a.HCount
			if vvv == 0 {
				vvv = 15
			}
		}
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0%3d  0  0  0%3d  0  0  0  0  0  0\n",
			0.0, 0.0, 0.0, symbol, code, vvv)
		if a.Charge != 0 {
			charges = append(charges, [2]int{i + 1, a.Charge})
		}
		if a.Isotope != 0 {
			isotopes = append(isotopes, [2]int{i + 1, a.Isotope})
		}
	}
	for _, b := range g.Bonds {
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.Begin+1, b.End+1, int(b.Order))
	}
	writePropertyLines(&sb, "CHG", charges)
	writePropertyLines(&sb, "ISO", isotopes)
	sb.WriteString("M  END\n")
	return sb.String()
}

func writePropertyLines(sb *strings.Builder, tag string, pairs [][2]int) {
	for len(pairs) > 0 {
		n := len(pairs)
		if n > 8 {
			n = 8
		}
		fmt.Fprintf(sb, "M  %s%3d", tag, n)
		for _, p := range pairs[:n] {
			fmt.Fprintf(sb, " %3d %3d", p[0], p[1])
		}
		sb.WriteByte('\n')
		pairs = pairs[n:]
	}
}
