package chem

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
)

// WriteSMILES returns a canonical SMILES for g: atoms are visited in
// canonical rank order, so two graphs of the same molecule produce the
// same string whatever their atom order.  Components are joined by '.'.
func WriteSMILES(g *molecule.Graph) string {
	if g.NumAtoms() == 0 {
		return ""
	}
	w := newSMILESWriter(g)
	return w.write()
}

type smilesWriter struct {
	g     *molecule.Graph
	ranks []int
	adj   [][]int // neighbour atom indices sorted by rank

	visited    []bool
	seenBond   []bool
	children   [][]int
	ringOpens  [][]int // bond indices opened at atom
	ringCloses [][]int // bond indices closed at atom

	digits    map[int]int // bond index → ring digit
	freeDigit []bool
	sb        strings.Builder
}

func newSMILESWriter(g *molecule.Graph) *smilesWriter {
	n := g.NumAtoms()
	w := &smilesWriter{
		g:          g,
		ranks:      CanonicalRanks(g),
		adj:        make([][]int, n),
		visited:    make([]bool, n),
		seenBond:   make([]bool, g.NumBonds()),
		children:   make([][]int, n),
		ringOpens:  make([][]int, n),
		ringCloses: make([][]int, n),
		digits:     make(map[int]int),
		freeDigit:  make([]bool, 100),
	}
	for i := range w.freeDigit {
		w.freeDigit[i] = true
	}
	for _, b := range g.Bonds {
		w.adj[b.Begin] = append(w.adj[b.Begin], b.End)
		w.adj[b.End] = append(w.adj[b.End], b.Begin)
	}
	for i := range w.adj {
		nb := w.adj[i]
		sort.Slice(nb, func(a, b int) bool { return w.ranks[nb[a]] < w.ranks[nb[b]] })
	}
	return w
}

func (w *smilesWriter) write() string {
	// component roots: lowest-ranked atom of each unvisited component
	order := make([]int, len(w.ranks))
	for i, r := range w.ranks {
		order[r] = i
	}

	var roots []int
	for _, i := range order {
		if w.visited[i] {
			continue
		}
		roots = append(roots, i)
		w.plan(i, -1)
	}

	for k, root := range roots {
		if k > 0 {
			w.sb.WriteByte('.')
		}
		w.emit(root)
	}
	return w.sb.String()
}

// plan walks the spanning tree depth-first and records which bonds become
// ring closures.
func (w *smilesWriter) plan(i, parent int) {
	w.visited[i] = true
	for _, j := range w.adj[i] {
		bi := w.g.BondBetween(i, j)
		if w.seenBond[bi] {
			continue
		}
		w.seenBond[bi] = true
		if w.visited[j] {
			w.ringOpens[j] = append(w.ringOpens[j], bi)
			w.ringCloses[i] = append(w.ringCloses[i], bi)
			continue
		}
		w.children[i] = append(w.children[i], j)
		w.plan(j, i)
	}
}

func (w *smilesWriter) emit(i int) {
	w.sb.WriteString(w.atomText(i))

	for _, bi := range w.ringCloses[i] {
		b := w.g.Bonds[bi]
		w.sb.WriteString(w.bondText(b))
		d := w.digits[bi]
		w.sb.WriteString(ringDigit(d))
		w.freeDigit[d] = true
	}
	for _, bi := range w.ringOpens[i] {
		d := w.takeDigit()
		w.digits[bi] = d
		w.sb.WriteString(ringDigit(d))
	}

	kids := w.children[i]
	for k, j := range kids {
		b := w.g.Bonds[w.g.BondBetween(i, j)]
		if k < len(kids)-1 {
			w.sb.WriteByte('(')
			w.sb.WriteString(w.bondText(b))
			w.emit(j)
			w.sb.WriteByte(')')
			continue
		}
		w.sb.WriteString(w.bondText(b))
		w.emit(j)
	}
}

func (w *smilesWriter) takeDigit() int {
	for d := 1; d < len(w.freeDigit); d++ {
		if w.freeDigit[d] {
			w.freeDigit[d] = false
			return d
		}
	}
	// more than 99 simultaneously open rings; reuse 0
	return 0
}

func ringDigit(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

func (w *smilesWriter) bondText(b molecule.Bond) string {
	bothAromatic := w.g.Atoms[b.Begin].Aromatic && w.g.Atoms[b.End].Aromatic
	switch b.Order {
	case molecule.BondDouble:
		return "="
	case molecule.BondTriple:
		return "#"
	case molecule.BondAromatic:
		if bothAromatic {
			return ""
		}
		return ":"
	default:
		if bothAromatic {
			return "-"
		}
		return ""
	}
}

func (w *smilesWriter) atomText(i int) string {
	a := w.g.Atoms[i]
	if a.Z == 0 && a.Charge == 0 && a.Isotope == 0 && a.HCount == 0 {
		return "*"
	}

	symbol := molecule.Symbol(a.Z)
	if a.Aromatic {
		symbol = strings.ToLower(symbol)
	}

	if w.bare(i, symbol) {
		return symbol
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(symbol)
	if a.HCount > 0 {
		sb.WriteByte('H')
		if a.HCount > 1 {
			sb.WriteString(strconv.Itoa(a.HCount))
		}
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteString("-" + strconv.Itoa(-a.Charge))
	}
	sb.WriteByte(']')
	return sb.String()
}

// bare reports whether atom i can be written without brackets and still
// parse back with the same hydrogen count.
func (w *smilesWriter) bare(i int, symbol string) bool {
	a := w.g.Atoms[i]
	if a.Charge != 0 || a.Isotope != 0 {
		return false
	}
	if a.Aromatic {
		if _, ok := aromaticOrganic[symbol[0]]; !ok || len(symbol) != 1 {
			return false
		}
	} else if _, ok := organicSubset[symbol]; !ok {
		return false
	}
	return a.HCount == ImplicitHydrogens(w.g, i)
}
