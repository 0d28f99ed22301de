package chem

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// ---------------------------------------------------------------------------
// Canonical ranking
// ---------------------------------------------------------------------------

// CanonicalRanks assigns every atom a distinct rank in [0, n) that depends
// only on the graph's structure, not on atom order.  Atoms start from an
// invariant of element, isotope, charge, hydrogens, aromaticity and degree,
// and are refined by their neighbours' ranks until the partition is stable.
// Remaining ties are broken on the lowest-ranked tied class and refined
// again.
func CanonicalRanks(g *molecule.Graph) []int {
	n := g.NumAtoms()
	if n == 0 {
		return nil
	}

	inv := make([][]int, n)
	for i, a := range g.Atoms {
		sum, arom := g.BondOrderSum(i)
		aromatic := 0
		if a.Aromatic {
			aromatic = 1
		}
		inv[i] = []int{a.Z, a.Isotope, a.Charge, a.HCount, aromatic, g.Degree(i), sum, arom}
	}
	ranks := denseRanks(inv)

	adj := adjacency(g)
	for {
		ranks = refine(ranks, adj)
		if classCount(ranks) == n {
			return ranks
		}
		ranks = breakTie(ranks)
	}
}

type edge struct {
	to    int
	order molecule.BondOrder
}

func adjacency(g *molecule.Graph) [][]edge {
	adj := make([][]edge, g.NumAtoms())
	for _, b := range g.Bonds {
		adj[b.Begin] = append(adj[b.Begin], edge{to: b.End, order: b.Order})
		adj[b.End] = append(adj[b.End], edge{to: b.Begin, order: b.Order})
	}
	return adj
}

// refine splits rank classes by the sorted multiset of (neighbour rank,
// bond order) until no class splits further.
func refine(ranks []int, adj [][]edge) []int {
	classes := classCount(ranks)
	for {
		inv := make([][]int, len(ranks))
		for i := range ranks {
			nb := make([]int, 0, len(adj[i]))
			for _, e := range adj[i] {
				nb = append(nb, ranks[e.to]*8+int(e.order))
			}
			sort.Ints(nb)
			inv[i] = append([]int{ranks[i]}, nb...)
		}
		next := denseRanks(inv)
		nextClasses := classCount(next)
		if nextClasses == classes {
			return next
		}
		ranks, classes = next, nextClasses
	}
}

// breakTie picks the lowest rank shared by several atoms and moves the
// first such atom ahead of its peers.
//
// There is no backtracking.  When the tied atoms are related by a symmetry
// of the graph the choice cannot change the result.  Atoms that refinement
// cannot separate but that are not symmetry-equivalent (some highly regular
// graphs) may still rank differently depending on input order, and then two
// drawings of the same structure can get different keys.
func breakTie(ranks []int) []int {
	count := make(map[int]int, len(ranks))
	for _, r := range ranks {
		count[r]++
	}
	tied := -1
	for r, c := range count {
		if c > 1 && (tied < 0 || r < tied) {
			tied = r
		}
	}
	inv := make([][]int, len(ranks))
	chosen := false
	for i, r := range ranks {
		v := 2 * r
		if r == tied {
			if chosen {
				v++
			}
			chosen = true
		}
		inv[i] = []int{v}
	}
	return denseRanks(inv)
}

// denseRanks maps each invariant to its position among the distinct
// invariants in lexicographic order.
func denseRanks(inv [][]int) []int {
	idx := make([]int, len(inv))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return lessInts(inv[idx[a]], inv[idx[b]]) })

	ranks := make([]int, len(inv))
	r := 0
	for k, i := range idx {
		if k > 0 && lessInts(inv[idx[k-1]], inv[i]) {
			r++
		}
		ranks[i] = r
	}
	return ranks
}

func lessInts(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func classCount(ranks []int) int {
	seen := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// ---------------------------------------------------------------------------
// Formula
// ---------------------------------------------------------------------------

// Formula returns the Hill-notation molecular formula of g, implicit
// hydrogens included, followed by the net charge ("C2H3O2-", "H4N+").
func Formula(g *molecule.Graph) string {
	counts := make(map[string]int)
	for _, a := range g.Atoms {
		counts[molecule.Symbol(a.Z)]++
		if a.HCount > 0 {
			counts["H"] += a.HCount
		}
	}

	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	_, hasCarbon := counts["C"]
	sort.Slice(symbols, func(i, j int) bool {
		if hasCarbon {
			if pi, pj := hillPriority(symbols[i]), hillPriority(symbols[j]); pi != pj {
				return pi < pj
			}
		}
		return symbols[i] < symbols[j]
	})

	var sb strings.Builder
	for _, s := range symbols {
		sb.WriteString(s)
		if c := counts[s]; c > 1 {
			sb.WriteString(strconv.Itoa(c))
		}
	}
	sb.WriteString(chargeSuffix(g.NetCharge()))
	return sb.String()
}

func hillPriority(symbol string) int {
	switch symbol {
	case "C":
		return 0
	case "H":
		return 1
	default:
		return 2
	}
}

func chargeSuffix(q int) string {
	switch {
	case q == 0:
		return ""
	case q == 1:
		return "+"
	case q == -1:
		return "-"
	case q > 0:
		return "+" + strconv.Itoa(q)
	default:
		return "-" + strconv.Itoa(-q)
	}
}

// ---------------------------------------------------------------------------
// Canonical key
// ---------------------------------------------------------------------------

// KeyGenerator implements molecule.KeyGenerator with a 27-character
// identifier shaped like an InChIKey:
//
//	SKELETONBLOCKX-DETAILBLSA-N
//
// The first block hashes the heavy-atom skeleton, the second the full
// layer (charges, hydrogens, isotopes, aromaticity), and the final letter
// encodes the net charge ('N' neutral, 'O' for +1, 'M' for -1 ...).
type KeyGenerator struct{}

// NewKeyGenerator returns a KeyGenerator.
func NewKeyGenerator() *KeyGenerator { return &KeyGenerator{} }

// CanonicalKey implements molecule.KeyGenerator.
func (k *KeyGenerator) CanonicalKey(g *molecule.Graph) (string, error) {
	for i, a := range g.Atoms {
		if a.Z < 0 || a.Z > molecule.MaxAtomicNumber {
			return "", errors.Newf(errors.ErrCodeMoleculeCanonicalKeyFailed, "atom %d has atomic number %d", i, a.Z)
		}
	}
	skeleton, full := canonicalLayers(g)
	return hashLetters(skeleton, 14) + "-" + hashLetters(full, 8) + "SA-" + protonationFlag(g.NetCharge()), nil
}

// CanonicalString returns the full canonical layer string that the key's
// second block is computed from.  Equal strings mean equal molecules.
func CanonicalString(g *molecule.Graph) string {
	_, full := canonicalLayers(g)
	return full
}

func canonicalLayers(g *molecule.Graph) (skeleton, full string) {
	ranks := CanonicalRanks(g)
	order := make([]int, len(ranks))
	for i, r := range ranks {
		order[r] = i
	}

	bonds := make([]string, 0, g.NumBonds())
	for _, b := range g.Bonds {
		lo, hi := ranks[b.Begin], ranks[b.End]
		if lo > hi {
			lo, hi = hi, lo
		}
		bonds = append(bonds, fmt.Sprintf("%04d-%04d%d", lo, hi, b.Order))
	}
	sort.Strings(bonds)

	elements := make([]string, len(order))
	details := make([]string, len(order))
	for r, i := range order {
		a := g.Atoms[i]
		elements[r] = molecule.Symbol(a.Z)
		details[r] = fmt.Sprintf("%d,%d,%d,%t", a.Isotope, a.Charge, a.HCount, a.Aromatic)
	}

	skeleton = strings.Join(elements, ".") + "/c" + strings.Join(bonds, ",")
	full = Formula(g) + "/" + skeleton + "/h" + strings.Join(details, ";")
	return skeleton, full
}

func hashLetters(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = 'A' + sum[i]%26
	}
	return string(out)
}

func protonationFlag(q int) string {
	if q > 12 {
		q = 12
	}
	if q < -13 {
		q = -13
	}
	return string(rune('N' + q))
}
