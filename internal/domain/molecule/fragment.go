package molecule

import (
	"sort"

	"github.com/dominikbraun/graph"
)

// ConnectedComponents returns the atom indices of each connected component
// of g.  Components are ordered by their lowest atom index and the indices
// inside a component are ascending.
func ConnectedComponents(g *Graph) [][]int {
	n := g.NumAtoms()
	if n == 0 {
		return nil
	}

	ug := graph.New(graph.IntHash)
	for i := 0; i < n; i++ {
		_ = ug.AddVertex(i)
	}
	for _, b := range g.Bonds {
		// AddEdge fails only for a parallel bond, which adds no connectivity.
		_ = ug.AddEdge(b.Begin, b.End)
	}

	seen := make([]bool, n)
	var comps [][]int
	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		var members []int
		_ = graph.BFS(ug, start, func(v int) bool {
			seen[v] = true
			members = append(members, v)
			return false
		})
		comps = append(comps, sortedCopy(members))
	}
	return comps
}

// Fragments splits g into its connected components, each materialised as an
// independent Graph with contiguous atom indices.  The fragments do not
// carry g's property bag.  A connected graph yields one fragment.
func Fragments(g *Graph) []*Graph {
	comps := ConnectedComponents(g)
	out := make([]*Graph, 0, len(comps))
	for _, c := range comps {
		out = append(out, g.Subgraph(c))
	}
	return out
}

// FragmentCount returns the number of connected components without building
// the fragment graphs.
func FragmentCount(g *Graph) int {
	return len(ConnectedComponents(g))
}

func sortedCopy(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	return out
}
