package standardization

import (
	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
)

// Analyzer selects the fragment of interest from a salt-stripped graph.
type Analyzer struct {
	neutralizer molecule.Neutralizer
	keys        molecule.KeyGenerator
	logger      logging.Logger
}

// NewAnalyzer constructs an Analyzer.  A nil logger discards output.
func NewAnalyzer(n molecule.Neutralizer, k molecule.KeyGenerator, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Analyzer{neutralizer: n, keys: k, logger: logger}
}

// Analyze splits g into fragments and picks one.
//
// A connected graph is rejected with ContainsMetal when it holds an atom
// outside the allowed set, then with Inorganic when it has neither carbon
// nor silicon; otherwise it is kept as is.
//
// A disconnected graph is deduplicated by the canonical key of each
// fragment's neutral form, keeping the first occurrence in its neutral form.
// Inorganic and disallowed-atom fragments are flagged against that
// deduplicated list and then dropped together.  Of the survivors, the one
// with the strictly greatest heavy-atom count wins; ties go to the earliest.
// No survivor is OnlyMetalsOrInorganic.
//
// The winning fragment carries meta, overwriting same-named properties.
// g and meta are not modified.
func (a *Analyzer) Analyze(g *molecule.Graph, meta *molecule.Metadata) Outcome {
	frags := molecule.Fragments(g)
	trace := Trace{Fragments: len(frags)}

	if len(frags) == 1 {
		return a.single(g, meta).withTrace(trace)
	}

	unique, ok := a.dedupe(frags)
	if !ok {
		return Rejected(ReasonNeutralizationFailed).withTrace(trace)
	}
	trace.UniqueFragments = len(unique)

	survivors, inorganic, metal := filterFragments(unique)
	trace.InorganicRemoved = inorganic
	trace.MetalRemoved = metal

	chosen := selectLargest(survivors)
	if chosen == nil {
		return Rejected(ReasonOnlyMetalsOrInorganic).withTrace(trace)
	}
	attachMetadata(chosen, meta)
	return Success(chosen).withTrace(trace)
}

func (a *Analyzer) single(g *molecule.Graph, meta *molecule.Metadata) Outcome {
	if molecule.ContainsDisallowedAtom(g) {
		return Rejected(ReasonContainsMetal)
	}
	if molecule.IsInorganic(g) {
		return Rejected(ReasonInorganic)
	}
	chosen := g.Clone()
	attachMetadata(chosen, meta)
	return Success(chosen)
}

// dedupe neutralizes every fragment and keeps the first per canonical key.
// It reports false when any fragment fails neutralization or keying.
func (a *Analyzer) dedupe(frags []*molecule.Graph) ([]*molecule.Graph, bool) {
	seen := make(map[string]struct{}, len(frags))
	unique := make([]*molecule.Graph, 0, len(frags))
	for i, f := range frags {
		neutral, err := a.neutralizer.Neutralize(f)
		if err != nil {
			a.logger.Debug("fragment neutralization failed", logging.Int("fragment", i), logging.Err(err))
			return nil, false
		}
		key, err := a.keys.CanonicalKey(neutral)
		if err != nil {
			a.logger.Debug("fragment canonical key failed", logging.Int("fragment", i), logging.Err(err))
			return nil, false
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, neutral)
	}
	return unique, true
}

// filterFragments flags inorganic and disallowed-atom fragments against the
// full list first, then drops every flagged fragment in one compaction pass.
// A fragment flagged by both predicates is counted as inorganic.
func filterFragments(frags []*molecule.Graph) (survivors []*molecule.Graph, inorganic, metal int) {
	drop := make([]bool, len(frags))
	for i, f := range frags {
		if molecule.IsInorganic(f) {
			drop[i] = true
			inorganic++
		}
	}
	for i, f := range frags {
		if drop[i] {
			continue
		}
		if molecule.ContainsDisallowedAtom(f) {
			drop[i] = true
			metal++
		}
	}

	survivors = make([]*molecule.Graph, 0, len(frags))
	for i, f := range frags {
		if !drop[i] {
			survivors = append(survivors, f)
		}
	}
	return survivors, inorganic, metal
}

// selectLargest returns the fragment with the strictly greatest heavy-atom
// count, the first one on ties, or nil for an empty list.
func selectLargest(frags []*molecule.Graph) *molecule.Graph {
	var best *molecule.Graph
	bestCount := -1
	for _, f := range frags {
		if n := molecule.HeavyAtomCount(f); n > bestCount {
			best, bestCount = f, n
		}
	}
	return best
}

func attachMetadata(g *molecule.Graph, meta *molecule.Metadata) {
	if g.Props == nil {
		g.Props = &molecule.Metadata{}
	}
	g.Props.Merge(meta)
}
