package standardization

import (
	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
)

// Standardizer runs the full pipeline for one molecule:
//
//	strip salt metals → analyze fragments → neutralize the chosen fragment
//
// It holds no mutable state, so one Standardizer may serve any number of
// goroutines as long as each passes its own graph.
type Standardizer struct {
	analyzer    *Analyzer
	neutralizer molecule.Neutralizer
	logger      logging.Logger
}

// NewStandardizer wires the pipeline to its collaborators.
func NewStandardizer(n molecule.Neutralizer, k molecule.KeyGenerator, logger logging.Logger) *Standardizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Standardizer{
		analyzer:    NewAnalyzer(n, k, logger),
		neutralizer: n,
		logger:      logger,
	}
}

// Standardize returns the canonical neutral fragment of g carrying meta, or
// the reason g was rejected.  g and meta are not modified.
func (s *Standardizer) Standardize(g *molecule.Graph, meta *molecule.Metadata) Outcome {
	stripped := molecule.StripSaltMetals(g)
	strippedAtoms := g.NumAtoms() - stripped.NumAtoms()

	out := s.analyzer.Analyze(stripped, meta)
	out.Trace.StrippedAtoms = strippedAtoms
	if !out.IsSuccess() {
		s.reject(out)
		return out
	}

	neutral, err := s.neutralizer.Neutralize(out.Fragment())
	if err != nil {
		s.logger.Debug("final neutralization failed", logging.Err(err))
		out = Rejected(ReasonNeutralizationFailed).withTrace(out.Trace)
		s.reject(out)
		return out
	}
	// Analyze already attached meta; a Neutralizer is free to return a
	// graph without the property bag, so it is merged again here.
	attachMetadata(neutral, meta)
	return Success(neutral).withTrace(out.Trace)
}

func (s *Standardizer) reject(out Outcome) {
	s.logger.Debug("molecule rejected",
		logging.String("reason", out.Reason().String()),
		logging.Int("fragments", out.Trace.Fragments),
		logging.Int("stripped_atoms", out.Trace.StrippedAtoms),
	)
}
