package standardization

import (
	"context"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/internal/intelligence/chem"
	"github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// FragmentReport describes one connected fragment of an inspected record.
type FragmentReport struct {
	Index          int                     `json:"index"`
	SMILES         string                  `json:"smiles"`
	Formula        string                  `json:"formula"`
	Classification molecule.Classification `json:"classification"`
	NeutralSMILES  string                  `json:"neutral_smiles,omitempty"`
	CanonicalKey   string                  `json:"canonical_key,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

// Inspection is a diagnostic view of how a record flows through the
// pipeline.
type Inspection struct {
	Input         string                 `json:"input"`
	StrippedAtoms int                    `json:"stripped_atoms"`
	Fragments     []FragmentReport       `json:"fragments"`
	Result        *dto.StandardizeResult `json:"result"`
}

// Inspect parses raw, reports every fragment left after salt stripping with
// its predicates and canonical key, and standardizes the record.
func (s *serviceImpl) Inspect(ctx context.Context, format string, raw []byte) (*Inspection, error) {
	g, _, err := chem.ParseStructure(format, raw)
	if err != nil {
		return nil, err
	}
	stripped := molecule.StripSaltMetals(g)

	report := &Inspection{
		Input:         chem.WriteSMILES(g),
		StrippedAtoms: g.NumAtoms() - stripped.NumAtoms(),
	}
	for i, f := range molecule.Fragments(stripped) {
		fr := FragmentReport{
			Index:          i,
			SMILES:         chem.WriteSMILES(f),
			Formula:        chem.Formula(f),
			Classification: molecule.Classify(f),
		}
		neutral, nerr := s.neut.Neutralize(f)
		if nerr != nil {
			fr.Error = nerr.Error()
			report.Fragments = append(report.Fragments, fr)
			continue
		}
		fr.NeutralSMILES = chem.WriteSMILES(neutral)
		if key, kerr := s.keys.CanonicalKey(neutral); kerr != nil {
			fr.Error = kerr.Error()
		} else {
			fr.CanonicalKey = key
		}
		report.Fragments = append(report.Fragments, fr)
	}

	res, err := s.StandardizeRecord(ctx, &dto.StandardizeRequest{Format: format, Structure: string(raw)})
	if err != nil && res == nil {
		return report, errors.Wrap(err, errors.CodeUnknown, "standardizing inspected record")
	}
	report.Result = res
	return report, nil
}
