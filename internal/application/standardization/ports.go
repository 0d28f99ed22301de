package standardization

import (
	"context"
	"time"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	domainStd "github.com/turtacn/molstandardizer/internal/domain/standardization"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// Standardizer is the domain pipeline the service drives.
// *standardization.Standardizer satisfies it.
type Standardizer interface {
	Standardize(g *molecule.Graph, meta *molecule.Metadata) domainStd.Outcome
}

// ResultCache stores finished results by input digest.  Implementations
// must treat a miss as (nil, false, nil).
type ResultCache interface {
	Get(ctx context.Context, digest string) (*dto.StandardizeResult, bool, error)
	Set(ctx context.Context, digest string, result *dto.StandardizeResult) error
}

// ResultRepository persists finished results.
type ResultRepository interface {
	Save(ctx context.Context, result *dto.StandardizeResult) error
}

// Metrics receives one observation per finished record.
type Metrics interface {
	RecordOutcome(status, reason string, d time.Duration)
	RecordFragments(n int)
	RecordCache(hit bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(string, string, time.Duration) {}
func (nopMetrics) RecordFragments(int)                        {}
func (nopMetrics) RecordCache(bool)                           {}
