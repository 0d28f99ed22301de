// Package molecule defines the standardization request and result DTOs shared
// by the application service, the Kafka worker, the result repository and
// the CLI.  No domain logic lives here, only plain data types that are safe
// to import from any layer.
package molecule

import (
	"fmt"
	"strings"

	"github.com/turtacn/molstandardizer/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status
// ─────────────────────────────────────────────────────────────────────────────

// Status is the terminal state of one standardization request.
type Status string

const (
	// StatusStandardized means a single neutral fragment was produced.
	StatusStandardized Status = "standardized"

	// StatusRejected means the pipeline rejected the molecule; Reason says why.
	StatusRejected Status = "rejected"

	// StatusParseFailed means the structure could not be read.
	StatusParseFailed Status = "parse_failed"

	// StatusError covers timeouts and infrastructure failures.
	StatusError Status = "error"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{StatusStandardized, StatusRejected, StatusParseFailed, StatusError}

// IsTerminalFailure reports whether retrying the same request cannot change
// its status.
func (s Status) IsTerminalFailure() bool {
	return s == StatusRejected || s == StatusParseFailed
}

// ─────────────────────────────────────────────────────────────────────────────
// Request / result
// ─────────────────────────────────────────────────────────────────────────────

// Property is one named record attribute, kept in input order.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StandardizeRequest asks for one structure to be standardized.
type StandardizeRequest struct {
	// ID identifies the record; the service assigns a UUID when empty.
	ID string `json:"id"`

	// Format is "smiles" or "molfile" (aliases "smi", "mol", "sdf").
	Format string `json:"format"`

	// Structure is the raw SMILES line or SD record.
	Structure string `json:"structure"`

	// Properties are merged over any metadata carried in Structure itself.
	Properties []Property `json:"properties,omitempty"`
}

// Validate checks the request shape.  Structure content is checked by the
// parser, not here.
func (r *StandardizeRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request is nil")
	}
	if strings.TrimSpace(r.Structure) == "" {
		return fmt.Errorf("structure is empty")
	}
	if strings.TrimSpace(r.Format) == "" {
		return fmt.Errorf("format is empty")
	}
	return nil
}

// Trace mirrors the pipeline's per-molecule counters.
type Trace struct {
	StrippedAtoms    int `json:"stripped_atoms"`
	Fragments        int `json:"fragments"`
	UniqueFragments  int `json:"unique_fragments"`
	InorganicRemoved int `json:"inorganic_removed"`
	MetalRemoved     int `json:"metal_removed"`
}

// StandardizeResult is the outcome of one request.
type StandardizeResult struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	// Reason and Message are set for StatusRejected.
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`

	// Error is set for StatusParseFailed and StatusError.
	Error *common.ErrorDetail `json:"error,omitempty"`

	SMILES       string     `json:"smiles,omitempty"`
	Molfile      string     `json:"molfile,omitempty"`
	CanonicalKey string     `json:"canonical_key,omitempty"`
	Formula      string     `json:"formula,omitempty"`
	HeavyAtoms   int        `json:"heavy_atoms,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
	Trace        Trace      `json:"trace"`

	Cached      bool             `json:"cached"`
	DurationMs  int64            `json:"duration_ms"`
	ProcessedAt common.Timestamp `json:"processed_at"`
}

// Succeeded reports whether the result carries a standardized structure.
func (r *StandardizeResult) Succeeded() bool {
	return r != nil && r.Status == StatusStandardized
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch
// ─────────────────────────────────────────────────────────────────────────────

// BatchSummary aggregates a batch run.  Results are in input order.
type BatchSummary struct {
	BatchID      string         `json:"batch_id"`
	Total        int            `json:"total"`
	Standardized int            `json:"standardized"`
	Rejected     int            `json:"rejected"`
	ParseFailed  int            `json:"parse_failed"`
	Errors       int            `json:"errors"`
	CacheHits    int            `json:"cache_hits"`
	ByReason     map[string]int `json:"by_reason,omitempty"`
	DurationMs   int64          `json:"duration_ms"`

	Results []*StandardizeResult `json:"results,omitempty"`
}

// NewBatchSummary returns an empty summary for batchID.
func NewBatchSummary(batchID string) *BatchSummary {
	return &BatchSummary{BatchID: batchID, ByReason: make(map[string]int)}
}

// Add counts r.  It does not append r to Results.
func (s *BatchSummary) Add(r *StandardizeResult) {
	s.Total++
	if r.Cached {
		s.CacheHits++
	}
	switch r.Status {
	case StatusStandardized:
		s.Standardized++
	case StatusRejected:
		s.Rejected++
		s.ByReason[r.Reason]++
	case StatusParseFailed:
		s.ParseFailed++
	default:
		s.Errors++
	}
}
