// Package standardization decides, for one molecular graph, whether it can
// be processed, which connected fragment represents the molecule, and what
// neutral form that fragment takes.
package standardization

import (
	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// Reason classifies a rejected molecule.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonNeutralizationFailed  Reason = "NeutralizationFailed"
	ReasonOnlyMetalsOrInorganic Reason = "OnlyMetalsOrInorganic"
	ReasonContainsMetal         Reason = "ContainsMetal"
	ReasonInorganic             Reason = "Inorganic"
)

// Reasons lists every rejection reason, for metric label pre-registration.
var Reasons = []Reason{
	ReasonNeutralizationFailed,
	ReasonOnlyMetalsOrInorganic,
	ReasonContainsMetal,
	ReasonInorganic,
}

var reasonCodes = map[Reason]errors.ErrorCode{
	ReasonNeutralizationFailed:  errors.ErrCodeStdNeutralizationFailed,
	ReasonOnlyMetalsOrInorganic: errors.ErrCodeStdOnlyMetalsOrInorganic,
	ReasonContainsMetal:         errors.ErrCodeStdContainsMetal,
	ReasonInorganic:             errors.ErrCodeStdInorganic,
}

func (r Reason) String() string { return string(r) }

// Code returns the error code a rejection carries when it travels as an error.
func (r Reason) Code() errors.ErrorCode {
	if c, ok := reasonCodes[r]; ok {
		return c
	}
	return errors.CodeUnknown
}

// Message returns the human-readable rejection message.
func (r Reason) Message() string {
	if r == ReasonNone {
		return ""
	}
	return errors.DefaultMessageForCode(r.Code())
}

// ParseReason maps a reason name back to a Reason.
func ParseReason(s string) (Reason, bool) {
	for _, r := range Reasons {
		if string(r) == s {
			return r, true
		}
	}
	return ReasonNone, false
}

// Trace records what the pipeline saw while processing one molecule.
type Trace struct {
	StrippedAtoms    int `json:"stripped_atoms"`
	Fragments        int `json:"fragments"`
	UniqueFragments  int `json:"unique_fragments"`
	InorganicRemoved int `json:"inorganic_removed"`
	MetalRemoved     int `json:"metal_removed"`
}

// Outcome is the result of standardizing one molecule: either a single
// fragment or a rejection reason, never both.
type Outcome struct {
	fragment *molecule.Graph
	reason   Reason

	Trace Trace
}

// Success wraps the surviving fragment.
func Success(g *molecule.Graph) Outcome {
	return Outcome{fragment: g}
}

// Rejected wraps a rejection reason.
func Rejected(r Reason) Outcome {
	return Outcome{reason: r}
}

// IsSuccess reports whether a fragment survived.
func (o Outcome) IsSuccess() bool { return o.fragment != nil && o.reason == ReasonNone }

// Fragment returns the surviving fragment, or nil for a rejection.
func (o Outcome) Fragment() *molecule.Graph { return o.fragment }

// Reason returns the rejection reason, or ReasonNone on success.
func (o Outcome) Reason() Reason { return o.reason }

// Err converts a rejection into an *errors.AppError carrying the reason's
// code and message.  It returns nil on success.
func (o Outcome) Err() error {
	if o.IsSuccess() {
		return nil
	}
	return errors.New(o.reason.Code(), o.reason.Message())
}

func (o Outcome) withTrace(t Trace) Outcome {
	o.Trace = t
	return o
}
