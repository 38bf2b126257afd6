package domain

import (
	"fmt"
	"sort"
)

type ViolationKind string

const (
	ContinuityViolation   ViolationKind = "ContinuityViolation"
	AnchoringViolation    ViolationKind = "AnchoringViolation"
	ProductMixViolation   ViolationKind = "ProductMixViolation"
	CapacityViolation     ViolationKind = "CapacityViolation"
	ConservationViolation ViolationKind = "ConservationViolation"
	StockViolation        ViolationKind = "StockViolation"
	DemandViolation       ViolationKind = "DemandViolation"
	UniquenessViolation   ViolationKind = "UniquenessViolation"
	SwitchCostViolation   ViolationKind = "SwitchCostViolation"
	MetricMismatch        ViolationKind = "MetricMismatch"
	OrphanArcWarning      ViolationKind = "OrphanArcWarning"
	MatrixWarning         ViolationKind = "MatrixWarning"
	InstanceWarning       ViolationKind = "InstanceWarning"
)

// Blocking reports whether a finding of this kind makes a solution infeasible.
func (k ViolationKind) Blocking() bool {
	switch k {
	case MetricMismatch, OrphanArcWarning, MatrixWarning, InstanceWarning:
		return false
	default:
		return true
	}
}

// Violation is one finding. Vehicle and Position are 0 / -1 when the finding
// is not tied to a vehicle or a route position.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Message  string        `json:"message"`
	Vehicle  int           `json:"vehicle,omitempty"`
	Position int           `json:"position"`
	Entities []string      `json:"entities,omitempty"`
	Arc      *Arc          `json:"arc,omitempty"`
	Expected *float64      `json:"expected,omitempty"`
	Actual   *float64      `json:"actual,omitempty"`
}

func NewViolation(kind ViolationKind, vehicle, position int, format string, args ...any) Violation {
	return Violation{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Vehicle:  vehicle,
		Position: position,
	}
}

func (v Violation) With(entities ...NodeRef) Violation {
	for _, e := range entities {
		v.Entities = append(v.Entities, e.String())
	}
	return v
}

func (v Violation) Values(expected, actual float64) Violation {
	v.Expected = &expected
	v.Actual = &actual
	return v
}

func (v Violation) WithArc(a Arc) Violation {
	v.Arc = &a
	return v
}

// Stage of a verification run.
type Stage string

const (
	StageParsing        Stage = "parsing"
	StageReconstructing Stage = "reconstructing"
	StageValidating     Stage = "validating"
	StageReconciling    Stage = "reconciling"
	StageDone           Stage = "done"
)

// Verdict is the outcome of one verification run.
type Verdict struct {
	ID         string          `json:"id"`
	RunID      string          `json:"run_id,omitempty"`
	Format     string          `json:"format"`
	Feasible   bool            `json:"feasible"`
	CostMatch  bool            `json:"cost_match"`
	Stage      Stage           `json:"stage"`
	Violations []Violation     `json:"violations"`
	Recomputed Metrics         `json:"recomputed"`
	Reported   ReportedMetrics `json:"reported"`
	Provenance Provenance      `json:"provenance"`
}

// Count returns how many findings of a kind the verdict holds.
func (v *Verdict) Count(kind ViolationKind) int {
	n := 0
	for _, x := range v.Violations {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

// SortViolations orders findings by vehicle, position, kind and message so
// repeated runs over the same input produce identical verdicts.
func SortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Vehicle != b.Vehicle {
			return a.Vehicle < b.Vehicle
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}
