package services

import (
	"context"
	"errors"
	"math"
	"mpvrp-verify-service/internal/domain"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// One product, G1 at (0,0), D1 at (3,4), S1 at (6,8), S2 at (3,8).
const scenarioInstance = `# scenario
1 1 1 2 1
0
1 100 1 1
1 3 4 1000
1 0 0
1 6 8 40
2 3 8 60
`

const scenarioRoute = `1: 1 - 1 [100] - 1 (40) - 2 (60) - 1
1: 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0)

1
0
0.0
%DIST%
cbc
0.1
`

// 5 + 5 + 3 + sqrt(73)
var scenarioDistance = 13 + math.Sqrt(73)

func orderedSolution(dist string) string {
	return strings.Replace(scenarioRoute, "%DIST%", dist, 1)
}

func run(t *testing.T, instance, solution, format string) *domain.Verdict {
	t.Helper()
	v := NewVerifier(zap.NewNop(), DefaultTolerance, 2)
	verdict, err := v.Run(context.Background(), VerifyRequest{
		Instance: []byte(instance),
		Solution: []byte(solution),
		Format:   format,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return verdict
}

func TestVerifyFeasibleOrderedPath(t *testing.T) {
	verdict := run(t, scenarioInstance, orderedSolution("21.54"), "auto")

	if !verdict.Feasible || !verdict.CostMatch {
		t.Fatalf("feasible=%v cost_match=%v, want true/true; violations=%+v", verdict.Feasible, verdict.CostMatch, verdict.Violations)
	}
	if len(verdict.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", verdict.Violations)
	}
	if math.Abs(verdict.Recomputed.Distance-scenarioDistance) > 1e-9 {
		t.Fatalf("distance = %f, want %f", verdict.Recomputed.Distance, scenarioDistance)
	}
	if verdict.Recomputed.ChangeoverCost != 0 {
		t.Fatalf("changeover cost = %f, want 0", verdict.Recomputed.ChangeoverCost)
	}
	if verdict.Recomputed.VehiclesUsed != 1 {
		t.Fatalf("vehicles used = %d, want 1", verdict.Recomputed.VehiclesUsed)
	}
	if verdict.Format != "ordered" || verdict.RunID != "scenario" || verdict.Stage != domain.StageDone {
		t.Fatalf("unexpected verdict header: %+v", verdict)
	}
	if verdict.Provenance.Solver != "cbc" {
		t.Fatalf("solver = %q, want cbc", verdict.Provenance.Solver)
	}
}

func TestVerifyShortDelivery(t *testing.T) {
	sol := strings.Replace(orderedSolution("21.54"), "2 (60)", "2 (55)", 1)
	verdict := run(t, scenarioInstance, sol, "ordered")

	if verdict.Feasible {
		t.Fatalf("expected infeasible verdict")
	}

	var found bool
	for _, v := range verdict.Violations {
		if v.Kind != domain.DemandViolation {
			continue
		}
		found = true
		if v.Entities[0] != "S2" || *v.Expected != 60 || *v.Actual != 55 {
			t.Fatalf("unexpected demand violation: %+v", v)
		}
	}
	if !found {
		t.Fatalf("expected a DemandViolation, got %+v", verdict.Violations)
	}
}

func TestVerifyCapacityExceeded(t *testing.T) {
	inst := strings.Replace(scenarioInstance, "1 100 1 1", "1 70 1 1", 1)
	verdict := run(t, inst, orderedSolution("21.54"), "ordered")

	if verdict.Count(domain.CapacityViolation) != 1 {
		t.Fatalf("expected one CapacityViolation, got %+v", verdict.Violations)
	}
	for _, v := range verdict.Violations {
		if v.Kind == domain.CapacityViolation && (v.Vehicle != 1 || v.Position != 1) {
			t.Fatalf("capacity violation at vehicle %d position %d, want 1/1", v.Vehicle, v.Position)
		}
	}
}

func TestVerifyDistanceMismatchKeepsFeasibility(t *testing.T) {
	verdict := run(t, scenarioInstance, orderedSolution("26.54"), "ordered")

	if len(verdict.Violations) != 1 || verdict.Violations[0].Kind != domain.MetricMismatch {
		t.Fatalf("expected a single MetricMismatch, got %+v", verdict.Violations)
	}
	m := verdict.Violations[0]
	if math.Abs(*m.Actual-26.54) > 1e-9 || math.Abs(*m.Expected-scenarioDistance) > 1e-9 {
		t.Fatalf("mismatch values = %v/%v", *m.Expected, *m.Actual)
	}
	if !verdict.Feasible {
		t.Fatalf("metric mismatch must not affect feasibility")
	}
	if verdict.CostMatch {
		t.Fatalf("expected cost_match=false")
	}
}

const sparseScenario = `
Status: Optimal
Objective: 21.544
Vehicles:
  - ID: 1
    Used: true
    Start: {From: G1, To: D1}
    Arcs:
      - {Product: 1, From: D1, To: S1}
      - {Product: 1, From: S1, To: S2}
    Load: [{Depot: D1, Position: 1, Product: 1, Quantity: 100}]
    Deliv:
      - {Station: S1, Product: 1, Quantity: 40}
      - {Station: S2, Product: 1, Quantity: 60}
    Fin: {From: S2, To: G1}
`

func TestVerifySparseMatchesOrderedPath(t *testing.T) {
	sparse := run(t, scenarioInstance, sparseScenario, "auto")
	ordered := run(t, scenarioInstance, orderedSolution("21.54"), "auto")

	if sparse.Format != "sparse" {
		t.Fatalf("format = %q, want sparse", sparse.Format)
	}
	if !sparse.Feasible || !sparse.CostMatch {
		t.Fatalf("sparse verdict not certified: %+v", sparse.Violations)
	}
	if sparse.Recomputed != ordered.Recomputed {
		t.Fatalf("recomputed metrics differ: sparse=%+v ordered=%+v", sparse.Recomputed, ordered.Recomputed)
	}
}

func TestVerifySparseMissingArc(t *testing.T) {
	inst := `# d
2 1 1 5 1
0 10
10 0
1 100 1 2
1 0 0 0 500
1 0 1
1 1 1 0 0
2 2 1 0 0
3 3 1 0 50
4 4 1 0 0
5 5 1 0 0
`
	sol := `
Status: Optimal
Objective: 0
Vehicles:
  - ID: 1
    Used: true
    Start: {From: G1, To: D1}
    Arcs:
      - {Product: 2, From: D1, To: S3}
      - {Product: 2, From: S5, To: G1}
    Load: [{Depot: D1, Position: 1, Product: 2, Quantity: 50}]
    Deliv: [{Station: S3, Product: 2, Quantity: 50}]
    Fin: {From: S3, To: G1}
`
	verdict := run(t, inst, sol, "sparse")

	if verdict.Count(domain.ContinuityViolation) != 1 {
		t.Fatalf("expected one ContinuityViolation, got %+v", verdict.Violations)
	}
	if verdict.Count(domain.OrphanArcWarning) != 1 {
		t.Fatalf("expected one OrphanArcWarning, got %+v", verdict.Violations)
	}
	if verdict.Feasible {
		t.Fatalf("expected infeasible verdict")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	sol := strings.Replace(orderedSolution("30"), "2 (60)", "2 (55)", 1)
	a := run(t, scenarioInstance, sol, "auto")
	b := run(t, scenarioInstance, sol, "auto")

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("verdicts differ:\n%+v\n%+v", a, b)
	}
	if a.ID == "" {
		t.Fatalf("expected a verdict id")
	}
}

func TestVerifyStructuralErrorAborts(t *testing.T) {
	sol := strings.Replace(orderedSolution("21.54"), "0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0)", "0(0.0) - 0(0.0)", 1)

	v := NewVerifier(zap.NewNop(), 0, 0)
	verdict, err := v.Run(context.Background(), VerifyRequest{
		Instance: []byte(scenarioInstance),
		Solution: []byte(sol),
	})
	if verdict != nil {
		t.Fatalf("expected no verdict, got %+v", verdict)
	}
	var se *domain.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
}

func TestVerifyUnknownFormat(t *testing.T) {
	v := NewVerifier(zap.NewNop(), 0, 0)
	_, err := v.Run(context.Background(), VerifyRequest{
		Instance: []byte(scenarioInstance),
		Solution: []byte(orderedSolution("1")),
		Format:   "xml",
	})
	var se *domain.StructuralError
	if !errors.As(err, &se) || se.Field != "format" {
		t.Fatalf("expected format StructuralError, got %v", err)
	}
}

func TestVerifyZeroDeliveryToStationWithoutDemand(t *testing.T) {
	inst := strings.Replace(scenarioInstance, "1 1 1 2 1", "1 1 1 3 1", 1) + "3 0 8 0\n"
	sol := strings.Replace(orderedSolution("21.54"), "1 (40) - 2 (60)", "1 (40) - 3 (0) - 2 (60)", 1)
	sol = strings.Replace(sol, "0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0)", "0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0)", 1)
	verdict := run(t, inst, sol, "ordered")

	if verdict.Feasible {
		t.Fatalf("expected infeasible verdict, got %+v", verdict.Violations)
	}
	if verdict.Count(domain.DemandViolation) != 1 {
		t.Fatalf("expected one DemandViolation, got %+v", verdict.Violations)
	}
	for _, v := range verdict.Violations {
		if v.Kind == domain.DemandViolation && v.Entities[0] != "S3" {
			t.Fatalf("demand violation on %v, want S3", v.Entities)
		}
	}
}

func TestVerifySparseSwitchWithoutLoad(t *testing.T) {
	sol := strings.Replace(sparseScenario, "    Fin:", "    Switch: [{Position: 7, From: 1, To: 1, Cost: 999}]\n    Fin:", 1)
	verdict := run(t, scenarioInstance, sol, "sparse")

	if verdict.Feasible {
		t.Fatalf("expected infeasible verdict")
	}
	if verdict.Count(domain.SwitchCostViolation) != 1 {
		t.Fatalf("expected one SwitchCostViolation, got %+v", verdict.Violations)
	}
}

func TestVerifyRejectsUnusableInput(t *testing.T) {
	tests := []struct {
		name     string
		instance string
		solution string
	}{
		{
			name:     "NaN deliveries",
			instance: scenarioInstance,
			solution: strings.Replace(orderedSolution("21.54"), "1 (40) - 2 (60)", "1 (NaN) - 2 (NaN)", 1),
		},
		{
			name:     "stock below total demand",
			instance: strings.Replace(scenarioInstance, "1 3 4 1000", "1 3 4 90", 1),
			solution: orderedSolution("21.54"),
		},
		{
			name:     "NaN station coordinate",
			instance: strings.Replace(scenarioInstance, "1 6 8 40", "1 NaN 8 40", 1),
			solution: orderedSolution("21.54"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(zap.NewNop(), DefaultTolerance, 2)
			verdict, err := v.Run(context.Background(), VerifyRequest{
				Instance: []byte(tt.instance),
				Solution: []byte(tt.solution),
				Format:   "ordered",
			})
			if verdict != nil {
				t.Fatalf("expected no verdict, got %+v", verdict)
			}
			var se *domain.StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("expected StructuralError, got %v", err)
			}
		})
	}
}
