package services

import (
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/platform/obs"
)

// Report assembles the verdict. Findings are sorted so that repeated runs over
// the same input produce identical verdicts.
func Report(
	inst *domain.Instance,
	format string,
	sol *domain.DecodedSolution,
	recomputed domain.Metrics,
	findings ...[]domain.Violation,
) *domain.Verdict {
	all := []domain.Violation{}
	for _, f := range findings {
		all = append(all, f...)
	}
	domain.SortViolations(all)

	v := &domain.Verdict{
		RunID:      inst.RunID,
		Format:     format,
		Feasible:   true,
		CostMatch:  true,
		Stage:      domain.StageDone,
		Violations: all,
		Recomputed: recomputed,
		Reported:   sol.Reported,
		Provenance: sol.Provenance,
	}
	for _, x := range all {
		if x.Kind.Blocking() {
			v.Feasible = false
		}
		if x.Kind == domain.MetricMismatch {
			v.CostMatch = false
		}
		obs.Violations.WithLabelValues(string(x.Kind)).Inc()
	}
	obs.Verifications.WithLabelValues(format, Outcome(v)).Inc()
	return v
}

// Outcome labels a verdict for metrics and logs.
func Outcome(v *domain.Verdict) string {
	switch {
	case v.Feasible && v.CostMatch:
		return "certified"
	case v.Feasible:
		return "cost_mismatch"
	default:
		return "infeasible"
	}
}
