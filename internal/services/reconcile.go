package services

import (
	"context"
	"fmt"
	"math"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/ports"
)

// Recompute derives the objective from the routes and the instance only.
func Recompute(
	ctx context.Context,
	inst *domain.Instance,
	routes []domain.Route,
	provider ports.DistanceProvider,
) (domain.Metrics, error) {
	var m domain.Metrics

	legs, err := legDistances(ctx, routes, provider)
	if err != nil {
		return m, fmt.Errorf("recompute: %w", err)
	}

	for _, r := range routes {
		if r.Used() {
			m.VehiclesUsed++
		}
		for i := 1; i < len(r.Visits); i++ {
			m.Distance += legs[domain.Arc{From: r.Visits[i-1].Node, To: r.Visits[i].Node}]
		}

		v, ok := inst.Vehicle(r.VehicleID)
		if !ok {
			continue
		}
		prev := v.InitialProduct
		for _, visit := range r.Visits {
			if visit.Product != prev && visit.Node.Kind == domain.KindDepot {
				m.ProductChanges++
				m.ChangeoverCost += inst.Cost(prev, visit.Product)
			}
			prev = visit.Product
		}
	}

	m.TotalCost = m.Distance + m.ChangeoverCost
	return m, nil
}

// legDistances looks up every distinct leg once, batched per origin when the
// provider supports it.
func legDistances(ctx context.Context, routes []domain.Route, provider ports.DistanceProvider) (map[domain.Arc]float64, error) {
	byOrigin := make(map[domain.NodeRef][]domain.NodeRef)
	var origins []domain.NodeRef
	seen := make(map[domain.Arc]bool)
	for _, r := range routes {
		for i := 1; i < len(r.Visits); i++ {
			a := domain.Arc{From: r.Visits[i-1].Node, To: r.Visits[i].Node}
			if seen[a] {
				continue
			}
			seen[a] = true
			if _, ok := byOrigin[a.From]; !ok {
				origins = append(origins, a.From)
			}
			byOrigin[a.From] = append(byOrigin[a.From], a.To)
		}
	}

	out := make(map[domain.Arc]float64, len(seen))
	mp, hasMatrix := provider.(ports.DistanceMatrixProvider)
	for _, o := range origins {
		dests := byOrigin[o]
		if hasMatrix {
			res, err := mp.GetDistances(ctx, o, dests)
			if err != nil {
				return nil, fmt.Errorf("get distances from %s: %w", o, err)
			}
			for _, d := range dests {
				dist, ok := res[d]
				if !ok {
					return nil, fmt.Errorf("missing distance %s -> %s", o, d)
				}
				out[domain.Arc{From: o, To: d}] = dist
			}
			continue
		}
		for _, d := range dests {
			dist, err := provider.GetDistance(ctx, o, d)
			if err != nil {
				return nil, fmt.Errorf("get distance %s -> %s: %w", o, d, err)
			}
			out[domain.Arc{From: o, To: d}] = dist
		}
	}
	return out, nil
}

// Reconcile compares reported metrics with recomputed ones. Counts must match
// exactly; money and distance within tol. Unreported metrics are skipped.
func Reconcile(reported domain.ReportedMetrics, got domain.Metrics, tol float64) []domain.Violation {
	var out []domain.Violation

	count := func(name string, rep *int, want int) {
		if rep != nil && *rep != want {
			out = append(out, mismatch(name, float64(want), float64(*rep)))
		}
	}
	amount := func(name string, rep *float64, want float64) {
		if rep != nil && math.Abs(*rep-want) > tol {
			out = append(out, mismatch(name, want, *rep))
		}
	}

	count("vehicles_used", reported.VehiclesUsed, got.VehiclesUsed)
	count("product_changes", reported.ProductChanges, got.ProductChanges)
	amount("changeover_cost", reported.ChangeoverCost, got.ChangeoverCost)
	amount("distance", reported.Distance, got.Distance)
	amount("total_cost", reported.TotalCost, got.TotalCost)
	return out
}

func mismatch(name string, recomputed, reported float64) domain.Violation {
	return domain.NewViolation(domain.MetricMismatch, 0, -1,
		"%s reported as %.2f, recomputed %.2f", name, reported, recomputed).Values(recomputed, reported)
}
