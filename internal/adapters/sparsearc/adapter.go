package sparsearc

import (
	"context"
	"fmt"
	"math"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/reconstruct"

	"golang.org/x/sync/errgroup"
)

const FormatName = "sparse"

// Source reads the sparse-arc encoding and reconstructs routes from it.
type Source struct {
	data []byte
	// Workers bounds concurrent per-vehicle reconstruction; <= 0 means one
	// task per vehicle.
	Workers int

	plans map[int]reconstruct.Plan
}

func New(data []byte, workers int) *Source { return &Source{data: data, Workers: workers} }

func (s *Source) Format() string { return FormatName }

type vehicleResult struct {
	route    domain.Route
	findings []domain.Violation
}

// Decode checks the record against the instance. Routes are left empty until
// Reconstruct runs.
func (s *Source) Decode(ctx context.Context, inst *domain.Instance) (*domain.DecodedSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := DecodeRecord(s.data)
	if err != nil {
		return nil, err
	}

	if err := checkReported(rec); err != nil {
		return nil, err
	}

	plans, err := Plans(rec, inst)
	if err != nil {
		return nil, err
	}
	s.plans = plans

	out := &domain.DecodedSolution{
		Provenance: domain.Provenance{
			Solver:  rec.Solver,
			Elapsed: rec.Elapsed,
			Status:  rec.Status,
		},
	}
	if m := rec.Metrics; m != nil {
		out.Reported.VehiclesUsed = m.VehiclesUsed
		out.Reported.ProductChanges = m.Changes
		out.Reported.ChangeoverCost = m.ChangeoverCost
		out.Reported.Distance = m.Distance
	}
	out.Reported.TotalCost = rec.Objective
	return out, nil
}

// Reconstruct walks every used vehicle in its own task and joins the results
// in instance vehicle order.
func (s *Source) Reconstruct(ctx context.Context, inst *domain.Instance, sol *domain.DecodedSolution) error {
	results := make([]vehicleResult, len(inst.Vehicles))
	g, ctx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for i, v := range inst.Vehicles {
		plan, used := s.plans[v.ID]
		if !used {
			results[i] = vehicleResult{route: domain.UnusedRoute(v)}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			route, findings := reconstruct.Walk(plan)
			results[i] = vehicleResult{route: route, findings: findings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("reconstruct sparse arcs: %w", err)
	}

	sol.Routes = make([]domain.Route, 0, len(results))
	for _, r := range results {
		sol.Routes = append(sol.Routes, r.route)
		sol.Findings = append(sol.Findings, r.findings...)
	}
	return nil
}

// Plans checks every reference of the record against the instance and
// returns the reconstruction plan of each used vehicle.
func Plans(rec *Record, inst *domain.Instance) (map[int]reconstruct.Plan, error) {
	plans := make(map[int]reconstruct.Plan)
	seen := make(map[int]bool, len(rec.Vehicles))

	for _, vr := range rec.Vehicles {
		v, ok := inst.Vehicle(vr.ID)
		if !ok {
			return nil, domain.Structural("vehicle", "unknown vehicle %d", vr.ID)
		}
		if seen[vr.ID] {
			return nil, domain.Structural("vehicle", "vehicle %d listed twice", vr.ID)
		}
		seen[vr.ID] = true
		if !vr.Used {
			continue
		}

		c := checker{inst: inst, vehicle: vr.ID}
		if vr.Start == nil || vr.Fin == nil {
			return nil, domain.Structural("vehicle", "used vehicle %d needs both Start and Fin arcs", vr.ID)
		}

		p := reconstruct.Plan{
			Vehicle: v,
			Start:   c.arc("Start", *vr.Start),
			End:     c.arc("Fin", *vr.Fin),
		}
		for _, a := range vr.Arcs {
			p.Arcs = append(p.Arcs, reconstruct.ProductArc{
				Product: c.product("Arcs", a.Product),
				Arc:     c.arc("Arcs", domain.Arc{From: a.From, To: a.To}),
			})
		}
		for _, l := range vr.Load {
			p.Loads = append(p.Loads, reconstruct.LoadEvent{
				Depot:    c.node("Load", l.Depot, domain.KindDepot),
				Position: l.Position,
				Product:  c.product("Load", l.Product),
				Quantity: c.quantity("Load", l.Quantity),
			})
		}
		for _, d := range vr.Deliv {
			p.Deliveries = append(p.Deliveries, reconstruct.DeliveryEvent{
				Station:  c.node("Deliv", d.Station, domain.KindStation),
				Product:  c.product("Deliv", d.Product),
				Quantity: c.quantity("Deliv", d.Quantity),
			})
		}
		for _, sw := range vr.Switch {
			p.Switches = append(p.Switches, reconstruct.SwitchEvent{
				Position: sw.Position,
				From:     c.product("Switch", sw.From),
				To:       c.product("Switch", sw.To),
				Cost:     c.cost("Switch", sw.Cost),
			})
		}

		if c.err != nil {
			return nil, c.err
		}
		plans[vr.ID] = p
	}
	return plans, nil
}

// checker keeps the first reference error of one vehicle.
type checker struct {
	inst    *domain.Instance
	vehicle int
	err     error
}

func (c *checker) fail(field, format string, args ...any) {
	if c.err == nil {
		c.err = domain.Structural(field, "vehicle %d: %s", c.vehicle, fmt.Sprintf(format, args...))
	}
}

func (c *checker) node(field string, n domain.NodeRef, kind domain.NodeKind) domain.NodeRef {
	if n.Kind != kind {
		c.fail(field, "%s is not a %s", n, kind)
	} else if !c.inst.Contains(n) {
		c.fail(field, "unknown node %s", n)
	}
	return n
}

func (c *checker) arc(field string, a domain.Arc) domain.Arc {
	for _, n := range []domain.NodeRef{a.From, a.To} {
		if !c.inst.Contains(n) {
			c.fail(field, "arc %s references unknown node %s", a, n)
		}
	}
	return a
}

func (c *checker) product(field string, p int) domain.ProductID {
	id := domain.ProductID(p)
	if !c.inst.ValidProduct(id) {
		c.fail(field, "product %d outside 1..%d", p, c.inst.Products)
	}
	return id
}

func (c *checker) quantity(field string, q float64) float64 {
	if !finite(q) || q < 0 {
		c.fail(field, "quantity %v is not a finite non-negative number", q)
	}
	return q
}

func (c *checker) cost(field string, v *float64) *float64 {
	if v != nil && (!finite(*v) || *v < 0) {
		c.fail(field, "cost %v is not a finite non-negative number", *v)
	}
	return v
}

// checkReported rejects reported values that cannot be compared.
func checkReported(rec *Record) error {
	values := map[string]*float64{
		"Objective": rec.Objective,
		"Elapsed":   &rec.Elapsed,
	}
	if m := rec.Metrics; m != nil {
		values["Metrics.ChangeoverCost"] = m.ChangeoverCost
		values["Metrics.Distance"] = m.Distance
	}
	for _, field := range []string{"Objective", "Elapsed", "Metrics.ChangeoverCost", "Metrics.Distance"} {
		if v := values[field]; v != nil && !finite(*v) {
			return domain.Structural(field, "%v is not a finite number", *v)
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
