package reconstruct

import (
	"mpvrp-verify-service/internal/domain"
	"sort"
)

type walker struct {
	plan     Plan
	arena    *arena
	visits   []domain.Visit
	loaded   []bool
	findings []domain.Violation
	active   domain.ProductID
}

// Walk rebuilds the route of one used vehicle from its plan. Gaps in the arc
// selection become ContinuityViolations and unused arcs OrphanArcWarnings;
// the walk never stops early, so every defect of the vehicle is reported.
func Walk(p Plan) (domain.Route, []domain.Violation) {
	w := &walker{plan: p, arena: newArena(p.Arcs), active: p.Vehicle.InitialProduct}
	home := domain.GarageRef(p.Vehicle.Garage)

	w.appendVisit(home)
	if p.Start.From != home {
		v := w.continuity(0, "start arc %s does not leave home garage %s", p.Start, home)
		*v = v.With(p.Start.From, home)
	}
	w.appendVisit(p.Start.To)

	loads := append([]LoadEvent(nil), p.Loads...)
	sort.SliceStable(loads, func(i, j int) bool { return loads[i].Position < loads[j].Position })

	switches := make(map[int]SwitchEvent, len(p.Switches))
	for _, s := range p.Switches {
		if _, dup := switches[s.Position]; dup {
			w.switchFinding("switch event %d->%d repeats position %d", s.From, s.To, s.Position)
			continue
		}
		switches[s.Position] = s
	}

	matched := make(map[int]bool, len(switches))
	for i, ld := range loads {
		if _, ok := switches[ld.Position]; ok {
			matched[ld.Position] = true
		}
		w.load(ld, switches)
		w.follow(loads[i+1:])
	}
	for _, s := range p.Switches {
		if !matched[s.Position] {
			w.switchFinding("switch event %d->%d at position %d matches no load", s.From, s.To, s.Position)
			matched[s.Position] = true
		}
	}

	w.finish(home)
	w.attachDeliveries()

	for _, pa := range w.arena.orphans() {
		w.findings = append(w.findings,
			domain.NewViolation(domain.OrphanArcWarning, p.Vehicle.ID, -1,
				"arc %s for product %d was never traversed", pa.Arc, pa.Product).WithArc(pa.Arc))
	}

	return domain.Route{VehicleID: p.Vehicle.ID, Visits: w.visits}, w.findings
}

func (w *walker) cur() domain.NodeRef { return w.visits[len(w.visits)-1].Node }

func (w *walker) appendVisit(n domain.NodeRef) {
	w.visits = append(w.visits, domain.Visit{Node: n, Product: w.active})
	w.loaded = append(w.loaded, false)
}

// switchFinding reports a switch event the walk cannot place on the route.
func (w *walker) switchFinding(format string, args ...any) {
	w.findings = append(w.findings, domain.NewViolation(domain.SwitchCostViolation, w.plan.Vehicle.ID, -1, format, args...))
}

func (w *walker) continuity(pos int, format string, args ...any) *domain.Violation {
	w.findings = append(w.findings, domain.NewViolation(domain.ContinuityViolation, w.plan.Vehicle.ID, pos, format, args...))
	return &w.findings[len(w.findings)-1]
}

// load positions the walk at the load's depot and applies any product change.
func (w *walker) load(ld LoadEvent, switches map[int]SwitchEvent) {
	sw, switched := switches[ld.Position]

	if w.cur() != ld.Depot {
		v := w.continuity(len(w.visits), "no arc from %s to depot %s for load %d", w.cur(), ld.Depot, ld.Position)
		*v = v.With(w.cur(), ld.Depot).WithArc(domain.Arc{From: w.cur(), To: ld.Depot})
		if switched {
			v.Message += "; product switch happens away from the depot"
		}
		w.appendVisit(ld.Depot)
	} else if w.loaded[len(w.visits)-1] {
		w.appendVisit(ld.Depot)
	}

	i := len(w.visits) - 1
	visit := &w.visits[i]
	w.loaded[i] = true
	visit.Load = ld.Quantity
	visit.Product = ld.Product

	switch {
	case switched:
		if sw.From != w.active || sw.To != ld.Product {
			w.findings = append(w.findings, domain.NewViolation(domain.SwitchCostViolation, w.plan.Vehicle.ID, i,
				"switch event %d->%d disagrees with carried product %d and loaded product %d", sw.From, sw.To, w.active, ld.Product).With(ld.Depot))
		}
		if sw.Cost != nil {
			visit.CostDelta = *sw.Cost
			visit.CostRecorded = true
		}
	case ld.Product != w.active:
		visit.CostRecorded = true
	}
	w.active = ld.Product
}

// follow walks arcs of the active product until a depot is reached or no
// outgoing arc is left. Leftover arcs that start at the depot of a later load
// of the same product belong to that load's mini-tour.
func (w *walker) follow(later []LoadEvent) {
	for {
		a, ok := w.arena.take(w.active, w.cur())
		if !ok {
			break
		}
		w.appendVisit(a.To)
		if a.To.Kind == domain.KindDepot {
			return
		}
	}

	pending := func(n domain.NodeRef) bool {
		for _, ld := range later {
			if ld.Product == w.active && ld.Depot == n {
				return true
			}
		}
		return false
	}
	if rest, ok := w.arena.firstLeft(w.active, pending); ok {
		missing := domain.Arc{From: w.cur(), To: rest.From}
		v := w.continuity(len(w.visits)-1, "no arc %s for product %d; arc %s is unreachable", missing, w.active, rest)
		*v = v.With(missing.From, missing.To).WithArc(rest)
	}
}

func (w *walker) finish(home domain.NodeRef) {
	end := w.plan.End
	if end.From != w.cur() {
		v := w.continuity(len(w.visits), "end arc %s does not leave the last node %s", end, w.cur())
		*v = v.With(w.cur(), end.From).WithArc(domain.Arc{From: w.cur(), To: end.From})
		w.appendVisit(end.From)
	}
	w.appendVisit(end.To)
}

// attachDeliveries credits each delivery to the first visit of its station
// that carries its product.
func (w *walker) attachDeliveries() {
	for _, d := range w.plan.Deliveries {
		at := -1
		for i, v := range w.visits {
			if v.Node == d.Station && v.Product == d.Product {
				at = i
				break
			}
		}
		if at < 0 {
			v := w.continuity(-1, "delivery of %.2f of product %d to %s is never reached by the route", d.Quantity, d.Product, d.Station)
			*v = v.With(d.Station)
			continue
		}
		w.visits[at].Delivered += d.Quantity
	}
}
