package services

import (
	"math"
	"mpvrp-verify-service/internal/domain"
)

// DefaultTolerance is the absolute slack for quantities, money and distance.
const DefaultTolerance = 0.01

type supplyKey struct {
	node    int
	product domain.ProductID
}

// Accumulators hold cross-vehicle totals. They are built from the complete
// route set after reconstruction has finished.
type Accumulators struct {
	Delivered map[supplyKey]float64
	Withdrawn map[supplyKey]float64
	// Stops counts station visits per (station, product), zero deliveries
	// included.
	Stops map[supplyKey]int
}

func Accumulate(routes []domain.Route) Accumulators {
	acc := Accumulators{
		Delivered: make(map[supplyKey]float64),
		Withdrawn: make(map[supplyKey]float64),
		Stops:     make(map[supplyKey]int),
	}
	for _, r := range routes {
		for _, v := range r.Visits {
			switch v.Node.Kind {
			case domain.KindStation:
				acc.Delivered[supplyKey{v.Node.ID, v.Product}] += v.Delivered
				acc.Stops[supplyKey{v.Node.ID, v.Product}]++
			case domain.KindDepot:
				acc.Withdrawn[supplyKey{v.Node.ID, v.Product}] += v.Load
			}
		}
	}
	return acc
}

// Validate runs every constraint check against the canonical routes. Checks
// are independent; all findings are returned.
func Validate(inst *domain.Instance, routes []domain.Route, tol float64) []domain.Violation {
	var out []domain.Violation
	for _, r := range routes {
		v, ok := inst.Vehicle(r.VehicleID)
		if !ok {
			continue
		}
		out = append(out, checkAnchoring(v, r)...)
		out = append(out, checkMiniTours(r, tol)...)
		out = append(out, checkCapacity(v, r, tol)...)
		out = append(out, checkSwitchCosts(inst, v, r, tol)...)
	}
	out = append(out, checkUniqueness(routes)...)

	acc := Accumulate(routes)
	out = append(out, checkDemand(inst, acc, tol)...)
	out = append(out, checkStock(inst, acc, tol)...)
	return out
}

func checkAnchoring(v domain.Vehicle, r domain.Route) []domain.Violation {
	if !r.Used() {
		return nil
	}
	var out []domain.Violation
	home := domain.GarageRef(v.Garage)
	last := len(r.Visits) - 1

	if first := r.Visits[0].Node; first != home {
		out = append(out, domain.NewViolation(domain.AnchoringViolation, v.ID, 0,
			"route starts at %s instead of home garage %s", first, home).With(first, home))
	}
	for i := 1; i < last; i++ {
		if n := r.Visits[i].Node; n.Kind == domain.KindGarage {
			out = append(out, domain.NewViolation(domain.AnchoringViolation, v.ID, i,
				"garage %s visited mid-route", n).With(n))
		}
	}
	if end := r.Visits[last].Node; end != home {
		out = append(out, domain.NewViolation(domain.AnchoringViolation, v.ID, last,
			"route ends at %s instead of home garage %s", end, home).With(end, home))
	}
	return out
}

// checkMiniTours covers product mix and mass conservation.
func checkMiniTours(r domain.Route, tol float64) []domain.Violation {
	var out []domain.Violation
	for _, mt := range r.MiniTours() {
		delivered := 0.0
		for _, i := range mt.Stops {
			s := r.Visits[i]
			delivered += s.Delivered
			if s.Product != mt.Product {
				v := domain.NewViolation(domain.ProductMixViolation, r.VehicleID, i,
					"station %s served product %d in a mini-tour carrying product %d", s.Node, s.Product, mt.Product).With(s.Node)
				if mt.Start >= 0 {
					v = v.With(mt.Depot)
				}
				out = append(out, v)
			}
		}

		if math.Abs(delivered-mt.Load) > tol {
			pos, what := mt.Start, "load at "+mt.Depot.String()
			if mt.Start < 0 {
				pos, what = mt.Stops[0], "no load before the first depot"
			}
			v := domain.NewViolation(domain.ConservationViolation, r.VehicleID, pos,
				"mini-tour delivers %.2f but has %s of %.2f", delivered, what, mt.Load).Values(mt.Load, delivered)
			if mt.Start >= 0 {
				v = v.With(mt.Depot)
			}
			out = append(out, v)
		}
	}
	return out
}

func checkCapacity(v domain.Vehicle, r domain.Route, tol float64) []domain.Violation {
	var out []domain.Violation
	for i, visit := range r.Visits {
		if visit.Node.Kind == domain.KindDepot && visit.Load > v.Capacity+tol {
			out = append(out, domain.NewViolation(domain.CapacityViolation, v.ID, i,
				"load %.2f at %s exceeds capacity %.2f", visit.Load, visit.Node, v.Capacity).
				With(visit.Node).Values(v.Capacity, visit.Load))
		}
	}
	return out
}

// checkSwitchCosts compares every recorded changeover charge with the
// matrix. The product carried before position 0 is the initial product.
func checkSwitchCosts(inst *domain.Instance, v domain.Vehicle, r domain.Route, tol float64) []domain.Violation {
	var out []domain.Violation
	prev := v.InitialProduct
	for i, visit := range r.Visits {
		changed := visit.Product != prev
		switch {
		case changed && visit.Node.Kind != domain.KindDepot:
			out = append(out, domain.NewViolation(domain.SwitchCostViolation, v.ID, i,
				"product changes from %d to %d at %s, away from any depot", prev, visit.Product, visit.Node).With(visit.Node))
		case changed && visit.CostRecorded:
			want := inst.Cost(prev, visit.Product)
			if math.Abs(visit.CostDelta-want) > tol {
				out = append(out, domain.NewViolation(domain.SwitchCostViolation, v.ID, i,
					"changeover %d->%d at %s recorded as %.2f, matrix says %.2f", prev, visit.Product, visit.Node, visit.CostDelta, want).
					With(visit.Node).Values(want, visit.CostDelta))
			}
		case !changed && visit.CostRecorded && math.Abs(visit.CostDelta) > tol:
			out = append(out, domain.NewViolation(domain.SwitchCostViolation, v.ID, i,
				"changeover cost %.2f recorded at %s without a product change", visit.CostDelta, visit.Node).
				With(visit.Node).Values(0, visit.CostDelta))
		}
		prev = visit.Product
	}
	return out
}

func checkUniqueness(routes []domain.Route) []domain.Violation {
	type key struct {
		vehicle int
		station int
		product domain.ProductID
	}

	var out []domain.Violation
	first := make(map[key]int)
	for _, r := range routes {
		for i, v := range r.Visits {
			if v.Node.Kind != domain.KindStation {
				continue
			}
			k := key{r.VehicleID, v.Node.ID, v.Product}
			if at, ok := first[k]; ok {
				out = append(out, domain.NewViolation(domain.UniquenessViolation, r.VehicleID, i,
					"station %s already served product %d by this vehicle at position %d", v.Node, v.Product, at).With(v.Node))
				continue
			}
			first[k] = i
		}
	}
	return out
}

func checkDemand(inst *domain.Instance, acc Accumulators, tol float64) []domain.Violation {
	var out []domain.Violation
	for _, s := range inst.Stations {
		for p := 1; p <= inst.Products; p++ {
			pid := domain.ProductID(p)
			k := supplyKey{s.ID, pid}
			want := inst.Demand(s.ID, pid)
			got := acc.Delivered[k]
			if want == 0 {
				// A stop for a pair without demand is a finding even when nothing was delivered.
				if n := acc.Stops[k]; n > 0 {
					out = append(out, domain.NewViolation(domain.DemandViolation, 0, -1,
						"station S%d product %d has no demand but was served %d time(s), delivered %.2f", s.ID, p, n, got).
						With(domain.StationRef(s.ID)).Values(want, got))
				}
				continue
			}
			if math.Abs(got-want) > tol {
				out = append(out, domain.NewViolation(domain.DemandViolation, 0, -1,
					"station S%d product %d: demand %.2f, delivered %.2f", s.ID, p, want, got).
					With(domain.StationRef(s.ID)).Values(want, got))
			}
		}
	}
	return out
}

func checkStock(inst *domain.Instance, acc Accumulators, tol float64) []domain.Violation {
	var out []domain.Violation
	for _, d := range inst.Depots {
		for p := 1; p <= inst.Products; p++ {
			pid := domain.ProductID(p)
			stock := inst.Stock(d.ID, pid)
			loaded := acc.Withdrawn[supplyKey{d.ID, pid}]
			if loaded > stock+tol {
				out = append(out, domain.NewViolation(domain.StockViolation, 0, -1,
					"depot D%d product %d: stock %.2f, withdrawn %.2f", d.ID, p, stock, loaded).
					With(domain.DepotRef(d.ID)).Values(stock, loaded))
			}
		}
	}
	return out
}
