package instancefile

import "mpvrp-verify-service/internal/domain"

// minSeparation is the distance below which two sites are reported as
// overlapping.
const minSeparation = 0.1

// CheckSupply rejects instances no solution can satisfy: a product whose
// total demand exceeds its total stock, or a single station demand larger
// than the combined capacity of the fleet.
func CheckSupply(inst *domain.Instance) error {
	for p := 1; p <= inst.Products; p++ {
		pid := domain.ProductID(p)
		var stock, demand float64
		for _, d := range inst.Depots {
			stock += inst.Stock(d.ID, pid)
		}
		for _, s := range inst.Stations {
			demand += inst.Demand(s.ID, pid)
		}
		if stock < demand {
			return domain.Structural("depot.stock",
				"product %d: total stock %.2f is below total demand %.2f", p, stock, demand)
		}
	}

	var fleet float64
	for _, v := range inst.Vehicles {
		fleet += v.Capacity
	}
	for _, s := range inst.Stations {
		for p := 1; p <= inst.Products; p++ {
			if want := inst.Demand(s.ID, domain.ProductID(p)); want > fleet {
				return domain.Structural("station.demand",
					"station S%d product %d: demand %.2f exceeds fleet capacity %.2f", s.ID, p, want, fleet)
			}
		}
	}
	return nil
}

type site struct {
	ref domain.NodeRef
	pt  domain.Point
}

// InstanceWarnings reports advisory findings about the instance layout:
// sites closer than minSeparation, negative coordinates, and an instance
// without any demand.
func InstanceWarnings(inst *domain.Instance) []domain.Violation {
	var sites []site
	for _, d := range inst.Depots {
		sites = append(sites, site{domain.DepotRef(d.ID), d.Point})
	}
	for _, g := range inst.Garages {
		sites = append(sites, site{domain.GarageRef(g.ID), g.Point})
	}
	for _, s := range inst.Stations {
		sites = append(sites, site{domain.StationRef(s.ID), s.Point})
	}

	var out []domain.Violation
	for i, a := range sites {
		for _, b := range sites[i+1:] {
			if d := a.pt.DistanceTo(b.pt); d < minSeparation {
				out = append(out, domain.NewViolation(domain.InstanceWarning, 0, -1,
					"%s and %s overlap (distance %.3f)", a.ref, b.ref, d).With(a.ref, b.ref))
			}
		}
	}
	for _, s := range sites {
		if s.pt.X < 0 || s.pt.Y < 0 {
			out = append(out, domain.NewViolation(domain.InstanceWarning, 0, -1,
				"%s has negative coordinates (%g, %g)", s.ref, s.pt.X, s.pt.Y).With(s.ref))
		}
	}

	var total float64
	for _, s := range inst.Stations {
		for _, q := range s.Demand {
			total += q
		}
	}
	if len(inst.Stations) > 0 && total == 0 {
		out = append(out, domain.NewViolation(domain.InstanceWarning, 0, -1, "no station has any demand"))
	}
	return out
}
