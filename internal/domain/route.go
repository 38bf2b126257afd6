package domain

// Visit is one position of a canonical route.
//
// Product is the product carried when leaving the node, after any changeover
// charged here. Load is set on depot visits, Delivered on station visits.
// CostDelta is the changeover cost the input claims was charged at this
// position; CostRecorded is false when the input made no such claim.
type Visit struct {
	Node         NodeRef
	Product      ProductID
	Load         float64
	Delivered    float64
	CostDelta    float64
	CostRecorded bool
}

// Route is the canonical ordered path of one vehicle. A used route starts and
// ends at the vehicle's home garage; an unused one is the garage alone.
type Route struct {
	VehicleID int
	Visits    []Visit
}

func UnusedRoute(v Vehicle) Route {
	return Route{
		VehicleID: v.ID,
		Visits:    []Visit{{Node: GarageRef(v.Garage), Product: v.InitialProduct}},
	}
}

func (r Route) Used() bool { return len(r.Visits) > 1 }

// Nodes returns the node sequence of the route.
func (r Route) Nodes() []NodeRef {
	out := make([]NodeRef, len(r.Visits))
	for i, v := range r.Visits {
		out[i] = v.Node
	}
	return out
}

// MiniTour is the span between two consecutive depot visits. Start is the
// index of the originating depot visit, or -1 for the leading span before the
// first depot.
type MiniTour struct {
	Start   int
	Depot   NodeRef
	Product ProductID
	Load    float64
	// Stops holds indices of the station visits of this mini-tour.
	Stops []int
}

// MiniTours splits the route at depot visits.
func (r Route) MiniTours() []MiniTour {
	if len(r.Visits) == 0 {
		return nil
	}

	tours := []MiniTour{{Start: -1, Product: r.Visits[0].Product}}
	for i, v := range r.Visits {
		switch v.Node.Kind {
		case KindDepot:
			tours = append(tours, MiniTour{Start: i, Depot: v.Node, Product: v.Product, Load: v.Load})
		case KindStation:
			cur := &tours[len(tours)-1]
			cur.Stops = append(cur.Stops, i)
		}
	}

	if len(tours[0].Stops) == 0 {
		tours = tours[1:]
	}
	return tours
}
