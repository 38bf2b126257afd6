// Package reconstruct stitches per-vehicle arc selections back into ordered
// routes.
package reconstruct

import "mpvrp-verify-service/internal/domain"

// ProductArc is an arc selected for one product.
type ProductArc struct {
	Product domain.ProductID
	Arc     domain.Arc
}

// LoadEvent is a depot withdrawal. Position orders loads within a route.
type LoadEvent struct {
	Depot    domain.NodeRef
	Position int
	Product  domain.ProductID
	Quantity float64
}

type DeliveryEvent struct {
	Station  domain.NodeRef
	Product  domain.ProductID
	Quantity float64
}

// SwitchEvent is a product change at the load with the same Position. Cost
// is the changeover cost the solver charged, when it said so.
type SwitchEvent struct {
	Position int
	From     domain.ProductID
	To       domain.ProductID
	Cost     *float64
}

// Plan is everything a solver selected for one used vehicle.
type Plan struct {
	Vehicle    domain.Vehicle
	Start      domain.Arc
	Arcs       []ProductArc
	Loads      []LoadEvent
	Deliveries []DeliveryEvent
	Switches   []SwitchEvent
	End        domain.Arc
}
