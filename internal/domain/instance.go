package domain

import (
	"fmt"
	"math"
)

// ProductID is 1-based in the canonical model.
type ProductID int

type Vehicle struct {
	ID             int
	Capacity       float64
	Garage         int
	InitialProduct ProductID
}

// Depot stock is indexed by product-1.
type Depot struct {
	ID    int
	Point Point
	Stock []float64
}

type Garage struct {
	ID    int
	Point Point
}

// Station demand is indexed by product-1 and may be 0 for some products.
type Station struct {
	ID     int
	Point  Point
	Demand []float64
}

// Instance is the immutable problem description a solution is checked against.
type Instance struct {
	RunID      string
	Products   int
	ChangeCost [][]float64
	Vehicles   []Vehicle
	Depots     []Depot
	Garages    []Garage
	Stations   []Station

	vehicleIdx map[int]int
}

// NewInstance validates the parsed entities and returns an Instance.
// Entities are stored sorted by id, and ids must be exactly 1..n per kind
// so node references can be range checked.
func NewInstance(
	runID string,
	products int,
	changeCost [][]float64,
	vehicles []Vehicle,
	depots []Depot,
	garages []Garage,
	stations []Station,
) (*Instance, error) {
	if products <= 0 {
		return nil, Structural("products", "count must be positive, got %d", products)
	}

	if len(changeCost) != products {
		return nil, Structural("change_cost", "expected %d rows, got %d", products, len(changeCost))
	}
	for i, row := range changeCost {
		if len(row) != products {
			return nil, Structural("change_cost", "row %d has %d columns, want %d", i+1, len(row), products)
		}
		for j, c := range row {
			if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, Structural("change_cost", "entry (%d,%d) must be a finite non-negative number, got %v", i+1, j+1, c)
			}
		}
	}

	inst := &Instance{
		RunID:      runID,
		Products:   products,
		ChangeCost: changeCost,
		Vehicles:   make([]Vehicle, len(vehicles)),
		Depots:     make([]Depot, len(depots)),
		Garages:    make([]Garage, len(garages)),
		Stations:   make([]Station, len(stations)),
		vehicleIdx: make(map[int]int, len(vehicles)),
	}

	for _, g := range garages {
		if err := placeID("garage", g.ID, len(garages), func() bool { return inst.Garages[g.ID-1].ID != 0 }); err != nil {
			return nil, err
		}
		if err := checkPoint("garage", g.ID, g.Point); err != nil {
			return nil, err
		}
		inst.Garages[g.ID-1] = g
	}

	for _, d := range depots {
		if err := placeID("depot", d.ID, len(depots), func() bool { return inst.Depots[d.ID-1].ID != 0 }); err != nil {
			return nil, err
		}
		if err := checkPoint("depot", d.ID, d.Point); err != nil {
			return nil, err
		}
		if err := checkQuantities("depot.stock", d.ID, d.Stock, products); err != nil {
			return nil, err
		}
		inst.Depots[d.ID-1] = d
	}

	for _, s := range stations {
		if err := placeID("station", s.ID, len(stations), func() bool { return inst.Stations[s.ID-1].ID != 0 }); err != nil {
			return nil, err
		}
		if err := checkPoint("station", s.ID, s.Point); err != nil {
			return nil, err
		}
		if err := checkQuantities("station.demand", s.ID, s.Demand, products); err != nil {
			return nil, err
		}
		inst.Stations[s.ID-1] = s
	}

	for _, v := range vehicles {
		if err := placeID("vehicle", v.ID, len(vehicles), func() bool { return inst.Vehicles[v.ID-1].ID != 0 }); err != nil {
			return nil, err
		}
		if !(v.Capacity > 0) || math.IsInf(v.Capacity, 0) {
			return nil, Structural("vehicle.capacity", "vehicle %d capacity must be positive, got %v", v.ID, v.Capacity)
		}
		if v.Garage < 1 || v.Garage > len(garages) {
			return nil, Structural("vehicle.garage", "vehicle %d references unknown garage %d", v.ID, v.Garage)
		}
		if v.InitialProduct < 1 || int(v.InitialProduct) > products {
			return nil, Structural("vehicle.initial_product", "vehicle %d initial product %d outside 1..%d", v.ID, v.InitialProduct, products)
		}
		inst.Vehicles[v.ID-1] = v
		inst.vehicleIdx[v.ID] = v.ID - 1
	}

	return inst, nil
}

// placeID rejects ids outside 1..n and duplicates within one kind.
func placeID(kind string, id, n int, taken func() bool) error {
	if id < 1 || id > n {
		return Structural(kind+".id", "%s id %d outside 1..%d", kind, id, n)
	}
	if taken() {
		return Structural(kind+".id", "duplicate %s id %d", kind, id)
	}
	return nil
}

func checkPoint(kind string, id int, p Point) error {
	if !p.Finite() {
		return Structural(kind+".coordinates", "%s %d has non-finite coordinates (%v, %v)", kind, id, p.X, p.Y)
	}
	return nil
}

func checkQuantities(field string, id int, qs []float64, products int) error {
	if len(qs) != products {
		return Structural(field, "entity %d has %d values, want %d", id, len(qs), products)
	}
	for p, q := range qs {
		if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
			return Structural(field, "entity %d product %d must be a finite non-negative number, got %v", id, p+1, q)
		}
	}
	return nil
}

// Vehicle looks up a vehicle by id.
func (in *Instance) Vehicle(id int) (Vehicle, bool) {
	i, ok := in.vehicleIdx[id]
	if !ok {
		return Vehicle{}, false
	}
	return in.Vehicles[i], true
}

// Count returns how many entities of a kind the instance declares.
func (in *Instance) Count(kind NodeKind) int {
	switch kind {
	case KindGarage:
		return len(in.Garages)
	case KindDepot:
		return len(in.Depots)
	case KindStation:
		return len(in.Stations)
	default:
		return 0
	}
}

// Contains reports whether ref names an entity of this instance.
func (in *Instance) Contains(ref NodeRef) bool {
	return ref.ID >= 1 && ref.ID <= in.Count(ref.Kind)
}

// Coord returns the coordinates of a node.
func (in *Instance) Coord(ref NodeRef) (Point, error) {
	if !in.Contains(ref) {
		return Point{}, fmt.Errorf("coord: unknown node %s", ref)
	}
	switch ref.Kind {
	case KindGarage:
		return in.Garages[ref.ID-1].Point, nil
	case KindDepot:
		return in.Depots[ref.ID-1].Point, nil
	default:
		return in.Stations[ref.ID-1].Point, nil
	}
}

func (in *Instance) ValidProduct(p ProductID) bool { return p >= 1 && int(p) <= in.Products }

// Cost returns the changeover cost from one product to another.
func (in *Instance) Cost(from, to ProductID) float64 {
	if !in.ValidProduct(from) || !in.ValidProduct(to) {
		return 0
	}
	return in.ChangeCost[from-1][to-1]
}

func (in *Instance) Stock(depot int, p ProductID) float64 {
	if depot < 1 || depot > len(in.Depots) || !in.ValidProduct(p) {
		return 0
	}
	return in.Depots[depot-1].Stock[p-1]
}

func (in *Instance) Demand(station int, p ProductID) float64 {
	if station < 1 || station > len(in.Stations) || !in.ValidProduct(p) {
		return 0
	}
	return in.Stations[station-1].Demand[p-1]
}
