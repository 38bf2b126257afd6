package orderedpath

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"mpvrp-verify-service/internal/domain"
	"strconv"
	"strings"
)

const FormatName = "ordered"

// metricsLines is the size of the trailing metrics block; one more line may
// carry a reported grand total.
const metricsLines = 6

// Convention is how bare integer node ids in a route line are read.
type Convention string

const (
	// Direct ids are local to the kind given by the token's annotation.
	Direct Convention = "direct"
	// Legacy ids are offsets: garages first, then depots, then stations.
	Legacy Convention = "legacy"
)

var Conventions = []Convention{Direct, Legacy}

// Source reads the ordered-path encoding: per vehicle a route line and an
// aligned product/cumulative-cost line, followed by a metrics block.
type Source struct {
	data []byte

	// Convention is set by Decode once the node-id convention has been detected.
	Convention Convention
}

func New(data []byte) *Source { return &Source{data: data} }

func (s *Source) Format() string { return FormatName }

type vehicleLines struct {
	id      int
	routeNo int
	route   []rawNode
	costNo  int
	costs   []costToken
}

func (s *Source) Decode(ctx context.Context, inst *domain.Instance) (*domain.DecodedSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks, metrics, err := s.split()
	if err != nil {
		return nil, err
	}

	var routes map[int]domain.Route
	var first error
	for _, conv := range Conventions {
		routes, err = resolveAll(inst, conv, blocks)
		if err == nil {
			s.Convention = conv
			break
		}
		var se *domain.StructuralError
		if !errors.As(err, &se) {
			return nil, err
		}
		if first == nil {
			first = err
		}
	}
	if routes == nil {
		return nil, first
	}

	out := &domain.DecodedSolution{Routes: make([]domain.Route, 0, len(inst.Vehicles))}
	for _, v := range inst.Vehicles {
		if r, ok := routes[v.ID]; ok {
			out.Routes = append(out.Routes, r)
		} else {
			out.Routes = append(out.Routes, domain.UnusedRoute(v))
		}
	}

	if err := decodeMetrics(metrics, out); err != nil {
		return nil, err
	}
	return out, nil
}

type numbered struct {
	no   int
	text string
}

// split separates vehicle line pairs from the trailing metrics block. A
// line opens a vehicle when it carries a "<id>:" prefix or a "-" separator;
// the first line with neither starts the metrics.
func (s *Source) split() ([]vehicleLines, []numbered, error) {
	sc := bufio.NewScanner(bytes.NewReader(s.data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var lines []numbered
	no := 0
	for sc.Scan() {
		no++
		if t := strings.TrimSpace(sc.Text()); t != "" {
			lines = append(lines, numbered{no: no, text: t})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("decode ordered path: read: %w", err)
	}

	var blocks []vehicleLines
	seen := make(map[int]bool)
	i := 0
	for i < len(lines) {
		l := lines[i]
		id, body, explicit := splitPrefix(l.text)
		if !explicit && !strings.Contains(l.text, "-") {
			break
		}
		if !explicit {
			id = len(blocks) + 1
		}
		if seen[id] {
			return nil, nil, domain.StructuralAt(l.no, "vehicle", "vehicle %d listed twice", id)
		}
		seen[id] = true

		route, err := parseRouteLine(l.no, body)
		if err != nil {
			return nil, nil, err
		}
		if i+1 >= len(lines) {
			return nil, nil, domain.StructuralAt(l.no, "costs", "vehicle %d has no product/cost line", id)
		}

		c := lines[i+1]
		costID, costBody, hasID := splitPrefix(c.text)
		if hasID && costID != id {
			return nil, nil, domain.StructuralAt(c.no, "costs", "cost line belongs to vehicle %d, route line to vehicle %d", costID, id)
		}
		costs, err := parseCostLine(c.no, costBody)
		if err != nil {
			return nil, nil, err
		}
		if len(costs) != len(route) {
			return nil, nil, domain.StructuralAt(c.no, "costs", "vehicle %d: route has %d nodes but cost line has %d entries", id, len(route), len(costs))
		}
		for k := 1; k < len(costs); k++ {
			if costs[k].cumulative < costs[k-1].cumulative {
				return nil, nil, domain.StructuralAt(c.no, "costs", "vehicle %d: cumulative cost decreases at position %d", id, k)
			}
		}

		blocks = append(blocks, vehicleLines{
			id: id, routeNo: l.no, route: route,
			costNo: c.no, costs: costs,
		})
		i += 2
	}
	return blocks, lines[i:], nil
}

func resolveAll(inst *domain.Instance, conv Convention, blocks []vehicleLines) (map[int]domain.Route, error) {
	out := make(map[int]domain.Route, len(blocks))
	for _, b := range blocks {
		if _, ok := inst.Vehicle(b.id); !ok {
			return nil, domain.StructuralAt(b.routeNo, "vehicle", "unknown vehicle %d", b.id)
		}

		r := domain.Route{VehicleID: b.id, Visits: make([]domain.Visit, len(b.route))}
		for i, n := range b.route {
			ref, err := resolve(inst, conv, n, i == 0 || i == len(b.route)-1)
			if err != nil {
				return nil, domain.StructuralAt(b.routeNo, "route", "vehicle %d position %d: %v", b.id, i, err)
			}

			c := b.costs[i]
			p := domain.ProductID(c.product + 1)
			if !inst.ValidProduct(p) {
				return nil, domain.StructuralAt(b.costNo, "costs", "vehicle %d position %d: product %d outside 0..%d", b.id, i, c.product, inst.Products-1)
			}

			delta := c.cumulative
			if i > 0 {
				delta -= b.costs[i-1].cumulative
			}

			v := domain.Visit{Node: ref, Product: p, CostDelta: delta, CostRecorded: true}
			switch n.mark {
			case loadMark:
				v.Load = n.qty
			case deliveryMark:
				v.Delivered = n.qty
			}
			r.Visits[i] = v
		}
		out[b.id] = r
	}
	return out, nil
}

func resolve(inst *domain.Instance, conv Convention, n rawNode, endpoint bool) (domain.NodeRef, error) {
	var ref domain.NodeRef
	switch {
	case n.typed:
		ref = n.ref
	case conv == Legacy:
		ref = fromOffset(inst, n.num)
	default:
		switch n.mark {
		case loadMark:
			ref = domain.DepotRef(n.num)
		case deliveryMark:
			ref = domain.StationRef(n.num)
		default:
			ref = domain.GarageRef(n.num)
		}
	}

	if !inst.Contains(ref) {
		return ref, fmt.Errorf("%q resolves to unknown node %s", n.text, ref)
	}
	if n.mark == loadMark && ref.Kind != domain.KindDepot {
		return ref, fmt.Errorf("%q carries a load but resolves to %s", n.text, ref)
	}
	if n.mark == deliveryMark && ref.Kind != domain.KindStation {
		return ref, fmt.Errorf("%q carries a delivery but resolves to %s", n.text, ref)
	}
	if endpoint && !n.typed && ref.Kind != domain.KindGarage {
		return ref, fmt.Errorf("route endpoint %q resolves to %s, not a garage", n.text, ref)
	}
	return ref, nil
}

func fromOffset(inst *domain.Instance, num int) domain.NodeRef {
	g, d := len(inst.Garages), len(inst.Depots)
	switch {
	case num <= g:
		return domain.GarageRef(num)
	case num <= g+d:
		return domain.DepotRef(num - g)
	default:
		return domain.StationRef(num - g - d)
	}
}

// decodeMetrics reads vehicles used, product changes, changeover cost,
// distance, provenance, elapsed seconds and an optional grand total.
func decodeMetrics(lines []numbered, out *domain.DecodedSolution) error {
	if len(lines) < metricsLines {
		at := 0
		if len(lines) > 0 {
			at = lines[len(lines)-1].no
		}
		return domain.StructuralAt(at, "metrics", "metrics block has %d lines, want %d", len(lines), metricsLines)
	}
	if len(lines) > metricsLines+1 {
		extra := lines[metricsLines+1]
		return domain.StructuralAt(extra.no, "metrics", "unexpected line %q after metrics block", extra.text)
	}

	ints := []**int{&out.Reported.VehiclesUsed, &out.Reported.ProductChanges}
	floats := map[int]**float64{
		2: &out.Reported.ChangeoverCost,
		3: &out.Reported.Distance,
		6: &out.Reported.TotalCost,
	}

	for i, l := range lines {
		switch i {
		case 0, 1:
			n, err := strconv.Atoi(l.text)
			if err != nil {
				return domain.StructuralAt(l.no, "metrics", "%q is not an integer", l.text)
			}
			*ints[i] = domain.IntPtr(n)
		case 4:
			out.Provenance.Solver = l.text
		case 5:
			f, err := strconv.ParseFloat(l.text, 64)
			if err != nil || !finite(f) {
				return domain.StructuralAt(l.no, "metrics", "elapsed time %q is not a number", l.text)
			}
			out.Provenance.Elapsed = f
		default:
			f, err := strconv.ParseFloat(l.text, 64)
			if err != nil || !finite(f) {
				return domain.StructuralAt(l.no, "metrics", "%q is not a finite number", l.text)
			}
			*floats[i] = domain.FloatPtr(f)
		}
	}
	return nil
}
