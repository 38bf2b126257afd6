package instancefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"mpvrp-verify-service/internal/domain"
	"os"
	"strconv"
	"strings"
)

// Ordering names how the five counts on the header line are arranged.
type Ordering string

const (
	// Canonical header: products depots garages stations vehicles.
	Canonical Ordering = "canonical"
	// Legacy header: vehicles depots garages stations products.
	Legacy Ordering = "legacy"
)

// Orderings in the order they are tried.
var Orderings = []Ordering{Canonical, Legacy}

type counts struct {
	products, depots, garages, stations, vehicles int
}

func (o Ordering) counts(h [5]int) counts {
	if o == Legacy {
		return counts{products: h[4], depots: h[1], garages: h[2], stations: h[3], vehicles: h[0]}
	}
	return counts{products: h[0], depots: h[1], garages: h[2], stations: h[3], vehicles: h[4]}
}

// Parsed is the outcome of reading an instance file.
type Parsed struct {
	Instance *domain.Instance
	Ordering Ordering
	// Warnings are advisory findings about the changeover matrix and the
	// instance layout.
	Warnings []domain.Violation
}

type line struct {
	no     int
	fields []string
}

// ParseFile opens path and parses it as an instance file.
func ParseFile(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse instance: open %q: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads an instance file. Every supported header ordering is tried
// against the whole file and the first one that yields a consistent instance
// wins.
func Parse(r io.Reader) (*Parsed, error) {
	runID, lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.Structural("header", "instance file is empty")
	}

	head := lines[0]
	if len(head.fields) != 5 {
		return nil, domain.StructuralAt(head.no, "header", "expected 5 counts, got %d", len(head.fields))
	}
	var h [5]int
	for i, tok := range head.fields {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return nil, domain.StructuralAt(head.no, "header", "count %q is not a non-negative integer", tok)
		}
		h[i] = n
	}

	var first error
	for _, o := range Orderings {
		inst, err := parseBody(runID, o.counts(h), lines[1:])
		if err == nil {
			if err := CheckSupply(inst); err != nil {
				return nil, err
			}
			warnings := append(MatrixWarnings(inst), InstanceWarnings(inst)...)
			return &Parsed{Instance: inst, Ordering: o, Warnings: warnings}, nil
		}
		var se *domain.StructuralError
		if !errors.As(err, &se) {
			return nil, err
		}
		if first == nil {
			first = err
		}
	}
	return nil, first
}

func readLines(r io.Reader) (string, []line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		runID string
		out   []line
		no    int
	)
	for sc.Scan() {
		no++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if runID == "" && len(out) == 0 {
				runID = strings.TrimSpace(strings.TrimPrefix(text, "#"))
			}
			continue
		}
		fields := strings.Fields(text)
		// A lone token ahead of the header is the instance identifier.
		if len(out) == 0 && runID == "" && len(fields) == 1 {
			runID = fields[0]
			continue
		}
		out = append(out, line{no: no, fields: fields})
	}
	if err := sc.Err(); err != nil {
		return "", nil, fmt.Errorf("parse instance: read: %w", err)
	}
	return runID, out, nil
}

func parseBody(runID string, c counts, lines []line) (*domain.Instance, error) {
	want := c.products + c.vehicles + c.depots + c.garages + c.stations
	if len(lines) != want {
		return nil, domain.Structural("body", "expected %d data lines, got %d", want, len(lines))
	}

	next := 0
	take := func() line {
		l := lines[next]
		next++
		return l
	}

	matrix := make([][]float64, c.products)
	for i := range matrix {
		l := take()
		row, err := floats(l, "change_cost", l.fields, c.products)
		if err != nil {
			return nil, err
		}
		matrix[i] = row
	}

	vehicles := make([]domain.Vehicle, 0, c.vehicles)
	for i := 0; i < c.vehicles; i++ {
		l := take()
		if len(l.fields) != 4 {
			return nil, domain.StructuralAt(l.no, "vehicle", "expected 4 fields, got %d", len(l.fields))
		}
		id, err := integer(l, "vehicle.id", l.fields[0])
		if err != nil {
			return nil, err
		}
		capacity, err := number(l, "vehicle.capacity", l.fields[1])
		if err != nil {
			return nil, err
		}
		garage, err := integer(l, "vehicle.garage", l.fields[2])
		if err != nil {
			return nil, err
		}
		initial, err := integer(l, "vehicle.initial_product", l.fields[3])
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, domain.Vehicle{
			ID:             id,
			Capacity:       capacity,
			Garage:         garage,
			InitialProduct: domain.ProductID(initial),
		})
	}

	depots := make([]domain.Depot, 0, c.depots)
	for i := 0; i < c.depots; i++ {
		l := take()
		id, pt, stock, err := located(l, "depot", c.products)
		if err != nil {
			return nil, err
		}
		depots = append(depots, domain.Depot{ID: id, Point: pt, Stock: stock})
	}

	garages := make([]domain.Garage, 0, c.garages)
	for i := 0; i < c.garages; i++ {
		l := take()
		id, pt, _, err := located(l, "garage", 0)
		if err != nil {
			return nil, err
		}
		garages = append(garages, domain.Garage{ID: id, Point: pt})
	}

	stations := make([]domain.Station, 0, c.stations)
	for i := 0; i < c.stations; i++ {
		l := take()
		id, pt, demand, err := located(l, "station", c.products)
		if err != nil {
			return nil, err
		}
		stations = append(stations, domain.Station{ID: id, Point: pt, Demand: demand})
	}

	return domain.NewInstance(runID, c.products, matrix, vehicles, depots, garages, stations)
}

// located parses "id x y q1..qn" rows.
func located(l line, kind string, quantities int) (int, domain.Point, []float64, error) {
	if len(l.fields) != 3+quantities {
		return 0, domain.Point{}, nil, domain.StructuralAt(l.no, kind, "expected %d fields, got %d", 3+quantities, len(l.fields))
	}
	id, err := integer(l, kind+".id", l.fields[0])
	if err != nil {
		return 0, domain.Point{}, nil, err
	}
	x, err := number(l, kind+".x", l.fields[1])
	if err != nil {
		return 0, domain.Point{}, nil, err
	}
	y, err := number(l, kind+".y", l.fields[2])
	if err != nil {
		return 0, domain.Point{}, nil, err
	}
	qs, err := floats(l, kind, l.fields[3:], quantities)
	if err != nil {
		return 0, domain.Point{}, nil, err
	}
	return id, domain.Point{X: x, Y: y}, qs, nil
}

func floats(l line, field string, toks []string, n int) ([]float64, error) {
	if len(toks) != n {
		return nil, domain.StructuralAt(l.no, field, "expected %d values, got %d", n, len(toks))
	}
	out := make([]float64, n)
	for i, tok := range toks {
		v, err := number(l, field, tok)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func number(l line, field, tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, domain.StructuralAt(l.no, field, "%q is not a number", tok)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.StructuralAt(l.no, field, "%q is not a finite number", tok)
	}
	return v, nil
}

func integer(l line, field, tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, domain.StructuralAt(l.no, field, "%q is not an integer", tok)
	}
	return v, nil
}
