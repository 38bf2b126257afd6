package instancefile

import (
	"errors"
	"mpvrp-verify-service/internal/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalFile = `# 0b6e1a52-8f0e-4a0c-9a55-3d7f0c0f4f21
2 1 1 2 1

0 10
12 0
1 100 1 1
1 0 0 500 500
1 5 5
1 3 4 50 0
2 6 8 0 40
`

func TestParseCanonical(t *testing.T) {
	p, err := Parse(strings.NewReader(canonicalFile))
	require.NoError(t, err)

	inst := p.Instance
	assert.Equal(t, Canonical, p.Ordering)
	assert.Equal(t, "0b6e1a52-8f0e-4a0c-9a55-3d7f0c0f4f21", inst.RunID)
	assert.Equal(t, 2, inst.Products)
	assert.Equal(t, 12.0, inst.Cost(2, 1))
	require.Len(t, inst.Vehicles, 1)
	assert.Equal(t, domain.Vehicle{ID: 1, Capacity: 100, Garage: 1, InitialProduct: 1}, inst.Vehicles[0])
	assert.Equal(t, 500.0, inst.Stock(1, 2))
	assert.Equal(t, 40.0, inst.Demand(2, 2))
	assert.Equal(t, 0.0, inst.Demand(2, 1))

	pt, err := inst.Coord(domain.StationRef(1))
	require.NoError(t, err)
	assert.Equal(t, domain.Point{X: 3, Y: 4}, pt)
	assert.Empty(t, p.Warnings)
}

func TestParseLegacyHeaderOrdering(t *testing.T) {
	legacy := strings.Replace(canonicalFile, "2 1 1 2 1", "1 1 1 2 2", 1)

	p, err := Parse(strings.NewReader(legacy))
	require.NoError(t, err)
	assert.Equal(t, Legacy, p.Ordering)
	assert.Equal(t, 2, p.Instance.Products)
	assert.Len(t, p.Instance.Vehicles, 1)
	assert.Len(t, p.Instance.Stations, 2)
}

func TestParseBareIdentifierLine(t *testing.T) {
	bare := strings.Replace(canonicalFile, "# 0b6e1a52", "0b6e1a52", 1)

	p, err := Parse(strings.NewReader(bare))
	require.NoError(t, err)
	assert.Equal(t, "0b6e1a52-8f0e-4a0c-9a55-3d7f0c0f4f21", p.Instance.RunID)
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short header", "2 1 1\n"},
		{"missing station", strings.TrimSuffix(canonicalFile, "2 6 8 0 40\n")},
		{"bad number", strings.Replace(canonicalFile, "1 3 4 50 0", "1 3 4 fifty 0", 1)},
		{"zero capacity", strings.Replace(canonicalFile, "1 100 1 1", "1 0 1 1", 1)},
		{"negative demand", strings.Replace(canonicalFile, "1 3 4 50 0", "1 3 4 -50 0", 1)},
		{"NaN coordinate", strings.Replace(canonicalFile, "1 3 4 50 0", "1 NaN 4 50 0", 1)},
		{"infinite stock", strings.Replace(canonicalFile, "1 0 0 500 500", "1 0 0 +Inf 500", 1)},
		{"stock below demand", strings.Replace(canonicalFile, "1 0 0 500 500", "1 0 0 500 30", 1)},
		{"demand above fleet capacity", strings.Replace(canonicalFile, "1 3 4 50 0", "1 3 4 150 0", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			var se *domain.StructuralError
			assert.True(t, errors.As(err, &se), "want StructuralError, got %v", err)
		})
	}
}

func TestMatrixWarnings(t *testing.T) {
	inst, err := domain.NewInstance("m", 3,
		[][]float64{
			{0, 10, 1},
			{1, 2, 1},
			{1, 1, 0},
		},
		[]domain.Vehicle{{ID: 1, Capacity: 10, Garage: 1, InitialProduct: 1}},
		nil,
		[]domain.Garage{{ID: 1}},
		nil,
	)
	require.NoError(t, err)

	ws := MatrixWarnings(inst)
	require.Len(t, ws, 2)
	for _, w := range ws {
		assert.Equal(t, domain.MatrixWarning, w.Kind)
		assert.False(t, w.Kind.Blocking())
	}
	assert.Contains(t, ws[0].Message, "product 2 to itself")
	assert.Contains(t, ws[1].Message, "1->2 costs 10.00")
}

func TestCheckSupplyFields(t *testing.T) {
	short := strings.Replace(canonicalFile, "1 0 0 500 500", "1 0 0 500 30", 1)
	_, err := Parse(strings.NewReader(short))
	var se *domain.StructuralError
	require.True(t, errors.As(err, &se), "want StructuralError, got %v", err)
	assert.Equal(t, "depot.stock", se.Field)
	assert.Contains(t, se.Reason, "product 2")

	big := strings.Replace(canonicalFile, "1 3 4 50 0", "1 3 4 150 0", 1)
	_, err = Parse(strings.NewReader(big))
	require.True(t, errors.As(err, &se), "want StructuralError, got %v", err)
	assert.Equal(t, "station.demand", se.Field)
}

func TestParseInstanceWarnings(t *testing.T) {
	odd := strings.Replace(canonicalFile, "1 5 5", "1 -5 5", 1)
	odd = strings.Replace(odd, "2 6 8 0 40", "2 0.05 0 0 40", 1)

	p, err := Parse(strings.NewReader(odd))
	require.NoError(t, err)
	require.Len(t, p.Warnings, 2)
	for _, w := range p.Warnings {
		assert.Equal(t, domain.InstanceWarning, w.Kind)
		assert.False(t, w.Kind.Blocking())
	}
	assert.Equal(t, []string{"D1", "S2"}, p.Warnings[0].Entities)
	assert.Contains(t, p.Warnings[0].Message, "overlap")
	assert.Equal(t, []string{"G1"}, p.Warnings[1].Entities)
	assert.Contains(t, p.Warnings[1].Message, "negative coordinates")
}

func TestInstanceWarningsNoDemand(t *testing.T) {
	inst, err := domain.NewInstance("z", 1, [][]float64{{0}},
		[]domain.Vehicle{{ID: 1, Capacity: 10, Garage: 1, InitialProduct: 1}},
		[]domain.Depot{{ID: 1, Point: domain.Point{X: 1}, Stock: []float64{5}}},
		[]domain.Garage{{ID: 1}},
		[]domain.Station{{ID: 1, Point: domain.Point{X: 2}, Demand: []float64{0}}},
	)
	require.NoError(t, err)
	require.NoError(t, CheckSupply(inst))

	ws := InstanceWarnings(inst)
	require.Len(t, ws, 1)
	assert.Equal(t, "no station has any demand", ws[0].Message)
}
