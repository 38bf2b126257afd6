package distance

import (
	"context"
	"fmt"
	"mpvrp-verify-service/internal/domain"
)

// EuclideanDistanceProvider measures straight-line distances between the
// coordinates an instance declares.
type EuclideanDistanceProvider struct {
	inst *domain.Instance
}

func NewEuclideanDistanceProvider(inst *domain.Instance) *EuclideanDistanceProvider {
	return &EuclideanDistanceProvider{inst: inst}
}

func (p *EuclideanDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.NodeRef) (float64, error) {
	a, err := p.inst.Coord(origin)
	if err != nil {
		return 0, fmt.Errorf("euclidean distance: %w", err)
	}
	b, err := p.inst.Coord(destination)
	if err != nil {
		return 0, fmt.Errorf("euclidean distance: %w", err)
	}
	return a.DistanceTo(b), nil
}

// GetDistances resolves the origin once and measures every destination from it.
func (p *EuclideanDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.NodeRef,
	destinations []domain.NodeRef,
) (map[domain.NodeRef]float64, error) {
	a, err := p.inst.Coord(origin)
	if err != nil {
		return nil, fmt.Errorf("euclidean distances: %w", err)
	}

	out := make(map[domain.NodeRef]float64, len(destinations))
	for _, d := range destinations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := p.inst.Coord(d)
		if err != nil {
			return nil, fmt.Errorf("euclidean distances: %w", err)
		}
		out[d] = a.DistanceTo(b)
	}
	return out, nil
}
