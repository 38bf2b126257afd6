package ports

import (
	"context"
	"mpvrp-verify-service/internal/domain"
)

// Optional extension of DistanceProvider that supports batched lookups.
type DistanceMatrixProvider interface {
	DistanceProvider
	// Return distances from one origin to many destinations.
	GetDistances(ctx context.Context, origin domain.NodeRef, destinations []domain.NodeRef) (map[domain.NodeRef]float64, error)
}
