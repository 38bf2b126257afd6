package ports

import (
	"context"
	"mpvrp-verify-service/internal/domain"
)

// Contract for retrieving the travel distance between two nodes.
type DistanceProvider interface {
	// Return the distance from origin to destination.
	GetDistance(ctx context.Context, origin, destination domain.NodeRef) (float64, error)
}
