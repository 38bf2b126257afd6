package ports

import (
	"context"
	"mpvrp-verify-service/internal/domain"
)

// Port: a solution encoding that can be normalized into canonical routes.
//
// Implementations return a *domain.StructuralError when the input cannot be
// mapped onto the instance at all; every other defect is reported as a
// finding in the decoded solution.
type SolutionSource interface {
	Format() string
	Decode(ctx context.Context, inst *domain.Instance) (*domain.DecodedSolution, error)
}

// Optional extension for encodings whose routes must be stitched together
// after decoding. Reconstruct fills sol.Routes and appends its findings.
type Reconstructor interface {
	Reconstruct(ctx context.Context, inst *domain.Instance, sol *domain.DecodedSolution) error
}
