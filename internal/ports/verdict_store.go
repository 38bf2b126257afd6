package ports

import (
	"context"
	"errors"
	"mpvrp-verify-service/internal/domain"
	"time"
)

var ErrVerdictNotFound = errors.New("verdict not found")

// VerdictRecord is a verdict together with the fingerprint of its inputs.
type VerdictRecord struct {
	Verdict     domain.Verdict
	Fingerprint string
	CreatedAt   time.Time
}

// Port: durable storage for verdicts produced by the API.
type VerdictRepository interface {
	SaveVerdict(ctx context.Context, rec VerdictRecord) error
	GetVerdict(ctx context.Context, id string) (*VerdictRecord, error)
}

// Port: cache of verdicts keyed by input fingerprint. Verification is
// idempotent, so a hit can be served as is.
type VerdictCache interface {
	Get(ctx context.Context, fingerprint string) (*domain.Verdict, bool, error)
	Put(ctx context.Context, fingerprint string, v domain.Verdict) error
}
