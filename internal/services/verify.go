package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mpvrp-verify-service/internal/adapters/distance"
	"mpvrp-verify-service/internal/adapters/instancefile"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// verdictNamespace seeds name-based verdict ids.
var verdictNamespace = uuid.MustParse("6f1d3c3e-5a0b-4a59-9d43-0c4f1c8e2b71")

// Verifier runs the verification pipeline:
// parsing -> reconstructing -> validating -> reconciling -> done.
type Verifier struct {
	Tolerance float64
	// Workers bounds per-vehicle reconstruction tasks.
	Workers int
	Logger  *zap.Logger
	// NewProvider builds the distance source for an instance. Defaults to
	// straight-line distances between instance coordinates.
	NewProvider func(inst *domain.Instance) ports.DistanceProvider
}

func NewVerifier(logger *zap.Logger, tolerance float64, workers int) *Verifier {
	return &Verifier{Tolerance: tolerance, Workers: workers, Logger: logger}
}

type VerifyRequest struct {
	Instance []byte
	Solution []byte
	// Format is "ordered", "sparse" or "auto".
	Format string
}

// Fingerprint identifies a verification input. Verification is a pure
// function of it.
func Fingerprint(req VerifyRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Format))
	h.Write([]byte{0})
	h.Write(req.Instance)
	h.Write([]byte{0})
	h.Write(req.Solution)
	return hex.EncodeToString(h.Sum(nil))
}

// VerdictID derives a stable verdict id from an input fingerprint.
func VerdictID(fingerprint string) string {
	return uuid.NewSHA1(verdictNamespace, []byte(fingerprint)).String()
}

// Run parses both inputs and verifies them. A *domain.StructuralError aborts
// the run with no verdict.
func (s *Verifier) Run(ctx context.Context, req VerifyRequest) (verdict *domain.Verdict, err error) {
	defer obs.Time(ctx, "verify.run")(&err)

	log := s.logger().With(zap.String("req_id", obs.RequestID(ctx)))
	log.Debug("stage", zap.String("stage", string(domain.StageParsing)))

	parsed, err := instancefile.Parse(bytes.NewReader(req.Instance))
	if err != nil {
		obs.Verifications.WithLabelValues(req.Format, "structural_error").Inc()
		return nil, fmt.Errorf("verify: parse instance: %w", err)
	}
	log.Debug("instance parsed",
		zap.String("run_id", parsed.Instance.RunID),
		zap.String("ordering", string(parsed.Ordering)),
		zap.Int("vehicles", len(parsed.Instance.Vehicles)),
		zap.Int("warnings", len(parsed.Warnings)))

	src, err := NewSource(req.Format, req.Solution, s.Workers)
	if err != nil {
		obs.Verifications.WithLabelValues(req.Format, "structural_error").Inc()
		return nil, fmt.Errorf("verify: %w", err)
	}

	verdict, err = s.Verify(ctx, parsed.Instance, src, parsed.Warnings)
	if err != nil {
		return nil, err
	}
	verdict.ID = VerdictID(Fingerprint(req))
	return verdict, nil
}

// Verify checks one decoded solution source against an instance. Advisories
// are instance-level findings carried into the verdict unchanged.
func (s *Verifier) Verify(
	ctx context.Context,
	inst *domain.Instance,
	src ports.SolutionSource,
	advisories []domain.Violation,
) (*domain.Verdict, error) {
	log := s.logger().With(
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("format", src.Format()),
		zap.String("run_id", inst.RunID),
	)
	stage := domain.StageParsing
	advance := func(next domain.Stage) {
		log.Debug("stage", zap.String("from", string(stage)), zap.String("to", string(next)))
		stage = next
	}

	sol, err := src.Decode(ctx, inst)
	if err != nil {
		obs.Verifications.WithLabelValues(src.Format(), "structural_error").Inc()
		log.Warn("solution rejected", zap.String("stage", string(stage)), zap.Error(err))
		return nil, fmt.Errorf("verify: decode %s solution: %w", src.Format(), err)
	}

	advance(domain.StageReconstructing)
	if rc, ok := src.(ports.Reconstructor); ok {
		if err := rc.Reconstruct(ctx, inst, sol); err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
	}

	advance(domain.StageValidating)
	findings := Validate(inst, sol.Routes, s.tolerance())

	advance(domain.StageReconciling)
	recomputed, err := Recompute(ctx, inst, sol.Routes, s.provider(inst))
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	mismatches := Reconcile(sol.Reported, recomputed, s.tolerance())

	advance(domain.StageDone)
	verdict := Report(inst, src.Format(), sol, recomputed, advisories, sol.Findings, findings, mismatches)

	log.Info("verification done",
		zap.String("outcome", Outcome(verdict)),
		zap.Int("violations", len(verdict.Violations)),
		zap.Float64("distance", recomputed.Distance),
		zap.Float64("changeover_cost", recomputed.ChangeoverCost))
	return verdict, nil
}

func (s *Verifier) tolerance() float64 {
	if s.Tolerance <= 0 {
		return DefaultTolerance
	}
	return s.Tolerance
}

func (s *Verifier) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.L()
	}
	return s.Logger
}

func (s *Verifier) provider(inst *domain.Instance) ports.DistanceProvider {
	if s.NewProvider != nil {
		return s.NewProvider(inst)
	}
	return distance.NewEuclideanDistanceProvider(inst)
}
