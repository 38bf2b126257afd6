package services

import (
	"bytes"
	"mpvrp-verify-service/internal/adapters/orderedpath"
	"mpvrp-verify-service/internal/adapters/sparsearc"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/ports"
)

const FormatAuto = "auto"

// DetectFormat picks an encoding from the shape of the solution: structured
// records start with "{" or carry a Vehicles key, everything else is read
// as an ordered path.
func DetectFormat(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) || bytes.Contains(trimmed, []byte("Vehicles:")) {
		return sparsearc.FormatName
	}
	return orderedpath.FormatName
}

// NewSource returns the solution source for format, detecting it when format
// is empty or "auto".
func NewSource(format string, data []byte, workers int) (ports.SolutionSource, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(data)
	}
	switch format {
	case orderedpath.FormatName:
		return orderedpath.New(data), nil
	case sparsearc.FormatName:
		return sparsearc.New(data, workers), nil
	default:
		return nil, domain.Structural("format", "unknown solution format %q", format)
	}
}
