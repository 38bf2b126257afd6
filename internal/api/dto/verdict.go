package dto

import "mpvrp-verify-service/internal/domain"

// VerifyRequest carries both documents as text. Format is "ordered",
// "sparse" or "auto" (the default).
type VerifyRequest struct {
	Instance string `json:"instance"`
	Solution string `json:"solution"`
	Format   string `json:"format"`
}

type VerdictResponse struct {
	Outcome string         `json:"outcome"`
	Cached  bool           `json:"cached"`
	Verdict domain.Verdict `json:"verdict"`
}

// StructuralErrorResponse is returned when an input cannot be read at all.
type StructuralErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field"`
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}
