package domain

// ReportedMetrics are the values a solver claims. Nil fields were not
// reported and are not reconciled.
type ReportedMetrics struct {
	VehiclesUsed   *int     `json:"vehicles_used,omitempty"`
	ProductChanges *int     `json:"product_changes,omitempty"`
	ChangeoverCost *float64 `json:"changeover_cost,omitempty"`
	Distance       *float64 `json:"distance,omitempty"`
	TotalCost      *float64 `json:"total_cost,omitempty"`
}

// Provenance fields are passed through unvalidated.
type Provenance struct {
	Solver  string  `json:"solver,omitempty"`
	Elapsed float64 `json:"elapsed_seconds,omitempty"`
	Status  string  `json:"status,omitempty"`
}

// Metrics recomputed from the canonical routes and the instance alone.
type Metrics struct {
	VehiclesUsed   int     `json:"vehicles_used"`
	ProductChanges int     `json:"product_changes"`
	ChangeoverCost float64 `json:"changeover_cost"`
	Distance       float64 `json:"distance"`
	TotalCost      float64 `json:"total_cost"`
}

// DecodedSolution is what a solution source hands to validation: canonical
// routes in vehicle order plus anything found while decoding them.
type DecodedSolution struct {
	Routes     []Route
	Findings   []Violation
	Reported   ReportedMetrics
	Provenance Provenance
}

func IntPtr(v int) *int           { return &v }
func FloatPtr(v float64) *float64 { return &v }
