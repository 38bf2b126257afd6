package sparsearc

import (
	"bytes"
	"mpvrp-verify-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// Record is the solver's decision-variable dump. JSON input decodes through
// the same YAML decoder.
type Record struct {
	Status    string          `yaml:"Status"`
	Objective *float64        `yaml:"Objective"`
	Solver    string          `yaml:"Solver"`
	Elapsed   float64         `yaml:"Elapsed"`
	Metrics   *RecordMetrics  `yaml:"Metrics"`
	Vehicles  []VehicleRecord `yaml:"Vehicles"`
}

type RecordMetrics struct {
	VehiclesUsed   *int     `yaml:"VehiclesUsed"`
	Changes        *int     `yaml:"Changes"`
	ChangeoverCost *float64 `yaml:"ChangeoverCost"`
	Distance       *float64 `yaml:"Distance"`
}

type VehicleRecord struct {
	ID     int            `yaml:"ID"`
	Used   bool           `yaml:"Used"`
	Start  *domain.Arc    `yaml:"Start"`
	Arcs   []ArcRecord    `yaml:"Arcs"`
	Load   []LoadRecord   `yaml:"Load"`
	Deliv  []DelivRecord  `yaml:"Deliv"`
	Switch []SwitchRecord `yaml:"Switch"`
	Fin    *domain.Arc    `yaml:"Fin"`
}

// ArcRecord is one selected x[k,p,i,j].
type ArcRecord struct {
	Product int            `yaml:"Product"`
	From    domain.NodeRef `yaml:"From"`
	To      domain.NodeRef `yaml:"To"`
}

type LoadRecord struct {
	Depot    domain.NodeRef `yaml:"Depot"`
	Position int            `yaml:"Position"`
	Product  int            `yaml:"Product"`
	Quantity float64        `yaml:"Quantity"`
}

type DelivRecord struct {
	Station  domain.NodeRef `yaml:"Station"`
	Product  int            `yaml:"Product"`
	Quantity float64        `yaml:"Quantity"`
}

type SwitchRecord struct {
	Position int      `yaml:"Position"`
	From     int      `yaml:"From"`
	To       int      `yaml:"To"`
	Cost     *float64 `yaml:"Cost"`
}

// DecodeRecord parses a JSON or YAML record. Unknown keys are rejected so a
// misspelt collection is not silently read as empty.
func DecodeRecord(data []byte) (*Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, domain.Structural("record", "%v", err)
	}
	return &rec, nil
}
