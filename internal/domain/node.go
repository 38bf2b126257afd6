package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind tags which entity table a node id refers to.
type NodeKind int

const (
	KindGarage NodeKind = iota + 1
	KindDepot
	KindStation
)

func (k NodeKind) String() string {
	switch k {
	case KindGarage:
		return "garage"
	case KindDepot:
		return "depot"
	case KindStation:
		return "station"
	default:
		return "unknown"
	}
}

// Prefix returns the single-letter tag used in typed node tokens.
func (k NodeKind) Prefix() string {
	switch k {
	case KindGarage:
		return "G"
	case KindDepot:
		return "D"
	case KindStation:
		return "S"
	default:
		return "?"
	}
}

// NodeRef is a typed node reference. IDs are local to their kind.
type NodeRef struct {
	Kind NodeKind
	ID   int
}

func GarageRef(id int) NodeRef  { return NodeRef{Kind: KindGarage, ID: id} }
func DepotRef(id int) NodeRef   { return NodeRef{Kind: KindDepot, ID: id} }
func StationRef(id int) NodeRef { return NodeRef{Kind: KindStation, ID: id} }

func (n NodeRef) String() string { return n.Kind.Prefix() + strconv.Itoa(n.ID) }

func (n NodeRef) IsZero() bool { return n.Kind == 0 && n.ID == 0 }

// ParseNodeRef parses a typed token such as "G1", "d2" or "S 12".
func ParseNodeRef(token string) (NodeRef, error) {
	t := strings.TrimSpace(token)
	if len(t) < 2 {
		return NodeRef{}, fmt.Errorf("parse node ref: invalid token %q", token)
	}

	var kind NodeKind
	switch t[0] {
	case 'G', 'g':
		kind = KindGarage
	case 'D', 'd':
		kind = KindDepot
	case 'S', 's':
		kind = KindStation
	default:
		return NodeRef{}, fmt.Errorf("parse node ref: unknown kind prefix in %q", token)
	}

	id, err := strconv.Atoi(strings.TrimSpace(t[1:]))
	if err != nil || id <= 0 {
		return NodeRef{}, fmt.Errorf("parse node ref: invalid id in %q", token)
	}

	return NodeRef{Kind: kind, ID: id}, nil
}

// MarshalText lets node refs travel as "D1" in JSON and YAML.
func (n NodeRef) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *NodeRef) UnmarshalText(b []byte) error {
	ref, err := ParseNodeRef(string(b))
	if err != nil {
		return err
	}
	*n = ref
	return nil
}

// Arc is a directed traversal between two nodes.
type Arc struct {
	From NodeRef `json:"from" yaml:"From"`
	To   NodeRef `json:"to" yaml:"To"`
}

func (a Arc) String() string { return a.From.String() + "->" + a.To.String() }
