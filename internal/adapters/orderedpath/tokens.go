package orderedpath

import (
	"math"
	"mpvrp-verify-service/internal/domain"
	"regexp"
	"strconv"
	"strings"
)

type annotation int

const (
	noMark annotation = iota
	loadMark
	deliveryMark
)

// rawNode is a route token before the node-id convention is applied.
type rawNode struct {
	text  string
	typed bool
	ref   domain.NodeRef // set when typed
	num   int            // set when bare
	mark  annotation
	qty   float64
}

var (
	routeTokenRe = regexp.MustCompile(`^([A-Za-z]?\s*\d+)\s*(?:\[\s*([^\]]*?)\s*\]|\(\s*([^)]*?)\s*\))?$`)
	costTokenRe  = regexp.MustCompile(`^(\d+)\s*\(\s*([^)]*?)\s*\)$`)
	prefixRe     = regexp.MustCompile(`^(\d+)\s*:\s*(.*)$`)
)

// splitPrefix strips an optional "<vehicle>:" prefix.
func splitPrefix(s string) (int, string, bool) {
	m := prefixRe.FindStringSubmatch(s)
	if m == nil {
		return 0, s, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, s, false
	}
	return id, m[2], true
}

func splitTokens(s string) []string {
	parts := strings.Split(s, "-")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func parseRouteLine(lineNo int, s string) ([]rawNode, error) {
	toks := splitTokens(s)
	if len(toks) < 2 {
		return nil, domain.StructuralAt(lineNo, "route", "route needs at least two nodes, got %q", s)
	}

	out := make([]rawNode, 0, len(toks))
	for i, tok := range toks {
		m := routeTokenRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, domain.StructuralAt(lineNo, "route", "invalid node token %q", tok)
		}

		n := rawNode{text: tok}
		id := strings.ReplaceAll(m[1], " ", "")
		if ref, err := domain.ParseNodeRef(id); err == nil {
			n.typed, n.ref = true, ref
		} else {
			num, err := strconv.Atoi(id)
			if err != nil || num <= 0 {
				return nil, domain.StructuralAt(lineNo, "route", "invalid node id in %q", tok)
			}
			n.num = num
		}

		switch {
		case strings.Contains(tok, "["):
			n.mark = loadMark
			q, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, domain.StructuralAt(lineNo, "route", "invalid load quantity in %q", tok)
			}
			n.qty = q
		case strings.Contains(tok, "("):
			n.mark = deliveryMark
			q, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				return nil, domain.StructuralAt(lineNo, "route", "invalid delivered quantity in %q", tok)
			}
			n.qty = q
		}
		if !finite(n.qty) {
			return nil, domain.StructuralAt(lineNo, "route", "quantity in %q is not a finite number", tok)
		}
		if n.qty < 0 {
			return nil, domain.StructuralAt(lineNo, "route", "negative quantity in %q", tok)
		}

		if (i == 0 || i == len(toks)-1) && n.mark != noMark {
			return nil, domain.StructuralAt(lineNo, "route", "route endpoint %q cannot carry a quantity", tok)
		}
		out = append(out, n)
	}
	return out, nil
}

type costToken struct {
	product    int
	cumulative float64
}

func parseCostLine(lineNo int, s string) ([]costToken, error) {
	toks := splitTokens(s)
	out := make([]costToken, 0, len(toks))
	for _, tok := range toks {
		m := costTokenRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, domain.StructuralAt(lineNo, "costs", "invalid product/cost token %q", tok)
		}
		p, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, domain.StructuralAt(lineNo, "costs", "invalid product in %q", tok)
		}
		c, err := strconv.ParseFloat(m[2], 64)
		if err != nil || !finite(c) {
			return nil, domain.StructuralAt(lineNo, "costs", "invalid cost in %q", tok)
		}
		out = append(out, costToken{product: p, cumulative: c})
	}
	return out, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
