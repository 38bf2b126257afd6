package reconstruct

import "mpvrp-verify-service/internal/domain"

type arcKey struct {
	product domain.ProductID
	from    domain.NodeRef
}

// arena holds the arcs a walk has not consumed yet, indexed by product and
// origin. Lookups return arcs in input order so walks are deterministic.
type arena struct {
	arcs     []ProductArc
	used     []bool
	byOrigin map[arcKey][]int
	left     map[domain.ProductID]int
}

func newArena(arcs []ProductArc) *arena {
	a := &arena{
		arcs:     arcs,
		used:     make([]bool, len(arcs)),
		byOrigin: make(map[arcKey][]int),
		left:     make(map[domain.ProductID]int),
	}
	for i, pa := range arcs {
		k := arcKey{pa.Product, pa.Arc.From}
		a.byOrigin[k] = append(a.byOrigin[k], i)
		a.left[pa.Product]++
	}
	return a
}

// take consumes the first unused arc of product p leaving from.
func (a *arena) take(p domain.ProductID, from domain.NodeRef) (domain.Arc, bool) {
	k := arcKey{p, from}
	idx := a.byOrigin[k]
	for len(idx) > 0 {
		i := idx[0]
		idx = idx[1:]
		if a.used[i] {
			continue
		}
		a.used[i] = true
		a.left[p]--
		a.byOrigin[k] = idx
		return a.arcs[i].Arc, true
	}
	a.byOrigin[k] = idx
	return domain.Arc{}, false
}

// firstLeft returns the first unconsumed arc of product p whose origin is not
// skipped, without taking it.
func (a *arena) firstLeft(p domain.ProductID, skip func(domain.NodeRef) bool) (domain.Arc, bool) {
	if a.left[p] == 0 {
		return domain.Arc{}, false
	}
	for i, pa := range a.arcs {
		if !a.used[i] && pa.Product == p && !skip(pa.Arc.From) {
			return pa.Arc, true
		}
	}
	return domain.Arc{}, false
}

func (a *arena) orphans() []ProductArc {
	var out []ProductArc
	for i, pa := range a.arcs {
		if !a.used[i] {
			out = append(out, pa)
		}
	}
	return out
}
