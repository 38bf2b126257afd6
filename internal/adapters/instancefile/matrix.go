package instancefile

import "mpvrp-verify-service/internal/domain"

const triangleSlack = 1e-9

// MatrixWarnings inspects the changeover matrix for a non-zero diagonal and
// for pairs where switching through a third product is cheaper than switching
// directly. Findings are advisory and never affect feasibility.
func MatrixWarnings(inst *domain.Instance) []domain.Violation {
	var out []domain.Violation
	p := inst.Products

	for i := 1; i <= p; i++ {
		c := inst.Cost(domain.ProductID(i), domain.ProductID(i))
		if c != 0 {
			out = append(out, domain.NewViolation(domain.MatrixWarning, 0, -1,
				"changeover cost from product %d to itself is %.2f", i, c).Values(0, c))
		}
	}

	for i := 1; i <= p; i++ {
		for j := 1; j <= p; j++ {
			if i == j {
				continue
			}
			direct := inst.Cost(domain.ProductID(i), domain.ProductID(j))
			best, via := direct, 0
			for k := 1; k <= p; k++ {
				if k == i || k == j {
					continue
				}
				alt := inst.Cost(domain.ProductID(i), domain.ProductID(k)) + inst.Cost(domain.ProductID(k), domain.ProductID(j))
				if alt+triangleSlack < best {
					best, via = alt, k
				}
			}
			if via != 0 {
				out = append(out, domain.NewViolation(domain.MatrixWarning, 0, -1,
					"changeover %d->%d costs %.2f but %d->%d->%d costs %.2f", i, j, direct, i, via, j, best).Values(best, direct))
			}
		}
	}
	return out
}
