package main

import (
	"fmt"
	"io"
	"mpvrp-verify-service/internal/adapters/instancefile"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/services"
	"strings"
	"text/tabwriter"
)

func writeVerdict(w io.Writer, v *domain.Verdict) {
	fmt.Fprintf(w, "verdict:  %s\n", services.Outcome(v))
	if v.RunID != "" {
		fmt.Fprintf(w, "run:      %s\n", v.RunID)
	}
	fmt.Fprintf(w, "format:   %s\n", v.Format)
	fmt.Fprintf(w, "id:       %s\n", v.ID)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "metric\trecomputed\treported")
	fmt.Fprintf(tw, "vehicles used\t%d\t%s\n", v.Recomputed.VehiclesUsed, intOrDash(v.Reported.VehiclesUsed))
	fmt.Fprintf(tw, "product changes\t%d\t%s\n", v.Recomputed.ProductChanges, intOrDash(v.Reported.ProductChanges))
	fmt.Fprintf(tw, "changeover cost\t%.2f\t%s\n", v.Recomputed.ChangeoverCost, floatOrDash(v.Reported.ChangeoverCost))
	fmt.Fprintf(tw, "distance\t%.2f\t%s\n", v.Recomputed.Distance, floatOrDash(v.Reported.Distance))
	fmt.Fprintf(tw, "total cost\t%.2f\t%s\n", v.Recomputed.TotalCost, floatOrDash(v.Reported.TotalCost))
	_ = tw.Flush()

	if len(v.Violations) == 0 {
		fmt.Fprintln(w, "\nno findings")
		return
	}

	fmt.Fprintf(w, "\nfindings (%d):\n", len(v.Violations))
	for _, x := range v.Violations {
		var where []string
		if x.Vehicle > 0 {
			where = append(where, fmt.Sprintf("vehicle %d", x.Vehicle))
		}
		if x.Position >= 0 {
			where = append(where, fmt.Sprintf("pos %d", x.Position))
		}
		loc := ""
		if len(where) > 0 {
			loc = " [" + strings.Join(where, ", ") + "]"
		}
		fmt.Fprintf(w, "  %s%s: %s\n", x.Kind, loc, x.Message)
	}
}

func writeInstance(w io.Writer, p *instancefile.Parsed) {
	inst := p.Instance
	if inst.RunID != "" {
		fmt.Fprintf(w, "run:       %s\n", inst.RunID)
	}
	fmt.Fprintf(w, "ordering:  %s\n", p.Ordering)
	fmt.Fprintf(w, "products:  %d\n", inst.Products)
	fmt.Fprintf(w, "vehicles:  %d\n", len(inst.Vehicles))
	fmt.Fprintf(w, "depots:    %d\n", len(inst.Depots))
	fmt.Fprintf(w, "garages:   %d\n", len(inst.Garages))
	fmt.Fprintf(w, "stations:  %d\n", len(inst.Stations))

	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

func floatOrDash(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}
