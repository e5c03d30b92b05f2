package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// DeployRenderer renders deployment runs
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// Render prints the plan, each contract and the follow-up phases. A partial
// result from a failed run renders the phases that completed.
func (r *DeployRenderer) Render(result *usecase.DeployResult) error {
	if result == nil {
		return nil
	}

	title := fmt.Sprintf("Deployment on %s", result.Network)
	if result.DryRun {
		title += " (dry run)"
	}
	color.New(color.FgCyan, color.Bold).Fprintln(r.out, title)
	fmt.Fprintln(r.out)

	if len(result.Contracts) > 0 {
		t := newTable(table.Row{"Contract", "Address", "Status"})
		for _, c := range result.Contracts {
			address, status := "-", "-"
			switch {
			case c.Skipped:
				status = color.New(color.Faint).Sprint("already finalized")
				if result.Record != nil {
					if entry, ok := result.Record.Contracts[c.Name]; ok {
						address = entry.Address.Hex()
					}
				}
			case c.Outcome != nil:
				status = outcomeLine(c.Outcome)
				if c.Estimate != nil {
					address = c.Estimate.Address.Hex()
				}
			case c.Estimate != nil:
				address = c.Estimate.Address.Hex()
				status = fmt.Sprintf("gas %d fee %s", c.Estimate.Gas, formatAmount(c.Estimate.Fee))
			}
			t.AppendRow(table.Row{c.Name, address, status})
		}
		fmt.Fprintln(r.out, t.Render())
	}

	r.renderSteps("Integrations", result.Integrations)
	r.renderSteps("Listings", result.Listings)

	if result.DryRun && result.TotalFee != nil {
		fmt.Fprintf(r.out, "\nEstimated total fee: %s\n", formatAmount(result.TotalFee))
	}
	return nil
}

func (r *DeployRenderer) renderSteps(title string, steps []*usecase.StepResult) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	color.New(color.Bold).Fprintln(r.out, title+":")
	renderSteps(r.out, steps)
}

// renderSteps prints one line per setter or listing step
func renderSteps(out io.Writer, steps []*usecase.StepResult) {
	for _, s := range steps {
		switch {
		case s.AlreadySet:
			fmt.Fprintf(out, "  %s %s (already set)\n", color.New(color.Faint).Sprint("="), s.Key)
		case s.Skipped:
			fmt.Fprintf(out, "  %s %s (recorded)\n", color.New(color.Faint).Sprint("-"), s.Key)
		default:
			fmt.Fprintf(out, "  %s %s %s\n", color.New(color.FgGreen).Sprint("+"), s.Key, outcomeLine(s.Outcome))
		}
	}
}
