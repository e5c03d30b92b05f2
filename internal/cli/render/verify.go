package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VerifyRenderer handles rendering of verification reports
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// Render prints every check group then the overall verdict
func (r *VerifyRenderer) Render(report *models.VerificationReport) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Verification of %s\n\n", report.Network)

	if len(report.Existence) > 0 {
		t := newTable(table.Row{"Contract", "Address", "Code"})
		for _, c := range report.Existence {
			t.AppendRow(table.Row{c.Contract, c.Address.Hex(), mark(c.Exists, c.Error)})
		}
		r.section("existence", t)
	}

	if len(report.Config) > 0 {
		t := newTable(table.Row{"Contract", "Key", "Expected", "Actual", ""})
		for _, c := range report.Config {
			t.AppendRow(table.Row{c.Contract, c.Key, c.Expected, c.Actual, mark(c.Match, c.Error)})
		}
		r.section("configuration", t)
	}

	if len(report.Links) > 0 {
		t := newTable(table.Row{"From", "Query", "To", "Actual", ""})
		for _, c := range report.Links {
			t.AppendRow(table.Row{c.From, c.Query, c.To, c.Actual.Hex(), mark(c.Match, c.Error)})
		}
		r.section("links", t)
	}

	if len(report.Pause) > 0 {
		t := newTable(table.Row{"Contract", "Paused"})
		for _, c := range report.Pause {
			state := color.New(color.FgGreen).Sprint("no")
			if c.Error != "" {
				state = color.New(color.FgYellow).Sprint(c.Error)
			} else if c.Paused {
				state = color.New(color.FgYellow).Sprint("yes")
			}
			t.AppendRow(table.Row{c.Contract, state})
		}
		r.section("pause state", t)
	}

	if len(report.Smoke) > 0 {
		t := newTable(table.Row{"Contract", "Method", "Result", ""})
		for _, c := range report.Smoke {
			t.AppendRow(table.Row{c.Contract, c.Method, c.Result, mark(c.OK, c.Error)})
		}
		r.section("smoke tests", t)
	}

	for _, w := range report.Warnings {
		fmt.Fprintln(r.out, FormatWarning(w))
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintln(r.out)
	}

	if report.OverallPass {
		fmt.Fprintln(r.out, FormatSuccess("All checks passed"))
	} else {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("verification failed: %d configuration mismatches", len(report.Mismatches()))))
	}
	return nil
}

func (r *VerifyRenderer) section(name string, t table.Writer) {
	color.New(color.Bold).Fprintln(r.out, cases.Title(language.English).String(name))
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)
}

func mark(ok bool, errMsg string) string {
	if errMsg != "" {
		return color.New(color.FgRed).Sprint("✗ " + errMsg)
	}
	if ok {
		return color.New(color.FgGreen).Sprint("✓")
	}
	return color.New(color.FgRed).Sprint("✗")
}
