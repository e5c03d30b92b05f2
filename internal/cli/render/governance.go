package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// GovernanceRenderer renders proposal workflows
type GovernanceRenderer struct {
	out io.Writer
}

// NewGovernanceRenderer creates a new governance renderer
func NewGovernanceRenderer(out io.Writer) *GovernanceRenderer {
	return &GovernanceRenderer{out: out}
}

// RenderStatus prints a proposal and its state at chain time
func (r *GovernanceRenderer) RenderStatus(status *usecase.ProposalStatus) error {
	p := status.Proposal
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Proposal #%d: %s\n", p.ID, p.Title)

	t := newTable(nil)
	t.AppendRows([]table.Row{
		{"State", stateLabel(status.State)},
		{"Token", p.Token.Hex()},
		{"Proposer", p.Proposer.Hex()},
		{"Votes for", formatAmount(p.VotesFor)},
		{"Votes against", formatAmount(p.VotesAgainst)},
		{"Deadline", fmt.Sprintf("%s (%s)", p.VotingDeadline.Format("2006-01-02 15:04:05 MST"), formatRemaining(status.TimeRemaining))},
		{"Fee", formatAmount(p.FeePaid)},
		{"Token approved", yesNo(status.TokenApproved)},
	})
	fmt.Fprintln(r.out, t.Render())
	if p.Description != "" {
		fmt.Fprintf(r.out, "\n%s\n", p.Description)
	}
	return nil
}

// RenderCreate prints a submitted proposal
func (r *GovernanceRenderer) RenderCreate(result *usecase.CreateProposalResult) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Proposal #%d created (fee %s)", result.ProposalID, formatAmount(result.Fee))))
	fmt.Fprintf(r.out, "  %s\n", outcomeLine(result.Outcome))
	return nil
}

// RenderVote prints a recorded vote
func (r *GovernanceRenderer) RenderVote(result *usecase.VoteResult) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Vote recorded with power %s", formatAmount(result.Power))))
	fmt.Fprintf(r.out, "  %s\n", outcomeLine(result.Outcome))
	if p := result.Proposal; p != nil {
		fmt.Fprintf(r.out, "  tally: %s for, %s against\n", formatAmount(p.VotesFor), formatAmount(p.VotesAgainst))
	}
	return nil
}

// RenderExecute prints the on-chain decision
func (r *GovernanceRenderer) RenderExecute(result *usecase.ExecuteResult) error {
	if result.Approved {
		fmt.Fprintln(r.out, FormatSuccess("Proposal approved; token listed"))
	} else {
		fmt.Fprintln(r.out, FormatWarning("Proposal rejected"))
	}
	fmt.Fprintf(r.out, "  state: %s\n", stateLabel(result.State))
	fmt.Fprintf(r.out, "  %s\n", outcomeLine(result.Outcome))
	return nil
}

func stateLabel(s models.ProposalState) string {
	switch s {
	case models.ProposalApproved, models.ProposalExecuted:
		return color.New(color.FgGreen).Sprint(s)
	case models.ProposalRejected:
		return color.New(color.FgRed).Sprint(s)
	default:
		return color.New(color.FgYellow).Sprint(s)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
