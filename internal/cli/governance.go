package cli

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/spf13/cobra"
)

// NewCreateProposalCmd creates the create-proposal command
func NewCreateProposalCmd() *cobra.Command {
	var (
		title       string
		description string
		fee         string
	)

	cmd := &cobra.Command{
		Use:   "create-proposal <token>",
		Short: "Propose a token for listing",
		Long: `Submit a listing proposal for a token. The proposal fee defaults to the
current fee of the staking contract and is paid from the signer's balance.

Examples:
  lunex create-proposal 0xA0b8...eB48 --title "List USDC" -n testnet -s deployer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			token, err := parseAddress("token", args[0])
			if err != nil {
				return err
			}
			info := models.ProposalInfo{Title: title, Description: description, Token: token}
			if fee != "" {
				if info.Fee, err = parseAmount("fee", fee); err != nil {
					return err
				}
			}
			signer, err := requireSigner(a)
			if err != nil {
				return err
			}
			if _, err := confirmMutation(a, "Create proposal on"); err != nil {
				return err
			}

			result, err := a.Governance.CreateProposal(cmd.Context(), info, signer)
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewGovernanceRenderer(cmd.OutOrStdout()).RenderCreate(result)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Proposal title")
	cmd.Flags().StringVar(&description, "description", "", "Proposal description")
	cmd.Flags().StringVar(&fee, "fee", "", "Proposal fee in base units (default: current fee)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// NewVoteCmd creates the vote command
func NewVoteCmd() *cobra.Command {
	var (
		inFavor bool
		against bool
	)

	cmd := &cobra.Command{
		Use:   "vote <proposal-id>",
		Short: "Vote on an open listing proposal",
		Long: `Cast the signer's staked voting power on a proposal. Votes are only
accepted while the voting period is open.

Examples:
  lunex vote 3 --for -n testnet -s voter
  lunex vote 3 --against`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			signer, err := requireSigner(a)
			if err != nil {
				return err
			}
			if _, err := confirmMutation(a, "Vote on"); err != nil {
				return err
			}

			result, err := a.Governance.Vote(cmd.Context(), id, inFavor, signer)
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewGovernanceRenderer(cmd.OutOrStdout()).RenderVote(result)
			})
		},
	}

	cmd.Flags().BoolVar(&inFavor, "for", false, "Vote in favor")
	cmd.Flags().BoolVar(&against, "against", false, "Vote against")
	cmd.MarkFlagsMutuallyExclusive("for", "against")
	cmd.MarkFlagsOneRequired("for", "against")

	return cmd
}

// NewCheckProposalCmd creates the check-proposal command
func NewCheckProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-proposal <proposal-id>",
		Short: "Show a proposal and its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			if _, err := requireNetwork(a); err != nil {
				return err
			}

			status, err := a.Governance.CheckProposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return output(cmd, a, status, func() error {
				return render.NewGovernanceRenderer(cmd.OutOrStdout()).RenderStatus(status)
			})
		},
	}
}

// NewExecuteProposalCmd creates the execute-proposal command
func NewExecuteProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute-proposal <proposal-id>",
		Short: "Execute a proposal after its voting period",
		Long: `Execute a proposal once voting has closed. The contract decides whether
the token is listed; a proposal can be executed only once.

Examples:
  lunex execute-proposal 3 -n testnet -s deployer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			signer, err := requireSigner(a)
			if err != nil {
				return err
			}
			if _, err := confirmMutation(a, "Execute proposal on"); err != nil {
				return err
			}

			result, err := a.Governance.ExecuteProposal(cmd.Context(), id, signer)
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewGovernanceRenderer(cmd.OutOrStdout()).RenderExecute(result)
			})
		},
	}
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, domain.NewValidationError(field, "%q is not an address", s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount parses a non-negative base-unit integer
func parseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, domain.NewValidationError(field, "%q is not a base-unit amount", s)
	}
	return v, nil
}
