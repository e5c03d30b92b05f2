package cli

import (
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/lunes-platform/lunex-cli/internal/config"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
	"github.com/spf13/cobra"
)

// NewListTokenCmd creates the list-token command
func NewListTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-token <config>",
		Short: "List tokens through the admin listing path",
		Long: `Apply the listings of a configuration file through the staking contract's
admin path. Tokens already listed are skipped.

Examples:
  lunex list-token listings.yaml -n testnet -s deployer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			listings, err := config.LoadListings(projectPath(a, args[0], ""))
			if err != nil {
				return err
			}
			signer, err := requireSigner(a)
			if err != nil {
				return err
			}
			network, err := confirmMutation(a, "List tokens on")
			if err != nil {
				return err
			}

			steps, err := a.ListTokens.Run(cmd.Context(), network.Name, listings, signer)
			stopProgress(a)
			if steps == nil {
				return err
			}
			if renderErr := output(cmd, a, steps, func() error {
				return render.NewLiquidityRenderer(cmd.OutOrStdout()).RenderListings(steps)
			}); renderErr != nil {
				return renderErr
			}
			return err
		},
	}
}

// NewAddLiquidityCmd creates the add-liquidity command
func NewAddLiquidityCmd() *cobra.Command {
	var slippageBps uint64

	cmd := &cobra.Command{
		Use:   "add-liquidity <token> <amount> <quote>",
		Short: "Seed a token/native pool through the router",
		Long: `Approve the router for the token when needed, then add liquidity against
the wrapped native token. Amounts are base-unit integers; minimum amounts
are derived from the slippage bound and the deadline is 20 minutes.

Examples:
  lunex add-liquidity 0xA0b8...eB48 1000000000 500000000000000000 -n testnet -s deployer`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			token, err := parseAddress("token", args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			quote, err := parseAmount("quote", args[2])
			if err != nil {
				return err
			}
			if amount.Sign() == 0 || quote.Sign() == 0 {
				return domain.NewValidationError("amount", "liquidity amounts must be positive")
			}
			signer, err := requireSigner(a)
			if err != nil {
				return err
			}
			if _, err := confirmMutation(a, "Add liquidity on"); err != nil {
				return err
			}

			result, err := a.AddLiquidity.Run(cmd.Context(), usecase.AddLiquidityParams{
				Token:       token,
				Amount:      amount,
				QuoteAmount: quote,
				SlippageBps: slippageBps,
				Signer:      signer,
			})
			stopProgress(a)
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewLiquidityRenderer(cmd.OutOrStdout()).RenderAddLiquidity(result)
			})
		},
	}

	cmd.Flags().Uint64Var(&slippageBps, "slippage-bps", 0, "Slippage bound in basis points (default 100)")

	return cmd
}
