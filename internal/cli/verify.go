package cli

import (
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/lunes-platform/lunex-cli/internal/config"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <network>",
		Short: "Check on-chain configuration against the expected values",
		Long: `Check every recorded contract on a network: code presence, expected
configuration values, links between contracts, pause state and a benign
smoke read. Checks never stop at the first failure; the command exits
non-zero when any hard check fails.

Examples:
  lunex verify testnet
  lunex verify mainnet --verify-file verify.mainnet.yaml --json`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{argsAnnotation: "network"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			network, err := requireNetwork(a)
			if err != nil {
				return err
			}
			expected, err := config.LoadVerifyConfig(projectPath(a, a.Config.VerifyFile, config.DefaultVerifyFile))
			if err != nil {
				return err
			}

			report, err := a.VerifyDeployment.Run(cmd.Context(), network.Name, expected)
			stopProgress(a)
			if err != nil {
				return err
			}

			if err := output(cmd, a, report, func() error {
				return render.NewVerifyRenderer(cmd.OutOrStdout()).Render(report)
			}); err != nil {
				return err
			}
			if !report.OverallPass {
				return errVerificationFailed
			}
			return nil
		},
	}

	cmd.Flags().String("verify-file", config.DefaultVerifyFile, "Expected on-chain configuration")

	return cmd
}
