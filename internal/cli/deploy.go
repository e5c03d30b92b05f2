package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/lunes-platform/lunex-cli/internal/app"
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/lunes-platform/lunex-cli/internal/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
	"github.com/spf13/cobra"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <network> <signer>",
		Short: "Deploy, wire and verify the protocol contracts",
		Long: `Deploy every contract of the deployment configuration in dependency order,
run the integration setters and initial listings, then verify the result.

Contracts already finalized in the deployment record are skipped, so an
interrupted run can simply be repeated.

Examples:
  lunex deploy testnet deployer
  lunex deploy testnet deployer --dry-run
  lunex deploy mainnet deployer --config deploy.mainnet.yaml`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{argsAnnotation: "network,signer"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			return runDeploy(cmd, a)
		},
	}

	cmd.Flags().Bool("dry-run", false, "Estimate resources without submitting")
	cmd.Flags().Bool("skip-verification", false, "Do not verify after deploying")
	cmd.Flags().String("deploy-file", config.DefaultDeployFile, "Deployment configuration")
	cmd.Flags().String("verify-file", config.DefaultVerifyFile, "Expected on-chain configuration")

	return cmd
}

func runDeploy(cmd *cobra.Command, a *app.App) error {
	ctx := cmd.Context()

	doc, err := config.LoadDeployConfig(projectPath(a, a.Config.DeployFile, config.DefaultDeployFile))
	if err != nil {
		return err
	}
	signer, err := requireSigner(a)
	if err != nil {
		return err
	}

	var network string
	if a.Config.DryRun {
		n, err := requireNetwork(a)
		if err != nil {
			return err
		}
		network = n.Name
	} else {
		n, err := confirmMutation(a, "Deploy to")
		if err != nil {
			return err
		}
		network = n.Name
	}

	result, runErr := a.DeployContracts.Run(ctx, usecase.DeployParams{
		Network: network,
		Signer:  signer,
		Config:  doc,
		DryRun:  a.Config.DryRun,
	})
	stopProgress(a)
	if result == nil {
		return runErr
	}

	var report *models.VerificationReport
	if runErr == nil && !a.Config.DryRun && !a.Config.SkipVerification {
		report, runErr = verifyAfterDeploy(cmd, a, network)
	}

	if err := output(cmd, a, struct {
		*usecase.DeployResult
		Verification *models.VerificationReport `json:"verification,omitempty"`
	}{result, report}, func() error {
		if err := render.NewDeployRenderer(cmd.OutOrStdout()).Render(result); err != nil {
			return err
		}
		if report != nil {
			return render.NewVerifyRenderer(cmd.OutOrStdout()).Render(report)
		}
		return nil
	}); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if report != nil && !report.OverallPass {
		return errVerificationFailed
	}
	return nil
}

// verifyAfterDeploy runs the verifier when an expectation file exists
func verifyAfterDeploy(cmd *cobra.Command, a *app.App, network string) (*models.VerificationReport, error) {
	path := projectPath(a, a.Config.VerifyFile, config.DefaultVerifyFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		a.Progress.Info("No " + filepath.Base(path) + "; skipping verification")
		return nil, nil
	}
	expected, err := config.LoadVerifyConfig(path)
	if err != nil {
		return nil, err
	}
	report, err := a.VerifyDeployment.Run(cmd.Context(), network, expected)
	stopProgress(a)
	return report, err
}

// projectPath resolves a document path against the project root
func projectPath(a *app.App, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.Config.ProjectRoot, path)
}
