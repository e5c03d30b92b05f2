package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lunes-platform/lunex-cli/internal/adapters/interactive"
	"github.com/lunes-platform/lunex-cli/internal/app"
	"github.com/lunes-platform/lunex-cli/internal/config"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	domainconfig "github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// contextKey is the type for context keys
type contextKey string

const (
	// sessionKey is the context key for the running session
	sessionKey contextKey = "session"

	// argsAnnotation maps positional arguments onto flags, e.g.
	// "network,signer" makes args[0] the --network value.
	argsAnnotation = "lunex/args"
)

// appInitializer builds the app for a command; tests replace it
var appInitializer = app.InitApp

// session carries the app of one command execution and what must be
// released after it
type session struct {
	app     *app.App
	closers []func()
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Execute runs the CLI and releases the session even when the command fails
func Execute(ctx context.Context) error {
	s := &session{}
	defer s.close()
	return NewRootCmd().ExecuteContext(context.WithValue(ctx, sessionKey, s))
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lunex",
		Short: "Deployment orchestrator and governance client for the Lunex protocol",
		Long: `lunex deploys the Lunex protocol contracts in dependency order, wires them
together, verifies the on-chain configuration and drives the token listing
governance workflow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			if err := bindArgs(cmd, args); err != nil {
				return err
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}
			v := config.SetupViper(projectRoot, cmd)
			if needsNetwork(cmd) {
				if err := selectNetwork(v, projectRoot); err != nil {
					return err
				}
			}

			appInstance, cleanup, err := appInitializer(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			s := sessionFrom(cmd.Context())
			s.app = appInstance
			s.closers = append(s.closers, cleanup, func() { flushMetrics(appInstance) }, func() { stopProgress(appInstance) })

			ctx := context.WithValue(cmd.Context(), sessionKey, s)
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				s.closers = append(s.closers, cancel)
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network profile from lunex.toml")
	rootCmd.PersistentFlags().StringP("signer", "s", "", "Signer from lunex.toml")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this duration (default 5m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "deployment",
		Title: "Deployment Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "governance",
		Title: "Governance Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{NewDeployCmd(), NewVerifyCmd(), NewListTokenCmd(), NewAddLiquidityCmd()} {
		cmd.GroupID = "deployment"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{NewCreateProposalCmd(), NewVoteCmd(), NewCheckProposalCmd(), NewExecuteProposalCmd()} {
		cmd.GroupID = "governance"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{NewNetworksCmd(), NewConfigCmd()} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindArgs copies positional arguments onto the flags named by the
// command's args annotation, so config resolution sees them.
func bindArgs(cmd *cobra.Command, args []string) error {
	names := splitAnnotation(cmd.Annotations[argsAnnotation])
	for i, name := range names {
		if i >= len(args) {
			break
		}
		if err := cmd.Flags().Set(name, args[i]); err != nil {
			return fmt.Errorf("failed to bind argument %s: %w", name, err)
		}
	}
	return nil
}

// needsNetwork reports whether the command talks to a chain
func needsNetwork(cmd *cobra.Command) bool {
	return cmd.GroupID == "deployment" || cmd.GroupID == "governance"
}

// selectNetwork asks for a network profile when none is selected and a
// terminal is available
func selectNetwork(v *viper.Viper, projectRoot string) error {
	if v.GetString("network") != "" || v.GetBool("non_interactive") {
		return nil
	}
	project, err := config.LoadProject(projectRoot)
	if err != nil {
		return err
	}
	names := lo.Keys(project.Networks)
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	prompter := interactive.NewPrompter(&domainconfig.RuntimeConfig{})
	name, err := prompter.Select("Select network", names)
	if err != nil {
		return err
	}
	v.Set("network", name)
	return nil
}

func splitAnnotation(v string) []string {
	return lo.Compact(strings.Split(v, ","))
}

func sessionFrom(ctx context.Context) *session {
	if s, ok := ctx.Value(sessionKey).(*session); ok {
		return s
	}
	// Executed without Execute; nothing releases this session
	return &session{}
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	s, ok := cmd.Context().Value(sessionKey).(*session)
	if !ok || s.app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return s.app, nil
}

// requireNetwork returns the selected network profile
func requireNetwork(a *app.App) (*domainconfig.Network, error) {
	if a.Config.Network == nil {
		return nil, domain.NewValidationError("network", "no network selected; pass --network or run `lunex config set network <name>`")
	}
	return a.Config.Network, nil
}

// requireSigner resolves the selected signer
func requireSigner(a *app.App) (models.Signer, error) {
	if a.Config.SignerName == "" {
		return nil, domain.NewValidationError("signer", "no signer selected; pass --signer or run `lunex config set signer <name>`")
	}
	return a.Signers.Signer(a.Config.SignerName)
}

// confirmMutation asks before mutating a mainnet profile
func confirmMutation(a *app.App, action string) (*domainconfig.Network, error) {
	network, err := requireNetwork(a)
	if err != nil {
		return nil, err
	}
	if err := a.Prompter.ConfirmNetwork(action, network); err != nil {
		return nil, err
	}
	return network, nil
}

func parseProposalID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("proposal id", "%q is not a number", arg)
	}
	return id, nil
}

func flushMetrics(a *app.App) {
	if a.Metrics == nil {
		return
	}
	if err := a.Metrics.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write metrics: %v\n", err)
	}
}

type stopper interface{ Stop() }

func stopProgress(a *app.App) {
	if s, ok := a.Progress.(stopper); ok {
		s.Stop()
	}
}

// errVerificationFailed makes a failed report exit non-zero after rendering
var errVerificationFailed = errors.New("verification failed")
