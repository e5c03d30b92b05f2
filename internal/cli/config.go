package cli

import (
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lunex local config",
		Long: `Manage lunex local config stored in .lunex/config.local.json

The config defines default values for network and signer that are used
when these flags are not explicitly provided.

Available subcommands:
  config           Show current config
  config set       Set a config value
  config remove    Remove a config value

When run without subcommands, displays the current config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := a.ManageConfig.Show(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewConfigRenderer(cmd.OutOrStdout()).RenderConfig(result)
			})
		},
	}

	cmd.AddCommand(NewConfigSetCmd())
	cmd.AddCommand(NewConfigRemoveCmd())

	return cmd
}

// NewConfigSetCmd creates the config set subcommand
func NewConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: `Set a config value in .lunex/config.local.json.
Available keys: network, signer

Examples:
  lunex config set network testnet
  lunex config set signer deployer`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := a.ManageConfig.Set(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewConfigRenderer(cmd.OutOrStdout()).RenderSet(result)
			})
		},
	}
}

// NewConfigRemoveCmd creates the config remove subcommand
func NewConfigRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a config value",
		Long: `Remove a config value from .lunex/config.local.json.
Removed values must then be given as flags.

Examples:
  lunex config remove network`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := a.ManageConfig.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewConfigRenderer(cmd.OutOrStdout()).RenderRemove(result)
			})
		},
	}
}
