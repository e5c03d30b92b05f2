package cli

import (
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/spf13/cobra"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List network profiles from lunex.toml",
		Long: `List all networks configured in the [networks] section of lunex.toml with
their chain IDs and how many contracts are recorded on each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := a.ListNetworks.Run(cmd.Context(), a.Config.NetworkName)
			if err != nil {
				return err
			}
			return output(cmd, a, result, func() error {
				return render.NewNetworksRenderer(cmd.OutOrStdout()).RenderNetworksList(result)
			})
		},
	}
}
