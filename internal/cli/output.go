package cli

import (
	"github.com/lunes-platform/lunex-cli/internal/app"
	"github.com/lunes-platform/lunex-cli/internal/cli/render"
	"github.com/spf13/cobra"
)

// output writes result as JSON under --json and otherwise calls human
func output(cmd *cobra.Command, a *app.App, result any, human func() error) error {
	if a.Config.JSON {
		return render.JSON(cmd.OutOrStdout(), result)
	}
	return human()
}
