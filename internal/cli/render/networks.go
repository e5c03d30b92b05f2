package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the configured profiles
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in lunex.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	t := newTable(table.Row{"", "Network", "Chain ID", "Contracts", "RPC"})
	for _, n := range result.Networks {
		current := ""
		if n.Name == result.Current {
			current = "*"
		}
		name := n.Name
		if n.Mainnet {
			name = color.New(color.FgRed).Sprint(name + " (mainnet)")
		}
		if n.Error != nil {
			t.AppendRow(table.Row{current, name, color.New(color.FgRed).Sprintf("error: %v", n.Error), "", ""})
			continue
		}
		t.AppendRow(table.Row{current, name, n.ChainID, n.Deployed, n.RPCURL})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}
