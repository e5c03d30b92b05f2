package render

import (
	"fmt"
	"io"

	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// LiquidityRenderer renders add-liquidity and listing results
type LiquidityRenderer struct {
	out io.Writer
}

// NewLiquidityRenderer creates a new liquidity renderer
func NewLiquidityRenderer(out io.Writer) *LiquidityRenderer {
	return &LiquidityRenderer{out: out}
}

// RenderAddLiquidity prints approvals then the liquidity call
func (r *LiquidityRenderer) RenderAddLiquidity(result *usecase.AddLiquidityResult) error {
	fmt.Fprintf(r.out, "Router %s, pair %s / %s\n", result.Router.Hex(), result.Token.Hex(), result.Quote.Hex())
	renderSteps(r.out, result.Approvals)
	fmt.Fprintln(r.out, FormatSuccess("Liquidity added"))
	fmt.Fprintf(r.out, "  %s\n", outcomeLine(result.Outcome))
	return nil
}

// RenderListings prints the admin listing steps
func (r *LiquidityRenderer) RenderListings(steps []*usecase.StepResult) error {
	if len(steps) == 0 {
		fmt.Fprintln(r.out, "No listings to apply")
		return nil
	}
	renderSteps(r.out, steps)
	return nil
}
