package render

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// newTable returns a borderless left-aligned table
func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:      "  ",
		PaddingRight:     " ",
		MiddleHorizontal: "─",
	}
	t.Style().Format.Header = text.FormatUpper
	if header != nil {
		t.AppendHeader(header)
	}
	return t
}

// txStateLabel colors a transaction state
func txStateLabel(state models.TxState) string {
	switch state {
	case models.TxFinalized:
		return color.New(color.FgGreen).Sprint(state)
	case models.TxFailed, models.TxUnknown:
		return color.New(color.FgRed).Sprint(state)
	default:
		return color.New(color.FgYellow).Sprint(state)
	}
}

// shortHash keeps the first and last four bytes of a hash
func shortHash(h common.Hash) string {
	if h == (common.Hash{}) {
		return "-"
	}
	s := h.Hex()
	return s[:10] + "…" + s[len(s)-8:]
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "closed"
	}
	return d.Round(time.Second).String() + " left"
}

// outcomeLine summarizes a transaction outcome on one line
func outcomeLine(o *models.TransactionOutcome) string {
	if o == nil {
		return "-"
	}
	line := fmt.Sprintf("%s tx %s", txStateLabel(o.State), shortHash(o.TxID))
	if o.BlockNumber > 0 {
		line += fmt.Sprintf(" block %d", o.BlockNumber)
	}
	if o.DispatchError != nil {
		line += " " + color.New(color.FgRed).Sprint(o.DispatchError.Error())
	} else if o.Reason != "" {
		line += " " + o.Reason
	}
	return line
}
