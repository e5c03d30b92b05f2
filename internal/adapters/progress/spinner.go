package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// SpinnerSink renders progress events as a spinner line on stderr so
// stdout stays free for command output
type SpinnerSink struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	stage   string
	started time.Time
}

// NewSpinnerSink creates a new spinner-based progress sink
func NewSpinnerSink(out io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &SpinnerSink{out: out, spinner: s}
}

// NewProgressSink picks the spinner for interactive terminals and a silent
// sink for JSON or non-interactive runs
func NewProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.JSON || cfg.NonInteractive {
		return NewNopSink()
	}
	return NewSpinnerSink(os.Stderr)
}

// OnProgress updates the spinner suffix with the event
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.stage {
		r.stage = event.Stage
		r.started = time.Now()
	}
	if !event.Spinner {
		r.spinner.Stop()
		return
	}

	suffix := " " + event.Message
	if event.Total > 0 {
		suffix = fmt.Sprintf(" [%d/%d] %s", event.Current, event.Total, event.Message)
	}
	r.spinner.Suffix = suffix
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints a completed step
func (r *SpinnerSink) Info(message string) {
	r.print(color.New(color.FgGreen), "✓ "+message)
}

// Error prints a failed step
func (r *SpinnerSink) Error(message string) {
	r.print(color.New(color.FgRed), "✗ "+message)
}

// Stop halts the spinner
func (r *SpinnerSink) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinner.Stop()
}

func (r *SpinnerSink) print(c *color.Color, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	elapsed := ""
	if !r.started.IsZero() {
		elapsed = color.New(color.Faint).Sprintf(" (%s)", time.Since(r.started).Round(time.Second))
	}
	fmt.Fprintln(r.out, c.Sprint(line)+elapsed)
	if wasActive {
		r.spinner.Start()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
