package metrics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every lunex metric. It is separate from the default
// registry so the textfile export carries no Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Transaction metrics
var (
	TransactionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunex_transactions_total",
			Help: "Tracked transactions by label and terminal state",
		},
		[]string{"label", "state"},
	)

	TransactionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lunex_transaction_duration_seconds",
			Help:    "Time from submission to terminal state",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"state"},
	)
)

// Deployment and verification metrics
var (
	DeploymentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunex_deployments_total",
			Help: "Contracts handled by the orchestrator, split by skipped",
		},
		[]string{"contract", "skipped"},
	)

	VerificationChecks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunex_verification_checks_total",
			Help: "Verification checks by category and result",
		},
		[]string{"check", "result"},
	)
)

// Recorder implements usecase.MetricsRecorder and optionally exports a
// node_exporter textfile when the command finishes
type Recorder struct {
	textfile string
	log      *slog.Logger
}

// NewRecorder creates a new metrics recorder
func NewRecorder(cfg *config.RuntimeConfig, log *slog.Logger) *Recorder {
	r := &Recorder{log: log.With("component", "Metrics")}
	if cfg.Project != nil && cfg.Project.Metrics.Textfile != "" {
		r.textfile = cfg.Project.Metrics.Textfile
		if !filepath.IsAbs(r.textfile) {
			r.textfile = filepath.Join(cfg.ProjectRoot, r.textfile)
		}
	}
	return r
}

func (r *Recorder) ObserveTransaction(label string, state models.TxState, elapsed time.Duration) {
	TransactionsTotal.WithLabelValues(label, string(state)).Inc()
	TransactionDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveDeployment(contract string, skipped bool) {
	DeploymentsTotal.WithLabelValues(contract, strconv.FormatBool(skipped)).Inc()
}

func (r *Recorder) ObserveVerification(check string, pass bool) {
	result := "fail"
	if pass {
		result = "pass"
	}
	VerificationChecks.WithLabelValues(check, result).Inc()
}

// Flush writes the registry to the configured textfile. It is a no-op when
// no textfile is configured.
func (r *Recorder) Flush() error {
	if r.textfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.textfile), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.textfile, Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	r.log.Debug("metrics written", "path", r.textfile)
	return nil
}

var _ usecase.MetricsRecorder = (*Recorder)(nil)
