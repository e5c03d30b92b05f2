package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// StepResult reports the result of one integration or listing step
type StepResult struct {
	Key        string                     `json:"key"`
	Skipped    bool                       `json:"skipped,omitempty"`
	AlreadySet bool                       `json:"alreadySet,omitempty"`
	Outcome    *models.TransactionOutcome `json:"outcome,omitempty"`
}

// ConfigureIntegrations runs the setter calls that wire deployed contracts
// into each other. Setters are idempotent on-chain and completed steps are
// recorded, so the pass can be re-run safely.
type ConfigureIntegrations struct {
	client     ChainClient
	transactor Transactor
	catalog    ContractCatalog
	store      RecordStore
	progress   ProgressSink
	log        *slog.Logger
}

// NewConfigureIntegrations creates a new integration configurator
func NewConfigureIntegrations(
	client ChainClient,
	transactor Transactor,
	catalog ContractCatalog,
	store RecordStore,
	progress ProgressSink,
	log *slog.Logger,
) *ConfigureIntegrations {
	return &ConfigureIntegrations{
		client:     client,
		transactor: transactor,
		catalog:    catalog,
		store:      store,
		progress:   progress,
		log:        log.With("component", "ConfigureIntegrations"),
	}
}

// DefaultIntegrations returns the standard wiring of the protocol contracts,
// limited to the steps whose contracts are all present in the record.
func DefaultIntegrations(record *models.DeploymentRecord) []models.IntegrationStep {
	all := []models.IntegrationStep{
		{
			Contract: bindings.ArtifactStaking,
			Setter:   "set_trading_rewards_contract",
			Args:     []string{models.RefPrefix + bindings.ArtifactRewards},
			Getter:   "trading_rewards_contract",
		},
		{
			Contract: bindings.ArtifactRewards,
			Setter:   "set_staking_contract",
			Args:     []string{models.RefPrefix + bindings.ArtifactStaking},
			Getter:   "staking_contract",
		},
		{
			Contract: bindings.ArtifactRewards,
			Setter:   "set_authorized_router",
			Args:     []string{models.RefPrefix + bindings.ArtifactRouter},
			Getter:   "authorized_router",
		},
	}

	var steps []models.IntegrationStep
	for _, step := range all {
		present := record.IsFinalized(step.Contract)
		for _, ref := range models.References(step.Args) {
			present = present && record.IsFinalized(ref)
		}
		if present {
			steps = append(steps, step)
		}
	}
	return steps
}

// Configure runs every step not yet recorded as complete. It stops at the
// first step that does not finalize; earlier steps stay recorded.
func (uc *ConfigureIntegrations) Configure(ctx context.Context, record *models.DeploymentRecord, steps []models.IntegrationStep, signer models.Signer) ([]*StepResult, error) {
	var results []*StepResult
	for i, step := range steps {
		key := step.Key()
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "integrate",
			Current: i + 1,
			Total:   len(steps),
			Message: fmt.Sprintf("Configuring %s", key),
			Spinner: true,
		})

		if record.IntegrationDone(key) {
			results = append(results, &StepResult{Key: key, Skipped: true})
			continue
		}

		res, err := uc.configure(ctx, record, step, signer)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (uc *ConfigureIntegrations) configure(ctx context.Context, record *models.DeploymentRecord, step models.IntegrationStep, signer models.Signer) (*StepResult, error) {
	key := step.Key()
	addr, ok := record.Address(step.Contract)
	if !ok {
		return nil, domain.NewValidationError("integrations", "step %s targets %s, which is not deployed", key, step.Contract)
	}
	iface, err := uc.catalog.Interface(record.Contracts[step.Contract].Artifact)
	if err != nil {
		return nil, err
	}
	args, err := iface.ConvertArgs(step.Setter, step.Args, contracts.ResolverFromMap(record.Addresses()))
	if err != nil {
		return nil, err
	}

	if step.Getter != "" && len(args) == 1 {
		current, err := iface.QueryOne(ctx, uc.client, addr, step.Getter)
		if err != nil {
			uc.log.Warn("getter failed, calling setter anyway", "step", key, "getter", step.Getter, "error", err)
		} else if contracts.FormatValue(current) == contracts.FormatValue(args[0]) {
			uc.log.Info("integration already set", "step", key)
			record.MarkIntegration(&models.StepRecord{Key: key, Finalized: true, AlreadySet: true, CompletedAt: time.Now().UTC()})
			return &StepResult{Key: key, AlreadySet: true}, uc.store.Save(ctx, record)
		}
	}

	data, err := iface.PackMutation(step.Setter, args...)
	if err != nil {
		return nil, err
	}
	outcome, err := uc.transactor.SubmitAndTrack(ctx, &models.TransactionRequest{
		Label:   key,
		To:      &addr,
		Method:  step.Setter,
		Args:    args,
		Data:    data,
		Signer:  signer,
		Decoder: iface,
	})
	if err != nil {
		return nil, err
	}
	res := &StepResult{Key: key, Outcome: outcome}
	if err := domain.OutcomeError(key, outcome); err != nil {
		return res, err
	}

	record.MarkIntegration(&models.StepRecord{Key: key, TransactionID: outcome.TxID, Finalized: true, CompletedAt: time.Now().UTC()})
	if err := uc.store.Save(ctx, record); err != nil {
		return res, fmt.Errorf("failed to save deployment record: %w", err)
	}
	uc.progress.Info(fmt.Sprintf("%s configured", key))
	return res, nil
}
