package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// gasHeadroomPercent is added on top of the node's gas estimate.
const gasHeadroomPercent = 20

// DeployContracts instantiates a dependency-ordered set of contracts,
// wires them together and lists the configured tokens. The deployment
// record is the checkpoint: every finalized contract is saved before the
// next one is attempted, and re-running skips what is already finalized.
type DeployContracts struct {
	client       ChainClient
	transactor   Transactor
	catalog      ContractCatalog
	store        RecordStore
	integrations *ConfigureIntegrations
	listings     *ListTokens
	metrics      MetricsRecorder
	progress     ProgressSink
	log          *slog.Logger
}

// NewDeployContracts creates a new deployment orchestrator
func NewDeployContracts(
	client ChainClient,
	transactor Transactor,
	catalog ContractCatalog,
	store RecordStore,
	integrations *ConfigureIntegrations,
	listings *ListTokens,
	metrics MetricsRecorder,
	progress ProgressSink,
	log *slog.Logger,
) *DeployContracts {
	return &DeployContracts{
		client:       client,
		transactor:   transactor,
		catalog:      catalog,
		store:        store,
		integrations: integrations,
		listings:     listings,
		metrics:      metrics,
		progress:     progress,
		log:          log.With("component", "DeployContracts"),
	}
}

// DeployParams contains parameters for a deployment run
type DeployParams struct {
	Network string
	Signer  models.Signer
	Config  *config.DeployConfig
	DryRun  bool
}

// ResourceEstimate is the predicted cost of one instantiation
type ResourceEstimate struct {
	Contract     string         `json:"contract"`
	Address      common.Address `json:"address"`
	Reused       bool           `json:"reused,omitempty"`
	Gas          uint64         `json:"gas,omitempty"`
	GasLimit     uint64         `json:"gasLimit,omitempty"`
	GasPrice     *big.Int       `json:"gasPrice,omitempty"`
	Fee          *big.Int       `json:"fee,omitempty"`
	StorageBytes uint64         `json:"storageBytes,omitempty"`
}

// ContractResult reports what happened to one contract of the plan
type ContractResult struct {
	Name     string                     `json:"name"`
	Skipped  bool                       `json:"skipped,omitempty"`
	Estimate *ResourceEstimate          `json:"estimate,omitempty"`
	Outcome  *models.TransactionOutcome `json:"outcome,omitempty"`
}

// DeployResult contains the results of a deployment run
type DeployResult struct {
	Network      string                   `json:"network"`
	DryRun       bool                     `json:"dryRun,omitempty"`
	Plan         []string                 `json:"plan"`
	Contracts    []*ContractResult        `json:"contracts"`
	Integrations []*StepResult            `json:"integrations,omitempty"`
	Listings     []*StepResult            `json:"listings,omitempty"`
	TotalFee     *big.Int                 `json:"totalFee,omitempty"`
	Record       *models.DeploymentRecord `json:"record,omitempty"`
}

// Run executes a full deployment: contracts, integrations and listings.
// On error the returned result still describes every phase that completed.
func (uc *DeployContracts) Run(ctx context.Context, params DeployParams) (*DeployResult, error) {
	if params.Config == nil {
		return nil, domain.NewValidationError("config", "deployment configuration is required")
	}
	if params.Signer == nil {
		return nil, domain.NewValidationError("signer", "a signer is required")
	}

	plan, err := BuildPlan(params.Config.Contracts)
	if err != nil {
		return nil, err
	}
	result := &DeployResult{Network: params.Network, DryRun: params.DryRun, Plan: plan.Names()}

	if params.DryRun {
		record, err := uc.store.Load(ctx, params.Network)
		if err != nil {
			return nil, fmt.Errorf("failed to load deployment record: %w", err)
		}
		estimates, total, err := uc.DryRun(ctx, plan, record, params.Signer.Address())
		for _, est := range estimates {
			result.Contracts = append(result.Contracts, &ContractResult{Name: est.Contract, Skipped: est.Reused, Estimate: est})
		}
		result.TotalFee = total
		return result, err
	}

	unlock, err := uc.store.Lock(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := uc.loadRecord(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	result.Record = record

	contractResults, err := uc.Deploy(ctx, plan, record, params.Signer)
	result.Contracts = contractResults
	if err != nil {
		return result, err
	}

	steps := params.Config.Integrations
	if len(steps) == 0 {
		steps = DefaultIntegrations(record)
	}
	result.Integrations, err = uc.integrations.Configure(ctx, record, steps, params.Signer)
	if err != nil {
		return result, err
	}

	if len(params.Config.Listings) > 0 {
		result.Listings, err = uc.listings.List(ctx, record, params.Config.Listings, params.Signer)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (uc *DeployContracts) loadRecord(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	record, err := uc.store.Load(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}
	chainID, err := uc.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if record.ChainID == 0 {
		record.ChainID = chainID.Uint64()
	} else if record.ChainID != chainID.Uint64() {
		return nil, domain.NewValidationError("network", "record for %s belongs to chain %d, endpoint serves chain %d", network, record.ChainID, chainID.Uint64())
	}
	return record, nil
}

// Deploy instantiates every contract of the plan that the record does not
// already hold as finalized. It stops at the first Failed or Unknown
// outcome; the record keeps every contract finalized before it.
func (uc *DeployContracts) Deploy(ctx context.Context, plan *models.DeploymentPlan, record *models.DeploymentRecord, signer models.Signer) ([]*ContractResult, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}

	var results []*ContractResult
	total := len(plan.Contracts)
	for i, spec := range plan.Contracts {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "deploy",
			Current: i + 1,
			Total:   total,
			Message: fmt.Sprintf("Deploying %s", spec.Name),
			Spinner: true,
		})

		if record.IsFinalized(spec.Name) {
			uc.log.Info("contract already finalized, skipping", "contract", spec.Name)
			uc.metrics.ObserveDeployment(spec.Name, true)
			results = append(results, &ContractResult{Name: spec.Name, Skipped: true})
			continue
		}

		iface, err := uc.catalog.Interface(spec.ArtifactName())
		if err != nil {
			return results, err
		}

		settled, err := uc.reconcilePending(ctx, record, spec, iface)
		if err != nil {
			return results, err
		}
		if settled {
			results = append(results, &ContractResult{Name: spec.Name, Skipped: true})
			continue
		}

		res, err := uc.instantiate(ctx, spec, iface, record, signer)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// reconcilePending settles an entry left behind by an earlier run whose
// outcome was never observed. It reports whether the contract is now finalized.
func (uc *DeployContracts) reconcilePending(ctx context.Context, record *models.DeploymentRecord, spec models.ContractSpec, iface *contracts.Interface) (bool, error) {
	entry, ok := record.Contracts[spec.Name]
	if !ok || entry.TransactionID == (common.Hash{}) {
		return false, nil
	}

	outcome, err := uc.transactor.Reconcile(ctx, entry.TransactionID, iface)
	if err != nil {
		return false, err
	}
	switch outcome.State {
	case models.TxFinalized:
		addr, ok := outcome.InstantiatedAddress()
		if !ok {
			return false, fmt.Errorf("transaction %s for %s finalized without an instantiation event", entry.TransactionID.Hex(), spec.Name)
		}
		uc.log.Info("pending deployment finalized", "contract", spec.Name, "address", addr.Hex())
		record.Append(&models.DeployedContract{
			Name:          spec.Name,
			Artifact:      spec.ArtifactName(),
			Address:       addr,
			TransactionID: outcome.TxID,
			BlockNumber:   outcome.BlockNumber,
			Finalized:     true,
			DeployedAt:    entry.DeployedAt,
		})
		return true, uc.store.Save(ctx, record)
	case models.TxFailed:
		uc.log.Warn("previous deployment attempt failed, resubmitting", "contract", spec.Name, "tx", entry.TransactionID.Hex(), "error", outcome.DispatchError)
		delete(record.Contracts, spec.Name)
		return false, uc.store.Save(ctx, record)
	default:
		return false, &domain.UnknownOutcomeError{
			Label:  spec.Name,
			TxID:   entry.TransactionID,
			Reason: "previous deployment transaction is not finalized yet",
		}
	}
}

func (uc *DeployContracts) instantiate(ctx context.Context, spec models.ContractSpec, iface *contracts.Interface, record *models.DeploymentRecord, signer models.Signer) (*ContractResult, error) {
	from := signer.Address()
	req, est, err := uc.prepare(ctx, spec, iface, contracts.ResolverFromMap(record.Addresses()), from)
	if err != nil {
		return nil, err
	}
	if err := uc.ensureBalance(ctx, from, est.Fee); err != nil {
		return nil, err
	}
	req.Signer = signer

	outcome, err := uc.transactor.SubmitAndTrack(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &ContractResult{Name: spec.Name, Estimate: est, Outcome: outcome}

	switch outcome.State {
	case models.TxFinalized:
		addr, ok := outcome.InstantiatedAddress()
		if !ok {
			return res, fmt.Errorf("transaction %s for %s finalized without an instantiation event", outcome.TxID.Hex(), spec.Name)
		}
		record.Append(&models.DeployedContract{
			Name:          spec.Name,
			Artifact:      spec.ArtifactName(),
			Address:       addr,
			TransactionID: outcome.TxID,
			BlockNumber:   outcome.BlockNumber,
			Finalized:     true,
			DeployedAt:    time.Now().UTC(),
		})
		uc.metrics.ObserveDeployment(spec.Name, false)
		uc.progress.Info(fmt.Sprintf("%s deployed at %s", spec.Name, addr.Hex()))
	case models.TxFailed:
		return res, domain.OutcomeError(req.Label, outcome)
	default:
		// Keep the transaction id so the next run can reconcile it.
		record.Append(&models.DeployedContract{
			Name:          spec.Name,
			Artifact:      spec.ArtifactName(),
			TransactionID: outcome.TxID,
			BlockNumber:   outcome.BlockNumber,
			DeployedAt:    time.Now().UTC(),
		})
	}

	if err := uc.store.Save(ctx, record); err != nil {
		return res, fmt.Errorf("failed to save deployment record: %w", err)
	}
	return res, domain.OutcomeError(req.Label, outcome)
}

// prepare converts constructor arguments and estimates the instantiation
// without changing any state.
func (uc *DeployContracts) prepare(ctx context.Context, spec models.ContractSpec, iface *contracts.Interface, resolve contracts.Resolver, from common.Address) (*models.TransactionRequest, *ResourceEstimate, error) {
	if !iface.Deployable() {
		return nil, nil, domain.NewValidationError("artifact", "%s has no bytecode to deploy", iface.Name())
	}
	args, err := iface.ConvertArgs("", spec.ConstructorArgs, resolve)
	if err != nil {
		return nil, nil, err
	}
	data, err := iface.PackConstructor(args...)
	if err != nil {
		return nil, nil, err
	}
	value, err := parseAmount("value", spec.Value)
	if err != nil {
		return nil, nil, err
	}

	est := &ResourceEstimate{Contract: spec.Name, StorageBytes: uint64(len(iface.Bytecode()))}
	if limit := spec.Budget.MaxStorageBytes; limit > 0 && est.StorageBytes > limit {
		return nil, nil, &domain.ResourceEstimationError{Label: spec.Name, Resource: "storage bytes", Estimated: est.StorageBytes, Limit: limit}
	}

	est.Gas, err = uc.client.EstimateGas(ctx, ethereum.CallMsg{From: from, Data: data, Value: value})
	if err != nil {
		if isConnectionError(err) {
			return nil, nil, err
		}
		return nil, nil, &domain.ResourceEstimationError{Label: spec.Name, Resource: "gas", Err: err}
	}
	if limit := spec.Budget.MaxGas; limit > 0 && est.Gas > limit {
		return nil, nil, &domain.ResourceEstimationError{Label: spec.Name, Resource: "gas", Estimated: est.Gas, Limit: limit}
	}
	est.GasLimit = est.Gas + est.Gas*gasHeadroomPercent/100
	if limit := spec.Budget.MaxGas; limit > 0 && est.GasLimit > limit {
		est.GasLimit = limit
	}

	est.GasPrice, err = uc.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, err
	}
	est.Fee = new(big.Int).Mul(new(big.Int).SetUint64(est.GasLimit), est.GasPrice)
	if value != nil {
		est.Fee.Add(est.Fee, value)
	}

	req := &models.TransactionRequest{
		Label:   spec.Name,
		Method:  "constructor",
		Args:    args,
		Data:    data,
		Value:   value,
		Limits:  models.ResourceLimits{GasLimit: est.GasLimit, GasPrice: est.GasPrice},
		Decoder: iface,
	}
	return req, est, nil
}

func (uc *DeployContracts) ensureBalance(ctx context.Context, account common.Address, need *big.Int) error {
	balance, err := uc.client.BalanceAt(ctx, account)
	if err != nil {
		return err
	}
	if balance.Cmp(need) < 0 {
		return domain.NewValidationError("balance", "signer %s holds %s, needs %s", account.Hex(), balance, need)
	}
	return nil
}

// DryRun estimates every instantiation the plan would perform without
// submitting anything or touching the record. Addresses of contracts not yet
// deployed are predicted from the signer's nonce.
func (uc *DeployContracts) DryRun(ctx context.Context, plan *models.DeploymentPlan, record *models.DeploymentRecord, from common.Address) ([]*ResourceEstimate, *big.Int, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, nil, err
	}
	nonce, err := uc.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, nil, err
	}

	addresses := record.Addresses()
	resolve := contracts.ResolverFromMap(addresses)
	total := new(big.Int)

	var estimates []*ResourceEstimate
	for _, spec := range plan.Contracts {
		if addr, ok := addresses[spec.Name]; ok {
			estimates = append(estimates, &ResourceEstimate{Contract: spec.Name, Address: addr, Reused: true})
			continue
		}
		iface, err := uc.catalog.Interface(spec.ArtifactName())
		if err != nil {
			return estimates, total, err
		}
		_, est, err := uc.prepare(ctx, spec, iface, resolve, from)
		if err != nil {
			return estimates, total, err
		}
		est.Address = crypto.CreateAddress(from, nonce)
		nonce++
		addresses[spec.Name] = est.Address
		total.Add(total, est.Fee)
		estimates = append(estimates, est)
	}

	return estimates, total, uc.ensureBalance(ctx, from, total)
}

// parseAmount parses an optional base-unit integer.
func parseAmount(field, raw string) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(raw, 0)
	if !ok || v.Sign() < 0 {
		return nil, domain.NewValidationError(field, "%q is not a non-negative integer", raw)
	}
	return v, nil
}
