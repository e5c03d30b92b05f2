package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

const defaultPauseQuery = "paused"

var addressType = abi.Type{T: abi.AddressTy, Size: 20}

// VerifyDeployment checks live contract state against the deployment record
// and an expected configuration. It never submits transactions and reports
// every problem it finds instead of stopping at the first.
type VerifyDeployment struct {
	client   ChainClient
	catalog  ContractCatalog
	store    RecordStore
	metrics  MetricsRecorder
	progress ProgressSink
	log      *slog.Logger
}

// NewVerifyDeployment creates a new deployment verifier
func NewVerifyDeployment(
	client ChainClient,
	catalog ContractCatalog,
	store RecordStore,
	metrics MetricsRecorder,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyDeployment {
	return &VerifyDeployment{
		client:   client,
		catalog:  catalog,
		store:    store,
		metrics:  metrics,
		progress: progress,
		log:      log.With("component", "VerifyDeployment"),
	}
}

// verifyTarget is one contract under verification
type verifyTarget struct {
	name    string
	address common.Address
	iface   *contracts.Interface
	expect  config.ContractExpectation

	// problem explains why the target cannot be queried; the address may
	// still be known when only the interface is missing
	problem   string
	noAddress bool
}

// queryable reports whether queries can be sent to the target
func (t *verifyTarget) queryable() bool {
	return t.problem == ""
}

// Run loads the record of a network and verifies it.
func (uc *VerifyDeployment) Run(ctx context.Context, network string, expected *config.VerifyConfig) (*models.VerificationReport, error) {
	record, err := uc.store.Load(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}
	return uc.VerifyAll(ctx, record, expected)
}

// VerifyAll runs the existence, configuration, link, pause and smoke checks
// concurrently and aggregates them. Mismatches never produce an error; an
// error means the report could not be built at all.
func (uc *VerifyDeployment) VerifyAll(ctx context.Context, record *models.DeploymentRecord, expected *config.VerifyConfig) (*models.VerificationReport, error) {
	if expected == nil {
		expected = &config.VerifyConfig{}
	}
	resolve := contracts.ResolverFromMap(record.Addresses())

	targets := uc.targets(record, expected, resolve)
	if len(targets) == 0 {
		return nil, domain.NewValidationError("record", "nothing to verify on %s", record.Network)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "verify",
		Message: fmt.Sprintf("Verifying %d contracts", len(targets)),
		Spinner: true,
	})

	report := &models.VerificationReport{Network: record.Network}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Existence = uc.checkExistence(gctx, targets)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Config = uc.checkConfig(gctx, targets, resolve)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Links = uc.checkLinks(gctx, targets, expected.Links)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Pause = uc.checkPause(gctx, targets)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Smoke = uc.checkSmoke(gctx, targets)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range report.Pause {
		if p.Paused {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s is paused", p.Contract))
		}
	}
	report.Evaluate()
	uc.observe(report)

	uc.log.Info("verification finished", "network", record.Network, "pass", report.OverallPass, "mismatches", len(report.Mismatches()))
	return report, nil
}

// targets resolves every contract to verify. A contract whose address or
// interface cannot be resolved stays in the list with its problem noted, so
// the other contracts are still checked.
func (uc *VerifyDeployment) targets(record *models.DeploymentRecord, expected *config.VerifyConfig, resolve contracts.Resolver) []*verifyTarget {
	names := make(map[string]bool)
	for name, c := range record.Contracts {
		if c.Finalized {
			names[name] = true
		}
	}
	for name := range expected.Contracts {
		names[name] = true
	}

	var targets []*verifyTarget
	for name := range names {
		exp := expected.Contracts[name]
		target := &verifyTarget{name: name, expect: exp}

		switch {
		case exp.Address != "":
			addr, err := contracts.ConvertValue(addressType, exp.Address, resolve)
			if err != nil {
				target.problem = fmt.Sprintf("invalid address: %v", err)
				target.noAddress = true
			} else {
				target.address = addr.(common.Address)
			}
		default:
			addr, ok := record.Address(name)
			if !ok {
				target.problem = "no address in the record or configuration"
				target.noAddress = true
			}
			target.address = addr
		}

		artifact := exp.Artifact
		if artifact == "" {
			if c, ok := record.Contracts[name]; ok && c.Artifact != "" {
				artifact = c.Artifact
			} else {
				artifact = name
			}
		}
		iface, err := uc.catalog.Interface(artifact)
		switch {
		case err != nil && target.problem == "":
			target.problem = err.Error()
		case err == nil:
			target.iface = iface
		}
		if target.problem != "" {
			uc.log.Warn("contract cannot be queried", "contract", name, "problem", target.problem)
		}
		targets = append(targets, target)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].name < targets[j].name })
	return targets
}

func (uc *VerifyDeployment) checkExistence(ctx context.Context, targets []*verifyTarget) []models.ExistenceCheck {
	checks := make([]models.ExistenceCheck, 0, len(targets))
	for _, t := range targets {
		check := models.ExistenceCheck{Contract: t.name, Address: t.address}
		if t.noAddress {
			check.Error = t.problem
			checks = append(checks, check)
			continue
		}
		code, err := uc.client.CodeAt(ctx, t.address)
		if err != nil {
			check.Error = err.Error()
		} else {
			check.Exists = len(code) > 0
		}
		checks = append(checks, check)
	}
	return checks
}

func (uc *VerifyDeployment) checkConfig(ctx context.Context, targets []*verifyTarget, resolve contracts.Resolver) []models.ConfigCheck {
	var checks []models.ConfigCheck
	for _, t := range targets {
		keys := make([]string, 0, len(t.expect.Expect))
		for key := range t.expect.Expect {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			check := models.ConfigCheck{Contract: t.name, Key: key, Expected: t.expect.Expect[key]}
			expected, err := contracts.NormalizeExpected(check.Expected, resolve)
			if err != nil {
				check.Error = err.Error()
				checks = append(checks, check)
				continue
			}
			check.Expected = expected
			if !t.queryable() {
				check.Error = t.problem
				checks = append(checks, check)
				continue
			}

			value, err := t.iface.QueryOne(ctx, uc.client, t.address, key)
			if err != nil {
				check.Error = err.Error()
			} else {
				check.Actual = contracts.FormatValue(value)
				check.Match = check.Actual == check.Expected
			}
			if !check.Match {
				uc.log.Debug("configuration mismatch", "error", domain.VerificationMismatch{
					Contract: t.name, Key: key, Expected: check.Expected, Actual: check.Actual,
				})
			}
			checks = append(checks, check)
		}
	}
	return checks
}

func (uc *VerifyDeployment) checkLinks(ctx context.Context, targets []*verifyTarget, links []config.LinkExpectation) []models.LinkCheck {
	byName := make(map[string]*verifyTarget, len(targets))
	for _, t := range targets {
		byName[t.name] = t
	}

	checks := make([]models.LinkCheck, 0, len(links))
	for _, link := range links {
		check := models.LinkCheck{From: link.From, Query: link.Query, To: link.To}
		from, ok := byName[link.From]
		if !ok {
			check.Error = fmt.Sprintf("%s is not deployed", link.From)
			checks = append(checks, check)
			continue
		}
		to, ok := byName[link.To]
		if !ok {
			check.Error = fmt.Sprintf("%s is not deployed", link.To)
			checks = append(checks, check)
			continue
		}
		if to.noAddress {
			check.Error = fmt.Sprintf("%s: %s", link.To, to.problem)
			checks = append(checks, check)
			continue
		}
		check.Expected = to.address
		if !from.queryable() {
			check.Error = fmt.Sprintf("%s: %s", link.From, from.problem)
			checks = append(checks, check)
			continue
		}

		value, err := from.iface.QueryOne(ctx, uc.client, from.address, link.Query)
		if err != nil {
			check.Error = err.Error()
			checks = append(checks, check)
			continue
		}
		actual, ok := value.(common.Address)
		if !ok {
			check.Error = fmt.Sprintf("%s.%s returned %T, expected an address", link.From, link.Query, value)
			checks = append(checks, check)
			continue
		}
		check.Actual = actual
		check.Match = actual == to.address
		checks = append(checks, check)
	}
	return checks
}

func (uc *VerifyDeployment) checkPause(ctx context.Context, targets []*verifyTarget) []models.PauseCheck {
	var checks []models.PauseCheck
	for _, t := range targets {
		query := t.expect.PauseQuery
		if query == "" {
			query = defaultPauseQuery
		}
		if !t.queryable() || !t.iface.HasQuery(query) {
			continue
		}
		check := models.PauseCheck{Contract: t.name}
		value, err := t.iface.QueryOne(ctx, uc.client, t.address, query)
		switch {
		case err != nil:
			check.Error = err.Error()
		default:
			paused, ok := value.(bool)
			if !ok {
				check.Error = fmt.Sprintf("%s.%s returned %T, expected a bool", t.name, query, value)
			}
			check.Paused = paused
		}
		checks = append(checks, check)
	}
	return checks
}

func (uc *VerifyDeployment) checkSmoke(ctx context.Context, targets []*verifyTarget) []models.SmokeCheck {
	checks := make([]models.SmokeCheck, 0, len(targets))
	for _, t := range targets {
		check := models.SmokeCheck{Contract: t.name, Method: t.expect.Smoke}
		if !t.queryable() {
			check.Error = t.problem
			checks = append(checks, check)
			continue
		}
		if check.Method == "" {
			queries := t.iface.NoArgQueries()
			if len(queries) == 0 {
				check.Error = "contract exposes no argument-free query"
				checks = append(checks, check)
				continue
			}
			check.Method = queries[0]
		}

		value, err := t.iface.QueryOne(ctx, uc.client, t.address, check.Method)
		if err != nil {
			check.Error = err.Error()
		} else {
			check.OK = true
			check.Result = contracts.FormatValue(value)
		}
		checks = append(checks, check)
	}
	return checks
}

func (uc *VerifyDeployment) observe(report *models.VerificationReport) {
	for _, c := range report.Existence {
		uc.metrics.ObserveVerification("existence", c.Exists)
	}
	for _, c := range report.Config {
		uc.metrics.ObserveVerification("config", c.Match)
	}
	for _, c := range report.Links {
		uc.metrics.ObserveVerification("links", c.Match)
	}
	for _, c := range report.Smoke {
		uc.metrics.ObserveVerification("smoke", c.OK)
	}
}
