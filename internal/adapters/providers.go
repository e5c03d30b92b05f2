package adapters

import (
	"github.com/google/wire"
	"github.com/lunes-platform/lunex-cli/internal/adapters/artifacts"
	"github.com/lunes-platform/lunex-cli/internal/adapters/binder"
	"github.com/lunes-platform/lunex-cli/internal/adapters/evm"
	"github.com/lunes-platform/lunex-cli/internal/adapters/interactive"
	"github.com/lunes-platform/lunex-cli/internal/adapters/localconfig"
	"github.com/lunes-platform/lunex-cli/internal/adapters/metrics"
	"github.com/lunes-platform/lunex-cli/internal/adapters/progress"
	"github.com/lunes-platform/lunex-cli/internal/adapters/repository/record"
	"github.com/lunes-platform/lunex-cli/internal/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// ChainSet provides the RPC client, the transaction tracker and contract
// bindings
var ChainSet = wire.NewSet(
	evm.NewClient,
	wire.Bind(new(usecase.ChainClient), new(*evm.Client)),

	usecase.NewTracker,
	wire.Bind(new(usecase.Transactor), new(*usecase.Tracker)),

	artifacts.NewCatalog,
	wire.Bind(new(usecase.ContractCatalog), new(*contracts.Catalog)),

	binder.NewBinder,
	wire.Bind(new(usecase.ContractBinder), new(*binder.Binder)),
)

// StorageSet provides the deployment record and local config stores
var StorageSet = wire.NewSet(
	record.NewRecordStore,

	localconfig.NewStore,
	wire.Bind(new(usecase.LocalConfigStore), new(*localconfig.Store)),
)

// ConfigSet provides project-file backed implementations
var ConfigSet = wire.NewSet(
	config.NewNetworkResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*config.NetworkResolver)),

	evm.NewSignerRegistry,
	wire.Bind(new(usecase.SignerSource), new(*evm.SignerRegistry)),
)

// ReportingSet provides metrics, progress output and prompts
var ReportingSet = wire.NewSet(
	metrics.NewRecorder,
	wire.Bind(new(usecase.MetricsRecorder), new(*metrics.Recorder)),

	progress.NewProgressSink,

	interactive.NewPrompter,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ChainSet,
	StorageSet,
	ConfigSet,
	ReportingSet,
)
