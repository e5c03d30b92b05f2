package app

import (
	"github.com/lunes-platform/lunex-cli/internal/adapters/interactive"
	"github.com/lunes-platform/lunex-cli/internal/adapters/metrics"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Signers  usecase.SignerSource
	Prompter *interactive.Prompter
	Progress usecase.ProgressSink
	Metrics  *metrics.Recorder

	// Use cases
	DeployContracts  *usecase.DeployContracts
	VerifyDeployment *usecase.VerifyDeployment
	ListTokens       *usecase.ListTokens
	Governance       *usecase.Governance
	AddLiquidity     *usecase.AddLiquidity
	ListNetworks     *usecase.ListNetworks
	ManageConfig     *usecase.ManageConfig
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	signers usecase.SignerSource,
	prompter *interactive.Prompter,
	progress usecase.ProgressSink,
	recorder *metrics.Recorder,
	deployContracts *usecase.DeployContracts,
	verifyDeployment *usecase.VerifyDeployment,
	listTokens *usecase.ListTokens,
	governance *usecase.Governance,
	addLiquidity *usecase.AddLiquidity,
	listNetworks *usecase.ListNetworks,
	manageConfig *usecase.ManageConfig,
) (*App, error) {
	return &App{
		Config:           cfg,
		Signers:          signers,
		Prompter:         prompter,
		Progress:         progress,
		Metrics:          recorder,
		DeployContracts:  deployContracts,
		VerifyDeployment: verifyDeployment,
		ListTokens:       listTokens,
		Governance:       governance,
		AddLiquidity:     addLiquidity,
		ListNetworks:     listNetworks,
		ManageConfig:     manageConfig,
	}, nil
}
