//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/lunes-platform/lunex-cli/internal/adapters"
	"github.com/lunes-platform/lunex-cli/internal/config"
	"github.com/lunes-platform/lunex-cli/internal/logging"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
	"github.com/spf13/viper"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewConfigureIntegrations,
		usecase.NewListTokens,
		usecase.NewDeployContracts,
		usecase.NewVerifyDeployment,
		usecase.NewProposalCache,
		usecase.NewGovernance,
		usecase.NewAddLiquidity,
		usecase.NewListNetworks,
		usecase.NewManageConfig,

		// App
		NewApp,
	)
	return nil, nil, nil
}
