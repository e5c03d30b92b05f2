package binder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// Binder binds the typed protocol views to addresses using the loaded
// artifact catalog and the chain client for queries
type Binder struct {
	catalog usecase.ContractCatalog
	caller  contracts.Caller
}

// NewBinder creates a new contract binder
func NewBinder(catalog usecase.ContractCatalog, client usecase.ChainClient) *Binder {
	return &Binder{catalog: catalog, caller: client}
}

func (b *Binder) Staking(address common.Address) (usecase.StakingContract, error) {
	iface, err := b.catalog.Interface(bindings.ArtifactStaking)
	if err != nil {
		return nil, err
	}
	return bindings.NewStaking(iface, address, b.caller), nil
}

func (b *Binder) Router(address common.Address) (usecase.RouterContract, error) {
	iface, err := b.catalog.Interface(bindings.ArtifactRouter)
	if err != nil {
		return nil, err
	}
	return bindings.NewRouter(iface, address, b.caller), nil
}

func (b *Binder) Token(address common.Address) (usecase.TokenContract, error) {
	iface, err := b.catalog.Interface(bindings.ArtifactToken)
	if err != nil {
		return nil, err
	}
	return bindings.NewToken(iface, address, b.caller), nil
}

var _ usecase.ContractBinder = (*Binder)(nil)
