package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// StatusUpdate is one observation of a submitted transaction.
type StatusUpdate struct {
	// State is TxIncluded or TxFinalized; TxSubmitted when no receipt exists yet.
	State   models.TxState
	Receipt *types.Receipt
	// RevertData holds the replayed revert payload of a failed transaction.
	RevertData []byte
}

// StatusSubscription streams status updates for one transaction. The
// channel closes when the connection is lost or the subscription ends.
type StatusSubscription interface {
	Updates() <-chan StatusUpdate
	Unsubscribe()
}

// ChainClient is the network endpoint used by every component
type ChainClient interface {
	contracts.Caller

	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	LatestBlockTime(ctx context.Context) (time.Time, error)

	// TransactionStatus queries the chain once. It is the reconciliation source of truth.
	TransactionStatus(ctx context.Context, txID common.Hash) (*StatusUpdate, error)
	SubscribeStatus(ctx context.Context, txID common.Hash) (StatusSubscription, error)
}

// Transactor submits transactions and follows them to a terminal state
type Transactor interface {
	Submit(ctx context.Context, req *models.TransactionRequest) (*PendingTransaction, error)
	SubmitAndTrack(ctx context.Context, req *models.TransactionRequest) (*models.TransactionOutcome, error)
	Reconcile(ctx context.Context, txID common.Hash, decoder models.EventDecoder) (*models.TransactionOutcome, error)
}

// ContractCatalog resolves compiled contract interfaces by artifact name
type ContractCatalog interface {
	Interface(name string) (*contracts.Interface, error)
}

// RecordStore persists deployment records per network
type RecordStore interface {
	// Load returns the record for a network, or an empty record when none exists.
	Load(ctx context.Context, network string) (*models.DeploymentRecord, error)
	Save(ctx context.Context, record *models.DeploymentRecord) error
	// Lock takes the single-writer lock for a network.
	Lock(ctx context.Context, network string) (unlock func(), err error)
}

// StakingContract is the typed view of the staking contract
type StakingContract interface {
	Address() common.Address
	GetProposal(ctx context.Context, id uint64) (*models.Proposal, error)
	CurrentProposalFee(ctx context.Context) (*big.Int, error)
	VotingPower(ctx context.Context, account common.Address) (*big.Int, error)
	IsProjectApproved(ctx context.Context, token common.Address) (bool, error)
	CreateProposal(info models.ProposalInfo) (*models.TransactionRequest, error)
	Vote(id uint64, inFavor bool) (*models.TransactionRequest, error)
	ExecuteProposal(id uint64) (*models.TransactionRequest, error)
	AdminListToken(token common.Address, reason string) (*models.TransactionRequest, error)
}

// RouterContract is the typed view of the liquidity router
type RouterContract interface {
	Address() common.Address
	WNative(ctx context.Context) (common.Address, error)
	AddLiquidity(p bindings.LiquidityParams) (*models.TransactionRequest, error)
}

// TokenContract is the typed view of a PSP22 token
type TokenContract interface {
	Address() common.Address
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(spender common.Address, amount *big.Int) (*models.TransactionRequest, error)
}

// ContractBinder binds typed contract views to addresses
type ContractBinder interface {
	Staking(address common.Address) (StakingContract, error)
	Router(address common.Address) (RouterContract, error)
	Token(address common.Address) (TokenContract, error)
}

// SignerSource resolves named signers from the project configuration
type SignerSource interface {
	Signer(name string) (models.Signer, error)
}

// NetworkResolver resolves network names to profiles
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, name string) (*config.Network, error)
}

// MetricsRecorder observes transaction and verification outcomes
type MetricsRecorder interface {
	ObserveTransaction(label string, state models.TxState, elapsed time.Duration)
	ObserveDeployment(contract string, skipped bool)
	ObserveVerification(check string, pass bool)
}

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// NopMetrics is a no-op implementation of MetricsRecorder
type NopMetrics struct{}

func (NopMetrics) ObserveTransaction(string, models.TxState, time.Duration) {}
func (NopMetrics) ObserveDeployment(string, bool)                           {}
func (NopMetrics) ObserveVerification(string, bool)                         {}
