package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// DefaultMinProposalPower is the voting power a proposer must hold when the
// project does not configure one.
const DefaultMinProposalPower = "1000000000000"

// Dispatch error identifiers raised by the staking contract
const (
	errInvalidProposal         = "InvalidProposal"
	errVotingPeriodExpired     = "VotingPeriodExpired"
	errAlreadyVoted            = "AlreadyVoted"
	errInsufficientVotingPower = "InsufficientVotingPower"
)

// ProposalCache keeps the last observed copy of each proposal for
// reporting. The chain stays authoritative.
type ProposalCache struct {
	mu    sync.RWMutex
	items map[uint64]*models.Proposal
}

// NewProposalCache creates an empty cache
func NewProposalCache() *ProposalCache {
	return &ProposalCache{items: make(map[uint64]*models.Proposal)}
}

// Put stores an observed proposal
func (c *ProposalCache) Put(p *models.Proposal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = p
}

// Get returns the last observed proposal
func (c *ProposalCache) Get(id uint64) (*models.Proposal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.items[id]
	return p, ok
}

// Governance drives listing proposals through create, vote and execute.
// Preconditions are checked against chain state before anything is
// submitted; the outcome of execution is always computed on-chain.
type Governance struct {
	client     ChainClient
	binder     ContractBinder
	transactor Transactor
	store      RecordStore
	cache      *ProposalCache
	cfg        *config.RuntimeConfig
	log        *slog.Logger
}

// NewGovernance creates a new governance workflow
func NewGovernance(
	client ChainClient,
	binder ContractBinder,
	transactor Transactor,
	store RecordStore,
	cache *ProposalCache,
	cfg *config.RuntimeConfig,
	log *slog.Logger,
) *Governance {
	return &Governance{
		client:     client,
		binder:     binder,
		transactor: transactor,
		store:      store,
		cache:      cache,
		cfg:        cfg,
		log:        log.With("component", "Governance"),
	}
}

// ProposalStatus is a proposal together with its state at chain time
type ProposalStatus struct {
	Proposal      *models.Proposal     `json:"proposal"`
	State         models.ProposalState `json:"state"`
	Now           time.Time            `json:"now"`
	VotingOpen    bool                 `json:"votingOpen"`
	TimeRemaining time.Duration        `json:"timeRemaining,omitempty"`
	TokenApproved bool                 `json:"tokenApproved"`
}

// CreateProposalResult contains the result of a proposal submission
type CreateProposalResult struct {
	ProposalID uint64                     `json:"proposalId"`
	Fee        *big.Int                   `json:"fee"`
	Proposal   *models.Proposal           `json:"proposal,omitempty"`
	Outcome    *models.TransactionOutcome `json:"outcome"`
}

// VoteResult contains the result of a vote
type VoteResult struct {
	Power    *big.Int                   `json:"power"`
	Proposal *models.Proposal           `json:"proposal,omitempty"`
	Outcome  *models.TransactionOutcome `json:"outcome"`
}

// ExecuteResult contains the result of an execution
type ExecuteResult struct {
	Approved bool                       `json:"approved"`
	State    models.ProposalState       `json:"state"`
	Proposal *models.Proposal           `json:"proposal,omitempty"`
	Outcome  *models.TransactionOutcome `json:"outcome"`
}

func (g *Governance) staking(ctx context.Context) (StakingContract, error) {
	record, err := g.store.Load(ctx, g.cfg.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}
	addr, ok := record.Address(bindings.ArtifactStaking)
	if !ok {
		return nil, domain.NewValidationError("network", "staking contract is not deployed on %s", g.cfg.NetworkName)
	}
	return g.binder.Staking(addr)
}

func (g *Governance) minProposalPower() (*big.Int, error) {
	raw := DefaultMinProposalPower
	if g.cfg.Project != nil && g.cfg.Project.Governance.MinProposalPower != "" {
		raw = g.cfg.Project.Governance.MinProposalPower
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, domain.NewValidationError("governance.min_proposal_power", "%q is not an integer", raw)
	}
	return v, nil
}

// CreateProposal submits a fee-bearing listing proposal and returns the id
// assigned by the chain. A nil fee pays the current proposal fee.
func (g *Governance) CreateProposal(ctx context.Context, info models.ProposalInfo, signer models.Signer) (*CreateProposalResult, error) {
	if info.Title == "" {
		return nil, domain.NewValidationError("title", "a proposal needs a title")
	}
	if info.Token == (common.Address{}) {
		return nil, domain.NewValidationError("token", "a proposal needs a token address")
	}

	staking, err := g.staking(ctx)
	if err != nil {
		return nil, err
	}

	currentFee, err := staking.CurrentProposalFee(ctx)
	if err != nil {
		return nil, err
	}
	if info.Fee == nil {
		info.Fee = currentFee
	} else if info.Fee.Cmp(currentFee) < 0 {
		return nil, domain.NewValidationError("fee", "%s is below the current proposal fee %s", info.Fee, currentFee)
	}

	from := signer.Address()
	balance, err := g.client.BalanceAt(ctx, from)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(info.Fee) < 0 {
		return nil, domain.NewValidationError("balance", "signer %s holds %s, proposal fee is %s", from.Hex(), balance, info.Fee)
	}

	minPower, err := g.minProposalPower()
	if err != nil {
		return nil, err
	}
	power, err := staking.VotingPower(ctx, from)
	if err != nil {
		return nil, err
	}
	if power.Cmp(minPower) < 0 {
		return nil, domain.NewValidationError("voting power", "signer %s has %s, proposing requires %s", from.Hex(), power, minPower)
	}

	req, err := staking.CreateProposal(info)
	if err != nil {
		return nil, err
	}
	req.Signer = signer

	outcome, err := g.transactor.SubmitAndTrack(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &CreateProposalResult{Fee: info.Fee, Outcome: outcome}
	if err := g.outcomeError(req.Label, outcome, opCreate); err != nil {
		return result, err
	}

	ev, ok := outcome.Event(bindings.EventProposalCreated)
	if !ok {
		return result, fmt.Errorf("transaction %s finalized without a %s event", outcome.TxID.Hex(), bindings.EventProposalCreated)
	}
	result.ProposalID, err = bindings.EventUint(ev, "proposal_id")
	if err != nil {
		return result, err
	}
	g.log.Info("proposal created", "id", result.ProposalID, "token", info.Token.Hex())

	result.Proposal = g.refresh(ctx, staking, result.ProposalID)
	return result, nil
}

// Vote casts the signer's staked weight on an open proposal.
func (g *Governance) Vote(ctx context.Context, id uint64, inFavor bool, signer models.Signer) (*VoteResult, error) {
	staking, err := g.staking(ctx)
	if err != nil {
		return nil, err
	}
	proposal, err := staking.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	now, err := g.client.LatestBlockTime(ctx)
	if err != nil {
		return nil, err
	}
	if !proposal.VotingOpen(now) {
		return nil, fmt.Errorf("%w: proposal %d closed at %s", domain.ErrVotingClosed, id, proposal.VotingDeadline.Format(time.RFC3339))
	}

	power, err := staking.VotingPower(ctx, signer.Address())
	if err != nil {
		return nil, err
	}
	if power.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s has no stake", domain.ErrNoVotingPower, signer.Address().Hex())
	}

	req, err := staking.Vote(id, inFavor)
	if err != nil {
		return nil, err
	}
	req.Signer = signer

	outcome, err := g.transactor.SubmitAndTrack(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &VoteResult{Power: power, Outcome: outcome}
	if err := g.outcomeError(req.Label, outcome, opVote); err != nil {
		return result, err
	}
	g.log.Info("vote cast", "id", id, "inFavor", inFavor, "power", power)

	result.Proposal = g.refresh(ctx, staking, id)
	return result, nil
}

// ExecuteProposal settles a proposal whose voting window has ended. The
// chain decides approval; the client only submits and tracks finalization.
func (g *Governance) ExecuteProposal(ctx context.Context, id uint64, signer models.Signer) (*ExecuteResult, error) {
	staking, err := g.staking(ctx)
	if err != nil {
		return nil, err
	}
	proposal, err := staking.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Executed {
		return nil, fmt.Errorf("%w: proposal %d", domain.ErrAlreadyExecuted, id)
	}
	now, err := g.client.LatestBlockTime(ctx)
	if err != nil {
		return nil, err
	}
	if now.Before(proposal.VotingDeadline) {
		return nil, fmt.Errorf("%w: proposal %d closes at %s", domain.ErrVotingActive, id, proposal.VotingDeadline.Format(time.RFC3339))
	}

	req, err := staking.ExecuteProposal(id)
	if err != nil {
		return nil, err
	}
	req.Signer = signer

	outcome, err := g.transactor.SubmitAndTrack(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &ExecuteResult{Outcome: outcome}
	if err := g.outcomeError(req.Label, outcome, opExecute); err != nil {
		return result, err
	}

	ev, ok := outcome.Event(bindings.EventProposalExecuted)
	if !ok {
		return result, fmt.Errorf("proposal %d executed in %s without a %s event; run check-proposal %d", id, outcome.TxID.Hex(), bindings.EventProposalExecuted, id)
	}
	result.Approved, err = bindings.EventBool(ev, "approved")
	if err != nil {
		return result, fmt.Errorf("proposal %d executed in %s but its outcome could not be decoded: %w", id, outcome.TxID.Hex(), err)
	}
	result.State = models.ProposalRejected
	if result.Approved {
		result.State = models.ProposalApproved
	}
	result.Proposal = g.refresh(ctx, staking, id)
	g.log.Info("proposal executed", "id", id, "approved", result.Approved)
	return result, nil
}

// CheckProposal reads a proposal and derives its state at chain time.
func (g *Governance) CheckProposal(ctx context.Context, id uint64) (*ProposalStatus, error) {
	staking, err := g.staking(ctx)
	if err != nil {
		return nil, err
	}
	proposal, err := staking.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	g.cache.Put(proposal)

	now, err := g.client.LatestBlockTime(ctx)
	if err != nil {
		return nil, err
	}
	status := &ProposalStatus{
		Proposal:   proposal,
		State:      proposal.StateAt(now),
		Now:        now,
		VotingOpen: proposal.VotingOpen(now),
	}
	if status.VotingOpen {
		status.TimeRemaining = proposal.VotingDeadline.Sub(now)
	}
	status.TokenApproved, err = staking.IsProjectApproved(ctx, proposal.Token)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Cached returns the last proposal observed by this process.
func (g *Governance) Cached(id uint64) (*models.Proposal, bool) {
	return g.cache.Get(id)
}

func (g *Governance) refresh(ctx context.Context, staking StakingContract, id uint64) *models.Proposal {
	p, err := staking.GetProposal(ctx, id)
	if err != nil {
		g.log.Warn("failed to refresh proposal", "id", id, "error", err)
		return nil
	}
	g.cache.Put(p)
	return p
}

type governanceOp int

const (
	opCreate governanceOp = iota
	opVote
	opExecute
)

// outcomeError maps staking dispatch errors onto governance errors while
// keeping the transaction failure in the chain.
func (g *Governance) outcomeError(label string, outcome *models.TransactionOutcome, op governanceOp) error {
	err := domain.OutcomeError(label, outcome)
	if err == nil || outcome.State != models.TxFailed {
		return err
	}

	de := outcome.DispatchError
	var sentinel error
	switch {
	case op == opExecute && de.Is(errInvalidProposal):
		sentinel = domain.ErrAlreadyExecuted
	case op == opExecute && de.Is(errVotingPeriodExpired):
		sentinel = domain.ErrVotingActive
	case op == opVote && de.Is(errVotingPeriodExpired):
		sentinel = domain.ErrVotingClosed
	case op == opVote && de.Is(errAlreadyVoted):
		sentinel = domain.ErrAlreadyVoted
	case de.Is(errInsufficientVotingPower):
		sentinel = domain.ErrNoVotingPower
	}
	if sentinel == nil {
		return err
	}
	return errors.Join(sentinel, err)
}
