package bindings

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// Artifact names of the protocol contracts in the compiled bundle
const (
	ArtifactFactory = "factory"
	ArtifactRouter  = "router"
	ArtifactWNative = "wnative"
	ArtifactStaking = "staking"
	ArtifactRewards = "rewards"
	ArtifactToken   = "psp22"
)

// Event names emitted by the staking contract
const (
	EventProposalCreated  = "ProposalCreated"
	EventVoted            = "Voted"
	EventProposalExecuted = "ProposalExecuted"
)

type contract struct {
	iface   *contracts.Interface
	address common.Address
	caller  contracts.Caller
}

// Address returns the bound contract address
func (c *contract) Address() common.Address { return c.address }

func (c *contract) mutation(method string, value *big.Int, args ...any) (*models.TransactionRequest, error) {
	data, err := c.iface.PackMutation(method, args...)
	if err != nil {
		return nil, err
	}
	to := c.address
	return &models.TransactionRequest{
		Label:   fmt.Sprintf("%s.%s", c.iface.Name(), method),
		To:      &to,
		Method:  method,
		Args:    args,
		Data:    data,
		Value:   value,
		Decoder: c.iface,
	}, nil
}

func (c *contract) query(ctx context.Context, method string, args ...any) (*tuple, error) {
	values, err := c.iface.Query(ctx, c.caller, c.address, method, args...)
	if err != nil {
		return nil, err
	}
	return &tuple{method: method, values: values}, nil
}

// Staking is a typed binding to the staking and governance contract
type Staking struct{ contract }

// NewStaking binds the staking interface at an address
func NewStaking(iface *contracts.Interface, address common.Address, caller contracts.Caller) *Staking {
	return &Staking{contract{iface: iface, address: address, caller: caller}}
}

// GetProposal reads a listing proposal. Missing proposals return domain.ErrNotFound.
func (s *Staking) GetProposal(ctx context.Context, id uint64) (*models.Proposal, error) {
	pid, err := proposalID(id)
	if err != nil {
		return nil, err
	}
	t, err := s.query(ctx, "get_proposal", pid)
	if err != nil {
		return nil, err
	}
	if !t.asBool(0) && t.err == nil {
		return nil, fmt.Errorf("%w: proposal %d", domain.ErrNotFound, id)
	}
	p := &models.Proposal{
		ID:             id,
		Title:          t.asString(1),
		Description:    t.asString(2),
		Token:          t.asAddress(3),
		Proposer:       t.asAddress(4),
		VotesFor:       t.asBig(5),
		VotesAgainst:   t.asBig(6),
		VotingDeadline: time.Unix(int64(t.asUint64(7)), 0).UTC(),
		Executed:       t.asBool(8),
		Active:         t.asBool(9),
		FeePaid:        t.asBig(10),
		FeeRefunded:    t.asBool(11),
	}
	if t.err != nil {
		return nil, t.err
	}
	return p, nil
}

// CurrentProposalFee reads the fee a new proposal must carry
func (s *Staking) CurrentProposalFee(ctx context.Context) (*big.Int, error) {
	t, err := s.query(ctx, "get_current_proposal_fee")
	if err != nil {
		return nil, err
	}
	return t.asBig(0), t.err
}

// VotingPower reads the staked voting power of an account
func (s *Staking) VotingPower(ctx context.Context, account common.Address) (*big.Int, error) {
	t, err := s.query(ctx, "get_voting_power", account)
	if err != nil {
		return nil, err
	}
	return t.asBig(0), t.err
}

// IsProjectApproved reports whether a token is already listed
func (s *Staking) IsProjectApproved(ctx context.Context, token common.Address) (bool, error) {
	t, err := s.query(ctx, "is_project_approved", token)
	if err != nil {
		return false, err
	}
	return t.asBool(0), t.err
}

// CreateProposal builds the fee-bearing proposal submission
func (s *Staking) CreateProposal(info models.ProposalInfo) (*models.TransactionRequest, error) {
	return s.mutation("create_proposal", info.Fee, info.Title, info.Description, info.Token)
}

// Vote builds a vote submission
func (s *Staking) Vote(id uint64, inFavor bool) (*models.TransactionRequest, error) {
	pid, err := proposalID(id)
	if err != nil {
		return nil, err
	}
	return s.mutation("vote", nil, pid, inFavor)
}

// ExecuteProposal builds the execution submission
func (s *Staking) ExecuteProposal(id uint64) (*models.TransactionRequest, error) {
	pid, err := proposalID(id)
	if err != nil {
		return nil, err
	}
	return s.mutation("execute_proposal", nil, pid)
}

// AdminListToken builds the admin listing submission
func (s *Staking) AdminListToken(token common.Address, reason string) (*models.TransactionRequest, error) {
	return s.mutation("admin_list_token", nil, token, reason)
}

// Router is a typed binding to the liquidity router
type Router struct{ contract }

// NewRouter binds the router interface at an address
func NewRouter(iface *contracts.Interface, address common.Address, caller contracts.Caller) *Router {
	return &Router{contract{iface: iface, address: address, caller: caller}}
}

// WNative reads the wrapped native token the router pairs against
func (r *Router) WNative(ctx context.Context) (common.Address, error) {
	t, err := r.query(ctx, "wnative")
	if err != nil {
		return common.Address{}, err
	}
	return t.asAddress(0), t.err
}

// Factory reads the pair factory address
func (r *Router) Factory(ctx context.Context) (common.Address, error) {
	t, err := r.query(ctx, "factory")
	if err != nil {
		return common.Address{}, err
	}
	return t.asAddress(0), t.err
}

// LiquidityParams are the arguments of add_liquidity
type LiquidityParams struct {
	TokenA, TokenB                 common.Address
	AmountADesired, AmountBDesired *big.Int
	AmountAMin, AmountBMin         *big.Int
	To                             common.Address
	Deadline                       time.Time
}

// AddLiquidity builds the add_liquidity submission
func (r *Router) AddLiquidity(p LiquidityParams) (*models.TransactionRequest, error) {
	return r.mutation("add_liquidity", nil,
		p.TokenA, p.TokenB,
		p.AmountADesired, p.AmountBDesired,
		p.AmountAMin, p.AmountBMin,
		p.To, uint64(p.Deadline.Unix()),
	)
}

// Token is a typed binding to a PSP22 token
type Token struct{ contract }

// NewToken binds the token interface at an address
func NewToken(iface *contracts.Interface, address common.Address, caller contracts.Caller) *Token {
	return &Token{contract{iface: iface, address: address, caller: caller}}
}

// BalanceOf reads a token balance
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	r, err := t.query(ctx, "balance_of", owner)
	if err != nil {
		return nil, err
	}
	return r.asBig(0), r.err
}

// Allowance reads the amount a spender may move
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	r, err := t.query(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return r.asBig(0), r.err
}

// Approve builds an approval submission
func (t *Token) Approve(spender common.Address, amount *big.Int) (*models.TransactionRequest, error) {
	return t.mutation("approve", nil, spender, amount)
}

// EventUint reads an integer event field.
func EventUint(ev *models.Event, field string) (uint64, error) {
	v, ok := ev.Fields[field]
	if !ok {
		return 0, fmt.Errorf("event %s has no field %s", ev.Name, field)
	}
	return toUint64(v)
}

// EventBool reads a boolean event field.
func EventBool(ev *models.Event, field string) (bool, error) {
	v, ok := ev.Fields[field].(bool)
	if !ok {
		return false, fmt.Errorf("event %s has no boolean field %s", ev.Name, field)
	}
	return v, nil
}

func proposalID(id uint64) (uint32, error) {
	if id > math.MaxUint32 {
		return 0, domain.NewValidationError("proposal id", "%d is out of range", id)
	}
	return uint32(id), nil
}

// tuple reads positional query outputs and keeps the first type error.
type tuple struct {
	method string
	values []any
	err    error
}

func (t *tuple) at(i int) any {
	if t.err != nil {
		return nil
	}
	if i >= len(t.values) {
		t.err = fmt.Errorf("%s returned %d values, wanted index %d", t.method, len(t.values), i)
		return nil
	}
	return t.values[i]
}

func (t *tuple) fail(i int, want string) {
	if t.err == nil {
		t.err = fmt.Errorf("%s output %d is %T, expected %s", t.method, i, t.values[i], want)
	}
}

func (t *tuple) asBool(i int) bool {
	v, ok := t.at(i).(bool)
	if !ok && t.err == nil {
		t.fail(i, "bool")
	}
	return v
}

func (t *tuple) asString(i int) string {
	v, ok := t.at(i).(string)
	if !ok && t.err == nil {
		t.fail(i, "string")
	}
	return v
}

func (t *tuple) asAddress(i int) common.Address {
	v, ok := t.at(i).(common.Address)
	if !ok && t.err == nil {
		t.fail(i, "address")
	}
	return v
}

func (t *tuple) asBig(i int) *big.Int {
	raw := t.at(i)
	if t.err != nil {
		return new(big.Int)
	}
	switch v := raw.(type) {
	case *big.Int:
		return v
	default:
		u, err := toUint64(v)
		if err != nil {
			t.fail(i, "integer")
			return new(big.Int)
		}
		return new(big.Int).SetUint64(u)
	}
}

func (t *tuple) asUint64(i int) uint64 {
	raw := t.at(i)
	if t.err != nil {
		return 0
	}
	u, err := toUint64(raw)
	if err != nil {
		t.fail(i, "integer")
	}
	return u
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case *big.Int:
		if x == nil || x.Sign() < 0 || !x.IsUint64() {
			return 0, fmt.Errorf("value %v does not fit uint64", x)
		}
		return x.Uint64(), nil
	}
	return 0, fmt.Errorf("unexpected integer type %T", v)
}
