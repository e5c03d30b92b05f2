package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

const (
	defaultSlippageBps = 100
	liquidityDeadline  = 20 * time.Minute
)

// AddLiquidity seeds a token/native pool through the recorded router.
type AddLiquidity struct {
	client     ChainClient
	binder     ContractBinder
	transactor Transactor
	store      RecordStore
	cfg        *config.RuntimeConfig
	progress   ProgressSink
	log        *slog.Logger
}

// NewAddLiquidity creates a new add liquidity use case
func NewAddLiquidity(
	client ChainClient,
	binder ContractBinder,
	transactor Transactor,
	store RecordStore,
	cfg *config.RuntimeConfig,
	progress ProgressSink,
	log *slog.Logger,
) *AddLiquidity {
	return &AddLiquidity{
		client:     client,
		binder:     binder,
		transactor: transactor,
		store:      store,
		cfg:        cfg,
		progress:   progress,
		log:        log.With("component", "AddLiquidity"),
	}
}

// AddLiquidityParams contains parameters for adding liquidity
type AddLiquidityParams struct {
	Token       common.Address
	Amount      *big.Int
	QuoteAmount *big.Int
	// SlippageBps bounds the accepted minimum amounts; zero means 1%.
	SlippageBps uint64
	Signer      models.Signer
}

// AddLiquidityResult contains the result of adding liquidity
type AddLiquidityResult struct {
	Router    common.Address             `json:"router"`
	Token     common.Address             `json:"token"`
	Quote     common.Address             `json:"quote"`
	Deadline  time.Time                  `json:"deadline"`
	Approvals []*StepResult              `json:"approvals,omitempty"`
	Outcome   *models.TransactionOutcome `json:"outcome"`
}

// Run approves the router for both tokens when needed and adds liquidity.
func (uc *AddLiquidity) Run(ctx context.Context, params AddLiquidityParams) (*AddLiquidityResult, error) {
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, domain.NewValidationError("amount", "must be positive")
	}
	if params.QuoteAmount == nil || params.QuoteAmount.Sign() <= 0 {
		return nil, domain.NewValidationError("quote", "must be positive")
	}
	slippage := params.SlippageBps
	if slippage == 0 {
		slippage = defaultSlippageBps
	}
	if slippage >= 10000 {
		return nil, domain.NewValidationError("slippage", "%d bps leaves nothing to receive", slippage)
	}

	record, err := uc.store.Load(ctx, uc.cfg.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}
	routerAddr, ok := record.Address(bindings.ArtifactRouter)
	if !ok {
		return nil, domain.NewValidationError("network", "router is not deployed on %s", uc.cfg.NetworkName)
	}
	router, err := uc.binder.Router(routerAddr)
	if err != nil {
		return nil, err
	}
	quote, err := router.WNative(ctx)
	if err != nil {
		return nil, err
	}

	result := &AddLiquidityResult{Router: routerAddr, Token: params.Token, Quote: quote}
	owner := params.Signer.Address()

	for _, leg := range []struct {
		token  common.Address
		amount *big.Int
	}{{params.Token, params.Amount}, {quote, params.QuoteAmount}} {
		step, err := uc.approve(ctx, leg.token, leg.amount, owner, routerAddr, params.Signer)
		if step != nil {
			result.Approvals = append(result.Approvals, step)
		}
		if err != nil {
			return result, err
		}
	}

	now, err := uc.client.LatestBlockTime(ctx)
	if err != nil {
		return result, err
	}
	result.Deadline = now.Add(liquidityDeadline)

	req, err := router.AddLiquidity(bindings.LiquidityParams{
		TokenA:         params.Token,
		TokenB:         quote,
		AmountADesired: params.Amount,
		AmountBDesired: params.QuoteAmount,
		AmountAMin:     withSlippage(params.Amount, slippage),
		AmountBMin:     withSlippage(params.QuoteAmount, slippage),
		To:             owner,
		Deadline:       result.Deadline,
	})
	if err != nil {
		return result, err
	}
	req.Signer = params.Signer

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "liquidity", Message: "Adding liquidity", Spinner: true})
	result.Outcome, err = uc.transactor.SubmitAndTrack(ctx, req)
	if err != nil {
		return result, err
	}
	if err := domain.OutcomeError(req.Label, result.Outcome); err != nil {
		return result, err
	}
	uc.log.Info("liquidity added", "token", params.Token.Hex(), "quote", quote.Hex(), "tx", result.Outcome.TxID.Hex())
	return result, nil
}

// approve raises the router's allowance to amount, checking the balance first.
func (uc *AddLiquidity) approve(ctx context.Context, tokenAddr common.Address, amount *big.Int, owner, spender common.Address, signer models.Signer) (*StepResult, error) {
	token, err := uc.binder.Token(tokenAddr)
	if err != nil {
		return nil, err
	}
	key := "approve " + tokenAddr.Hex()

	balance, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, domain.NewValidationError("balance", "%s holds %s of %s, needs %s", owner.Hex(), balance, tokenAddr.Hex(), amount)
	}

	allowance, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(amount) >= 0 {
		return &StepResult{Key: key, AlreadySet: true}, nil
	}

	req, err := token.Approve(spender, amount)
	if err != nil {
		return nil, err
	}
	req.Signer = signer
	outcome, err := uc.transactor.SubmitAndTrack(ctx, req)
	if err != nil {
		return nil, err
	}
	return &StepResult{Key: key, Outcome: outcome}, domain.OutcomeError(req.Label, outcome)
}

func withSlippage(amount *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(10000-bps))
	return out.Quo(out, big.NewInt(10000))
}
