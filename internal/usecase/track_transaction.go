package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// Tracker submits signed transactions and follows each one to a terminal
// state. Requests from one signer are serialized until the previous request
// is terminal; different signers proceed concurrently. Nothing is retried.
type Tracker struct {
	client  ChainClient
	metrics MetricsRecorder
	log     *slog.Logger

	mu    sync.Mutex
	slots map[common.Address]chan struct{}
}

// NewTracker creates a new transaction tracker
func NewTracker(client ChainClient, metrics MetricsRecorder, log *slog.Logger) *Tracker {
	return &Tracker{
		client:  client,
		metrics: metrics,
		log:     log.With("component", "Tracker"),
		slots:   make(map[common.Address]chan struct{}),
	}
}

// PendingTransaction is a submitted transaction whose outcome is still being
// observed. State only moves forward and settles once.
type PendingTransaction struct {
	TxID  common.Hash
	Label string

	mu      sync.Mutex
	outcome models.TransactionOutcome
	done    chan struct{}
	stop    context.CancelFunc
	// settle runs once, before waiters are released.
	settle func()
}

func newPendingTransaction(label string, txID common.Hash) *PendingTransaction {
	return &PendingTransaction{
		TxID:    txID,
		Label:   label,
		outcome: models.TransactionOutcome{TxID: txID, State: models.TxSubmitted},
		done:    make(chan struct{}),
		stop:    func() {},
		settle:  func() {},
	}
}

// State returns the last observed state
func (p *PendingTransaction) State() models.TxState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome.State
}

// Done is closed once the transaction reaches a terminal state
func (p *PendingTransaction) Done() <-chan struct{} {
	return p.done
}

// AwaitTerminal blocks until the transaction is terminal or ctx ends.
func (p *PendingTransaction) AwaitTerminal(ctx context.Context) (*models.TransactionOutcome, error) {
	select {
	case <-p.done:
		return p.snapshot(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops observing the transaction. The transaction itself cannot be
// revoked; a non-terminal outcome becomes Unknown.
func (p *PendingTransaction) Cancel() {
	p.stop()
	p.settleUnknown("observation cancelled")
}

func (p *PendingTransaction) snapshot() *models.TransactionOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.outcome
	out.Events = append([]models.Event(nil), p.outcome.Events...)
	return &out
}

// advance applies an update if the lifecycle allows it.
func (p *PendingTransaction) advance(next models.TxState, apply func(*models.TransactionOutcome)) bool {
	p.mu.Lock()
	if !p.outcome.State.CanTransitionTo(next) {
		p.mu.Unlock()
		return false
	}
	p.outcome.State = next
	if apply != nil {
		apply(&p.outcome)
	}
	p.mu.Unlock()

	if next.IsTerminal() {
		p.settle()
		close(p.done)
	}
	return true
}

func (p *PendingTransaction) settleUnknown(reason string) bool {
	return p.advance(models.TxUnknown, func(o *models.TransactionOutcome) {
		o.Reason = reason
	})
}

func (t *Tracker) slot(signer common.Address) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[signer]
	if !ok {
		s = make(chan struct{}, 1)
		t.slots[signer] = s
	}
	return s
}

// Submit signs and sends the request once, then observes it in the
// background. It blocks while an earlier request of the same signer is
// still in flight.
func (t *Tracker) Submit(ctx context.Context, req *models.TransactionRequest) (*PendingTransaction, error) {
	if req.Signer == nil {
		return nil, domain.NewValidationError("signer", "request %s has no signer", req.Label)
	}

	slot := t.slot(req.Signer.Address())
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := sync.OnceFunc(func() { <-slot })

	tx, err := t.sign(ctx, req)
	if err != nil {
		release()
		return nil, err
	}
	if err := t.client.SendTransaction(ctx, tx); err != nil {
		release()
		if isConnectionError(err) {
			return nil, err
		}
		return nil, domain.NewValidationError("transaction", "%s rejected by node: %v", req.Label, err)
	}

	started := time.Now()
	pending := newPendingTransaction(req.Label, tx.Hash())
	pending.settle = func() {
		t.finish(req, pending, started)
		release()
	}
	t.log.Info("transaction submitted", "label", req.Label, "tx", tx.Hash().Hex(), "nonce", tx.Nonce())

	// Observation outlives the submit call; Cancel stops it.
	followCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	pending.stop = stop

	sub, err := t.client.SubscribeStatus(followCtx, tx.Hash())
	if err != nil {
		stop()
		pending.settleUnknown(fmt.Sprintf("status subscription failed: %v", err))
		return pending, nil
	}

	go t.follow(followCtx, pending, sub, req)
	return pending, nil
}

// SubmitAndTrack submits the request and waits for a terminal outcome. Once
// the transaction is sent, cancelling ctx yields an Unknown outcome rather
// than an error.
func (t *Tracker) SubmitAndTrack(ctx context.Context, req *models.TransactionRequest) (*models.TransactionOutcome, error) {
	pending, err := t.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	outcome, err := pending.AwaitTerminal(ctx)
	if err != nil {
		pending.Cancel()
		return pending.snapshot(), nil
	}
	return outcome, nil
}

// Reconcile queries the chain directly for the current state of a
// transaction. It is the only way to settle an Unknown outcome.
func (t *Tracker) Reconcile(ctx context.Context, txID common.Hash, decoder models.EventDecoder) (*models.TransactionOutcome, error) {
	status, err := t.client.TransactionStatus(ctx, txID)
	if err != nil {
		return nil, err
	}
	outcome := &models.TransactionOutcome{TxID: txID, State: models.TxSubmitted}
	if status.Receipt == nil {
		return outcome, nil
	}
	fillFromReceipt(outcome, status.Receipt, decoder)
	switch {
	case status.State != models.TxFinalized:
		outcome.State = models.TxIncluded
	case status.Receipt.Status == types.ReceiptStatusFailed:
		outcome.State = models.TxFailed
		outcome.Events = nil
		outcome.DispatchError = decodeDispatchError(decoder, status.RevertData)
	default:
		outcome.State = models.TxFinalized
	}
	t.log.Debug("transaction reconciled", "tx", txID.Hex(), "state", outcome.State)
	return outcome, nil
}

func (t *Tracker) sign(ctx context.Context, req *models.TransactionRequest) (*types.Transaction, error) {
	from := req.Signer.Address()

	chainID, err := t.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := t.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	gasPrice := req.Limits.GasPrice
	if gasPrice == nil {
		if gasPrice, err = t.client.SuggestGasPrice(ctx); err != nil {
			return nil, err
		}
	}

	gas := req.Limits.GasLimit
	if gas == 0 {
		gas, err = t.client.EstimateGas(ctx, ethereum.CallMsg{
			From:     from,
			To:       req.To,
			GasPrice: gasPrice,
			Value:    req.Value,
			Data:     req.Data,
		})
		if err != nil {
			if isConnectionError(err) {
				return nil, err
			}
			return nil, &domain.ResourceEstimationError{Label: req.Label, Resource: "gas", Err: err}
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       req.To,
		Value:    req.Value,
		Data:     req.Data,
	})
	signed, err := req.Signer.SignTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", req.Label, err)
	}
	return signed, nil
}

func (t *Tracker) follow(ctx context.Context, p *PendingTransaction, sub StatusSubscription, req *models.TransactionRequest) {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			p.settleUnknown("observation cancelled")
			return
		case update, ok := <-sub.Updates():
			if !ok {
				p.settleUnknown("status subscription closed before finalization")
				return
			}
			if t.apply(p, update, req.Decoder) {
				return
			}
		}
	}
}

// apply folds one status update into the pending transaction and reports
// whether it is now terminal.
func (t *Tracker) apply(p *PendingTransaction, update StatusUpdate, decoder models.EventDecoder) bool {
	receipt := update.Receipt
	if receipt == nil {
		return false
	}

	switch update.State {
	case models.TxIncluded:
		// Events seen at inclusion are cached but not final.
		p.advance(models.TxIncluded, func(o *models.TransactionOutcome) {
			fillFromReceipt(o, receipt, decoder)
		})
		t.log.Debug("transaction included", "label", p.Label, "block", receipt.BlockNumber)
		return false

	case models.TxFinalized:
		if p.State() == models.TxSubmitted {
			p.advance(models.TxIncluded, nil)
		}
		if receipt.Status == types.ReceiptStatusFailed {
			return p.advance(models.TxFailed, func(o *models.TransactionOutcome) {
				fillFromReceipt(o, receipt, decoder)
				o.Events = nil
				o.DispatchError = decodeDispatchError(decoder, update.RevertData)
			})
		}
		return p.advance(models.TxFinalized, func(o *models.TransactionOutcome) {
			fillFromReceipt(o, receipt, decoder)
		})
	}
	return false
}

func (t *Tracker) finish(req *models.TransactionRequest, p *PendingTransaction, started time.Time) {
	outcome := p.snapshot()
	t.metrics.ObserveTransaction(req.Label, outcome.State, time.Since(started))

	attrs := []any{"label", req.Label, "tx", outcome.TxID.Hex(), "state", outcome.State}
	switch outcome.State {
	case models.TxFinalized:
		t.log.Info("transaction finalized", append(attrs, "block", outcome.BlockNumber)...)
	case models.TxFailed:
		t.log.Warn("transaction failed", append(attrs, "error", outcome.DispatchError)...)
	default:
		t.log.Warn("transaction outcome unknown", append(attrs, "reason", outcome.Reason)...)
	}
}

func fillFromReceipt(o *models.TransactionOutcome, receipt *types.Receipt, decoder models.EventDecoder) {
	if receipt.BlockNumber != nil {
		o.BlockNumber = receipt.BlockNumber.Uint64()
	}
	o.BlockHash = receipt.BlockHash
	o.GasUsed = receipt.GasUsed
	o.Events = decodeEvents(receipt, decoder)
}

func decodeEvents(receipt *types.Receipt, decoder models.EventDecoder) []models.Event {
	var events []models.Event
	if receipt.Status == types.ReceiptStatusSuccessful && receipt.ContractAddress != (common.Address{}) {
		events = append(events, models.Event{Name: models.InstantiatedEvent, Address: receipt.ContractAddress})
	}
	if decoder == nil {
		return events
	}
	for _, l := range receipt.Logs {
		if ev, ok := decoder.DecodeLog(l); ok {
			events = append(events, *ev)
		}
	}
	return events
}

func decodeDispatchError(decoder models.EventDecoder, data []byte) *models.DispatchError {
	if decoder == nil {
		return &models.DispatchError{Name: "Reverted"}
	}
	return decoder.DecodeRevert(data)
}

func isConnectionError(err error) bool {
	var connErr *domain.ConnectionError
	return errors.As(err, &connErr)
}
