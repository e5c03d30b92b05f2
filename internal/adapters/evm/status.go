package evm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

// maxPollFailures is how many consecutive failed polls end a
// subscription. The tracker turns the closed channel into Unknown.
const maxPollFailures = 3

type statusSource interface {
	TransactionStatus(ctx context.Context, txID common.Hash) (*usecase.StatusUpdate, error)
}

// pollingSubscription emits a status update whenever the observed state or
// block changes, and stops after a finalized update.
type pollingSubscription struct {
	updates chan usecase.StatusUpdate
	cancel  context.CancelFunc
	once    sync.Once
}

func newPollingSubscription(ctx context.Context, src statusSource, txID common.Hash, interval time.Duration, log *slog.Logger) *pollingSubscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &pollingSubscription{
		updates: make(chan usecase.StatusUpdate),
		cancel:  cancel,
	}
	go s.run(ctx, src, txID, interval, log)
	return s
}

func (s *pollingSubscription) Updates() <-chan usecase.StatusUpdate {
	return s.updates
}

func (s *pollingSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

func (s *pollingSubscription) run(ctx context.Context, src statusSource, txID common.Hash, interval time.Duration, log *slog.Logger) {
	defer close(s.updates)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		lastState models.TxState
		lastBlock common.Hash
		failures  int
	)
	for {
		status, err := src.TransactionStatus(ctx, txID)
		switch {
		case err != nil:
			failures++
			log.Debug("status poll failed", "tx", txID.Hex(), "failures", failures, "error", err)
			if failures >= maxPollFailures || ctx.Err() != nil {
				return
			}
		case status.Receipt != nil:
			failures = 0
			if status.State != lastState || status.Receipt.BlockHash != lastBlock {
				lastState, lastBlock = status.State, status.Receipt.BlockHash
				select {
				case s.updates <- *status:
				case <-ctx.Done():
					return
				}
			}
			if status.State == models.TxFinalized {
				return
			}
		default:
			failures = 0
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
