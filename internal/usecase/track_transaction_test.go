package usecase

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_CreationFinalizes(t *testing.T) {
	chain := newFakeChain()
	metrics := newRecordingMetrics()
	tracker := NewTracker(chain, metrics, testLogger())
	signer := newKeySigner(t)
	iface := linkedInterface(t, "factory")

	outcome, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{
		Label:   "factory",
		Data:    iface.Bytecode(),
		Signer:  signer,
		Decoder: iface,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TxFinalized, outcome.State)
	addr, ok := outcome.InstantiatedAddress()
	require.True(t, ok)
	assert.Equal(t, crypto.CreateAddress(signer.Address(), 0), addr)
	assert.Equal(t, uint64(1), outcome.BlockNumber)
	assert.Nil(t, outcome.DispatchError)
	assert.NoError(t, domain.OutcomeError("factory", outcome))
	assert.Equal(t, 1, metrics.transactions[models.TxFinalized])
	assert.Eventually(t, chain.sub(outcome.TxID).isUnsubscribed, time.Second, time.Millisecond)
}

func TestTracker_DecodesEvents(t *testing.T) {
	catalog := testCatalog(t)
	staking, err := catalog.Interface("staking")
	require.NoError(t, err)
	event := staking.ABI().Events["ProposalCreated"]
	stakingAddr := common.HexToAddress("0x5000000000000000000000000000000000000005")

	chain := newFakeChain()
	chain.result = func(tx *types.Transaction) txResult {
		data, err := event.Inputs.NonIndexed().Pack(common.Address{}, "Lunes", common.Address{}, uint64(1700000000))
		require.NoError(t, err)
		return txResult{status: types.ReceiptStatusSuccessful, logs: []*types.Log{{
			Address: stakingAddr,
			Topics:  []common.Hash{event.ID, common.BigToHash(big.NewInt(4))},
			Data:    data,
		}}}
	}
	tracker := NewTracker(chain, NopMetrics{}, testLogger())

	outcome, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{
		Label:   "staking.create_proposal",
		To:      &stakingAddr,
		Signer:  newKeySigner(t),
		Decoder: staking,
	})
	require.NoError(t, err)

	ev, ok := outcome.Event("ProposalCreated")
	require.True(t, ok)
	assert.EqualValues(t, 4, ev.Fields["proposal_id"])
	_, ok = outcome.InstantiatedAddress()
	assert.False(t, ok)
}

func TestTracker_DispatchErrorFails(t *testing.T) {
	catalog := testCatalog(t)
	staking, err := catalog.Interface("staking")
	require.NoError(t, err)
	alreadyVoted := staking.ABI().Errors["AlreadyVoted"].ID

	chain := newFakeChain()
	chain.result = func(tx *types.Transaction) txResult {
		return txResult{status: types.ReceiptStatusFailed, revert: alreadyVoted[:4]}
	}
	metrics := newRecordingMetrics()
	tracker := NewTracker(chain, metrics, testLogger())
	to := common.HexToAddress("0x5000000000000000000000000000000000000005")

	outcome, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{
		Label:   "staking.vote",
		To:      &to,
		Signer:  newKeySigner(t),
		Decoder: staking,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TxFailed, outcome.State)
	require.NotNil(t, outcome.DispatchError)
	assert.Equal(t, "AlreadyVoted", outcome.DispatchError.Name)
	assert.Empty(t, outcome.Events)

	var failed *domain.TransactionFailedError
	assert.True(t, errors.As(domain.OutcomeError("staking.vote", outcome), &failed))
	assert.Equal(t, 1, metrics.transactions[models.TxFailed])
}

func TestTracker_SubscriptionLossIsUnknown(t *testing.T) {
	chain := newFakeChain()
	chain.manual = true
	tracker := NewTracker(chain, NopMetrics{}, testLogger())
	iface := linkedInterface(t, "factory")

	pending, err := tracker.Submit(context.Background(), &models.TransactionRequest{
		Label:   "factory",
		Data:    iface.Bytecode(),
		Signer:  newKeySigner(t),
		Decoder: iface,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TxSubmitted, pending.State())

	sub := chain.sub(pending.TxID)
	require.NotNil(t, sub)
	sub.push(StatusUpdate{State: models.TxIncluded, Receipt: chain.receipt(pending.TxID)})
	assert.Eventually(t, func() bool { return pending.State() == models.TxIncluded }, time.Second, time.Millisecond)

	sub.drop()
	outcome, err := pending.AwaitTerminal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TxUnknown, outcome.State)
	assert.Contains(t, outcome.Reason, "closed")

	var unknown *domain.UnknownOutcomeError
	assert.True(t, errors.As(domain.OutcomeError("factory", outcome), &unknown))

	// The chain finalizes later; only a direct query can tell.
	chain.finalize(pending.TxID)
	reconciled, err := tracker.Reconcile(context.Background(), pending.TxID, iface)
	require.NoError(t, err)
	assert.Equal(t, models.TxFinalized, reconciled.State)
	_, ok := reconciled.InstantiatedAddress()
	assert.True(t, ok)

	// A terminal outcome never moves again.
	pending.Cancel()
	assert.Equal(t, models.TxUnknown, pending.State())
}

func TestTracker_ReconcileStates(t *testing.T) {
	chain := newFakeChain()
	tracker := NewTracker(chain, NopMetrics{}, testLogger())

	outcome, err := tracker.Reconcile(context.Background(), common.HexToHash("0x99"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.TxSubmitted, outcome.State)

	chain.manual = true
	chain.result = func(tx *types.Transaction) txResult { return txResult{status: types.ReceiptStatusFailed} }
	to := common.HexToAddress("0x01")
	pending, err := tracker.Submit(context.Background(), &models.TransactionRequest{Label: "x", To: &to, Signer: newKeySigner(t)})
	require.NoError(t, err)

	outcome, err = tracker.Reconcile(context.Background(), pending.TxID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TxIncluded, outcome.State)

	chain.finalize(pending.TxID)
	outcome, err = tracker.Reconcile(context.Background(), pending.TxID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TxFailed, outcome.State)
	assert.Equal(t, "Reverted", outcome.DispatchError.Name)
	pending.Cancel()
}

func TestTracker_SerializesPerSigner(t *testing.T) {
	chain := newFakeChain()
	chain.manual = true
	tracker := NewTracker(chain, NopMetrics{}, testLogger())
	signer := newKeySigner(t)
	to := common.HexToAddress("0x01")

	first, err := tracker.Submit(context.Background(), &models.TransactionRequest{Label: "first", To: &to, Signer: signer})
	require.NoError(t, err)

	secondDone := make(chan *PendingTransaction, 1)
	go func() {
		p, err := tracker.Submit(context.Background(), &models.TransactionRequest{Label: "second", To: &to, Signer: signer})
		if err == nil {
			secondDone <- p
		}
	}()

	assert.Never(t, func() bool { return chain.sentCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	receipt := chain.receipt(first.TxID)
	chain.sub(first.TxID).push(StatusUpdate{State: models.TxFinalized, Receipt: receipt})

	var second *PendingTransaction
	select {
	case second = <-secondDone:
	case <-time.After(time.Second):
		t.Fatal("second submission never proceeded")
	}
	assert.Equal(t, models.TxFinalized, first.State())
	assert.Equal(t, 2, chain.sentCount())
	assert.Equal(t, uint64(1), chain.sent[1].Nonce())
	second.Cancel()
}

func TestTracker_DifferentSignersRunConcurrently(t *testing.T) {
	chain := newFakeChain()
	chain.manual = true
	tracker := NewTracker(chain, NopMetrics{}, testLogger())
	to := common.HexToAddress("0x01")

	a, err := tracker.Submit(context.Background(), &models.TransactionRequest{Label: "a", To: &to, Signer: newKeySigner(t)})
	require.NoError(t, err)
	b, err := tracker.Submit(context.Background(), &models.TransactionRequest{Label: "b", To: &to, Signer: newKeySigner(t)})
	require.NoError(t, err)

	assert.Equal(t, 2, chain.sentCount())
	a.Cancel()
	b.Cancel()
	assert.Equal(t, models.TxUnknown, a.State())
}

func TestTracker_PreSubmitErrors(t *testing.T) {
	to := common.HexToAddress("0x01")

	t.Run("missing signer", func(t *testing.T) {
		tracker := NewTracker(newFakeChain(), NopMetrics{}, testLogger())
		_, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{Label: "x", To: &to})
		var verr *domain.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("estimate reverts", func(t *testing.T) {
		chain := newFakeChain()
		chain.estimateErr = errors.New("execution reverted")
		tracker := NewTracker(chain, NopMetrics{}, testLogger())
		_, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{Label: "x", To: &to, Signer: newKeySigner(t)})
		var eerr *domain.ResourceEstimationError
		assert.True(t, errors.As(err, &eerr))
		assert.Equal(t, 0, chain.sentCount())
	})

	t.Run("node rejects", func(t *testing.T) {
		chain := newFakeChain()
		chain.sendErr = errors.New("insufficient funds for gas * price + value")
		tracker := NewTracker(chain, NopMetrics{}, testLogger())
		_, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{Label: "x", To: &to, Signer: newKeySigner(t)})
		var verr *domain.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("connection lost", func(t *testing.T) {
		chain := newFakeChain()
		chain.sendErr = &domain.ConnectionError{Endpoint: "http://localhost:8545", Err: errors.New("refused")}
		tracker := NewTracker(chain, NopMetrics{}, testLogger())
		signer := newKeySigner(t)
		_, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{Label: "x", To: &to, Signer: signer})
		var cerr *domain.ConnectionError
		assert.True(t, errors.As(err, &cerr))

		// The signer slot is released after a failed send.
		chain.sendErr = nil
		outcome, err := tracker.SubmitAndTrack(context.Background(), &models.TransactionRequest{Label: "y", To: &to, Signer: signer})
		require.NoError(t, err)
		assert.Equal(t, models.TxFinalized, outcome.State)
	})
}
