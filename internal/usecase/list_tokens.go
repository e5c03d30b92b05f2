package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

const defaultListingReason = "initial listing"

// ListTokens approves tokens for trading through the staking contract's
// admin listing path. Tokens already approved on-chain are not resubmitted.
type ListTokens struct {
	binder     ContractBinder
	transactor Transactor
	store      RecordStore
	progress   ProgressSink
	log        *slog.Logger
}

// NewListTokens creates a new token listing use case
func NewListTokens(
	binder ContractBinder,
	transactor Transactor,
	store RecordStore,
	progress ProgressSink,
	log *slog.Logger,
) *ListTokens {
	return &ListTokens{
		binder:     binder,
		transactor: transactor,
		store:      store,
		progress:   progress,
		log:        log.With("component", "ListTokens"),
	}
}

// Run lists tokens against the recorded staking contract of a network.
func (uc *ListTokens) Run(ctx context.Context, network string, listings []models.TokenListing, signer models.Signer) ([]*StepResult, error) {
	if len(listings) == 0 {
		return nil, domain.NewValidationError("listings", "no tokens to list")
	}
	unlock, err := uc.store.Lock(ctx, network)
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := uc.store.Load(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}
	return uc.List(ctx, record, listings, signer)
}

// List submits one admin listing per token not yet approved.
func (uc *ListTokens) List(ctx context.Context, record *models.DeploymentRecord, listings []models.TokenListing, signer models.Signer) ([]*StepResult, error) {
	stakingAddr, ok := record.Address(bindings.ArtifactStaking)
	if !ok {
		return nil, domain.NewValidationError("listings", "staking contract is not deployed on %s", record.Network)
	}
	staking, err := uc.binder.Staking(stakingAddr)
	if err != nil {
		return nil, err
	}

	var results []*StepResult
	for i, listing := range listings {
		if !common.IsHexAddress(listing.Token) {
			return results, domain.NewValidationError("token", "%q is not an address", listing.Token)
		}
		token := common.HexToAddress(listing.Token)
		key := strings.ToLower(token.Hex())

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "list",
			Current: i + 1,
			Total:   len(listings),
			Message: fmt.Sprintf("Listing %s", token.Hex()),
			Spinner: true,
		})

		if record.ListingDone(key) {
			results = append(results, &StepResult{Key: key, Skipped: true})
			continue
		}

		approved, err := staking.IsProjectApproved(ctx, token)
		if err != nil {
			return results, err
		}
		if approved {
			uc.log.Info("token already approved", "token", token.Hex())
			record.MarkListing(&models.StepRecord{Key: key, Finalized: true, AlreadySet: true, CompletedAt: time.Now().UTC()})
			results = append(results, &StepResult{Key: key, AlreadySet: true})
			if err := uc.store.Save(ctx, record); err != nil {
				return results, err
			}
			continue
		}

		reason := listing.Reason
		if reason == "" {
			reason = defaultListingReason
		}
		req, err := staking.AdminListToken(token, reason)
		if err != nil {
			return results, err
		}
		req.Signer = signer

		outcome, err := uc.transactor.SubmitAndTrack(ctx, req)
		if err != nil {
			return results, err
		}
		results = append(results, &StepResult{Key: key, Outcome: outcome})
		if err := domain.OutcomeError(req.Label, outcome); err != nil {
			return results, err
		}

		record.MarkListing(&models.StepRecord{Key: key, TransactionID: outcome.TxID, Finalized: true, CompletedAt: time.Now().UTC()})
		if err := uc.store.Save(ctx, record); err != nil {
			return results, fmt.Errorf("failed to save deployment record: %w", err)
		}
		uc.progress.Info(fmt.Sprintf("%s listed", token.Hex()))
	}
	return results, nil
}
