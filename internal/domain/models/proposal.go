package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalState is the derived governance state of a listing proposal
type ProposalState string

const (
	ProposalCreated  ProposalState = "CREATED"
	ProposalVoting   ProposalState = "VOTING"
	ProposalApproved ProposalState = "APPROVED"
	ProposalRejected ProposalState = "REJECTED"
	ProposalExecuted ProposalState = "EXECUTED"
)

// Proposal mirrors a token listing proposal held by the staking contract.
type Proposal struct {
	ID             uint64         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Token          common.Address `json:"token"`
	Proposer       common.Address `json:"proposer"`
	VotesFor       *big.Int       `json:"votesFor"`
	VotesAgainst   *big.Int       `json:"votesAgainst"`
	VotingDeadline time.Time      `json:"votingDeadline"`
	Executed       bool           `json:"executed"`
	Active         bool           `json:"active"`
	FeePaid        *big.Int       `json:"feePaid"`
	FeeRefunded    bool           `json:"feeRefunded"`
}

// Passing reports whether votes for strictly exceed votes against.
func (p *Proposal) Passing() bool {
	return cmpBig(p.VotesFor, p.VotesAgainst) > 0
}

// VotingOpen reports whether votes are still accepted at the given chain
// time. The deadline itself is already closed.
func (p *Proposal) VotingOpen(now time.Time) bool {
	return !p.Executed && p.Active && now.Before(p.VotingDeadline)
}

// StateAt derives the proposal state at the given chain time.
func (p *Proposal) StateAt(now time.Time) ProposalState {
	switch {
	case p.Executed:
		return ProposalExecuted
	case now.Before(p.VotingDeadline):
		if isZero(p.VotesFor) && isZero(p.VotesAgainst) {
			return ProposalCreated
		}
		return ProposalVoting
	case p.Passing():
		return ProposalApproved
	default:
		return ProposalRejected
	}
}

// ProposalInfo is the input for a new listing proposal.
type ProposalInfo struct {
	Title       string
	Description string
	Token       common.Address
	Fee         *big.Int
}

func isZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}

func cmpBig(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}
