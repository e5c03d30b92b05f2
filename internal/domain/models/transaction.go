package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxState represents the lifecycle state of a submitted transaction
type TxState string

const (
	TxSubmitted TxState = "SUBMITTED"
	TxIncluded  TxState = "INCLUDED_IN_BLOCK"
	TxFinalized TxState = "FINALIZED"
	TxFailed    TxState = "FAILED"
	TxUnknown   TxState = "UNKNOWN"
)

// IsTerminal reports whether no further transition is possible.
func (s TxState) IsTerminal() bool {
	return s == TxFinalized || s == TxFailed || s == TxUnknown
}

// CanTransitionTo enforces the monotonic lifecycle:
// Submitted -> IncludedInBlock -> Finalized | Failed, with Unknown
// reachable from any non-terminal state.
func (s TxState) CanTransitionTo(next TxState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == TxUnknown {
		return true
	}
	switch s {
	case TxSubmitted:
		return next == TxIncluded
	case TxIncluded:
		// Re-inclusion after a reorg keeps the state and updates the block.
		return next == TxIncluded || next == TxFinalized || next == TxFailed
	}
	return false
}

// Signer produces signatures for transactions on behalf of one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// EventDecoder turns raw logs and revert payloads into domain values.
type EventDecoder interface {
	DecodeLog(log *types.Log) (*Event, bool)
	DecodeRevert(data []byte) *DispatchError
}

// ResourceLimits caps what a transaction may consume. Zero values are
// filled in from estimates at submission time.
type ResourceLimits struct {
	GasLimit uint64
	GasPrice *big.Int
}

// TransactionRequest is a signed operation waiting to be submitted.
// A nil To creates a contract from Data.
type TransactionRequest struct {
	Label   string
	To      *common.Address
	Method  string
	Args    []any
	Data    []byte
	Value   *big.Int
	Signer  Signer
	Limits  ResourceLimits
	Decoder EventDecoder
}

// IsCreation reports whether the request instantiates a contract.
func (r *TransactionRequest) IsCreation() bool {
	return r.To == nil
}

// Event is a decoded contract event.
type Event struct {
	Name     string         `json:"name"`
	Address  common.Address `json:"address"`
	Fields   map[string]any `json:"fields,omitempty"`
	LogIndex uint           `json:"logIndex"`
}

// InstantiatedEvent is synthesized for contract creations.
const InstantiatedEvent = "Instantiated"

// DispatchError is the structured reason a finalized transaction failed.
// Name is the contract's error identifier kept verbatim.
type DispatchError struct {
	Module string `json:"module,omitempty"`
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

func (e *DispatchError) Error() string {
	id := e.Name
	if e.Module != "" {
		id = e.Module + "::" + e.Name
	}
	if e.Reason == "" {
		return fmt.Sprintf("dispatch error %s", id)
	}
	return fmt.Sprintf("dispatch error %s: %s", id, e.Reason)
}

// Is reports whether the error carries the identifier, either as a custom
// error name or as a plain revert message.
func (e *DispatchError) Is(identifier string) bool {
	return e != nil && (e.Name == identifier || e.Reason == identifier)
}

// TransactionOutcome is the observed result of a tracked transaction.
type TransactionOutcome struct {
	TxID          common.Hash    `json:"txId"`
	State         TxState        `json:"state"`
	BlockNumber   uint64         `json:"blockNumber,omitempty"`
	BlockHash     common.Hash    `json:"blockHash,omitempty"`
	GasUsed       uint64         `json:"gasUsed,omitempty"`
	Events        []Event        `json:"events,omitempty"`
	DispatchError *DispatchError `json:"dispatchError,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// Event returns the first event with the given name.
func (o *TransactionOutcome) Event(name string) (*Event, bool) {
	for i := range o.Events {
		if o.Events[i].Name == name {
			return &o.Events[i], true
		}
	}
	return nil, false
}

// InstantiatedAddress returns the address of the contract created by the
// transaction, if any.
func (o *TransactionOutcome) InstantiatedAddress() (common.Address, bool) {
	ev, ok := o.Event(InstantiatedEvent)
	if !ok {
		return common.Address{}, false
	}
	return ev.Address, ev.Address != (common.Address{})
}
