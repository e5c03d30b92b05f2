package contracts

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// Capability separates read-only methods from state-changing ones
type Capability string

const (
	CapabilityQuery    Capability = "query"
	CapabilityMutation Capability = "mutation"
)

// Caller executes a read-only call against a deployed contract.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Interface is the validated method contract of one compiled contract.
// Queries can only be read through Query and mutations can only be packed
// for submission, so a call with the wrong capability fails before it
// reaches the network.
type Interface struct {
	name      string
	abi       abi.ABI
	bytecode  []byte
	queries   map[string]abi.Method
	mutations map[string]abi.Method
}

// ParseInterface parses a JSON ABI and validates it.
func ParseInterface(name string, rawABI []byte, bytecode []byte) (*Interface, error) {
	parsed, err := abi.JSON(bytes.NewReader(rawABI))
	if err != nil {
		return nil, domain.NewValidationError("abi", "%s: %v", name, err)
	}
	return NewInterface(name, parsed, bytecode)
}

// NewInterface validates a parsed ABI and splits its methods by capability.
func NewInterface(name string, parsed abi.ABI, bytecode []byte) (*Interface, error) {
	if name == "" {
		return nil, domain.NewValidationError("interface", "name is required")
	}
	if len(parsed.Methods) == 0 && len(bytecode) == 0 {
		return nil, domain.NewValidationError("interface", "%s has neither methods nor bytecode", name)
	}
	if len(parsed.Constructor.Inputs) > 0 && len(bytecode) == 0 {
		return nil, domain.NewValidationError("interface", "%s declares a constructor but has no bytecode", name)
	}

	iface := &Interface{
		name:      name,
		abi:       parsed,
		bytecode:  bytecode,
		queries:   make(map[string]abi.Method),
		mutations: make(map[string]abi.Method),
	}
	for methodName, m := range parsed.Methods {
		if m.IsConstant() {
			if len(m.Outputs) == 0 {
				return nil, domain.NewValidationError("interface", "%s.%s is read-only but returns nothing", name, methodName)
			}
			iface.queries[methodName] = m
		} else {
			iface.mutations[methodName] = m
		}
	}
	return iface, nil
}

// Name returns the artifact name
func (i *Interface) Name() string { return i.name }

// ABI returns the parsed ABI
func (i *Interface) ABI() *abi.ABI { return &i.abi }

// Bytecode returns a copy of the creation bytecode
func (i *Interface) Bytecode() []byte { return append([]byte(nil), i.bytecode...) }

// Deployable reports whether the interface carries creation bytecode
func (i *Interface) Deployable() bool { return len(i.bytecode) > 0 }

// Capability returns the capability of a method.
func (i *Interface) Capability(method string) (Capability, bool) {
	if _, ok := i.queries[method]; ok {
		return CapabilityQuery, true
	}
	if _, ok := i.mutations[method]; ok {
		return CapabilityMutation, true
	}
	return "", false
}

// HasQuery reports whether a read-only method exists.
func (i *Interface) HasQuery(method string) bool {
	_, ok := i.queries[method]
	return ok
}

// Queries returns the read-only method names sorted.
func (i *Interface) Queries() []string { return sortedKeys(i.queries) }

// Mutations returns the state-changing method names sorted.
func (i *Interface) Mutations() []string { return sortedKeys(i.mutations) }

// NoArgQueries returns read-only methods that take no inputs, sorted.
func (i *Interface) NoArgQueries() []string {
	var out []string
	for _, name := range i.Queries() {
		if len(i.queries[name].Inputs) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// Inputs returns the declared inputs of a method, or of the constructor
// when method is empty.
func (i *Interface) Inputs(method string) (abi.Arguments, error) {
	if method == "" {
		return i.abi.Constructor.Inputs, nil
	}
	m, ok := i.abi.Methods[method]
	if !ok {
		return nil, i.unknown(method)
	}
	return m.Inputs, nil
}

// PackConstructor returns creation bytecode followed by encoded constructor arguments.
func (i *Interface) PackConstructor(args ...any) ([]byte, error) {
	if !i.Deployable() {
		return nil, domain.NewValidationError("contract", "%s has no bytecode to deploy", i.name)
	}
	packed, err := i.abi.Pack("", args...)
	if err != nil {
		return nil, domain.NewValidationError("constructor", "%s: %v", i.name, err)
	}
	return append(i.Bytecode(), packed...), nil
}

// PackMutation encodes a state-changing call.
func (i *Interface) PackMutation(method string, args ...any) ([]byte, error) {
	if _, ok := i.mutations[method]; !ok {
		if _, isQuery := i.queries[method]; isQuery {
			return nil, domain.NewValidationError("method", "%s.%s is read-only and cannot be submitted", i.name, method)
		}
		return nil, i.unknown(method)
	}
	data, err := i.abi.Pack(method, args...)
	if err != nil {
		return nil, domain.NewValidationError("arguments", "%s.%s: %v", i.name, method, err)
	}
	return data, nil
}

// IsPayable reports whether a mutation accepts value.
func (i *Interface) IsPayable(method string) bool {
	m, ok := i.mutations[method]
	return ok && m.IsPayable()
}

// Query performs a read-only call and unpacks its outputs.
func (i *Interface) Query(ctx context.Context, caller Caller, at common.Address, method string, args ...any) ([]any, error) {
	if _, ok := i.queries[method]; !ok {
		if _, isMutation := i.mutations[method]; isMutation {
			return nil, domain.NewValidationError("method", "%s.%s changes state and cannot be queried", i.name, method)
		}
		return nil, i.unknown(method)
	}
	data, err := i.abi.Pack(method, args...)
	if err != nil {
		return nil, domain.NewValidationError("arguments", "%s.%s: %v", i.name, method, err)
	}
	out, err := caller.CallContract(ctx, at, data)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", i.name, method, err)
	}
	values, err := i.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s.%s result: %w", i.name, method, err)
	}
	return values, nil
}

// QueryOne performs a query with exactly one output.
func (i *Interface) QueryOne(ctx context.Context, caller Caller, at common.Address, method string, args ...any) (any, error) {
	values, err := i.Query(ctx, caller, at, method, args...)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s.%s returned %d values, expected 1", i.name, method, len(values))
	}
	return values[0], nil
}

// DecodeLog decodes a log emitted by a contract with this interface.
func (i *Interface) DecodeLog(log *types.Log) (*models.Event, bool) {
	if len(log.Topics) == 0 {
		return nil, false
	}
	event, err := i.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, false
	}

	fields := make(map[string]any)
	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return nil, false
		}
	}
	if nonIndexed := event.Inputs.NonIndexed(); len(nonIndexed) > 0 && len(log.Data) > 0 {
		if err := nonIndexed.UnpackIntoMap(fields, log.Data); err != nil {
			return nil, false
		}
	}

	return &models.Event{
		Name:     event.RawName,
		Address:  log.Address,
		Fields:   fields,
		LogIndex: log.Index,
	}, true
}

var (
	revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}
	panicSelector  = []byte{0x4e, 0x48, 0x7b, 0x71}
)

// DecodeRevert turns revert data into a dispatch error. Custom errors keep
// their declared name; Error(string) reverts keep the message as reason.
func (i *Interface) DecodeRevert(data []byte) *models.DispatchError {
	de := &models.DispatchError{Module: i.name, Name: "Reverted"}
	if len(data) < 4 {
		return de
	}
	selector := data[:4]
	switch {
	case bytes.Equal(selector, revertSelector):
		if reason, err := abi.UnpackRevert(data); err == nil {
			de.Name = "Error"
			de.Reason = reason
		}
		return de
	case bytes.Equal(selector, panicSelector):
		de.Name = "Panic"
		if reason, err := abi.UnpackRevert(data); err == nil {
			de.Reason = reason
		}
		return de
	}
	for name, e := range i.abi.Errors {
		if !bytes.Equal(e.ID[:4], selector) {
			continue
		}
		de.Name = name
		if values, err := e.Inputs.Unpack(data[4:]); err == nil && len(values) > 0 {
			de.Reason = fmt.Sprint(values...)
		}
		return de
	}
	de.Reason = fmt.Sprintf("unrecognized revert data 0x%x", data)
	return de
}

func (i *Interface) unknown(method string) error {
	return domain.NewValidationError("method", "%s has no method %q", i.name, method)
}

func sortedKeys(m map[string]abi.Method) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ models.EventDecoder = (*Interface)(nil)
