package contracts

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// Resolver maps a contract reference to its address.
type Resolver func(name string) (common.Address, bool)

// ResolverFromMap builds a Resolver over a name to address map.
func ResolverFromMap(addresses map[string]common.Address) Resolver {
	return func(name string) (common.Address, bool) {
		addr, ok := addresses[name]
		return addr, ok
	}
}

// ConvertArgs converts textual arguments into the Go values the ABI encoder
// expects. An empty method converts constructor arguments.
func (i *Interface) ConvertArgs(method string, raw []string, resolve Resolver) ([]any, error) {
	inputs, err := i.Inputs(method)
	if err != nil {
		return nil, err
	}
	label := method
	if label == "" {
		label = "constructor"
	}
	if len(raw) != len(inputs) {
		return nil, domain.NewValidationError("arguments", "%s.%s takes %d arguments, got %d", i.name, label, len(inputs), len(raw))
	}
	out := make([]any, len(inputs))
	for idx, input := range inputs {
		v, err := ConvertValue(input.Type, raw[idx], resolve)
		if err != nil {
			return nil, domain.NewValidationError("arguments", "%s.%s argument %d (%s): %v", i.name, label, idx, input.Name, err)
		}
		out[idx] = v
	}
	return out, nil
}

// ConvertValue converts one textual value to the Go type of an ABI type.
func ConvertValue(t abi.Type, raw string, resolve Resolver) (any, error) {
	raw = strings.TrimSpace(raw)
	switch t.T {
	case abi.AddressTy:
		return parseAddress(raw, resolve)
	case abi.BoolTy:
		return strconv.ParseBool(raw)
	case abi.StringTy:
		return raw, nil
	case abi.UintTy, abi.IntTy:
		return parseInteger(t, raw)
	case abi.BytesTy:
		return hexutil.Decode(raw)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("value has %d bytes, type holds %d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		var parts []string
		if raw != "" {
			parts = strings.Split(raw, ",")
		}
		if t.T == abi.ArrayTy && len(parts) != t.Size {
			return nil, fmt.Errorf("array needs %d elements, got %d", t.Size, len(parts))
		}
		var container reflect.Value
		if t.T == abi.SliceTy {
			container = reflect.MakeSlice(t.GetType(), len(parts), len(parts))
		} else {
			container = reflect.New(t.GetType()).Elem()
		}
		for idx, part := range parts {
			v, err := ConvertValue(*t.Elem, part, resolve)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			container.Index(idx).Set(reflect.ValueOf(v))
		}
		return container.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported type %s", t.String())
}

func parseAddress(raw string, resolve Resolver) (common.Address, error) {
	if models.IsRef(raw) {
		name := models.RefName(raw)
		if resolve == nil {
			return common.Address{}, fmt.Errorf("reference %s cannot be resolved here", raw)
		}
		addr, ok := resolve(name)
		if !ok {
			return common.Address{}, fmt.Errorf("%w: no recorded address for %s", domain.ErrNotFound, name)
		}
		return addr, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%q is not an address", raw)
	}
	return common.HexToAddress(raw), nil
}

func parseInteger(t abi.Type, raw string) (any, error) {
	n, ok := new(big.Int).SetString(raw, 0)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("%s cannot be negative", t.String())
	}
	if n.BitLen() > t.Size {
		return nil, fmt.Errorf("%s overflows %s", raw, t.String())
	}
	if t.Size > 64 {
		return n, nil
	}
	if t.T == abi.UintTy {
		u := n.Uint64()
		switch t.Size {
		case 8:
			return uint8(u), nil
		case 16:
			return uint16(u), nil
		case 32:
			return uint32(u), nil
		default:
			return u, nil
		}
	}
	s := n.Int64()
	switch t.Size {
	case 8:
		return int8(s), nil
	case 16:
		return int16(s), nil
	case 32:
		return int32(s), nil
	default:
		return s, nil
	}
}

// FormatValue renders a decoded ABI value in a canonical text form so that
// query results can be compared with configured expectations.
func FormatValue(v any) string {
	switch x := v.(type) {
	case common.Address:
		return strings.ToLower(x.Hex())
	case *big.Int:
		if x == nil {
			return "0"
		}
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case []byte:
		return hexutil.Encode(x)
	case [32]byte:
		return hexutil.Encode(x[:])
	case common.Hash:
		return strings.ToLower(x.Hex())
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return hexutil.Encode(b)
	}
	return fmt.Sprint(v)
}

// NormalizeExpected canonicalizes a configured value. References resolve to
// recorded addresses, hex is lowercased and integers lose leading zeros.
func NormalizeExpected(raw string, resolve Resolver) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case models.IsRef(raw):
		addr, err := parseAddress(raw, resolve)
		if err != nil {
			return "", err
		}
		return strings.ToLower(addr.Hex()), nil
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X"):
		return strings.ToLower(raw), nil
	case strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false"):
		return strings.ToLower(raw), nil
	}
	if n, ok := new(big.Int).SetString(raw, 10); ok {
		return n.String(), nil
	}
	return raw, nil
}
