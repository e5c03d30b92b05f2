package evm

import (
	"crypto/ecdsa"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
	"github.com/sahilm/fuzzy"
)

// KeySigner signs with an in-memory secp256k1 key
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner parses a hex private key, with or without 0x prefix.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, domain.NewValidationError("private_key", "%v", err)
	}
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (s *KeySigner) Address() common.Address { return s.address }

func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// SignerRegistry resolves the [signers] section of the project file
type SignerRegistry struct {
	signers map[string]config.SignerConfig
}

// NewSignerRegistry creates a new signer registry
func NewSignerRegistry(cfg *config.RuntimeConfig) *SignerRegistry {
	r := &SignerRegistry{signers: map[string]config.SignerConfig{}}
	if cfg.Project != nil && cfg.Project.Signers != nil {
		r.signers = cfg.Project.Signers
	}
	return r
}

// Signer builds the named signer. Keys are parsed on demand so an unset
// environment variable only fails the command that needs it.
func (r *SignerRegistry) Signer(name string) (models.Signer, error) {
	sc, ok := r.signers[name]
	if !ok {
		return nil, domain.NewValidationError("signer", "%q is not configured%s", name, r.suggest(name))
	}
	switch sc.Type {
	case "", config.SignerTypePrivateKey:
		if sc.PrivateKey == "" {
			return nil, domain.NewValidationError("signer", "%q has no private key; is its environment variable set?", name)
		}
		return NewKeySigner(sc.PrivateKey)
	default:
		return nil, domain.NewValidationError("signer", "%q has unsupported type %q", name, sc.Type)
	}
}

func (r *SignerRegistry) suggest(name string) string {
	names := make([]string, 0, len(r.signers))
	for n := range r.signers {
		names = append(names, n)
	}
	sort.Strings(names)
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return "; did you mean " + matches[0].Str + "?"
}

var _ usecase.SignerSource = (*SignerRegistry)(nil)
