package usecase

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/bindings"
	"github.com/lunes-platform/lunex-cli/internal/domain/contracts"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testCatalog loads the protocol fixture plus extra inline interfaces.
func testCatalog(t *testing.T, extra ...*contracts.Interface) *contracts.Catalog {
	t.Helper()
	data, err := os.ReadFile("../domain/contracts/testdata/lunex.json")
	require.NoError(t, err)

	var raw map[string]struct {
		ABI      json.RawMessage `json:"abi"`
		Bytecode string          `json:"bytecode"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))

	ifaces := append([]*contracts.Interface{}, extra...)
	for name, c := range raw {
		iface, err := contracts.ParseInterface(name, c.ABI, common.FromHex(c.Bytecode))
		require.NoError(t, err, name)
		ifaces = append(ifaces, iface)
	}
	catalog, err := contracts.NewCatalog(ifaces...)
	require.NoError(t, err)
	return catalog
}

// linkedInterface builds a deployable interface whose constructor takes
// one address per dependency and exposes an owner() query.
func linkedInterface(t *testing.T, name string, deps ...string) *contracts.Interface {
	t.Helper()
	type param struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	inputs := make([]param, 0, len(deps))
	for _, d := range deps {
		inputs = append(inputs, param{Name: d, Type: "address"})
	}
	entries := []map[string]any{
		{"type": "constructor", "stateMutability": "nonpayable", "inputs": inputs},
		{"type": "function", "name": "owner", "stateMutability": "view", "inputs": []param{}, "outputs": []param{{Type: "address"}}},
	}
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	iface, err := contracts.ParseInterface(name, raw, common.FromHex("0x6080604052"))
	require.NoError(t, err)
	return iface
}

// keySigner signs with an in-memory key.
type keySigner struct {
	key *ecdsa.PrivateKey
}

func newKeySigner(t *testing.T) *keySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (s *keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// fakeSub is a status subscription the test can drive.
type fakeSub struct {
	ch           chan StatusUpdate
	once         sync.Once
	mu           sync.Mutex
	unsubscribed bool
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan StatusUpdate, 8)}
}

func (s *fakeSub) Updates() <-chan StatusUpdate { return s.ch }

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed = true
}

func (s *fakeSub) isUnsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

func (s *fakeSub) push(u StatusUpdate) { s.ch <- u }

func (s *fakeSub) drop() { s.once.Do(func() { close(s.ch) }) }

// txResult scripts what the chain does with a sent transaction.
type txResult struct {
	status uint64
	logs   []*types.Log
	revert []byte
}

// fakeContract answers read-only calls for one address.
type fakeContract struct {
	iface   *contracts.Interface
	answers map[string][]any
	errs    map[string]error
}

// fakeChain is an in-memory ChainClient.
type fakeChain struct {
	mu sync.Mutex

	chainID     *big.Int
	gasPrice    *big.Int
	gas         uint64
	estimateErr error
	sendErr     error
	now         time.Time
	balances    map[common.Address]*big.Int
	nonces      map[common.Address]uint64
	code        map[common.Address][]byte
	contracts   map[common.Address]*fakeContract

	// result scripts each sent transaction; nil means success without logs.
	result func(tx *types.Transaction) txResult
	// manual leaves subscriptions open for the test to drive.
	manual bool

	sent      []*types.Transaction
	subs      map[common.Hash]*fakeSub
	receipts  map[common.Hash]*types.Receipt
	reverts   map[common.Hash][]byte
	finalized map[common.Hash]bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:   big.NewInt(31337),
		gasPrice:  big.NewInt(10),
		gas:       100000,
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		balances:  make(map[common.Address]*big.Int),
		nonces:    make(map[common.Address]uint64),
		code:      make(map[common.Address][]byte),
		contracts: make(map[common.Address]*fakeContract),
		subs:      make(map[common.Hash]*fakeSub),
		receipts:  make(map[common.Hash]*types.Receipt),
		reverts:   make(map[common.Hash][]byte),
		finalized: make(map[common.Hash]bool),
	}
}

func (c *fakeChain) fund(addr common.Address, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = big.NewInt(amount)
}

func (c *fakeChain) deploy(addr common.Address, iface *contracts.Interface, answers map[string][]any) *fakeContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	fc := &fakeContract{iface: iface, answers: answers, errs: map[string]error{}}
	c.contracts[addr] = fc
	c.code[addr] = []byte{0x60, 0x80}
	return fc
}

func (c *fakeChain) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeChain) sub(hash common.Hash) *fakeSub {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[hash]
}

func (c *fakeChain) receipt(hash common.Hash) *types.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipts[hash]
}

func (c *fakeChain) finalize(hash common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalized[hash] = true
}

func (c *fakeChain) ChainID(ctx context.Context) (*big.Int, error) { return c.chainID, nil }

func (c *fakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return c.gasPrice, nil }

func (c *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if c.estimateErr != nil {
		return 0, c.estimateErr
	}
	return c.gas, nil
}

func (c *fakeChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *fakeChain) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code[account], nil
}

func (c *fakeChain) LatestBlockTime(ctx context.Context) (time.Time, error) { return c.now, nil }

func (c *fakeChain) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	fc, ok := c.contracts[to]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	for name, m := range fc.iface.ABI().Methods {
		if len(data) >= 4 && string(m.ID) == string(data[:4]) {
			if err := fc.errs[name]; err != nil {
				return nil, err
			}
			out, ok := fc.answers[name]
			if !ok {
				return nil, errors.New("execution reverted")
			}
			return m.Outputs.Pack(out...)
		}
	}
	return nil, errors.New("unknown selector")
}

func (c *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return err
	}

	res := txResult{status: types.ReceiptStatusSuccessful}
	if c.result != nil {
		res = c.result(tx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, tx)
	c.nonces[from] = tx.Nonce() + 1

	receipt := &types.Receipt{
		Status:      res.status,
		TxHash:      tx.Hash(),
		Logs:        res.logs,
		GasUsed:     tx.Gas() / 2,
		BlockNumber: big.NewInt(int64(len(c.sent))),
		BlockHash:   common.BigToHash(big.NewInt(int64(1000 + len(c.sent)))),
	}
	if tx.To() == nil && res.status == types.ReceiptStatusSuccessful {
		receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
		c.code[receipt.ContractAddress] = tx.Data()
	}
	c.receipts[tx.Hash()] = receipt
	c.reverts[tx.Hash()] = res.revert
	return nil
}

func (c *fakeChain) SubscribeStatus(ctx context.Context, txID common.Hash) (StatusSubscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := newFakeSub()
	c.subs[txID] = sub
	if !c.manual {
		receipt := c.receipts[txID]
		sub.push(StatusUpdate{State: models.TxIncluded, Receipt: receipt})
		sub.push(StatusUpdate{State: models.TxFinalized, Receipt: receipt, RevertData: c.reverts[txID]})
		c.finalized[txID] = true
	}
	return sub, nil
}

func (c *fakeChain) TransactionStatus(ctx context.Context, txID common.Hash) (*StatusUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[txID]
	if !ok {
		return &StatusUpdate{State: models.TxSubmitted}, nil
	}
	state := models.TxIncluded
	if c.finalized[txID] {
		state = models.TxFinalized
	}
	return &StatusUpdate{State: state, Receipt: receipt, RevertData: c.reverts[txID]}, nil
}

// testBinder binds the real typed bindings over the fake chain.
type testBinder struct {
	catalog *contracts.Catalog
	chain   *fakeChain
}

func (b *testBinder) Staking(address common.Address) (StakingContract, error) {
	iface, err := b.catalog.Interface(bindings.ArtifactStaking)
	if err != nil {
		return nil, err
	}
	return bindings.NewStaking(iface, address, b.chain), nil
}

func (b *testBinder) Router(address common.Address) (RouterContract, error) {
	iface, err := b.catalog.Interface(bindings.ArtifactRouter)
	if err != nil {
		return nil, err
	}
	return bindings.NewRouter(iface, address, b.chain), nil
}

func (b *testBinder) Token(address common.Address) (TokenContract, error) {
	iface, err := b.catalog.Interface(bindings.ArtifactToken)
	if err != nil {
		return nil, err
	}
	return bindings.NewToken(iface, address, b.chain), nil
}

// fakeTransactor scripts outcomes without a chain.
type fakeTransactor struct {
	mu         sync.Mutex
	requests   []*models.TransactionRequest
	respond    func(req *models.TransactionRequest) *models.TransactionOutcome
	reconciled map[common.Hash]*models.TransactionOutcome
	err        error
}

func newFakeTransactor() *fakeTransactor {
	return &fakeTransactor{reconciled: make(map[common.Hash]*models.TransactionOutcome)}
}

func (f *fakeTransactor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTransactor) labels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Label
	}
	return out
}

func (f *fakeTransactor) Submit(ctx context.Context, req *models.TransactionRequest) (*PendingTransaction, error) {
	outcome, err := f.SubmitAndTrack(ctx, req)
	if err != nil {
		return nil, err
	}
	p := newPendingTransaction(req.Label, outcome.TxID)
	if outcome.State != models.TxSubmitted {
		p.advance(models.TxIncluded, nil)
		p.advance(outcome.State, func(o *models.TransactionOutcome) { *o = *outcome })
	}
	return p, nil
}

func (f *fakeTransactor) SubmitAndTrack(ctx context.Context, req *models.TransactionRequest) (*models.TransactionOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()

	var outcome *models.TransactionOutcome
	if f.respond != nil {
		outcome = f.respond(req)
	}
	if outcome == nil {
		outcome = finalizedOutcome()
		if req.IsCreation() {
			outcome.Events = []models.Event{{Name: models.InstantiatedEvent, Address: addressFor(req.Label)}}
		}
	}
	if outcome.TxID == (common.Hash{}) {
		outcome.TxID = common.BigToHash(big.NewInt(int64(n)))
	}
	return outcome, nil
}

func (f *fakeTransactor) Reconcile(ctx context.Context, txID common.Hash, decoder models.EventDecoder) (*models.TransactionOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.reconciled[txID]; ok {
		return o, nil
	}
	return &models.TransactionOutcome{TxID: txID, State: models.TxSubmitted}, nil
}

func addressFor(label string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(label))[:20])
}

func finalizedOutcome(events ...models.Event) *models.TransactionOutcome {
	return &models.TransactionOutcome{State: models.TxFinalized, BlockNumber: 7, Events: events}
}

func failedOutcome(name string) *models.TransactionOutcome {
	return &models.TransactionOutcome{State: models.TxFailed, BlockNumber: 7, DispatchError: &models.DispatchError{Module: "staking", Name: name}}
}

func unknownOutcome() *models.TransactionOutcome {
	return &models.TransactionOutcome{State: models.TxUnknown, Reason: "status subscription closed before finalization"}
}

// memoryStore is an in-memory RecordStore.
type memoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
	saves   int
	locked  map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string][]byte), locked: make(map[string]bool)}
}

func (s *memoryStore) put(t *testing.T, record *models.DeploymentRecord) {
	t.Helper()
	data, err := json.Marshal(record)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Network] = data
}

func (s *memoryStore) get(t *testing.T, network string) *models.DeploymentRecord {
	t.Helper()
	record, err := s.Load(context.Background(), network)
	require.NoError(t, err)
	return record
}

func (s *memoryStore) Load(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[network]
	if !ok {
		return models.NewDeploymentRecord(network, 0), nil
	}
	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	record.Normalize()
	return &record, nil
}

func (s *memoryStore) Save(ctx context.Context, record *models.DeploymentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Network] = data
	s.saves++
	return nil
}

func (s *memoryStore) Lock(ctx context.Context, network string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[network] {
		return nil, domain.ErrRecordLocked
	}
	s.locked[network] = true
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locked, network)
	}, nil
}

// recordingMetrics captures observations.
type recordingMetrics struct {
	mu           sync.Mutex
	transactions map[models.TxState]int
	deployments  map[string]bool
	checks       map[string][]bool
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		transactions: make(map[models.TxState]int),
		deployments:  make(map[string]bool),
		checks:       make(map[string][]bool),
	}
}

func (m *recordingMetrics) ObserveTransaction(label string, state models.TxState, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[state]++
}

func (m *recordingMetrics) ObserveDeployment(contract string, skipped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployments[contract] = skipped
}

func (m *recordingMetrics) ObserveVerification(check string, pass bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[check] = append(m.checks[check], pass)
}
