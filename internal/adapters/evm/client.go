package evm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

const (
	codeTimeout         = 5 * time.Second
	defaultPollInterval = 2 * time.Second
)

// backend is the subset of the node API the client needs. Both
// *ethclient.Client and the simulated backend satisfy it.
type backend interface {
	ethereum.ChainIDReader
	ethereum.BlockNumberReader
	ethereum.ChainReader
	ethereum.ChainStateReader
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.PendingStateReader
	ethereum.TransactionReader
	ethereum.TransactionSender
}

// Client implements usecase.ChainClient over JSON-RPC. The connection is
// opened on first use so commands that never touch the network do not dial.
type Client struct {
	network *config.Network
	log     *slog.Logger

	mu      sync.Mutex
	backend backend
}

// NewClient creates a new chain client for the selected network
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{
		network: cfg.Network,
		log:     log.With("component", "EVMClient"),
	}
}

func newClientWithBackend(network *config.Network, b backend, log *slog.Logger) *Client {
	return &Client{network: network, backend: b, log: log.With("component", "EVMClient")}
}

func (c *Client) conn(ctx context.Context) (backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend != nil {
		return c.backend, nil
	}
	if c.network == nil {
		return nil, domain.NewValidationError("network", "no network selected")
	}
	client, err := ethclient.DialContext(ctx, c.network.RPCURL)
	if err != nil {
		return nil, &domain.ConnectionError{Endpoint: c.network.RPCURL, Err: err}
	}
	c.log.Debug("connected", "network", c.network.Name, "rpc", c.network.RPCURL)
	c.backend = client
	return c.backend, nil
}

// wrap classifies transport failures as connection errors. Errors the node
// itself returned, such as reverts or nonce problems, pass through.
func (c *Client) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ethereum.NotFound) {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return err
	}
	var connErr *domain.ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	endpoint := ""
	if c.network != nil {
		endpoint = c.network.RPCURL
	}
	return &domain.ConnectionError{Endpoint: endpoint, Err: err}
}

// CallContract executes a read-only call at the latest block
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	out, err := b.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	return out, c.wrap(err)
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	id, err := b.ChainID(ctx)
	return id, c.wrap(err)
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	nonce, err := b.PendingNonceAt(ctx, account)
	return nonce, c.wrap(err)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	price, err := b.SuggestGasPrice(ctx)
	return price, c.wrap(err)
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	gas, err := b.EstimateGas(ctx, msg)
	return gas, c.wrap(err)
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := b.BalanceAt(ctx, account, nil)
	return balance, c.wrap(err)
}

// CodeAt returns the code at an address; empty code means nothing is deployed.
func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, codeTimeout)
	defer cancel()

	code, err := b.CodeAt(ctx, account, nil)
	return code, c.wrap(err)
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b, err := c.conn(ctx)
	if err != nil {
		return err
	}
	return c.wrap(b.SendTransaction(ctx, tx))
}

// LatestBlockTime returns the timestamp of the head block. Governance
// deadlines are compared against it, not the local clock.
func (c *Client) LatestBlockTime(ctx context.Context) (time.Time, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return time.Time{}, err
	}
	head, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return time.Time{}, c.wrap(err)
	}
	return time.Unix(int64(head.Time), 0).UTC(), nil
}

// TransactionStatus reads the receipt of a transaction and compares its
// block against the finalized height.
func (c *Client) TransactionStatus(ctx context.Context, txID common.Hash) (*usecase.StatusUpdate, error) {
	b, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := b.TransactionReceipt(ctx, txID)
	if errors.Is(err, ethereum.NotFound) {
		return &usecase.StatusUpdate{State: models.TxSubmitted}, nil
	}
	if err != nil {
		return nil, c.wrap(err)
	}

	finalized, err := c.finalizedHeight(ctx, b)
	if err != nil {
		return nil, err
	}
	update := &usecase.StatusUpdate{State: models.TxIncluded, Receipt: receipt}
	if receipt.BlockNumber == nil || receipt.BlockNumber.Uint64() > finalized {
		return update, nil
	}
	update.State = models.TxFinalized
	if receipt.Status == types.ReceiptStatusFailed {
		update.RevertData = c.replayRevert(ctx, b, txID, receipt.BlockNumber)
	}
	return update, nil
}

// SubscribeStatus polls the transaction status at the network's poll interval.
func (c *Client) SubscribeStatus(ctx context.Context, txID common.Hash) (usecase.StatusSubscription, error) {
	if _, err := c.conn(ctx); err != nil {
		return nil, err
	}
	interval := defaultPollInterval
	if c.network != nil && c.network.PollInterval > 0 {
		interval = c.network.PollInterval
	}
	return newPollingSubscription(ctx, c, txID, interval, c.log), nil
}

// finalizedHeight uses the configured finality depth, or the node's
// "finalized" block tag when the depth is zero.
func (c *Client) finalizedHeight(ctx context.Context, b backend) (uint64, error) {
	if c.network != nil && c.network.FinalityDepth > 0 {
		head, err := b.BlockNumber(ctx)
		if err != nil {
			return 0, c.wrap(err)
		}
		if head < c.network.FinalityDepth {
			return 0, nil
		}
		return head - c.network.FinalityDepth, nil
	}
	header, err := b.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err != nil {
		return 0, fmt.Errorf("failed to read finalized block: %w", c.wrap(err))
	}
	return header.Number.Uint64(), nil
}

// replayRevert re-executes a failed transaction as a call to recover its
// revert payload. Receipts do not carry it.
func (c *Client) replayRevert(ctx context.Context, b backend, txID common.Hash, block *big.Int) []byte {
	tx, _, err := b.TransactionByHash(ctx, txID)
	if err != nil {
		c.log.Debug("revert replay skipped", "tx", txID.Hex(), "error", err)
		return nil
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil
	}
	parent := new(big.Int).Sub(block, common.Big1)
	_, err = b.CallContract(ctx, ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}, parent)
	return revertData(err)
}

// revertData extracts the raw revert payload from a node error.
func revertData(err error) []byte {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}
	switch data := dataErr.ErrorData().(type) {
	case string:
		return common.FromHex(data)
	case []byte:
		return data
	}
	return nil
}

var _ usecase.ChainClient = (*Client)(nil)
