package network

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/ElrondNetwork/elrond-go-core/core"
	"github.com/ElrondNetwork/elrond-go-core/core/pubkeyConverter"
	logger "github.com/ElrondNetwork/elrond-go-logger"
)

var log = logger.GetOrCreate("network")

// Client is the handle through which the application talks to a ledger.
// It holds no lottery data; the provider can be swapped at any time
type Client struct {
	mu       sync.RWMutex
	provider Provider
	metrics  *Metrics
	conv     core.PubkeyConverter
}

// NewClient - creates a new Client bound to provider. The provider is not
// checked here; calls made without one fail with ErrNoProvider
func NewClient(provider Provider) (*Client, error) {
	conv, err := pubkeyConverter.NewBech32PubkeyConverter(32, log)
	if err != nil {
		log.Error("can not create converter", "error", err)
		return nil, err
	}

	return &Client{
		provider: provider,
		conv:     conv,
	}, nil
}

// SetProvider - replaces the ledger the client talks to
func (c *Client) SetProvider(provider Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.provider = provider
}

// Provider - returns the current ledger
func (c *Client) Provider() Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.provider
}

// SetMetrics - enables call counting
func (c *Client) SetMetrics(metrics *Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics = metrics
}

func (c *Client) current() (Provider, *Metrics, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.provider == nil {
		return nil, c.metrics, ErrNoProvider
	}

	return c.provider, c.metrics, nil
}

func (c *Client) metricsSnapshot() *Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.metrics
}

// EncodeAddress - converts a public key to its bech32 address
func (c *Client) EncodeAddress(pubkey []byte) string {
	return c.conv.Encode(pubkey)
}

// DecodeAddress - converts a bech32 address to its public key
func (c *Client) DecodeAddress(address string) ([]byte, error) {
	return c.conv.Decode(address)
}

// Accounts - returns the accounts the provider can sign for
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	provider, _, err := c.current()
	if err != nil {
		return nil, err
	}

	return provider.Accounts(ctx)
}

// GetBalance - returns the balance of address in the smallest unit
func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	provider, _, err := c.current()
	if err != nil {
		return nil, err
	}

	return provider.GetBalance(ctx, address)
}

// ImportKey - lets the provider sign for the account of privateKey
func (c *Client) ImportKey(ctx context.Context, privateKey []byte) (string, error) {
	provider, _, err := c.current()
	if err != nil {
		return "", err
	}

	return provider.ImportKey(ctx, privateKey)
}

// Deploy - deploys a contract. A mined but failed deployment returns the
// receipt together with the contract error
func (c *Client) Deploy(ctx context.Context, req *data.DeployRequest) (*data.TxReceipt, error) {
	provider, metrics, err := c.current()
	if err != nil {
		return nil, err
	}

	receipt, err := provider.Deploy(ctx, req)
	if err != nil {
		log.Debug("deploy rejected", "sender", req.Sender, "error", err)
		return nil, err
	}

	return receipt, checkReceipt(metrics, deployFunction, receipt)
}

// SendTransaction - sends tx and waits for its outcome. A mined but failed
// transaction returns the receipt together with the contract error
func (c *Client) SendTransaction(ctx context.Context, tx *data.Transaction) (*data.TxReceipt, error) {
	provider, metrics, err := c.current()
	if err != nil {
		return nil, err
	}

	receipt, err := provider.SendTransaction(ctx, tx)
	if err != nil {
		log.Debug("transaction rejected", "sender", tx.Sender, "data", tx.Data, "error", err)
		return nil, err
	}

	return receipt, checkReceipt(metrics, functionName(tx.Data), receipt)
}

// Query - runs a read-only contract function
func (c *Client) Query(ctx context.Context, req *data.QueryRequest) ([][]byte, error) {
	provider, metrics, err := c.current()
	if err != nil {
		return nil, err
	}

	metrics.observeQuery(req.FuncName)

	return provider.Query(ctx, req)
}

func checkReceipt(metrics *Metrics, function string, receipt *data.TxReceipt) error {
	metrics.observeTransaction(function, receipt.Status)

	if receipt.Succeeded() {
		return nil
	}

	err := contract.ParseError(receipt.ReturnMessage)
	log.Debug("transaction failed", "hash", receipt.Hash, "function", function, "error", err)

	return err
}

func functionName(callData string) string {
	if callData == "" {
		return transferFunction
	}

	return strings.Split(callData, "@")[0]
}
