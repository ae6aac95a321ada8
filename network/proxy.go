package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/DrDelphi/EgldLotteryBot/utils"
	"github.com/ElrondNetwork/elrond-go-core/core"
	"github.com/ElrondNetwork/elrond-go-core/core/pubkeyConverter"
	"github.com/ElrondNetwork/elrond-sdk-erdgo/blockchain"
	"github.com/ElrondNetwork/elrond-sdk-erdgo/builders"
	erdgoCore "github.com/ElrondNetwork/elrond-sdk-erdgo/core"
	sdkData "github.com/ElrondNetwork/elrond-sdk-erdgo/data"
	"github.com/ElrondNetwork/elrond-sdk-erdgo/interactors"
)

const (
	okReturnCode   = "6f6b"
	vmReturnCodeOk = "ok"
)

// elrondProxy is blockchain.Proxy plus the transaction arguments helper that
// the concrete proxy returned by blockchain.NewElrondProxy implements
type elrondProxy interface {
	blockchain.Proxy
	GetDefaultTransactionArguments(ctx context.Context, address erdgoCore.AddressHandler, networkConfigs *sdkData.NetworkConfig) (sdkData.ArgCreateTransaction, error)
}

// ProxyProvider talks to a real Elrond network through a proxy and tracks
// transactions on the Elastic indexer. Keys derived from the configured seed
// act as its unlocked accounts
type ProxyProvider struct {
	cfg           *data.AppConfig
	proxy         elrondProxy
	networkConfig *sdkData.NetworkConfig
	conv          core.PubkeyConverter
	pollInterval  time.Duration

	mu      sync.RWMutex
	keys    map[string][]byte
	ordered []string
}

// NewProxyProvider - connects to cfg.Network.Proxy and unlocks the first
// accounts keys derived from cfg.Seedphrase
func NewProxyProvider(ctx context.Context, cfg *data.AppConfig, accounts int) (*ProxyProvider, error) {
	proxy := blockchain.NewElrondProxy(cfg.Network.Proxy, nil)

	networkConfig, err := proxy.GetNetworkConfig(ctx)
	if err != nil {
		log.Error("can not get network config from proxy", "error", err)
		return nil, unavailable(err)
	}

	pp, err := newProxyProvider(cfg, proxy, networkConfig)
	if err != nil {
		return nil, err
	}

	for i := 0; i < accounts; i++ {
		if _, err = pp.ImportKey(ctx, utils.GetPrivateKeyFromSeed(cfg.Seedphrase, int64(i))); err != nil {
			log.Error("can not derive account", "index", i, "error", err)
			return nil, err
		}
	}

	return pp, nil
}

func newProxyProvider(cfg *data.AppConfig, proxy elrondProxy, networkConfig *sdkData.NetworkConfig) (*ProxyProvider, error) {
	conv, err := pubkeyConverter.NewBech32PubkeyConverter(32, log)
	if err != nil {
		log.Error("can not create converter", "error", err)
		return nil, err
	}

	pollInterval := cfg.Network.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &ProxyProvider{
		cfg:           cfg,
		proxy:         proxy,
		networkConfig: networkConfig,
		conv:          conv,
		pollInterval:  time.Duration(pollInterval) * time.Second,
		keys:          make(map[string][]byte),
	}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", data.ErrSubstrateUnavailable, err)
}

// Accounts - returns the addresses this provider can sign for
func (pp *ProxyProvider) Accounts(_ context.Context) ([]string, error) {
	pp.mu.RLock()
	defer pp.mu.RUnlock()

	accounts := make([]string, len(pp.ordered))
	copy(accounts, pp.ordered)

	return accounts, nil
}

// ImportKey - remembers privateKey so that transactions from its address can be signed
func (pp *ProxyProvider) ImportKey(_ context.Context, privateKey []byte) (string, error) {
	address, err := utils.GetAddressFromPrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	pp.mu.Lock()
	defer pp.mu.Unlock()

	if _, ok := pp.keys[address]; !ok {
		pp.ordered = append(pp.ordered, address)
	}
	pp.keys[address] = privateKey

	return address, nil
}

func (pp *ProxyProvider) privateKey(address string) ([]byte, error) {
	pp.mu.RLock()
	defer pp.mu.RUnlock()

	pk, ok := pp.keys[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, address)
	}

	return pk, nil
}

// GetBalance - reads the balance of address from the proxy
func (pp *ProxyProvider) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	pubkey, err := pp.conv.Decode(address)
	if err != nil {
		log.Error("getBalance - Decode", "address", address, "error", err)
		return nil, err
	}

	account, err := pp.proxy.GetAccount(ctx, sdkData.NewAddressFromBytes(pubkey))
	if err != nil {
		log.Error("getBalance - GetAccount", "address", address, "error", err)
		return nil, unavailable(err)
	}

	balance, ok := big.NewInt(0).SetString(account.Balance, 10)
	if !ok {
		return nil, errInvalidResponse
	}

	return balance, nil
}

// Deploy - contract code is deployed with the network's own tooling
func (pp *ProxyProvider) Deploy(_ context.Context, _ *data.DeployRequest) (*data.TxReceipt, error) {
	return nil, ErrDeployUnsupported
}

// Query - runs a read-only contract function through the proxy VM
func (pp *ProxyProvider) Query(ctx context.Context, req *data.QueryRequest) ([][]byte, error) {
	args := make([]string, 0, len(req.Args))
	for _, arg := range req.Args {
		args = append(args, hex.EncodeToString(arg))
	}

	vmReq := &sdkData.VmValueRequest{
		Address:    req.Address,
		FuncName:   req.FuncName,
		CallerAddr: req.Caller,
		Args:       args,
	}
	res, err := pp.proxy.ExecuteVMQuery(ctx, vmReq)
	if err != nil {
		log.Error("query", "function", req.FuncName, "error", err)
		return nil, unavailable(err)
	}

	if res == nil || res.Data == nil {
		log.Error("query - empty vm output", "function", req.FuncName)
		return nil, errEmptyResponse
	}

	if res.Data.ReturnCode != vmReturnCodeOk {
		log.Debug("query failed", "function", req.FuncName, "code", res.Data.ReturnCode, "message", res.Data.ReturnMessage)
		return nil, contract.ParseError(res.Data.ReturnMessage)
	}

	return res.Data.ReturnData, nil
}

// SendTransaction - signs tx with the sender's key, broadcasts it and waits
// until the indexer reports its final status
func (pp *ProxyProvider) SendTransaction(ctx context.Context, tx *data.Transaction) (*data.TxReceipt, error) {
	privateKey, err := pp.privateKey(tx.Sender)
	if err != nil {
		return nil, err
	}

	builder, err := builders.NewTxBuilder(blockchain.NewTxSigner())
	if err != nil {
		log.Error("error creating transaction builder", "error", err)
		return nil, err
	}

	ti, err := interactors.NewTransactionInteractor(pp.proxy, builder)
	if err != nil {
		log.Error("error creating transaction interactor", "error", err)
		return nil, err
	}

	w := interactors.NewWallet()
	senderAddress, err := w.GetAddressFromPrivateKey(privateKey)
	if err != nil {
		log.Error("unable to load the address from the private key", "error", err)
		return nil, err
	}

	txArgs, err := pp.proxy.GetDefaultTransactionArguments(ctx, senderAddress, pp.networkConfig)
	if err != nil {
		log.Error("unable to prepare the transaction creation arguments", "error", err)
		return nil, unavailable(err)
	}

	if tx.Nonce > 0 && tx.Nonce < utils.AutoNonce {
		txArgs.Nonce = tx.Nonce
	}

	value := tx.Value
	if value == nil {
		value = big.NewInt(0)
	}

	txArgs.GasLimit = tx.GasLimit
	txArgs.RcvAddr = tx.Receiver
	txArgs.Data = []byte(tx.Data)
	txArgs.Value = value.String()

	signed, err := ti.ApplySignatureAndGenerateTx(privateKey, txArgs)
	if err != nil {
		log.Error("unable to sign transaction", "error", err)
		return nil, err
	}

	hash, err := ti.SendTransaction(ctx, signed)
	if err != nil {
		log.Error("unable to send transaction", "error", err)
		return nil, unavailable(err)
	}

	log.Debug("transaction sent", "hash", hash, "sender", tx.Sender, "data", tx.Data)

	return pp.waitForReceipt(ctx, hash)
}

// waitForReceipt polls the indexer until the transaction leaves the pending state
func (pp *ProxyProvider) waitForReceipt(ctx context.Context, hash string) (*data.TxReceipt, error) {
	ticker := time.NewTicker(pp.pollInterval)
	defer ticker.Stop()

	for {
		entry, err := pp.GetTransactionInfo(ctx, hash)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		switch {
		case err == nil && entry.Source.Status != data.StatusPending && entry.Source.Status != "":
			return pp.receiptFromEntry(ctx, entry)
		case err != nil && !errors.Is(err, errInvalidResponse):
			return nil, unavailable(err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (pp *ProxyProvider) receiptFromEntry(ctx context.Context, entry *data.ElasticEntry) (*data.TxReceipt, error) {
	receipt := receiptFromEntry(entry)
	if !receipt.Succeeded() {
		return receipt, nil
	}

	scrs, err := pp.GetTransactionScrs(ctx, entry.ID)
	if err != nil {
		// plain transfers have no smart contract results
		return receipt, nil
	}

	for _, scr := range scrs {
		if returnData, ok := parseScrData(scr.Source.Data); ok {
			receipt.ReturnData = returnData
			break
		}
	}

	return receipt, nil
}

func receiptFromEntry(entry *data.ElasticEntry) *data.TxReceipt {
	src := entry.Source
	value, ok := big.NewInt(0).SetString(src.Value, 10)
	if !ok {
		value = big.NewInt(0)
	}
	fee, ok := big.NewInt(0).SetString(src.Fee, 10)
	if !ok {
		fee = big.NewInt(0)
	}

	status := src.Status
	if status != data.StatusSuccess {
		status = data.StatusFail
	}

	return &data.TxReceipt{
		Hash:          entry.ID,
		Sender:        src.Sender,
		Receiver:      src.Receiver,
		Value:         value,
		Data:          string(src.Data),
		Status:        status,
		ReturnMessage: src.ReturnMessage,
		GasLimit:      src.GasLimit,
		GasUsed:       src.GasUsed,
		GasPrice:      src.GasPrice,
		Fee:           fee,
	}
}

// parseScrData extracts the return values of an "@6f6b@hex@hex" result
func parseScrData(scrData []byte) ([][]byte, bool) {
	parts := strings.Split(string(scrData), "@")
	if len(parts) < 2 || parts[0] != "" || parts[1] != okReturnCode {
		return nil, false
	}

	values := make([][]byte, 0, len(parts)-2)
	for _, part := range parts[2:] {
		value, err := hex.DecodeString(part)
		if err != nil {
			return nil, false
		}
		values = append(values, value)
	}

	return values, true
}

// GetTransactionInfo - reads a transaction from the indexer
func (pp *ProxyProvider) GetTransactionInfo(ctx context.Context, hash string) (*data.ElasticEntry, error) {
	endpoint := fmt.Sprintf("%s/transactions/_search?size=1&q=_id:%s", pp.cfg.Network.Indexer, hash)
	bytes, err := utils.GetHTTP(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	res := &data.ElasticResult{}
	err = json.Unmarshal(bytes, res)
	if err != nil {
		return nil, err
	}

	if len(res.Hits.Hits) != 1 {
		return nil, errInvalidResponse
	}

	return res.Hits.Hits[0], nil
}

// GetTransactionScrs - reads the smart contract results generated by a transaction
func (pp *ProxyProvider) GetTransactionScrs(ctx context.Context, hash string) ([]*data.ElasticEntry, error) {
	endpoint := fmt.Sprintf("%s/scresults/_search?size=1000&q=originalTxHash:%s", pp.cfg.Network.Indexer, hash)
	bytes, err := utils.GetHTTP(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	res := &data.ElasticResult{}
	err = json.Unmarshal(bytes, res)
	if err != nil {
		return nil, err
	}

	if len(res.Hits.Hits) == 0 {
		return nil, errInvalidResponse
	}

	return res.Hits.Hits, nil
}
