package network

import (
	"context"
	"math/big"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/DrDelphi/EgldLotteryBot/utils"
)

// TxOptions are the per call parameters of a lottery transaction
type TxOptions struct {
	From     string
	Value    *big.Int
	GasLimit uint64
}

// LotteryManager - handle of one deployed lottery contract
type LotteryManager struct {
	client  *Client
	address string
}

// DeployLottery - deploys a new lottery owned by from. A nil minimumEntry
// keeps the contract default
func DeployLottery(ctx context.Context, client *Client, from string, gasLimit uint64, minimumEntry *big.Int) (*LotteryManager, *data.TxReceipt, error) {
	if gasLimit == 0 {
		gasLimit = utils.DeployGasLimit
	}

	args := make([][]byte, 0, 1)
	if minimumEntry != nil {
		args = append(args, minimumEntry.Bytes())
	}

	receipt, err := client.Deploy(ctx, &data.DeployRequest{
		Sender:   from,
		Bytecode: contract.LotteryBytecode,
		Args:     args,
		GasLimit: gasLimit,
	})
	if err != nil {
		log.Error("can not deploy lottery", "from", from, "error", err)
		return nil, receipt, err
	}

	log.Info("lottery deployed", "address", receipt.ContractAddress, "manager", from, "hash", receipt.Hash)
	lm, err := NewLotteryManager(client, receipt.ContractAddress)

	return lm, receipt, err
}

// NewLotteryManager - creates a handle for the lottery deployed at address
func NewLotteryManager(client *Client, address string) (*LotteryManager, error) {
	if address == "" {
		return nil, ErrNoContract
	}

	if _, err := client.DecodeAddress(address); err != nil {
		log.Error("invalid contract address", "address", address, "error", err)
		return nil, err
	}

	return &LotteryManager{
		client:  client,
		address: address,
	}, nil
}

// Address - returns the contract address
func (lm *LotteryManager) Address() string {
	return lm.address
}

// Client - returns the client the manager sends through
func (lm *LotteryManager) Client() *Client {
	return lm.client
}

func (lm *LotteryManager) send(ctx context.Context, function string, opts TxOptions, defaultGas uint64) (*data.TxReceipt, error) {
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGas
	}

	return lm.client.SendTransaction(ctx, &data.Transaction{
		Sender:   opts.From,
		Receiver: lm.address,
		Value:    opts.Value,
		GasLimit: gasLimit,
		Data:     function,
	})
}

// Enter - enters opts.From in the lottery paying opts.Value
func (lm *LotteryManager) Enter(ctx context.Context, opts TxOptions) (*data.TxReceipt, error) {
	receipt, err := lm.send(ctx, contract.FuncEnter, opts, utils.EnterGasLimit)
	if err != nil {
		log.Debug("enter failed", "player", opts.From, "error", err)
		return receipt, err
	}

	log.Info("player entered", "player", opts.From, "value", utils.FromDenominated(opts.Value).String())

	return receipt, nil
}

// PickWinner - asks the contract to pay the prize. Only the manager succeeds.
// Returns the winner's address
func (lm *LotteryManager) PickWinner(ctx context.Context, opts TxOptions) (string, *data.TxReceipt, error) {
	receipt, err := lm.send(ctx, contract.FuncPickWinner, opts, utils.PickWinnerGasLimit)
	if err != nil {
		log.Debug("pickWinner failed", "caller", opts.From, "error", err)
		return "", receipt, err
	}

	winner, err := winnerFromReceipt(receipt)
	if err != nil {
		log.Error("can not read winner", "hash", receipt.Hash, "error", err)
		return "", receipt, err
	}

	address := lm.client.EncodeAddress(winner)
	log.Info("winner picked", "winner", address, "hash", receipt.Hash)

	return address, receipt, nil
}

func winnerFromReceipt(receipt *data.TxReceipt) ([]byte, error) {
	if len(receipt.ReturnData) > 0 && len(receipt.ReturnData[0]) > 0 {
		return receipt.ReturnData[0], nil
	}

	for _, entry := range receipt.Logs {
		if entry.Identifier == contract.EventPickWinner && len(entry.Topics) > 0 {
			return entry.Topics[0], nil
		}
	}

	return nil, errEmptyResponse
}

func (lm *LotteryManager) getScOneResult(ctx context.Context, function string) ([]byte, error) {
	res, err := lm.getScMultiResults(ctx, function, "")
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, errEmptyResponse
	}

	return res[0], nil
}

func (lm *LotteryManager) getScMultiResults(ctx context.Context, function string, caller string) ([][]byte, error) {
	req := &data.QueryRequest{
		Address:  lm.address,
		FuncName: function,
		Caller:   caller,
	}
	res, err := lm.client.Query(ctx, req)
	if err != nil {
		log.Error("getScMultiResults", "function", function, "error", err)
		return nil, err
	}

	return res, nil
}

func (lm *LotteryManager) getBigInt(ctx context.Context, function string) (*big.Int, error) {
	bytes, err := lm.getScOneResult(ctx, function)
	if err != nil {
		return nil, err
	}

	return big.NewInt(0).SetBytes(bytes), nil
}

// GetPlayers - returns the players of the current round in entry order
func (lm *LotteryManager) GetPlayers(ctx context.Context, from string) ([]string, error) {
	res, err := lm.getScMultiResults(ctx, contract.FuncGetPlayers, from)
	if err != nil {
		return nil, err
	}

	players := make([]string, 0, len(res))
	for _, pubkey := range res {
		players = append(players, lm.client.EncodeAddress(pubkey))
	}

	return players, nil
}

// GetManager - returns the address allowed to pick the winner
func (lm *LotteryManager) GetManager(ctx context.Context) (string, error) {
	res, err := lm.getScOneResult(ctx, contract.FuncGetManager)
	if err != nil {
		return "", err
	}

	if len(res) != 32 {
		return "", errInvalidResponse
	}

	return lm.client.EncodeAddress(res), nil
}

// GetMinimumEntry - returns the smallest accepted entry
func (lm *LotteryManager) GetMinimumEntry(ctx context.Context) (*big.Int, error) {
	return lm.getBigInt(ctx, contract.FuncGetMinimumEntry)
}

// GetBalance - returns the prize pool
func (lm *LotteryManager) GetBalance(ctx context.Context) (*big.Int, error) {
	return lm.client.GetBalance(ctx, lm.address)
}

// GetContractInfo - reads everything a front-end shows about the lottery
func (lm *LotteryManager) GetContractInfo(ctx context.Context) (*data.LotteryInfo, error) {
	var err error
	info := data.LotteryInfo{Address: lm.address}

	if info.Manager, err = lm.GetManager(ctx); err != nil {
		return nil, err
	}

	if info.Players, err = lm.GetPlayers(ctx, ""); err != nil {
		return nil, err
	}

	if info.Balance, err = lm.GetBalance(ctx); err != nil {
		return nil, err
	}

	if info.MinimumEntry, err = lm.GetMinimumEntry(ctx); err != nil {
		return nil, err
	}

	lm.client.metricsSnapshot().setPlayers(len(info.Players))

	return &info, nil
}
