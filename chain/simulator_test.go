package chain

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/DrDelphi/EgldLotteryBot/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestSimulator(t *testing.T) (*Simulator, []string) {
	t.Helper()
	now := time.Unix(1700000000, 0)
	sim, err := NewSimulator(Config{
		Mnemonic: testMnemonic,
		Accounts: 4,
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	})
	require.NoError(t, err)

	accounts, err := sim.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 4)

	return sim, accounts
}

func deployLottery(t *testing.T, sim *Simulator, from string) string {
	t.Helper()
	receipt, err := sim.Deploy(context.Background(), &data.DeployRequest{
		Sender:   from,
		Bytecode: contract.LotteryBytecode,
		GasLimit: utils.DeployGasLimit,
	})
	require.NoError(t, err)
	require.Equal(t, data.StatusSuccess, receipt.Status, receipt.ReturnMessage)
	require.NotEmpty(t, receipt.ContractAddress)

	return receipt.ContractAddress
}

func send(t *testing.T, sim *Simulator, from, to, callData, value string) *data.TxReceipt {
	t.Helper()
	receipt, err := sim.SendTransaction(context.Background(), &data.Transaction{
		Sender:   from,
		Receiver: to,
		Value:    utils.MustDenominate(value),
		GasLimit: utils.EnterGasLimit,
		Data:     callData,
	})
	require.NoError(t, err)

	return receipt
}

func balance(t *testing.T, sim *Simulator, address string) *big.Int {
	t.Helper()
	b, err := sim.GetBalance(context.Background(), address)
	require.NoError(t, err)

	return b
}

func players(t *testing.T, sim *Simulator, lottery string) [][]byte {
	t.Helper()
	res, err := sim.Query(context.Background(), &data.QueryRequest{Address: lottery, FuncName: contract.FuncGetPlayers})
	require.NoError(t, err)

	return res
}

func TestNewSimulatorFundsDerivedAccounts(t *testing.T) {
	sim, accounts := newTestSimulator(t)

	for i, address := range accounts {
		pk := utils.GetPrivateKeyFromSeed(testMnemonic, int64(i))
		expected, err := utils.GetAddressFromPrivateKey(pk)
		require.NoError(t, err)
		assert.Equal(t, expected, address)
		assert.Equal(t, utils.MustDenominate("100").String(), balance(t, sim, address).String())
	}
	assert.Equal(t, testMnemonic, sim.Mnemonic())
	assert.Equal(t, uint64(0), sim.BlockNumber())
}

func TestNewSimulatorGeneratesMnemonic(t *testing.T) {
	sim, err := NewSimulator(Config{Accounts: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, sim.Mnemonic())
}

func TestDeployChargesGasAndMinesBlock(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	before := balance(t, sim, accounts[0])

	lottery := deployLottery(t, sim, accounts[0])

	assert.Equal(t, uint64(1), sim.BlockNumber())
	assert.Equal(t, 0, balance(t, sim, lottery).Sign())
	assert.Equal(t, -1, balance(t, sim, accounts[0]).Cmp(before))

	res, err := sim.Query(context.Background(), &data.QueryRequest{Address: lottery, FuncName: contract.FuncGetManager})
	require.NoError(t, err)
	manager, err := sim.conv.Decode(accounts[0])
	require.NoError(t, err)
	assert.Equal(t, [][]byte{manager}, res)

	nonce, err := sim.GetNonce(context.Background(), accounts[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
}

func TestDeployRejections(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.Deploy(ctx, &data.DeployRequest{Sender: accounts[0], Bytecode: "nope"})
	assert.ErrorIs(t, err, ErrUnknownBytecode)

	_, err = sim.Deploy(ctx, &data.DeployRequest{Sender: "erd1nobody", Bytecode: contract.LotteryBytecode})
	assert.ErrorIs(t, err, ErrUnknownAccount)

	receipt, err := sim.Deploy(ctx, &data.DeployRequest{Sender: accounts[0], Bytecode: contract.LotteryBytecode, GasLimit: 100000})
	require.NoError(t, err)
	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Equal(t, ErrOutOfGas.Error(), receipt.ReturnMessage)
	assert.Empty(t, receipt.ContractAddress)

	receipt, err = sim.Deploy(ctx, &data.DeployRequest{
		Sender:   accounts[0],
		Bytecode: contract.LotteryBytecode,
		GasLimit: utils.DeployGasLimit,
		Value:    utils.MustDenominate("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Equal(t, ErrNotPayable.Error(), receipt.ReturnMessage)
}

func TestEnterMovesValueIntoContract(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])
	before := balance(t, sim, accounts[1])

	receipt := send(t, sim, accounts[1], lottery, contract.FuncEnter, "0.02")
	require.Equal(t, data.StatusSuccess, receipt.Status, receipt.ReturnMessage)

	assert.Equal(t, utils.MustDenominate("0.02").String(), balance(t, sim, lottery).String())
	expected := new(big.Int).Sub(before, utils.MustDenominate("0.02"))
	expected.Sub(expected, receipt.Fee)
	assert.Equal(t, expected.String(), balance(t, sim, accounts[1]).String())
	assert.Len(t, players(t, sim, lottery), 1)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, contract.EventEnter, receipt.Logs[0].Identifier)

	stored, err := sim.GetTransaction(context.Background(), receipt.Hash)
	require.NoError(t, err)
	assert.Equal(t, receipt, stored)
}

func TestFailedCallIsAtomic(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])
	send(t, sim, accounts[1], lottery, contract.FuncEnter, "0.02")

	before := balance(t, sim, accounts[2])
	receipt := send(t, sim, accounts[2], lottery, contract.FuncEnter, "0.001")

	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Equal(t, contract.ErrInsufficientPayment.Error(), receipt.ReturnMessage)
	assert.Len(t, players(t, sim, lottery), 1)
	assert.Equal(t, utils.MustDenominate("0.02").String(), balance(t, sim, lottery).String())

	expected := new(big.Int).Sub(before, receipt.Fee)
	assert.Equal(t, expected.String(), balance(t, sim, accounts[2]).String())
	assert.Empty(t, receipt.Logs)
}

func TestPickWinnerByStrangerIsAtomic(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])
	send(t, sim, accounts[1], lottery, contract.FuncEnter, "0.5")

	receipt := send(t, sim, accounts[1], lottery, contract.FuncPickWinner, "0")
	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Equal(t, contract.ErrUnauthorized.Error(), receipt.ReturnMessage)
	assert.Len(t, players(t, sim, lottery), 1)
	assert.Equal(t, utils.MustDenominate("0.5").String(), balance(t, sim, lottery).String())
}

func TestPickWinnerPaysOut(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])
	send(t, sim, accounts[1], lottery, contract.FuncEnter, "1")
	send(t, sim, accounts[2], lottery, contract.FuncEnter, "1")
	send(t, sim, accounts[3], lottery, contract.FuncEnter, "1")

	balances := make(map[string]*big.Int)
	for _, a := range accounts[1:] {
		balances[a] = balance(t, sim, a)
	}

	receipt := send(t, sim, accounts[0], lottery, contract.FuncPickWinner, "0")
	require.Equal(t, data.StatusSuccess, receipt.Status, receipt.ReturnMessage)
	require.Len(t, receipt.Logs, 1)
	winner := sim.conv.Encode(receipt.Logs[0].Topics[0])
	require.Len(t, receipt.ReturnData, 1)
	assert.Equal(t, receipt.Logs[0].Topics[0], receipt.ReturnData[0])

	assert.Contains(t, balances, winner)
	gained := new(big.Int).Sub(balance(t, sim, winner), balances[winner])
	assert.Equal(t, utils.MustDenominate("3").String(), gained.String())
	for _, a := range accounts[1:] {
		if a == winner {
			continue
		}
		assert.Equal(t, balances[a].String(), balance(t, sim, a).String(), a)
	}
	assert.Equal(t, 0, balance(t, sim, lottery).Sign())
	assert.Empty(t, players(t, sim, lottery))
}

func TestNonPayableFunctionRejectsValue(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])
	send(t, sim, accounts[1], lottery, contract.FuncEnter, "0.02")

	receipt := send(t, sim, accounts[0], lottery, contract.FuncPickWinner, "1")
	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Equal(t, ErrNotPayable.Error(), receipt.ReturnMessage)
	assert.Len(t, players(t, sim, lottery), 1)
}

func TestUnknownFunctionFails(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])

	receipt := send(t, sim, accounts[0], lottery, "withdraw", "0")
	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Equal(t, contract.ErrUnknownFunction.Error(), receipt.ReturnMessage)

	receipt = send(t, sim, accounts[0], lottery, "enter@zz", "0.02")
	assert.Equal(t, data.StatusFail, receipt.Status)
	assert.Contains(t, receipt.ReturnMessage, ErrInvalidCallData.Error())
}

func TestTransactionRejections(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	ctx := context.Background()
	block := sim.BlockNumber()

	_, err := sim.SendTransaction(ctx, &data.Transaction{Sender: accounts[0], Receiver: "bad", GasLimit: MinGasLimit})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = sim.SendTransaction(ctx, &data.Transaction{Sender: accounts[0], Receiver: accounts[1], GasLimit: 10})
	assert.ErrorIs(t, err, ErrGasLimitTooLow)

	_, err = sim.SendTransaction(ctx, &data.Transaction{Sender: accounts[0], Receiver: accounts[1], GasLimit: MaxGasLimit + 1})
	assert.ErrorIs(t, err, ErrGasLimitTooHigh)

	_, err = sim.SendTransaction(ctx, &data.Transaction{
		Sender:   accounts[0],
		Receiver: accounts[1],
		Value:    utils.MustDenominate("100"),
		GasLimit: MinGasLimit,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, block, sim.BlockNumber())
}

func TestPlainTransfer(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	before := balance(t, sim, accounts[1])

	receipt := send(t, sim, accounts[0], accounts[1], "", "1.5")
	require.Equal(t, data.StatusSuccess, receipt.Status)
	assert.Equal(t, uint64(MinGasLimit), receipt.GasUsed)

	after := balance(t, sim, accounts[1])
	assert.Equal(t, utils.MustDenominate("1.5").String(), new(big.Int).Sub(after, before).String())
}

func TestImportKey(t *testing.T) {
	sim, err := NewSimulator(Config{Mnemonic: testMnemonic, Accounts: 1, ImportBalance: utils.MustDenominate("5")})
	require.NoError(t, err)

	pk := utils.GetPrivateKeyFromSeed(testMnemonic, 42)
	address, err := sim.ImportKey(context.Background(), pk)
	require.NoError(t, err)
	assert.Equal(t, utils.MustDenominate("5").String(), balance(t, sim, address).String())

	again, err := sim.ImportKey(context.Background(), pk)
	require.NoError(t, err)
	assert.Equal(t, address, again)

	accounts, err := sim.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestBlocksAreChained(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	first := sim.LatestBlock()
	send(t, sim, accounts[0], accounts[1], "", "1")
	second := sim.LatestBlock()

	assert.Equal(t, first.Nonce+1, second.Nonce)
	assert.Equal(t, first.Hash, second.PrevHash)
	assert.GreaterOrEqual(t, second.Timestamp, first.Timestamp)
	assert.NotNil(t, second.Difficulty)
}

func TestQueryErrors(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.Query(ctx, &data.QueryRequest{Address: accounts[1], FuncName: contract.FuncGetPlayers})
	assert.ErrorIs(t, err, ErrNotAContract)

	lottery := deployLottery(t, sim, accounts[0])
	_, err = sim.Query(ctx, &data.QueryRequest{Address: lottery, FuncName: "nope"})
	assert.ErrorIs(t, err, contract.ErrUnknownFunction)
}

func TestQueryDoesNotChangeState(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])
	send(t, sim, accounts[1], lottery, contract.FuncEnter, "0.02")

	_, err := sim.Query(context.Background(), &data.QueryRequest{
		Address:  lottery,
		FuncName: contract.FuncPickWinner,
		Caller:   accounts[0],
	})
	require.NoError(t, err)

	assert.Len(t, players(t, sim, lottery), 1)
	assert.Equal(t, utils.MustDenominate("0.02").String(), balance(t, sim, lottery).String())
}

func TestConcurrentQueries(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	lottery := deployLottery(t, sim, accounts[0])

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				_, _ = sim.SendTransaction(context.Background(), &data.Transaction{
					Sender:   accounts[i%len(accounts)],
					Receiver: lottery,
					Value:    utils.MustDenominate("0.02"),
					GasLimit: utils.EnterGasLimit,
					Data:     contract.FuncEnter,
				})
				return
			}
			_, err := sim.Query(context.Background(), &data.QueryRequest{Address: lottery, FuncName: contract.FuncGetPlayers})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, players(t, sim, lottery), 5)
}

func TestClosedSimulatorIsUnavailable(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	require.NoError(t, sim.Close())
	ctx := context.Background()

	_, err := sim.Accounts(ctx)
	assert.ErrorIs(t, err, data.ErrSubstrateUnavailable)
	_, err = sim.GetBalance(ctx, accounts[0])
	assert.ErrorIs(t, err, data.ErrSubstrateUnavailable)
	_, err = sim.SendTransaction(ctx, &data.Transaction{Sender: accounts[0], Receiver: accounts[1]})
	assert.ErrorIs(t, err, data.ErrSubstrateUnavailable)
	_, err = sim.Query(ctx, &data.QueryRequest{})
	assert.ErrorIs(t, err, data.ErrSubstrateUnavailable)
}

func TestCancelledContext(t *testing.T) {
	sim, accounts := newTestSimulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.GetBalance(ctx, accounts[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallDataEncoding(t *testing.T) {
	callData := encodeCallData("init", [][]byte{{0x01, 0xff}, {0x2a}})
	assert.Equal(t, "init@01ff@2a", callData)

	function, args, err := decodeCallData(callData)
	require.NoError(t, err)
	assert.Equal(t, "init", function)
	assert.Equal(t, [][]byte{{0x01, 0xff}, {0x2a}}, args)

	_, _, err = decodeCallData("")
	assert.ErrorIs(t, err, ErrInvalidCallData)
}
