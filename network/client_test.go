package network

import (
	"context"
	"math/big"
	"testing"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	err     error
	receipt *data.TxReceipt
	results [][]byte
	sent    []*data.Transaction
}

func (sp *stubProvider) Accounts(_ context.Context) ([]string, error) {
	return []string{"erd1stub"}, sp.err
}

func (sp *stubProvider) GetBalance(_ context.Context, _ string) (*big.Int, error) {
	return big.NewInt(7), sp.err
}

func (sp *stubProvider) ImportKey(_ context.Context, _ []byte) (string, error) {
	return "erd1stub", sp.err
}

func (sp *stubProvider) Deploy(_ context.Context, _ *data.DeployRequest) (*data.TxReceipt, error) {
	if sp.err != nil {
		return nil, sp.err
	}

	return sp.receipt, nil
}

func (sp *stubProvider) SendTransaction(_ context.Context, tx *data.Transaction) (*data.TxReceipt, error) {
	if sp.err != nil {
		return nil, sp.err
	}
	sp.sent = append(sp.sent, tx)

	return sp.receipt, nil
}

func (sp *stubProvider) Query(_ context.Context, _ *data.QueryRequest) ([][]byte, error) {
	return sp.results, sp.err
}

func TestClientWithoutProvider(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(nil)
	require.NoError(t, err)
	assert.Nil(t, client.Provider())

	_, err = client.Accounts(ctx)
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = client.GetBalance(ctx, "erd1")
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = client.ImportKey(ctx, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = client.Deploy(ctx, &data.DeployRequest{})
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = client.SendTransaction(ctx, &data.Transaction{})
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = client.Query(ctx, &data.QueryRequest{})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestClientSetProvider(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)

	provider := &stubProvider{}
	client.SetProvider(provider)
	assert.Equal(t, provider, client.Provider())

	balance, err := client.GetBalance(context.Background(), "erd1stub")
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())
}

func TestClientPropagatesUnavailable(t *testing.T) {
	client, err := NewClient(&stubProvider{err: data.ErrSubstrateUnavailable})
	require.NoError(t, err)

	_, err = client.SendTransaction(context.Background(), &data.Transaction{Data: contract.FuncEnter})
	assert.ErrorIs(t, err, data.ErrSubstrateUnavailable)

	_, err = client.Query(context.Background(), &data.QueryRequest{FuncName: contract.FuncGetPlayers})
	assert.ErrorIs(t, err, data.ErrSubstrateUnavailable)
}

func TestClientMapsFailedReceipts(t *testing.T) {
	receipt := &data.TxReceipt{
		Hash:          "abc",
		Status:        data.StatusFail,
		ReturnMessage: contract.ErrUnauthorized.Error(),
	}
	client, err := NewClient(&stubProvider{receipt: receipt})
	require.NoError(t, err)

	got, err := client.SendTransaction(context.Background(), &data.Transaction{Data: contract.FuncPickWinner})
	assert.ErrorIs(t, err, contract.ErrUnauthorized)
	assert.Equal(t, receipt, got)

	receipt.ReturnMessage = "out of gas"
	_, err = client.SendTransaction(context.Background(), &data.Transaction{Data: contract.FuncPickWinner})
	assert.ErrorIs(t, err, contract.ErrTransactionFailed)
	assert.Contains(t, err.Error(), "out of gas")
}

func TestClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	provider := &stubProvider{receipt: &data.TxReceipt{Status: data.StatusSuccess}}
	client, err := NewClient(provider)
	require.NoError(t, err)
	client.SetMetrics(metrics)
	ctx := context.Background()

	_, err = client.SendTransaction(ctx, &data.Transaction{Data: contract.FuncEnter})
	require.NoError(t, err)
	_, err = client.SendTransaction(ctx, &data.Transaction{Data: contract.FuncEnter})
	require.NoError(t, err)
	_, err = client.SendTransaction(ctx, &data.Transaction{})
	require.NoError(t, err)

	provider.receipt = &data.TxReceipt{Status: data.StatusFail, ReturnMessage: contract.ErrUnauthorized.Error()}
	_, err = client.SendTransaction(ctx, &data.Transaction{Data: contract.FuncPickWinner})
	require.Error(t, err)

	_, err = client.Query(ctx, &data.QueryRequest{FuncName: contract.FuncGetPlayers})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.transactions.WithLabelValues(contract.FuncEnter, data.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transactions.WithLabelValues(transferFunction, data.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transactions.WithLabelValues(contract.FuncPickWinner, data.StatusFail)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.queries.WithLabelValues(contract.FuncGetPlayers)))

	metrics.setPlayers(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.players))
}

func TestNilMetricsAreIgnored(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.observeTransaction(contract.FuncEnter, data.StatusSuccess)
		metrics.observeQuery(contract.FuncGetPlayers)
		metrics.setPlayers(1)
	})
}

func TestFunctionName(t *testing.T) {
	assert.Equal(t, transferFunction, functionName(""))
	assert.Equal(t, contract.FuncEnter, functionName("enter"))
	assert.Equal(t, "init", functionName("init@0a"))
}

func TestWinnerFromReceipt(t *testing.T) {
	winner := []byte{1, 2, 3}

	got, err := winnerFromReceipt(&data.TxReceipt{ReturnData: [][]byte{winner}})
	require.NoError(t, err)
	assert.Equal(t, winner, got)

	got, err = winnerFromReceipt(&data.TxReceipt{Logs: []*data.LogEntry{
		{Identifier: contract.EventEnter, Topics: [][]byte{{9}}},
		{Identifier: contract.EventPickWinner, Topics: [][]byte{winner}},
	}})
	require.NoError(t, err)
	assert.Equal(t, winner, got)

	_, err = winnerFromReceipt(&data.TxReceipt{})
	assert.ErrorIs(t, err, errEmptyResponse)
}
