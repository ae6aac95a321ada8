package network

import (
	"context"
	"math/big"

	"github.com/DrDelphi/EgldLotteryBot/data"
)

// Provider is a ledger the client talks to. It is implemented by the in-process
// simulator and by ProxyProvider
type Provider interface {
	Accounts(ctx context.Context) ([]string, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	ImportKey(ctx context.Context, privateKey []byte) (string, error)
	Deploy(ctx context.Context, req *data.DeployRequest) (*data.TxReceipt, error)
	SendTransaction(ctx context.Context, tx *data.Transaction) (*data.TxReceipt, error)
	Query(ctx context.Context, req *data.QueryRequest) ([][]byte, error)
}
