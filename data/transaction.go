package data

import (
	"errors"
	"math/big"
)

// Transaction statuses, as reported by the indexer
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// ErrSubstrateUnavailable is returned when the ledger can not be reached
var ErrSubstrateUnavailable = errors.New("ledger substrate unavailable")

// Transaction is a value transfer or a contract call. Data holds the call
// in the "function@hexArg@hexArg" form
type Transaction struct {
	Sender   string
	Receiver string
	Value    *big.Int
	GasLimit uint64
	Data     string
	Nonce    uint64
}

// DeployRequest asks the ledger to instantiate the contract identified by Bytecode
type DeployRequest struct {
	Sender   string
	Bytecode string
	Args     [][]byte
	GasLimit uint64
	Value    *big.Int
}

// QueryRequest is a read-only contract call
type QueryRequest struct {
	Address  string
	FuncName string
	Caller   string
	Args     [][]byte
}

// LogEntry is an event emitted by a contract during execution
type LogEntry struct {
	Identifier string
	Address    string
	Topics     [][]byte
}

// TxReceipt is the final outcome of a mined transaction
type TxReceipt struct {
	Hash            string
	Sender          string
	Receiver        string
	Value           *big.Int
	Data            string
	Status          string
	ReturnMessage   string
	GasLimit        uint64
	GasUsed         uint64
	GasPrice        uint64
	Fee             *big.Int
	BlockNonce      uint64
	ContractAddress string
	ReturnData      [][]byte
	Logs            []*LogEntry
}

// Succeeded - tells if the transaction was executed successfully
func (r *TxReceipt) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}
