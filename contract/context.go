package contract

import "math/big"

// BlockInfo holds the block values a contract can read during execution
type BlockInfo struct {
	Nonce      uint64
	Timestamp  int64
	Difficulty *big.Int
	PrevHash   []byte
}

// CallContext is the view of the ledger a contract has while it executes.
// Addresses are raw 32 bytes public keys
type CallContext interface {
	Caller() []byte
	CallValue() *big.Int
	SelfAddress() []byte
	SelfBalance() *big.Int
	Block() BlockInfo
	Transfer(to []byte, amount *big.Int) error
	Emit(identifier string, topics ...[]byte)
}

// Contract is a deployed contract instance
type Contract interface {
	Call(ctx CallContext, function string, args [][]byte) ([][]byte, error)
	Clone() Contract
}

// Constructor creates a contract instance at deployment time
type Constructor func(ctx CallContext, args [][]byte) (Contract, error)
