package chain

import (
	"math/big"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"github.com/DrDelphi/EgldLotteryBot/data"
)

type account struct {
	address  string
	pubkey   []byte
	balance  *big.Int
	nonce    uint64
	unlocked bool
}

type deployedContract struct {
	artifact *contract.Artifact
	instance contract.Contract
}

// journal buffers balance changes of one transaction so that they can be
// committed or dropped as a whole
type journal struct {
	sim   *Simulator
	dirty map[string]*big.Int
}

func newJournal(sim *Simulator) *journal {
	return &journal{
		sim:   sim,
		dirty: make(map[string]*big.Int),
	}
}

func (j *journal) balance(address string) *big.Int {
	if b, ok := j.dirty[address]; ok {
		return new(big.Int).Set(b)
	}
	if acc, ok := j.sim.accounts[address]; ok {
		return new(big.Int).Set(acc.balance)
	}

	return big.NewInt(0)
}

func (j *journal) transfer(from, to string, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}

	fromBalance := j.balance(from)
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	j.dirty[from] = fromBalance.Sub(fromBalance, amount)
	toBalance := j.balance(to)
	j.dirty[to] = toBalance.Add(toBalance, amount)

	return nil
}

func (j *journal) commit() {
	for address, balance := range j.dirty {
		acc, ok := j.sim.accounts[address]
		if !ok {
			acc = j.sim.newAccount(address)
		}
		acc.balance = balance
	}
}

// execution is the contract.CallContext handed to a contract for one call
type execution struct {
	sim     *Simulator
	journal *journal
	caller  []byte
	self    []byte
	value   *big.Int
	block   contract.BlockInfo
	logs    []*data.LogEntry
}

func (e *execution) Caller() []byte {
	return append([]byte(nil), e.caller...)
}

func (e *execution) CallValue() *big.Int {
	return new(big.Int).Set(e.value)
}

func (e *execution) SelfAddress() []byte {
	return append([]byte(nil), e.self...)
}

func (e *execution) SelfBalance() *big.Int {
	return e.journal.balance(e.sim.conv.Encode(e.self))
}

func (e *execution) Block() contract.BlockInfo {
	return e.block
}

func (e *execution) Transfer(to []byte, amount *big.Int) error {
	if len(to) != addressLen {
		return ErrInvalidAddress
	}

	return e.journal.transfer(e.sim.conv.Encode(e.self), e.sim.conv.Encode(to), amount)
}

func (e *execution) Emit(identifier string, topics ...[]byte) {
	copied := make([][]byte, 0, len(topics))
	for _, t := range topics {
		copied = append(copied, append([]byte(nil), t...))
	}

	e.logs = append(e.logs, &data.LogEntry{
		Identifier: identifier,
		Address:    e.sim.conv.Encode(e.self),
		Topics:     copied,
	})
}
