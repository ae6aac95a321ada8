package chain

import (
	"context"
	"encoding/binary"
	"encoding/hex"
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
	logger "github.com/ElrondNetwork/elrond-go-logger"
)

const addressLen = 32

var log = logger.GetOrCreate("chain")

// Config holds the parameters of a Simulator. Zero values are replaced by defaults
type Config struct {
	Mnemonic      string
	Accounts      int
	Balance       *big.Int
	ImportBalance *big.Int
	GasPrice      uint64
	MaxGasLimit   uint64
	Clock         func() time.Time
	Artifacts     []*contract.Artifact
}

// Simulator is an in-process ledger: funded accounts derived from a mnemonic,
// one block per transaction, atomic contract execution
type Simulator struct {
	mu     sync.RWMutex
	cfg    Config
	conv   core.PubkeyConverter
	closed bool

	accounts  map[string]*account
	ordered   []string
	contracts map[string]*deployedContract
	artifacts map[string]*contract.Artifact
	blocks    []*Block
	receipts  map[string]*data.TxReceipt
}

// NewSimulator - creates a new Simulator with cfg.Accounts funded accounts
func NewSimulator(cfg Config) (*Simulator, error) {
	if cfg.Accounts <= 0 {
		cfg.Accounts = 10
	}
	if cfg.Balance == nil {
		cfg.Balance = utils.MustDenominate("100")
	}
	if cfg.ImportBalance == nil {
		cfg.ImportBalance = big.NewInt(0)
	}
	if cfg.GasPrice == 0 {
		cfg.GasPrice = utils.DefaultGasPrice
	}
	if cfg.MaxGasLimit == 0 {
		cfg.MaxGasLimit = MaxGasLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if len(cfg.Artifacts) == 0 {
		cfg.Artifacts = []*contract.Artifact{contract.LotteryArtifact()}
	}
	if cfg.Mnemonic == "" {
		mnemonic, err := utils.NewMnemonic()
		if err != nil {
			log.Error("can not generate mnemonic", "error", err)
			return nil, err
		}
		cfg.Mnemonic = mnemonic
	}

	conv, err := pubkeyConverter.NewBech32PubkeyConverter(addressLen, log)
	if err != nil {
		log.Error("can not create converter", "error", err)
		return nil, err
	}

	s := &Simulator{
		cfg:       cfg,
		conv:      conv,
		accounts:  make(map[string]*account),
		ordered:   make([]string, 0, cfg.Accounts),
		contracts: make(map[string]*deployedContract),
		artifacts: make(map[string]*contract.Artifact),
		blocks:    []*Block{newGenesisBlock(cfg.Clock().Unix())},
		receipts:  make(map[string]*data.TxReceipt),
	}

	for _, artifact := range cfg.Artifacts {
		s.artifacts[artifact.Bytecode] = artifact
	}

	for i := 0; i < cfg.Accounts; i++ {
		pk := utils.GetPrivateKeyFromSeed(cfg.Mnemonic, int64(i))
		if _, err = s.importKey(pk, cfg.Balance); err != nil {
			log.Error("can not create account", "index", i, "error", err)
			return nil, err
		}
	}

	log.Debug("simulator started", "accounts", cfg.Accounts, "gasPrice", cfg.GasPrice)

	return s, nil
}

// Close - stops the simulator. Every later call fails with data.ErrSubstrateUnavailable
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

// Mnemonic - returns the mnemonic the funded accounts were derived from
func (s *Simulator) Mnemonic() string {
	return s.cfg.Mnemonic
}

// GasPrice - returns the price paid for one unit of gas
func (s *Simulator) GasPrice() uint64 {
	return s.cfg.GasPrice
}

// Accounts - returns the unlocked accounts, in creation order
func (s *Simulator) Accounts(ctx context.Context) ([]string, error) {
	if err := s.begin(ctx, false); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	accounts := make([]string, len(s.ordered))
	copy(accounts, s.ordered)

	return accounts, nil
}

// GetBalance - returns the balance of any address, zero for unknown ones
func (s *Simulator) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := s.begin(ctx, false); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	if _, err := s.conv.Decode(address); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	acc, ok := s.accounts[address]
	if !ok {
		return big.NewInt(0), nil
	}

	return new(big.Int).Set(acc.balance), nil
}

// GetNonce - returns the number of transactions sent from an address
func (s *Simulator) GetNonce(ctx context.Context, address string) (uint64, error) {
	if err := s.begin(ctx, false); err != nil {
		return 0, err
	}
	defer s.mu.RUnlock()

	acc, ok := s.accounts[address]
	if !ok {
		return 0, nil
	}

	return acc.nonce, nil
}

// ImportKey - unlocks the account of a private key, crediting it with the
// configured import balance when it is new
func (s *Simulator) ImportKey(ctx context.Context, privateKey []byte) (string, error) {
	if err := s.begin(ctx, true); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	return s.importKey(privateKey, s.cfg.ImportBalance)
}

// BlockNumber - returns the nonce of the latest block
func (s *Simulator) BlockNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest().Nonce
}

// LatestBlock - returns a copy of the latest block
func (s *Simulator) LatestBlock() Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return *s.latest()
}

// GetTransaction - returns the receipt of a mined transaction
func (s *Simulator) GetTransaction(ctx context.Context, hash string) (*data.TxReceipt, error) {
	if err := s.begin(ctx, false); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	receipt, ok := s.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash)
	}

	return receipt, nil
}

// Deploy - instantiates the contract identified by req.Bytecode. The receipt
// holds the new contract address when the deployment succeeded
func (s *Simulator) Deploy(ctx context.Context, req *data.DeployRequest) (*data.TxReceipt, error) {
	if err := s.begin(ctx, true); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	artifact, ok := s.artifacts[req.Bytecode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBytecode, req.Bytecode)
	}

	sender, err := s.unlockedAccount(req.Sender)
	if err != nil {
		return nil, err
	}

	callData := encodeCallData(req.Bytecode, req.Args)
	value := valueOrZero(req.Value)
	gasLimit, err := s.checkGas(sender, value, req.GasLimit, len(callData))
	if err != nil {
		return nil, err
	}

	contractPk := newContractAddress(sender.pubkey, sender.nonce)
	contractAddress := s.conv.Encode(contractPk)
	receipt := s.newReceipt(sender, "", value, callData, gasLimit)
	block := s.mine(receipt.Hash)

	j := newJournal(s)
	exec := &execution{
		sim:     s,
		journal: j,
		caller:  sender.pubkey,
		self:    contractPk,
		value:   value,
		block:   block.info(),
	}

	gasNeeded := intrinsicGas(len(callData)) + artifact.Constructor.Gas
	var instance contract.Contract
	switch {
	case gasNeeded > gasLimit:
		err = ErrOutOfGas
	case value.Sign() > 0 && !artifact.Constructor.Payable:
		err = ErrNotPayable
	default:
		if err = j.transfer(sender.address, contractAddress, value); err == nil {
			instance, err = artifact.New(exec, req.Args)
		}
	}

	if err == nil {
		s.contracts[contractAddress] = &deployedContract{
			artifact: artifact,
			instance: instance,
		}
		s.newAccount(contractAddress)
		receipt.ContractAddress = contractAddress
	}

	s.finalize(receipt, block, sender, j, exec, gasNeeded, err)
	log.Debug("contract deployed", "hash", receipt.Hash, "address", receipt.ContractAddress, "status", receipt.Status)

	return receipt, nil
}

// SendTransaction - executes a value transfer or a contract call and mines it
// in a new block. Rejected transactions return an error and are not mined;
// failed executions are mined and reported through the receipt status
func (s *Simulator) SendTransaction(ctx context.Context, tx *data.Transaction) (*data.TxReceipt, error) {
	if err := s.begin(ctx, true); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	sender, err := s.unlockedAccount(tx.Sender)
	if err != nil {
		return nil, err
	}

	receiverPk, err := s.conv.Decode(tx.Receiver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, tx.Receiver)
	}

	value := valueOrZero(tx.Value)
	gasLimit, err := s.checkGas(sender, value, tx.GasLimit, len(tx.Data))
	if err != nil {
		return nil, err
	}

	receipt := s.newReceipt(sender, tx.Receiver, value, tx.Data, gasLimit)
	block := s.mine(receipt.Hash)

	j := newJournal(s)
	exec := &execution{
		sim:     s,
		journal: j,
		caller:  sender.pubkey,
		self:    receiverPk,
		value:   value,
		block:   block.info(),
	}

	gasNeeded := intrinsicGas(len(tx.Data))
	err = j.transfer(sender.address, tx.Receiver, value)

	target, isContract := s.contracts[tx.Receiver]
	if err == nil && isContract {
		var instance contract.Contract
		var results [][]byte
		instance, results, gasNeeded, err = s.call(exec, target, tx.Data, gasLimit)
		if err == nil {
			target.instance = instance
			receipt.ReturnData = results
		}
	}

	s.finalize(receipt, block, sender, j, exec, gasNeeded, err)
	log.Debug("transaction executed", "hash", receipt.Hash, "data", tx.Data, "status", receipt.Status,
		"gasUsed", receipt.GasUsed, "message", receipt.ReturnMessage)

	return receipt, nil
}

// Query - runs a contract function without changing any state. Read-only
// queries can run concurrently
func (s *Simulator) Query(ctx context.Context, req *data.QueryRequest) ([][]byte, error) {
	if err := s.begin(ctx, false); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	target, ok := s.contracts[req.Address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAContract, req.Address)
	}

	self, err := s.conv.Decode(req.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, req.Address)
	}

	caller := make([]byte, addressLen)
	if req.Caller != "" {
		caller, err = s.conv.Decode(req.Caller)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, req.Caller)
		}
	}

	exec := &execution{
		sim:     s,
		journal: newJournal(s),
		caller:  caller,
		self:    self,
		value:   big.NewInt(0),
		block:   s.latest().info(),
	}

	return target.instance.Clone().Call(exec, req.FuncName, req.Args)
}

// call runs a contract endpoint on a copy of the contract state. The copy is
// returned so that the caller can keep it only when the transaction succeeds
func (s *Simulator) call(exec *execution, target *deployedContract, callData string, gasLimit uint64) (contract.Contract, [][]byte, uint64, error) {
	gasNeeded := intrinsicGas(len(callData))

	function, args, err := decodeCallData(callData)
	if err != nil {
		return nil, nil, gasNeeded, err
	}

	method, ok := target.artifact.ABI.Method(function)
	if !ok {
		return nil, nil, gasNeeded, contract.ErrUnknownFunction
	}

	gasNeeded += method.Gas
	if gasNeeded > gasLimit {
		return nil, nil, gasLimit, ErrOutOfGas
	}
	if exec.value.Sign() > 0 && !method.Payable {
		return nil, nil, gasNeeded, ErrNotPayable
	}

	instance := target.instance.Clone()
	results, err := instance.Call(exec, function, args)
	if err != nil {
		return nil, nil, gasNeeded, err
	}

	return instance, results, gasNeeded, nil
}

// mine appends the block that will hold the transaction with the given hash
func (s *Simulator) mine(txHash string) *Block {
	block := newBlock(s.latest(), s.cfg.Clock().Unix(), txHash)
	s.blocks = append(s.blocks, block)

	return block
}

// finalize applies or drops the journal of a mined transaction and charges
// the sender for the gas used
func (s *Simulator) finalize(receipt *data.TxReceipt, block *Block, sender *account, j *journal, exec *execution, gasUsed uint64, execErr error) {
	if gasUsed > receipt.GasLimit {
		gasUsed = receipt.GasLimit
	}

	if execErr == nil {
		j.commit()
		receipt.Status = data.StatusSuccess
		receipt.Logs = exec.logs
	} else {
		receipt.Status = data.StatusFail
		receipt.ReturnMessage = execErr.Error()
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), new(big.Int).SetUint64(s.cfg.GasPrice))
	sender.balance.Sub(sender.balance, fee)
	sender.nonce++

	receipt.GasUsed = gasUsed
	receipt.Fee = fee
	receipt.BlockNonce = block.Nonce
	s.receipts[receipt.Hash] = receipt
}

// checkGas rejects transactions that could never be paid for
func (s *Simulator) checkGas(sender *account, value *big.Int, gasLimit uint64, dataLen int) (uint64, error) {
	if gasLimit == 0 {
		gasLimit = utils.DefaultGasLimit
	}
	if gasLimit < intrinsicGas(dataLen) {
		return 0, fmt.Errorf("%w: %d < %d", ErrGasLimitTooLow, gasLimit, intrinsicGas(dataLen))
	}
	if gasLimit > s.cfg.MaxGasLimit {
		return 0, fmt.Errorf("%w: %d > %d", ErrGasLimitTooHigh, gasLimit, s.cfg.MaxGasLimit)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), new(big.Int).SetUint64(s.cfg.GasPrice))
	cost.Add(cost, value)
	if sender.balance.Cmp(cost) < 0 {
		return 0, fmt.Errorf("%w: %s needs %s", ErrInsufficientFunds, sender.address, cost)
	}

	return gasLimit, nil
}

func (s *Simulator) newReceipt(sender *account, receiver string, value *big.Int, callData string, gasLimit uint64) *data.TxReceipt {
	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, sender.nonce)

	return &data.TxReceipt{
		Hash:     hex.EncodeToString(keccak(sender.pubkey, nonce, []byte(receiver), value.Bytes(), []byte(callData))),
		Sender:   sender.address,
		Receiver: receiver,
		Value:    new(big.Int).Set(value),
		Data:     callData,
		Status:   data.StatusPending,
		GasLimit: gasLimit,
		GasPrice: s.cfg.GasPrice,
	}
}

func (s *Simulator) begin(ctx context.Context, write bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if write {
		s.mu.Lock()
	} else {
		s.mu.RLock()
	}

	if s.closed {
		if write {
			s.mu.Unlock()
		} else {
			s.mu.RUnlock()
		}
		return data.ErrSubstrateUnavailable
	}

	return nil
}

func (s *Simulator) importKey(privateKey []byte, balance *big.Int) (string, error) {
	address, err := utils.GetAddressFromPrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	acc, ok := s.accounts[address]
	if !ok {
		acc = s.newAccount(address)
		acc.balance.Set(balance)
	}
	if !acc.unlocked {
		acc.unlocked = true
		s.ordered = append(s.ordered, address)
	}

	return address, nil
}

func (s *Simulator) newAccount(address string) *account {
	pubkey, _ := s.conv.Decode(address)
	acc := &account{
		address: address,
		pubkey:  pubkey,
		balance: big.NewInt(0),
	}
	s.accounts[address] = acc

	return acc
}

func (s *Simulator) unlockedAccount(address string) (*account, error) {
	acc, ok := s.accounts[address]
	if !ok || !acc.unlocked {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}

	return acc, nil
}

func (s *Simulator) latest() *Block {
	return s.blocks[len(s.blocks)-1]
}

// newContractAddress follows the Elrond layout: 8 zero bytes, the VM type,
// 20 bytes of hash(owner, nonce) and the owner's shard suffix
func newContractAddress(owner []byte, nonce uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, nonce)
	h := keccak(owner, buf)

	address := make([]byte, addressLen)
	copy(address[8:10], []byte{5, 0})
	copy(address[10:30], h[10:30])
	copy(address[30:], owner[30:])

	return address
}

func valueOrZero(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Set(value)
}

func encodeCallData(function string, args [][]byte) string {
	parts := []string{function}
	for _, arg := range args {
		parts = append(parts, hex.EncodeToString(arg))
	}

	return strings.Join(parts, "@")
}

func decodeCallData(callData string) (string, [][]byte, error) {
	parts := strings.Split(callData, "@")
	if parts[0] == "" {
		return "", nil, ErrInvalidCallData
	}

	args := make([][]byte, 0, len(parts)-1)
	for _, part := range parts[1:] {
		arg, err := hex.DecodeString(part)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s", ErrInvalidCallData, part)
		}
		args = append(args, arg)
	}

	return parts[0], args, nil
}
