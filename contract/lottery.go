package contract

import (
	"bytes"
	"math/big"
)

const (
	FuncEnter           = "enter"
	FuncPickWinner      = "pickWinner"
	FuncGetPlayers      = "getPlayers"
	FuncGetManager      = "getManager"
	FuncGetMinimumEntry = "getMinimumEntry"

	EventEnter      = "enter"
	EventPickWinner = "pickWinner"

	LotteryBytecode = "lottery-native-v1"
)

// DefaultMinimumEntry is 0.01 EGLD
var DefaultMinimumEntry = big.NewInt(10000000000000000)

// LotteryABI is the interface description of the lottery contract
var LotteryABI = ABI{
	{Name: FuncEnter, Payable: true, Gas: 200000},
	{Name: FuncPickWinner, Gas: 300000, Outputs: []string{"address"}},
	{Name: FuncGetPlayers, ReadOnly: true, Gas: 100000, Outputs: []string{"variadic<address>"}},
	{Name: FuncGetManager, ReadOnly: true, Gas: 50000, Outputs: []string{"address"}},
	{Name: FuncGetMinimumEntry, ReadOnly: true, Gas: 50000, Outputs: []string{"BigUint"}},
}

// LotteryArtifact - returns the deployable lottery contract
func LotteryArtifact() *Artifact {
	return &Artifact{
		Name:        "Lottery",
		Bytecode:    LotteryBytecode,
		ABI:         LotteryABI,
		Constructor: Method{Name: "init", Gas: 600000, Inputs: []string{"optional<BigUint>"}},
		New:         NewLottery,
	}
}

// Lottery keeps the list of players and pays the whole balance to one of
// them when the manager asks for it
type Lottery struct {
	manager      []byte
	players      [][]byte
	minimumEntry *big.Int
}

// NewLottery - the lottery constructor. The deployer becomes the manager.
// An optional argument overrides the minimum entry
func NewLottery(ctx CallContext, args [][]byte) (Contract, error) {
	if len(args) > 1 {
		return nil, ErrInvalidArguments
	}

	minimumEntry := new(big.Int).Set(DefaultMinimumEntry)
	if len(args) == 1 {
		minimumEntry.SetBytes(args[0])
	}

	return &Lottery{
		manager:      copyBytes(ctx.Caller()),
		players:      make([][]byte, 0),
		minimumEntry: minimumEntry,
	}, nil
}

// Call - dispatches an endpoint call
func (l *Lottery) Call(ctx CallContext, function string, args [][]byte) ([][]byte, error) {
	if len(args) > 0 {
		return nil, ErrInvalidArguments
	}

	switch function {
	case FuncEnter:
		return nil, l.Enter(ctx)
	case FuncPickWinner:
		winner, err := l.PickWinner(ctx)
		if err != nil {
			return nil, err
		}
		return [][]byte{winner}, nil
	case FuncGetPlayers:
		return l.Players(), nil
	case FuncGetManager:
		return [][]byte{copyBytes(l.manager)}, nil
	case FuncGetMinimumEntry:
		return [][]byte{l.minimumEntry.Bytes()}, nil
	}

	return nil, ErrUnknownFunction
}

// Enter - registers the caller as a player if the payment covers the minimum entry
func (l *Lottery) Enter(ctx CallContext) error {
	value := ctx.CallValue()
	if value == nil || value.Cmp(l.minimumEntry) < 0 {
		return ErrInsufficientPayment
	}

	caller := copyBytes(ctx.Caller())
	l.players = append(l.players, caller)
	ctx.Emit(EventEnter, caller, value.Bytes())

	return nil
}

// PickWinner - manager only. Sends the whole contract balance to a player
// chosen by WinnerIndex and starts a new round with no players
func (l *Lottery) PickWinner(ctx CallContext) ([]byte, error) {
	if !bytes.Equal(ctx.Caller(), l.manager) {
		return nil, ErrUnauthorized
	}
	if len(l.players) == 0 {
		return nil, ErrNoPlayers
	}

	winner := l.players[WinnerIndex(ctx.Block(), l.players)]
	prize := ctx.SelfBalance()
	if err := ctx.Transfer(winner, prize); err != nil {
		return nil, err
	}

	l.players = make([][]byte, 0)
	ctx.Emit(EventPickWinner, winner, prize.Bytes())

	return copyBytes(winner), nil
}

// Players - returns the players in entry order
func (l *Lottery) Players() [][]byte {
	players := make([][]byte, 0, len(l.players))
	for _, p := range l.players {
		players = append(players, copyBytes(p))
	}

	return players
}

// Manager - returns the deployer's public key
func (l *Lottery) Manager() []byte {
	return copyBytes(l.manager)
}

// MinimumEntry - returns the minimum payment accepted by Enter
func (l *Lottery) MinimumEntry() *big.Int {
	return new(big.Int).Set(l.minimumEntry)
}

// Clone - returns a deep copy, used by the ledger to roll back failed calls
func (l *Lottery) Clone() Contract {
	return &Lottery{
		manager:      copyBytes(l.manager),
		players:      l.Players(),
		minimumEntry: l.MinimumEntry(),
	}
}

func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
