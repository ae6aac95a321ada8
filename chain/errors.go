package chain

import "errors"

var (
	ErrUnknownAccount    = errors.New("account is not managed by the simulator")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrGasLimitTooLow    = errors.New("gas limit too low")
	ErrGasLimitTooHigh   = errors.New("gas limit too high")
	ErrOutOfGas          = errors.New("not enough gas")
	ErrNotPayable        = errors.New("function does not accept payments")
	ErrUnknownBytecode   = errors.New("unknown bytecode")
	ErrNotAContract      = errors.New("address is not a contract")
	ErrInvalidCallData   = errors.New("invalid call data")
	ErrTxNotFound        = errors.New("transaction not found")
)
