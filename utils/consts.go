package utils

import "errors"

const (
	DefaultConfigPath = "config.json"

	AutoNonce = 4000000000

	// Denomination is the number of decimals of one EGLD
	Denomination = 18

	DefaultGasPrice    = 1000000000
	DefaultGasLimit    = 6000000
	DeployGasLimit     = 1000000
	EnterGasLimit      = 1000000
	PickWinnerGasLimit = 1000000

	ProviderSimulator = "simulator"
	ProviderProxy     = "proxy"
)

var (
	ErrNegativeAmount  = errors.New("negative amount")
	ErrTooManyDecimals = errors.New("amount has more than 18 decimals")
	ErrHTTPStatus      = errors.New("unexpected http status")
)
