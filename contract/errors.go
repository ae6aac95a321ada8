package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientPayment = errors.New("insufficient payment: entry is below the minimum")
	ErrUnauthorized        = errors.New("unauthorized: only the manager can pick the winner")
	ErrNoPlayers           = errors.New("no players in the lottery")
	ErrUnknownFunction     = errors.New("invalid function")
	ErrInvalidArguments    = errors.New("invalid arguments")
	ErrTransactionFailed   = errors.New("transaction failed")
)

var knownErrors = []error{
	ErrInsufficientPayment,
	ErrUnauthorized,
	ErrNoPlayers,
	ErrUnknownFunction,
	ErrInvalidArguments,
}

// ParseError - maps the return message of a failed transaction back to the
// contract error that produced it. Unknown messages are wrapped in
// ErrTransactionFailed
func ParseError(message string) error {
	for _, known := range knownErrors {
		if strings.Contains(message, known.Error()) {
			return known
		}
	}

	return fmt.Errorf("%w: %s", ErrTransactionFailed, message)
}
