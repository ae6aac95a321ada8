package data

import "math/big"

// LotteryInfo is a snapshot of a deployed lottery contract
type LotteryInfo struct {
	Address      string
	Manager      string
	Players      []string
	Balance      *big.Int
	MinimumEntry *big.Int
}
