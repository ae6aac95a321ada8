package contract

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// WinnerIndex picks a player index from keccak256(difficulty, timestamp, players).
//
// This is NOT a secure random source. Every input is known to, and partly
// chosen by, whoever produces the block: a block producer can predict the
// winner and withhold or reorder blocks until the outcome suits them. It is
// kept because the lottery is a teaching contract; real value needs a VRF
// or an external randomness oracle.
func WinnerIndex(block BlockInfo, players [][]byte) int {
	if len(players) == 0 {
		return 0
	}

	difficulty := block.Difficulty
	if difficulty == nil {
		difficulty = big.NewInt(0)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(leftPad32(difficulty.Bytes()))
	h.Write(leftPad32(big.NewInt(block.Timestamp).Bytes()))
	for _, p := range players {
		h.Write(leftPad32(p))
	}

	n := new(big.Int).SetBytes(h.Sum(nil))
	n.Mod(n, big.NewInt(int64(len(players))))

	return int(n.Int64())
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b
	}

	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)

	return padded
}
