package chain

import (
	"encoding/binary"
	"math/big"

	"github.com/DrDelphi/EgldLotteryBot/contract"
	"golang.org/x/crypto/sha3"
)

// Block is one block of the simulated chain. Every transaction gets its own block
type Block struct {
	Nonce      uint64
	Timestamp  int64
	Difficulty *big.Int
	Hash       []byte
	PrevHash   []byte
	TxHash     string
}

func (b *Block) info() contract.BlockInfo {
	return contract.BlockInfo{
		Nonce:      b.Nonce,
		Timestamp:  b.Timestamp,
		Difficulty: new(big.Int).Set(b.Difficulty),
		PrevHash:   append([]byte(nil), b.PrevHash...),
	}
}

func newGenesisBlock(timestamp int64) *Block {
	genesis := &Block{
		Nonce:      0,
		Timestamp:  timestamp,
		Difficulty: big.NewInt(1),
		PrevHash:   make([]byte, 32),
	}
	genesis.Hash = blockHash(genesis)

	return genesis
}

func newBlock(prev *Block, timestamp int64, txHash string) *Block {
	if timestamp < prev.Timestamp {
		timestamp = prev.Timestamp
	}

	seed := keccak(prev.Hash)
	block := &Block{
		Nonce:      prev.Nonce + 1,
		Timestamp:  timestamp,
		Difficulty: new(big.Int).SetBytes(seed[:8]),
		PrevHash:   prev.Hash,
		TxHash:     txHash,
	}
	block.Hash = blockHash(block)

	return block
}

func blockHash(b *Block) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], b.Nonce)
	binary.BigEndian.PutUint64(buf[8:], uint64(b.Timestamp))

	return keccak(buf, b.Difficulty.Bytes(), b.PrevHash, []byte(b.TxHash))
}

func keccak(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}

	return h.Sum(nil)
}
